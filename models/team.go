package models

import (
	"time"
)

// TeamCapacity is the maximum number of members a team can hold.
const TeamCapacity = 5

type Team struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
	TeamName              string    `gorm:"uniqueIndex;not null;size:100" json:"team_name"`
	TeamCode              string    `gorm:"uniqueIndex;not null;size:6" json:"team_code"`
	HackQualified         bool      `gorm:"default:false" json:"hack_qualified"`
	InternalQualification int       `gorm:"default:0" json:"internal_qualification"`
	DocumentLink          *string   `gorm:"size:512" json:"document_link"`
	Members               []User    `gorm:"foreignKey:TeamID;constraint:OnDelete:SET NULL" json:"members,omitempty"`
}
