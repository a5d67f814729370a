package models

import (
	"time"
)

type HostelType string

const (
	HostelMens       HostelType = "MH"
	HostelLadies     HostelType = "FH"
	HostelDayScholar HostelType = "DS"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type User struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	UID               string     `gorm:"uniqueIndex;not null;size:128" json:"uid"`
	Email             string     `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Name              string     `gorm:"not null;size:200" json:"name"`
	RegNo             string     `gorm:"uniqueIndex;not null;size:50" json:"reg_no"`
	PhoneNo           string     `gorm:"uniqueIndex;not null;size:20" json:"phone_no"`
	HostelType        HostelType `gorm:"not null;size:5" json:"hostel_type"`
	HostelBlock       *string    `gorm:"size:20" json:"hostel_block"`
	RoomNo            *string    `gorm:"size:20" json:"room_no"`
	Branch            string     `gorm:"not null;size:100" json:"branch"`
	School            string     `gorm:"not null;size:100" json:"school"`
	Gender            Gender     `gorm:"not null;size:10" json:"gender"`
	TeamID            *uint      `gorm:"index" json:"team_id"`
	IsLeader          bool       `gorm:"default:false" json:"is_leader"`
	IsProfileComplete bool       `gorm:"default:false" json:"is_profile_complete"`
}

// OnCampus reports whether the user lives in a hostel and therefore
// must provide a block and room number.
func (u *User) OnCampus() bool {
	return u.HostelType == HostelMens || u.HostelType == HostelLadies
}

func ValidHostelType(t HostelType) bool {
	switch t {
	case HostelMens, HostelLadies, HostelDayScholar:
		return true
	}
	return false
}

func ValidGender(g Gender) bool {
	return g == GenderMale || g == GenderFemale
}
