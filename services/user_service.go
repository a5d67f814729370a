package services

import (
	"context"
	"errors"
	"strings"

	"hackreg/apperror"
	"hackreg/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewUserService(db *gorm.DB, logger *zap.Logger) *UserService {
	return &UserService{db: db, logger: logger}
}

type ProfileInput struct {
	Name        string            `json:"name"`
	RegNo       string            `json:"regNo"`
	PhoneNo     string            `json:"phoneNo"`
	HostelType  models.HostelType `json:"hostelType"`
	HostelBlock string            `json:"hostelBlock"`
	RoomNo      string            `json:"roomNo"`
	Branch      string            `json:"branch"`
	School      string            `json:"school"`
	Gender      models.Gender     `json:"gender"`
}

// Lookup returns the user's profile, or nil when none exists yet. A
// missing profile is the expected state right after first sign-in, not an
// error.
func (s *UserService) Lookup(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) CreateProfile(ctx context.Context, uid, email string, input ProfileInput) (*models.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.RegNo = strings.TrimSpace(input.RegNo)
	input.PhoneNo = strings.TrimSpace(input.PhoneNo)
	input.Branch = strings.TrimSpace(input.Branch)
	input.School = strings.TrimSpace(input.School)

	if input.Name == "" || input.RegNo == "" || input.PhoneNo == "" ||
		input.Branch == "" || input.School == "" || input.HostelType == "" || input.Gender == "" {
		return nil, apperror.Validation("please fill all the required fields")
	}
	if !models.ValidHostelType(input.HostelType) {
		return nil, apperror.Validation("invalid hostel type")
	}
	if !models.ValidGender(input.Gender) {
		return nil, apperror.Validation("invalid gender")
	}

	user := models.User{
		UID:               uid,
		Email:             email,
		Name:              input.Name,
		RegNo:             input.RegNo,
		PhoneNo:           input.PhoneNo,
		HostelType:        input.HostelType,
		Branch:            input.Branch,
		School:            input.School,
		Gender:            input.Gender,
		IsProfileComplete: true,
	}

	if user.OnCampus() {
		block := strings.TrimSpace(input.HostelBlock)
		room := strings.TrimSpace(input.RoomNo)
		if block == "" || room == "" {
			return nil, apperror.Validation("please fill hostel block and room number")
		}
		user.HostelBlock = &block
		user.RoomNo = &room
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("uid = ?", uid).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.Conflict(apperror.KindProfileExists, "profile already exists")
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		// Email, registration number and phone number are each unique; a
		// commit-time violation on any of them is a duplicate profile.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict(apperror.KindProfileExists, "a profile with these details already exists")
		}
		return nil, err
	}

	s.logger.Info("profile created", zap.String("uid", uid), zap.String("reg_no", user.RegNo))
	return &user, nil
}
