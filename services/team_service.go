package services

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"strings"

	"hackreg/apperror"
	"hackreg/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxCodeAttempts bounds the team-code generation loop. Exhaustion is an
// internal error, not a user error.
const maxCodeAttempts = 25

// TeamService owns the team membership lifecycle. Every mutating
// operation runs inside one transaction and takes row locks before any
// count-based decision, so concurrent joins and leaves on the same team
// serialize on the team row.
type TeamService struct {
	db     *gorm.DB
	picker Picker
	logger *zap.Logger
}

func NewTeamService(db *gorm.DB, picker Picker, logger *zap.Logger) *TeamService {
	return &TeamService{db: db, picker: picker, logger: logger}
}

type CreatedTeam struct {
	TeamID   uint   `json:"teamId"`
	TeamName string `json:"teamName"`
	TeamCode string `json:"teamCode"`
}

type JoinedTeam struct {
	TeamID      uint   `json:"teamId"`
	TeamName    string `json:"teamName"`
	MemberCount int    `json:"memberCount"`
}

type Member struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	RegNo    string `json:"regNo"`
	Branch   string `json:"branch"`
	IsLeader bool   `json:"isLeader"`
}

type LeaveResult struct {
	Disbanded bool
	NewLeader *Member
}

type TeamDetails struct {
	InTeam         bool         `json:"inTeam"`
	Team           *models.Team `json:"team,omitempty"`
	Members        []Member     `json:"members"`
	MemberCount    int          `json:"memberCount"`
	SpotsRemaining int          `json:"spotsRemaining"`
	IsLeader       bool         `json:"isLeader"`
}

// lockForUpdate adds a FOR UPDATE clause on dialects that support row
// locks. sqlite (tests) has none, but its write transactions are fully
// serialized so the guarantee holds there regardless.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (s *TeamService) lockUser(tx *gorm.DB, uid string) (*models.User, error) {
	var user models.User
	if err := lockForUpdate(tx).Where("uid = ?", uid).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(apperror.KindUserNotFound, "user not found, please complete your profile")
		}
		return nil, err
	}
	return &user, nil
}

func (s *TeamService) CreateTeam(ctx context.Context, uid, teamName string) (*CreatedTeam, error) {
	teamName = strings.TrimSpace(teamName)
	if teamName == "" {
		return nil, apperror.Validation("team name is required")
	}

	var created *CreatedTeam
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.lockUser(tx, uid)
		if err != nil {
			return err
		}
		if user.TeamID != nil {
			return apperror.Conflict(apperror.KindAlreadyOnTeam, "user is already part of a team")
		}

		var count int64
		if err := tx.Model(&models.Team{}).Where("team_name = ?", teamName).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.Conflict(apperror.KindDuplicateName, "team name already exists")
		}

		code, err := s.generateCode(tx)
		if err != nil {
			return err
		}

		team := models.Team{TeamName: teamName, TeamCode: code}
		if err := tx.Create(&team).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"team_id": team.ID, "is_leader": true}
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return err
		}

		created = &CreatedTeam{TeamID: team.ID, TeamName: team.TeamName, TeamCode: team.TeamCode}
		return nil
	})
	if err != nil {
		// A concurrent creator can win the name at commit time; the unique
		// constraint surfaces that race as a duplicate-name conflict.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict(apperror.KindDuplicateName, "team name already exists")
		}
		return nil, err
	}

	s.logger.Info("team created",
		zap.Uint("team_id", created.TeamID),
		zap.String("team_name", created.TeamName),
		zap.String("uid", uid))
	return created, nil
}

// generateCode draws 6-digit codes until one is free, bounded by
// maxCodeAttempts.
func (s *TeamService) generateCode(tx *gorm.DB) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := strconv.Itoa(100000 + rand.Intn(900000))
		var count int64
		if err := tx.Model(&models.Team{}).Where("team_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", apperror.Internal(apperror.KindCodeExhausted, "could not generate a unique team code")
}

func (s *TeamService) JoinTeam(ctx context.Context, uid, teamCode string) (*JoinedTeam, error) {
	teamCode = strings.TrimSpace(teamCode)
	if teamCode == "" {
		return nil, apperror.Validation("team code is required")
	}

	var joined *JoinedTeam
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.lockUser(tx, uid)
		if err != nil {
			return err
		}
		if user.TeamID != nil {
			return apperror.Conflict(apperror.KindAlreadyOnTeam, "user is already part of a team")
		}

		var team models.Team
		if err := lockForUpdate(tx).Where("team_code = ?", teamCode).First(&team).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound(apperror.KindInvalidCode, "invalid team code")
			}
			return err
		}

		// Re-validated under the team row lock: two concurrent joins cannot
		// both observe a free spot.
		var count int64
		if err := tx.Model(&models.User{}).Where("team_id = ?", team.ID).Count(&count).Error; err != nil {
			return err
		}
		if count >= models.TeamCapacity {
			return apperror.Conflict(apperror.KindTeamFull, "team is already full")
		}

		updates := map[string]interface{}{"team_id": team.ID, "is_leader": false}
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return err
		}

		joined = &JoinedTeam{TeamID: team.ID, TeamName: team.TeamName, MemberCount: int(count) + 1}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user joined team",
		zap.Uint("team_id", joined.TeamID),
		zap.String("uid", uid),
		zap.Int("member_count", joined.MemberCount))
	return joined, nil
}

func (s *TeamService) LeaveTeam(ctx context.Context, uid string) (*LeaveResult, error) {
	var result *LeaveResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.lockUser(tx, uid)
		if err != nil {
			return err
		}
		if user.TeamID == nil {
			return apperror.NotFound(apperror.KindNotOnTeam, "user is not part of a team")
		}

		var team models.Team
		if err := lockForUpdate(tx).First(&team, *user.TeamID).Error; err != nil {
			return err
		}

		clearCaller := func() error {
			updates := map[string]interface{}{"team_id": nil, "is_leader": false}
			return tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error
		}

		if !user.IsLeader {
			if err := clearCaller(); err != nil {
				return err
			}
			result = &LeaveResult{}
			return nil
		}

		var others []models.User
		if err := tx.Where("team_id = ? AND id <> ?", team.ID, user.ID).Order("id").Find(&others).Error; err != nil {
			return err
		}

		if len(others) == 0 {
			// Sole member: the team goes with them. Clearing the caller first
			// keeps the FK's on-delete backstop out of the picture.
			if err := clearCaller(); err != nil {
				return err
			}
			if err := tx.Delete(&team).Error; err != nil {
				return err
			}
			result = &LeaveResult{Disbanded: true}
			return nil
		}

		successor := others[s.picker.Pick(len(others))]
		if err := tx.Model(&models.User{}).
			Where("team_id = ? AND id <> ?", team.ID, successor.ID).
			Update("is_leader", false).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", successor.ID).Update("is_leader", true).Error; err != nil {
			return err
		}
		if err := clearCaller(); err != nil {
			return err
		}

		result = &LeaveResult{NewLeader: &Member{
			Name:     successor.Name,
			Email:    successor.Email,
			RegNo:    successor.RegNo,
			Branch:   successor.Branch,
			IsLeader: true,
		}}
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch {
	case result.Disbanded:
		s.logger.Info("team disbanded", zap.String("uid", uid))
	case result.NewLeader != nil:
		s.logger.Info("leadership transferred", zap.String("uid", uid), zap.String("new_leader", result.NewLeader.Email))
	default:
		s.logger.Info("user left team", zap.String("uid", uid))
	}
	return result, nil
}

// Details is read-only; it runs in a single transaction purely for a
// consistent snapshot of the team and its member list. A user without a
// team is not an error.
func (s *TeamService) Details(ctx context.Context, uid string) (*TeamDetails, error) {
	var details *TeamDetails
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("uid = ?", uid).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound(apperror.KindUserNotFound, "user not found, please complete your profile")
			}
			return err
		}

		if user.TeamID == nil {
			details = &TeamDetails{InTeam: false, Members: []Member{}}
			return nil
		}

		var team models.Team
		if err := tx.First(&team, *user.TeamID).Error; err != nil {
			return err
		}

		var rows []models.User
		if err := tx.Where("team_id = ?", team.ID).Order("id").Find(&rows).Error; err != nil {
			return err
		}

		members := make([]Member, 0, len(rows))
		for _, row := range rows {
			members = append(members, Member{
				Name:     row.Name,
				Email:    row.Email,
				RegNo:    row.RegNo,
				Branch:   row.Branch,
				IsLeader: row.IsLeader,
			})
		}

		details = &TeamDetails{
			InTeam:         true,
			Team:           &team,
			Members:        members,
			MemberCount:    len(members),
			SpotsRemaining: models.TeamCapacity - len(members),
			IsLeader:       user.IsLeader,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}
