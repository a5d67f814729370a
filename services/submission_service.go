package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"hackreg/apperror"
	"hackreg/models"
	"hackreg/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const pdfContentType = "application/pdf"

// SubmissionService binds one PDF artifact to a team. The upload itself
// happens outside any membership transaction; only a short authorization
// read and the final link update touch the database.
type SubmissionService struct {
	db     *gorm.DB
	store  storage.BlobStore
	logger *zap.Logger
}

func NewSubmissionService(db *gorm.DB, store storage.BlobStore, logger *zap.Logger) *SubmissionService {
	return &SubmissionService{db: db, store: store, logger: logger}
}

type Submission struct {
	DocumentLink string `json:"documentLink"`
	FileName     string `json:"fileName"`
	TeamName     string `json:"teamName"`
}

func (s *SubmissionService) Submit(ctx context.Context, uid string, data []byte, contentType string) (*Submission, error) {
	if contentType != pdfContentType {
		return nil, apperror.New(apperror.ErrValidation, apperror.KindBadDocument, "only PDF submissions are accepted")
	}
	if len(data) == 0 {
		return nil, apperror.New(apperror.ErrValidation, apperror.KindBadDocument, "submitted document is empty")
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(apperror.KindUserNotFound, "user not found, please complete your profile")
		}
		return nil, err
	}
	if user.TeamID == nil {
		return nil, apperror.NotFound(apperror.KindNotOnTeam, "user is not part of a team")
	}
	if !user.IsLeader {
		return nil, apperror.Forbidden(apperror.KindNotLeader, "only the team leader can submit the document")
	}

	var team models.Team
	if err := s.db.WithContext(ctx).First(&team, *user.TeamID).Error; err != nil {
		return nil, err
	}

	// Replace-by-overwrite: drop the previous object first, best-effort.
	if team.DocumentLink != nil {
		if key := s.store.KeyFor(*team.DocumentLink); key != "" {
			if err := s.store.Delete(ctx, key); err != nil {
				s.logger.Warn("failed to delete previous submission",
					zap.String("key", key), zap.Error(err))
			}
		}
	}

	key := fmt.Sprintf("submissions/%s_%d.pdf", sanitizeTeamName(team.TeamName), time.Now().Unix())
	link, err := s.store.Store(ctx, key, data, pdfContentType, map[string]string{
		"team":        team.TeamName,
		"uploaded-by": user.UID,
	})
	if err != nil {
		s.logger.Error("failed to store submission", zap.String("key", key), zap.Error(err))
		return nil, apperror.Internal(apperror.KindInternal, "failed to store the document")
	}

	if err := s.db.WithContext(ctx).Model(&team).Update("document_link", link).Error; err != nil {
		return nil, err
	}

	s.logger.Info("document submitted",
		zap.Uint("team_id", team.ID),
		zap.String("key", key))
	return &Submission{DocumentLink: link, FileName: path.Base(key), TeamName: team.TeamName}, nil
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func sanitizeTeamName(name string) string {
	clean := unsafeNameChars.ReplaceAllString(name, "-")
	clean = strings.Trim(clean, "-")
	if clean == "" {
		return "team"
	}
	return clean
}
