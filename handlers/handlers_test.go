package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"hackreg/middleware"
	"hackreg/models"
	"hackreg/services"
	"hackreg/storage"

	"github.com/glebarez/sqlite"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// stubVerifier treats the bearer token as the uid itself, with the email
// derived from it. Unknown tokens fail verification.
type stubVerifier struct{}

func (stubVerifier) Verify(tokenString string) (*middleware.Identity, error) {
	if tokenString == "" || tokenString == "invalid" {
		return nil, errors.New("invalid token")
	}
	return &middleware.Identity{UID: tokenString, Email: tokenString + "@test.com"}, nil
}

type stubBlobStore struct {
	stored map[string][]byte
}

func (s *stubBlobStore) Store(_ context.Context, key string, data []byte, _ string, _ map[string]string) (string, error) {
	if s.stored == nil {
		s.stored = map[string][]byte{}
	}
	s.stored[key] = data
	return "https://blobs.test/" + key, nil
}

func (s *stubBlobStore) Delete(_ context.Context, key string) error {
	delete(s.stored, key)
	return nil
}

func (s *stubBlobStore) KeyFor(rawURL string) string {
	return strings.TrimPrefix(rawURL, "https://blobs.test/")
}

var _ storage.BlobStore = (*stubBlobStore)(nil)

// fixedPicker keeps leader succession deterministic in handler tests.
type fixedPicker struct{}

func (fixedPicker) Pick(_ int) int { return 0 }

type testApp struct {
	router chi.Router
	db     *gorm.DB
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Team{}, &models.User{}))

	log := zap.NewNop()
	userHandler := NewUserHandler(services.NewUserService(db, log), log)
	teamHandler := NewTeamHandler(services.NewTeamService(db, fixedPicker{}, log), log)
	submissionHandler := NewSubmissionHandler(services.NewSubmissionService(db, &stubBlobStore{}, log), 5<<20, log)
	statsHandler := NewStatsHandler(services.NewStatsService(db, log), log)

	router := chi.NewRouter()
	router.Get("/statistics", statsHandler.Statistics)
	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(stubVerifier{}))
		r.Get("/login", userHandler.Login)
		r.Post("/create-profile", userHandler.CreateProfile)
		r.Post("/create-team", teamHandler.CreateTeam)
		r.Post("/join-team", teamHandler.JoinTeam)
		r.Get("/team-details", teamHandler.TeamDetails)
		r.Delete("/leave-team", teamHandler.LeaveTeam)
		r.Put("/task-submit", submissionHandler.TaskSubmit)
	})

	return &testApp{router: router, db: db}
}

var phoneSeq int64

func (a *testApp) seedUser(t *testing.T, uid string) {
	t.Helper()
	user := models.User{
		UID:               uid,
		Email:             uid + "@test.com",
		Name:              "User " + uid,
		RegNo:             "REG" + uid,
		PhoneNo:           fmt.Sprintf("98765%05d", atomic.AddInt64(&phoneSeq, 1)),
		HostelType:        models.HostelDayScholar,
		Branch:            "CSE",
		School:            "SCOPE",
		Gender:            models.GenderMale,
		IsProfileComplete: true,
	}
	require.NoError(t, a.db.Create(&user).Error)
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
