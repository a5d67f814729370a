package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"hackreg/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// A pooled :memory: DSN would open one database per connection.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Team{}, &models.User{}))
	return db
}

var phoneSeq int64

func seedUser(t *testing.T, db *gorm.DB, uid string) *models.User {
	t.Helper()

	user := models.User{
		UID:               uid,
		Email:             fmt.Sprintf("%s@test.com", uid),
		Name:              "User " + uid,
		RegNo:             "REG" + uid,
		PhoneNo:           fmt.Sprintf("98765%05d", atomic.AddInt64(&phoneSeq, 1)),
		HostelType:        models.HostelDayScholar,
		Branch:            "CSE",
		School:            "SCOPE",
		Gender:            models.GenderMale,
		IsProfileComplete: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// fixedPicker always selects the same index, clamped to the candidate
// count, so succession tests are deterministic.
type fixedPicker struct {
	index int
}

func (p fixedPicker) Pick(n int) int {
	if p.index >= n {
		return n - 1
	}
	return p.index
}

func newTestTeamService(t *testing.T) (*TeamService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewTeamService(db, fixedPicker{index: 0}, zap.NewNop()), db
}
