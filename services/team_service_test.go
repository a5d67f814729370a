package services

import (
	"context"
	"regexp"
	"testing"

	"hackreg/apperror"
	"hackreg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

func assertKind(t *testing.T, err error, kind string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, kind, appErr.Kind)
}

func TestCreateTeam(t *testing.T) {
	svc, db := newTestTeamService(t)
	ctx := context.Background()
	seedUser(t, db, "alice")

	created, err := svc.CreateTeam(ctx, "alice", "Rocket")
	require.NoError(t, err)
	assert.Equal(t, "Rocket", created.TeamName)
	assert.Regexp(t, codePattern, created.TeamCode)

	var alice models.User
	require.NoError(t, db.Where("uid = ?", "alice").First(&alice).Error)
	require.NotNil(t, alice.TeamID)
	assert.Equal(t, created.TeamID, *alice.TeamID)
	assert.True(t, alice.IsLeader)
}

func TestCreateTeamValidation(t *testing.T) {
	svc, db := newTestTeamService(t)
	seedUser(t, db, "alice")

	_, err := svc.CreateTeam(context.Background(), "alice", "   ")
	require.ErrorIs(t, err, apperror.ErrValidation)
}

func TestCreateTeamUnknownUser(t *testing.T) {
	svc, _ := newTestTeamService(t)

	_, err := svc.CreateTeam(context.Background(), "ghost", "Rocket")
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assertKind(t, err, apperror.KindUserNotFound)
}

func TestCreateTeamAlreadyOnTeam(t *testing.T) {
	svc, db := newTestTeamService(t)
	ctx := context.Background()
	seedUser(t, db, "alice")

	_, err := svc.CreateTeam(ctx, "alice", "Rocket")
	require.NoError(t, err)

	_, err = svc.CreateTeam(ctx, "alice", "Second")
	require.ErrorIs(t, err, apperror.ErrConflict)
	assertKind(t, err, apperror.KindAlreadyOnTeam)
}

func TestCreateTeamDuplicateName(t *testing.T) {
	svc, db := newTestTeamService(t)
	ctx := context.Background()
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")

	_, err := svc.CreateTeam(ctx, "alice", "Rocket")
	require.NoError(t, err)

	_, err = svc.CreateTeam(ctx, "bob", "Rocket")
	require.ErrorIs(t, err, apperror.ErrConflict)
	assertKind(t, err, apperror.KindDuplicateName)
}

func TestJoinTeamWithFreshCode(t *testing.T) {
	svc, db := newTestTeamService(t)
	ctx := context.Background()
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")

	created, err := svc.CreateTeam(ctx, "alice", "Rocket")
	require.NoError(t, err)

	// The freshly generated code is immediately joinable.
	joined, err := svc.JoinTeam(ctx, "bob", created.TeamCode)
	require.NoError(t, err)
	assert.Equal(t, created.TeamID, joined.TeamID)
	assert.Equal(t, "Rocket", joined.TeamName)
	assert.Equal(t, 2, joined.MemberCount)

	var bob models.User
	require.NoError(t, db.Where("uid = ?", "bob").First(&bob).Error)
	require.NotNil(t, bob.TeamID)
	assert.False(t, bob.IsLeader)
}

func TestJoinTeamInvalidCode(t *testing.T) {
	svc, db := newTestTeamService(t)
	ctx := context.Background()
	seedUser(t, db, "bob")

	_, err := svc.JoinTeam(ctx, "bob", "000000")
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assertKind(t, err, apperror.KindInvalidCode)

	// No row mutation on failure.
	var bob models.User
	require.NoError(t, db.Where("uid = ?", "bob").First(&bob).Error)
	assert.Nil(t, bob.TeamID)
}

func TestJoinTeamAlreadyOnTeam(t *testing.T) {
	svc, db := newTestTeamService(t)
	ctx := context.Background()
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")

	first, err := svc.CreateTeam(ctx, "alice", "Rocket")
	require.NoError(t, err)
	_, err = svc.CreateTeam(ctx, "bob", "Comet")
	require.NoError(t, err)

	_, err = svc.JoinTeam(ctx, "bob", first.TeamCode)
	require.ErrorIs(t, err, apperror.ErrConflict)
	assertKind(t, err, apperror.KindAlreadyOnTeam)
}

func TestJoinTeamFull(t *testing.T) {
	svc, db := newTestTeamService(t)
	ctx := context.Background()
	seedUser(t, db, "leader")

	created, err := svc.CreateTeam(ctx, "leader", "Rocket")
	require.NoError(t, err)

	joiners := []string{"u1", "u2", "u3", "u4"}
	for i, uid := range joiners {
		seedUser(t, db, uid)
		joined, err := svc.JoinTeam(ctx, uid, created.TeamCode)
		require.NoError(t, err)
		assert.Equal(t, i+2, joined.MemberCount)
	}

	seedUser(t, db, "late")
	_, err = svc.JoinTeam(ctx, "late", created.TeamCode)
	require.ErrorIs(t, err, apperror.ErrConflict)
	assertKind(t, err, apperror.KindTeamFull)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("team_id = ?", created.TeamID).Count(&count).Error)
	assert.EqualValues(t, models.TeamCapacity, count)
}

func TestLeaveTeamNonLeader(t *testing.T) {
	svc, db := newTestTeamService(t)
	ctx := context.Background()
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")

	created, err := svc.CreateTeam(ctx, "alice", "Rocket")
	require.NoError(t, err)
	_, err = svc.JoinTeam(ctx, "bob", created.TeamCode)
	require.NoError(t, err)

	result, err := svc.LeaveTeam(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, result.Disbanded)
	assert.Nil(t, result.NewLeader)

	var alice models.User
	require.NoError(t, db.Where("uid = ?", "alice").First(&alice).Error)
	assert.True(t, alice.IsLeader)
	require.NotNil(t, alice.TeamID)

	var team models.Team
	require.NoError(t, db.First(&team, created.TeamID).Error)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("team_id = ?", created.TeamID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestLeaveTeamSoleLeaderDisbands(t *testing.T) {
	svc, db := newTestTeamService(t)
	ctx := context.Background()
	seedUser(t, db, "alice")

	created, err := svc.CreateTeam(ctx, "alice", "Rocket")
	require.NoError(t, err)

	result, err := svc.LeaveTeam(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, result.Disbanded)

	var teamCount int64
	require.NoError(t, db.Model(&models.Team{}).Where("id = ?", created.TeamID).Count(&teamCount).Error)
	assert.EqualValues(t, 0, teamCount)

	var alice models.User
	require.NoError(t, db.Where("uid = ?", "alice").First(&alice).Error)
	assert.Nil(t, alice.TeamID)
	assert.False(t, alice.IsLeader)
}

func TestLeaveTeamLeaderSuccession(t *testing.T) {
	svc, db := newTestTeamService(t)
	ctx := context.Background()
	seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	seedUser(t, db, "carol")

	created, err := svc.CreateTeam(ctx, "alice", "Rocket")
	require.NoError(t, err)
	_, err = svc.JoinTeam(ctx, "bob", created.TeamCode)
	require.NoError(t, err)
	_, err = svc.JoinTeam(ctx, "carol", created.TeamCode)
	require.NoError(t, err)

	// fixedPicker{0} picks the lowest remaining id, which is bob.
	result, err := svc.LeaveTeam(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, result.Disbanded)
	require.NotNil(t, result.NewLeader)
	assert.Equal(t, bob.Email, result.NewLeader.Email)

	var leaders []models.User
	require.NoError(t, db.Where("team_id = ? AND is_leader = ?", created.TeamID, true).Find(&leaders).Error)
	require.Len(t, leaders, 1)
	assert.Equal(t, "bob", leaders[0].UID)

	var alice models.User
	require.NoError(t, db.Where("uid = ?", "alice").First(&alice).Error)
	assert.Nil(t, alice.TeamID)
	assert.False(t, alice.IsLeader)

	var team models.Team
	require.NoError(t, db.First(&team, created.TeamID).Error)
}

func TestLeaveTeamNotOnTeam(t *testing.T) {
	svc, db := newTestTeamService(t)
	seedUser(t, db, "alice")

	_, err := svc.LeaveTeam(context.Background(), "alice")
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assertKind(t, err, apperror.KindNotOnTeam)
}

func TestDetailsScenario(t *testing.T) {
	svc, db := newTestTeamService(t)
	ctx := context.Background()
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")

	created, err := svc.CreateTeam(ctx, "alice", "Rocket")
	require.NoError(t, err)
	_, err = svc.JoinTeam(ctx, "bob", created.TeamCode)
	require.NoError(t, err)

	details, err := svc.Details(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, details.InTeam)
	assert.True(t, details.IsLeader)
	assert.Equal(t, 2, details.MemberCount)
	assert.Equal(t, models.TeamCapacity-2, details.SpotsRemaining)
	require.Len(t, details.Members, 2)
	assert.True(t, details.Members[0].IsLeader)
	assert.False(t, details.Members[1].IsLeader)

	asBob, err := svc.Details(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, asBob.IsLeader)
}

func TestDetailsNoTeam(t *testing.T) {
	svc, db := newTestTeamService(t)
	seedUser(t, db, "alice")

	details, err := svc.Details(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, details.InTeam)
	assert.Nil(t, details.Team)
	assert.Empty(t, details.Members)
}

func TestDetailsIdempotent(t *testing.T) {
	svc, db := newTestTeamService(t)
	ctx := context.Background()
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")

	created, err := svc.CreateTeam(ctx, "alice", "Rocket")
	require.NoError(t, err)
	_, err = svc.JoinTeam(ctx, "bob", created.TeamCode)
	require.NoError(t, err)

	first, err := svc.Details(ctx, "alice")
	require.NoError(t, err)
	second, err := svc.Details(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, first.Members, second.Members)
	assert.Equal(t, first.MemberCount, second.MemberCount)
}
