package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizleague/internal/common"
	"quizleague/internal/domain/repository"
	"quizleague/internal/platform/config"
	"quizleague/internal/platform/logger"
)

func newLeagueServiceForTest(t *testing.T) (*LeagueService, sqlmock.Sqlmock) {
	t.Helper()
	config.Load()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewLeagueService(
		repository.NewPgLeagueRepository(db),
		repository.NewPgActivityRepository(db),
		db,
		logger.New("test"),
	)
	return svc, mock
}

func leagueRowsWith(id, name string, maxMembers int, isPrivate bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "slug", "description", "creator_id", "icon", "is_private",
		"invite_code", "max_members", "is_active", "created_at", "updated_at"}).
		AddRow(id, name, "the-league", nil, "creator-1", "🏆", isPrivate, "ABCD1234", maxMembers, true, time.Now(), time.Now())
}

func TestLeagueService_CreateLeague(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, mock := newLeagueServiceForTest(t)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO leagues").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO league_memberships").
			WillReturnRows(sqlmock.NewRows([]string{"joined_at"}).AddRow(time.Now()))
		mock.ExpectCommit()

		league, err := svc.CreateLeague(ctx, "creator-1", CreateLeagueRequest{Name: "Trivia Titans"})
		require.NoError(t, err)
		assert.Equal(t, "trivia-titans", league.Slug)
		assert.Len(t, league.InviteCode, config.AppConfig.LeagueInviteCodeLen)
		assert.Equal(t, config.AppConfig.LeagueDefaultMaxSize, league.MaxMembers)
		assert.True(t, league.IsActive)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NameTooShort", func(t *testing.T) {
		svc, _ := newLeagueServiceForTest(t)

		_, err := svc.CreateLeague(ctx, "creator-1", CreateLeagueRequest{Name: "ab"})
		assert.ErrorIs(t, err, common.ErrValidation)
	})
}

func TestLeagueService_JoinLeague(t *testing.T) {
	ctx := context.Background()

	t.Run("AtCapacity", func(t *testing.T) {
		svc, mock := newLeagueServiceForTest(t)

		mock.ExpectQuery("SELECT id, name, slug").
			WithArgs("league-1").
			WillReturnRows(leagueRowsWith("league-1", "Full House", 2, false))
		mock.ExpectQuery("SELECT id, league_id, user_id, joined_at").
			WithArgs("league-1", "user-1").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM league_memberships`).
			WithArgs("league-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		_, err := svc.JoinLeague(ctx, "user-1", "league-1")
		assert.ErrorIs(t, err, common.ErrLeagueFull)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AlreadyActiveMember", func(t *testing.T) {
		svc, mock := newLeagueServiceForTest(t)

		mock.ExpectQuery("SELECT id, name, slug").
			WithArgs("league-1").
			WillReturnRows(leagueRowsWith("league-1", "Full House", 10, false))
		mock.ExpectQuery("SELECT id, league_id, user_id, joined_at").
			WithArgs("league-1", "user-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "league_id", "user_id", "joined_at", "is_active"}).
				AddRow("m1", "league-1", "user-1", time.Now(), true))

		_, err := svc.JoinLeague(ctx, "user-1", "league-1")
		assert.ErrorIs(t, err, common.ErrConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RejoinReactivatesMembership", func(t *testing.T) {
		svc, mock := newLeagueServiceForTest(t)

		mock.ExpectQuery("SELECT id, name, slug").
			WithArgs("league-1").
			WillReturnRows(leagueRowsWith("league-1", "Comeback Club", 10, false))
		mock.ExpectQuery("SELECT id, league_id, user_id, joined_at").
			WithArgs("league-1", "user-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "league_id", "user_id", "joined_at", "is_active"}).
				AddRow("m1", "league-1", "user-1", time.Now(), false))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM league_memberships`).
			WithArgs("league-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.ExpectExec("UPDATE league_memberships SET is_active = TRUE").
			WithArgs("m1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO user_activities").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		membership, err := svc.JoinLeague(ctx, "user-1", "league-1")
		require.NoError(t, err)
		assert.Equal(t, "m1", membership.ID)
		assert.True(t, membership.IsActive)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ByInviteCode", func(t *testing.T) {
		svc, mock := newLeagueServiceForTest(t)

		mock.ExpectQuery("SELECT id, name, slug").
			WithArgs("ABCD1234").
			WillReturnRows(leagueRowsWith("league-1", "Secret Circle", 10, true))
		mock.ExpectQuery("SELECT id, name, slug").
			WithArgs("league-1").
			WillReturnRows(leagueRowsWith("league-1", "Secret Circle", 10, true))
		mock.ExpectQuery("SELECT id, league_id, user_id, joined_at").
			WithArgs("league-1", "user-1").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM league_memberships`).
			WithArgs("league-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery("INSERT INTO league_memberships").
			WillReturnRows(sqlmock.NewRows([]string{"joined_at"}).AddRow(time.Now()))
		mock.ExpectQuery("INSERT INTO user_activities").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		// lowercase input is normalized before the lookup
		membership, err := svc.JoinLeagueByCode(ctx, "user-1", "abcd1234")
		require.NoError(t, err)
		assert.Equal(t, "league-1", membership.LeagueID)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
