package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizleague/internal/domain/repository"
	"quizleague/internal/platform/logger"
)

type fakeLeaderboardRepo struct {
	ranked []repository.RankedUser
	err    error
}

func (f *fakeLeaderboardRepo) SetUserScores(context.Context, string, int, int) error { return nil }

func (f *fakeLeaderboardRepo) TopByPoints(context.Context, int64) ([]repository.RankedUser, error) {
	return f.ranked, f.err
}

func (f *fakeLeaderboardRepo) TopByStreak(context.Context, int64) ([]repository.RankedUser, error) {
	return f.ranked, f.err
}

func (f *fakeLeaderboardRepo) UserRankByPoints(context.Context, string) (int64, error) {
	return 0, f.err
}

func newProfileServiceForTest(t *testing.T, boards *fakeLeaderboardRepo) (*ProfileService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewProfileService(repository.NewPgProfileRepository(db), boards, logger.New("test"))
	return svc, mock
}

func TestProfileService_SearchUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyTermShortCircuits", func(t *testing.T) {
		svc, mock := newProfileServiceForTest(t, &fakeLeaderboardRepo{})

		profiles := svc.SearchUsers(ctx, "", 20)
		assert.Empty(t, profiles)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("StoreFailureDegradesToEmpty", func(t *testing.T) {
		svc, mock := newProfileServiceForTest(t, &fakeLeaderboardRepo{})

		mock.ExpectQuery("SELECT id, username, display_name").
			WithArgs("%ali%", 20).
			WillReturnError(errors.New("connection reset"))

		profiles := svc.SearchUsers(ctx, "ali", 20)
		assert.Empty(t, profiles)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MatchesBothColumns", func(t *testing.T) {
		svc, mock := newProfileServiceForTest(t, &fakeLeaderboardRepo{})

		mock.ExpectQuery("SELECT id, username, display_name").
			WithArgs("%ali%", 20).
			WillReturnRows(sqlmock.NewRows(profileColumnsForTest()).
				AddRow("u1", "alice", "Alice", nil, 1, 10, 1, 1, 0, 2, time.Now(), time.Now()).
				AddRow("u2", "bob", "Mr Aligator", nil, 1, 5, 0, 0, 0, 1, time.Now(), time.Now()))

		profiles := svc.SearchUsers(ctx, "ali", 20)
		assert.Len(t, profiles, 2)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProfileService_GetGlobalLeaderboard(t *testing.T) {
	ctx := context.Background()

	t.Run("HydratesFromRedisBoard", func(t *testing.T) {
		boards := &fakeLeaderboardRepo{ranked: []repository.RankedUser{
			{UserID: "u1", Value: 50, Rank: 1},
			{UserID: "gone", Value: 40, Rank: 2},
			{UserID: "u2", Value: 30, Rank: 3},
		}}
		svc, mock := newProfileServiceForTest(t, boards)

		mock.ExpectQuery("SELECT id, username, display_name").
			WithArgs("u1").
			WillReturnRows(sqlmock.NewRows(profileColumnsForTest()).
				AddRow("u1", "alice", "Alice", nil, 1, 50, 3, 3, 1, 10, time.Now(), time.Now()))
		// deleted profile still on the board; its entry is skipped
		mock.ExpectQuery("SELECT id, username, display_name").
			WithArgs("gone").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("SELECT id, username, display_name").
			WithArgs("u2").
			WillReturnRows(sqlmock.NewRows(profileColumnsForTest()).
				AddRow("u2", "bob", "Bob", nil, 1, 30, 1, 2, 0, 6, time.Now(), time.Now()))

		entries, err := svc.GetGlobalLeaderboard(ctx, 50)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, 1, entries[0].Rank)
		assert.Equal(t, "alice", entries[0].Username)
		assert.Equal(t, 3, entries[1].Rank)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("FallsBackToStoreWhenRedisDown", func(t *testing.T) {
		boards := &fakeLeaderboardRepo{err: errors.New("redis: connection refused")}
		svc, mock := newProfileServiceForTest(t, boards)

		mock.ExpectQuery("SELECT id, username, display_name").
			WithArgs(50).
			WillReturnRows(sqlmock.NewRows(profileColumnsForTest()).
				AddRow("u1", "alice", "Alice", nil, 1, 50, 3, 3, 1, 10, time.Now(), time.Now()))

		entries, err := svc.GetGlobalLeaderboard(ctx, 50)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 1, entries[0].Rank)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
