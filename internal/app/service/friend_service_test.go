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
	"quizleague/internal/domain/model"
	"quizleague/internal/domain/repository"
	"quizleague/internal/platform/logger"
)

func newFriendServiceForTest(t *testing.T) (*FriendService, sqlmock.Sqlmock, *stubEventBus) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	events := &stubEventBus{}
	svc := NewFriendService(
		repository.NewPgFriendshipRepository(db),
		repository.NewPgProfileRepository(db),
		repository.NewPgNotificationRepository(db),
		events,
		logger.New("test"),
	)
	return svc, mock, events
}

func friendshipRowsWith(id, requesterID, addresseeID string, status model.FriendshipStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "requester_id", "addressee_id", "status", "created_at", "updated_at"}).
		AddRow(id, requesterID, addresseeID, status, time.Now(), time.Now())
}

func expectProfileLookup(mock sqlmock.Sqlmock, userID string) {
	mock.ExpectQuery("SELECT id, username, display_name").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(profileColumnsForTest()).
			AddRow(userID, "bob", "Bob", nil, 1, 0, 0, 0, 0, 0, time.Now(), time.Now()))
}

func TestFriendService_SendRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("ToSelf", func(t *testing.T) {
		svc, mock, _ := newFriendServiceForTest(t)

		_, err := svc.SendRequest(ctx, "user-a", "user-a")
		assert.ErrorIs(t, err, common.ErrSelfRequest)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AddresseeNotFound", func(t *testing.T) {
		svc, mock, _ := newFriendServiceForTest(t)

		mock.ExpectQuery("SELECT id, username, display_name").
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		_, err := svc.SendRequest(ctx, "user-a", "ghost")
		assert.ErrorIs(t, err, common.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success", func(t *testing.T) {
		svc, mock, events := newFriendServiceForTest(t)

		expectProfileLookup(mock, "user-b")
		mock.ExpectQuery("SELECT id, requester_id, addressee_id").
			WithArgs("user-a", "user-b").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("INSERT INTO friendships").
			WithArgs(sqlmock.AnyArg(), "user-a", "user-b", model.FriendshipPending).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))
		mock.ExpectQuery("INSERT INTO notifications").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		friendship, err := svc.SendRequest(ctx, "user-a", "user-b")
		require.NoError(t, err)
		assert.Equal(t, model.FriendshipPending, friendship.Status)
		require.Len(t, events.published, 1)
		assert.Equal(t, "friend_request", events.published[0].Type)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DuplicateSameDirection", func(t *testing.T) {
		svc, mock, _ := newFriendServiceForTest(t)

		expectProfileLookup(mock, "user-b")
		mock.ExpectQuery("SELECT id, requester_id, addressee_id").
			WithArgs("user-a", "user-b").
			WillReturnRows(friendshipRowsWith("f1", "user-a", "user-b", model.FriendshipPending))

		_, err := svc.SendRequest(ctx, "user-a", "user-b")
		assert.ErrorIs(t, err, common.ErrDuplicateRequest)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DuplicateReverseDirection", func(t *testing.T) {
		svc, mock, _ := newFriendServiceForTest(t)

		// user-b already requested user-a; the pair lookup is symmetric, so
		// user-a's counter-request is rejected too.
		expectProfileLookup(mock, "user-b")
		mock.ExpectQuery("SELECT id, requester_id, addressee_id").
			WithArgs("user-a", "user-b").
			WillReturnRows(friendshipRowsWith("f1", "user-b", "user-a", model.FriendshipPending))

		_, err := svc.SendRequest(ctx, "user-a", "user-b")
		assert.ErrorIs(t, err, common.ErrDuplicateRequest)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFriendService_AcceptRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, mock, events := newFriendServiceForTest(t)

		mock.ExpectQuery("SELECT id, requester_id, addressee_id").
			WithArgs("f1").
			WillReturnRows(friendshipRowsWith("f1", "user-a", "user-b", model.FriendshipPending))
		mock.ExpectQuery("UPDATE friendships").
			WithArgs(model.FriendshipAccepted, "f1").
			WillReturnRows(friendshipRowsWith("f1", "user-a", "user-b", model.FriendshipAccepted))
		mock.ExpectQuery("INSERT INTO notifications").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		friendship, err := svc.AcceptRequest(ctx, "f1", "user-b")
		require.NoError(t, err)
		assert.Equal(t, model.FriendshipAccepted, friendship.Status)
		require.Len(t, events.published, 1)
		assert.Equal(t, "friend_accepted", events.published[0].Type)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RequesterCannotAccept", func(t *testing.T) {
		svc, mock, _ := newFriendServiceForTest(t)

		mock.ExpectQuery("SELECT id, requester_id, addressee_id").
			WithArgs("f1").
			WillReturnRows(friendshipRowsWith("f1", "user-a", "user-b", model.FriendshipPending))

		_, err := svc.AcceptRequest(ctx, "f1", "user-a")
		assert.ErrorIs(t, err, common.ErrForbidden)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AlreadyAcceptedIsNoOp", func(t *testing.T) {
		svc, mock, events := newFriendServiceForTest(t)

		mock.ExpectQuery("SELECT id, requester_id, addressee_id").
			WithArgs("f1").
			WillReturnRows(friendshipRowsWith("f1", "user-a", "user-b", model.FriendshipAccepted))

		friendship, err := svc.AcceptRequest(ctx, "f1", "user-b")
		require.NoError(t, err)
		assert.Equal(t, model.FriendshipAccepted, friendship.Status)
		assert.Empty(t, events.published, "no repeat notification")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DeclinedStaysDeclined", func(t *testing.T) {
		svc, mock, _ := newFriendServiceForTest(t)

		mock.ExpectQuery("SELECT id, requester_id, addressee_id").
			WithArgs("f1").
			WillReturnRows(friendshipRowsWith("f1", "user-a", "user-b", model.FriendshipDeclined))

		_, err := svc.AcceptRequest(ctx, "f1", "user-b")
		assert.ErrorIs(t, err, common.ErrConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFriendService_BlockUser(t *testing.T) {
	ctx := context.Background()

	t.Run("EitherPartyFromAnyStatus", func(t *testing.T) {
		svc, mock, _ := newFriendServiceForTest(t)

		mock.ExpectQuery("SELECT id, requester_id, addressee_id").
			WithArgs("f1").
			WillReturnRows(friendshipRowsWith("f1", "user-a", "user-b", model.FriendshipAccepted))
		mock.ExpectQuery("UPDATE friendships").
			WithArgs(model.FriendshipBlocked, "f1").
			WillReturnRows(friendshipRowsWith("f1", "user-a", "user-b", model.FriendshipBlocked))

		friendship, err := svc.BlockUser(ctx, "f1", "user-a")
		require.NoError(t, err)
		assert.Equal(t, model.FriendshipBlocked, friendship.Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("OutsiderForbidden", func(t *testing.T) {
		svc, mock, _ := newFriendServiceForTest(t)

		mock.ExpectQuery("SELECT id, requester_id, addressee_id").
			WithArgs("f1").
			WillReturnRows(friendshipRowsWith("f1", "user-a", "user-b", model.FriendshipAccepted))

		_, err := svc.BlockUser(ctx, "f1", "user-c")
		assert.ErrorIs(t, err, common.ErrForbidden)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFriendService_RemoveFriend(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, mock, _ := newFriendServiceForTest(t)

		mock.ExpectQuery("SELECT id, requester_id, addressee_id").
			WithArgs("f1").
			WillReturnRows(friendshipRowsWith("f1", "user-a", "user-b", model.FriendshipAccepted))
		mock.ExpectExec("DELETE FROM friendships").
			WithArgs("f1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := svc.RemoveFriend(ctx, "f1", "user-b")
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("PairReturnsToNone", func(t *testing.T) {
		svc, mock, _ := newFriendServiceForTest(t)

		mock.ExpectQuery("SELECT id, requester_id, addressee_id").
			WithArgs("user-a", "user-b").
			WillReturnError(sql.ErrNoRows)

		friendship, err := svc.GetFriendshipStatus(ctx, "user-a", "user-b")
		require.NoError(t, err)
		assert.Nil(t, friendship)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
