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
	"quizleague/internal/common/security"
	"quizleague/internal/domain/repository"
	"quizleague/internal/platform/config"
)

func newAuthServiceForTest(t *testing.T) (*AuthService, sqlmock.Sqlmock) {
	t.Helper()
	config.Load()
	security.InitJWT()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewAuthService(
		repository.NewPgUserRepository(db),
		repository.NewPgProfileRepository(db),
		db,
	)
	return svc, mock
}

func userColumnsForTest() []string {
	return []string{"id", "username", "email", "hashed_password", "role", "created_at", "updated_at"}
}

func TestAuthService_Signup(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, mock := newAuthServiceForTest(t)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO users").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO user_profiles").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		resp, err := svc.Signup(ctx, SignupRequest{
			Username:    "alice",
			Email:       "alice@example.com",
			DisplayName: "Alice",
			Password:    "supersecret",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Empty(t, resp.User.HashedPassword, "hash never leaves the service")
		assert.Equal(t, 1, resp.Profile.Level)
		assert.Zero(t, resp.Profile.TotalPoints)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		svc, _ := newAuthServiceForTest(t)

		_, err := svc.Signup(ctx, SignupRequest{
			Username:    "alice",
			Email:       "not-an-email",
			DisplayName: "Alice",
			Password:    "supersecret",
		})
		assert.ErrorIs(t, err, common.ErrValidation)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	hash, err := security.HashPassword("supersecret")
	require.NoError(t, err)

	t.Run("ByEmail", func(t *testing.T) {
		svc, mock := newAuthServiceForTest(t)

		mock.ExpectQuery("SELECT id, username, email, hashed_password").
			WithArgs("alice@example.com").
			WillReturnRows(sqlmock.NewRows(userColumnsForTest()).
				AddRow("u1", "alice", "alice@example.com", hash, "user", time.Now(), time.Now()))

		resp, err := svc.Login(ctx, LoginRequest{LoginField: "alice@example.com", Password: "supersecret"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("FallsBackToUsername", func(t *testing.T) {
		svc, mock := newAuthServiceForTest(t)

		mock.ExpectQuery("SELECT id, username, email, hashed_password").
			WithArgs("alice").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("SELECT id, username, email, hashed_password").
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows(userColumnsForTest()).
				AddRow("u1", "alice", "alice@example.com", hash, "user", time.Now(), time.Now()))

		resp, err := svc.Login(ctx, LoginRequest{LoginField: "alice", Password: "supersecret"})
		require.NoError(t, err)
		assert.Equal(t, "alice", resp.User.Username)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("WrongPassword", func(t *testing.T) {
		svc, mock := newAuthServiceForTest(t)

		mock.ExpectQuery("SELECT id, username, email, hashed_password").
			WithArgs("alice@example.com").
			WillReturnRows(sqlmock.NewRows(userColumnsForTest()).
				AddRow("u1", "alice", "alice@example.com", hash, "user", time.Now(), time.Now()))

		_, err := svc.Login(ctx, LoginRequest{LoginField: "alice@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, common.ErrUnauthorized)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UnknownUserLooksLikeBadPassword", func(t *testing.T) {
		svc, mock := newAuthServiceForTest(t)

		mock.ExpectQuery("SELECT id, username, email, hashed_password").
			WithArgs("nobody").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("SELECT id, username, email, hashed_password").
			WithArgs("nobody").
			WillReturnError(sql.ErrNoRows)

		_, err := svc.Login(ctx, LoginRequest{LoginField: "nobody", Password: "supersecret"})
		assert.ErrorIs(t, err, common.ErrUnauthorized)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
