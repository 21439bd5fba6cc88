// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/auth"
)

func newMockUserRepo(t *testing.T) (pgxmock.PgxPoolIface, *UserRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return mock, NewUserRepository(mock)
}

func userRows(user *auth.User) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "username", "email", "password_hash",
		"reset_token_hash", "reset_expires_at",
		"created_at", "updated_at",
	}).AddRow(
		user.ID.String(), user.Username, user.Email, user.PasswordHash,
		user.ResetTokenHash, user.ResetExpiresAt,
		user.CreatedAt, user.UpdatedAt,
	)
}

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	user, err := auth.NewUser("alice", "alice@example.com", "argon2-hash")
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		mock, repo := newMockUserRepo(t)

		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(user.ID.String(), "alice", "alice@example.com", "argon2-hash",
				user.ResetTokenHash, user.ResetExpiresAt, user.CreatedAt, user.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.Create(ctx, user))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email maps to ErrEmailTaken", func(t *testing.T) {
		mock, repo := newMockUserRepo(t)

		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(user.ID.String(), "alice", "alice@example.com", "argon2-hash",
				user.ResetTokenHash, user.ResetExpiresAt, user.CreatedAt, user.UpdatedAt).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		err := repo.Create(ctx, user)
		require.ErrorIs(t, err, auth.ErrEmailTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other database error", func(t *testing.T) {
		mock, repo := newMockUserRepo(t)

		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(user.ID.String(), "alice", "alice@example.com", "argon2-hash",
				user.ResetTokenHash, user.ResetExpiresAt, user.CreatedAt, user.UpdatedAt).
			WillReturnError(errors.New("connection refused"))

		err := repo.Create(ctx, user)
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrEmailTaken)
	})
}

func TestUserRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()

	user, err := auth.NewUser("alice", "alice@example.com", "argon2-hash")
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		mock, repo := newMockUserRepo(t)

		mock.ExpectQuery(`SELECT id, username, email, password_hash`).
			WithArgs("alice@example.com").
			WillReturnRows(userRows(user))

		got, err := repo.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "alice@example.com", got.Email)
	})

	t.Run("not found", func(t *testing.T) {
		mock, repo := newMockUserRepo(t)

		mock.ExpectQuery(`SELECT id, username, email, password_hash`).
			WithArgs("ghost@example.com").
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "username", "email", "password_hash",
				"reset_token_hash", "reset_expires_at",
				"created_at", "updated_at",
			}))

		_, err := repo.GetByEmail(ctx, "ghost@example.com")
		require.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestUserRepository_GetByResetTokenHash(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	user, err := auth.NewUser("alice", "alice@example.com", "argon2-hash")
	require.NoError(t, err)
	tokenHash := auth.HashResetToken("sometoken")
	expiry := now.Add(time.Hour)
	user.ResetTokenHash = &tokenHash
	user.ResetExpiresAt = &expiry

	t.Run("valid token", func(t *testing.T) {
		mock, repo := newMockUserRepo(t)

		mock.ExpectQuery(`WHERE reset_token_hash = \$1 AND reset_expires_at > \$2`).
			WithArgs(tokenHash, now).
			WillReturnRows(userRows(user))

		got, err := repo.GetByResetTokenHash(ctx, tokenHash, now)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.True(t, got.HasPendingReset())
	})

	t.Run("expired or unknown token", func(t *testing.T) {
		mock, repo := newMockUserRepo(t)

		mock.ExpectQuery(`WHERE reset_token_hash = \$1 AND reset_expires_at > \$2`).
			WithArgs(tokenHash, now).
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "username", "email", "password_hash",
				"reset_token_hash", "reset_expires_at",
				"created_at", "updated_at",
			}))

		_, err := repo.GetByResetTokenHash(ctx, tokenHash, now)
		require.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestUserRepository_SetResetToken(t *testing.T) {
	ctx := context.Background()
	id := ulid.Make()
	expiry := time.Now().Add(time.Hour)

	t.Run("success", func(t *testing.T) {
		mock, repo := newMockUserRepo(t)

		mock.ExpectExec(`UPDATE users`).
			WithArgs(id.String(), "token-hash", expiry, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.SetResetToken(ctx, id, "token-hash", expiry))
	})

	t.Run("unknown user", func(t *testing.T) {
		mock, repo := newMockUserRepo(t)

		mock.ExpectExec(`UPDATE users`).
			WithArgs(id.String(), "token-hash", expiry, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.SetResetToken(ctx, id, "token-hash", expiry)
		require.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestUserRepository_ResetPassword(t *testing.T) {
	ctx := context.Background()
	id := ulid.Make()

	t.Run("clears token pair with the credential write", func(t *testing.T) {
		mock, repo := newMockUserRepo(t)

		mock.ExpectExec(`SET password_hash = \$2, reset_token_hash = NULL, reset_expires_at = NULL`).
			WithArgs(id.String(), "new-hash", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.ResetPassword(ctx, id, "new-hash"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		mock, repo := newMockUserRepo(t)

		mock.ExpectExec(`SET password_hash = \$2, reset_token_hash = NULL, reset_expires_at = NULL`).
			WithArgs(id.String(), "new-hash", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.ResetPassword(ctx, id, "new-hash")
		require.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestUserRepository_ClearExpiredResetTokens(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	mock, repo := newMockUserRepo(t)

	mock.ExpectExec(`WHERE reset_expires_at IS NOT NULL AND reset_expires_at <= \$1`).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	cleared, err := repo.ClearExpiredResetTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cleared)
}
