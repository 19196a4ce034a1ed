package db

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotFound = errors.New("not found")

func TestExtractTableFromOperation(t *testing.T) {
	cases := map[string]string{
		"create user":                   "users",
		"find user by username":         "users",
		"create refresh token":          "refresh_tokens",
		"delete expired refresh tokens": "refresh_tokens",
		"migrate schema":                "schema",
		"something else":                "unknown",
	}
	for op, want := range cases {
		assert.Equal(t, want, extractTableFromOperation(op), op)
	}
}

func TestHandleQueryError(t *testing.T) {
	start := time.Now()

	assert.NoError(t, HandleQueryError(nil, errNotFound, "find user", start))
	assert.ErrorIs(t, HandleQueryError(pgx.ErrNoRows, errNotFound, "find user", start), errNotFound)

	err := HandleQueryError(errors.New("boom"), errNotFound, "find user", start)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to find user")
}

func TestHandleExecError_WrapsPgError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}

	err := HandleExecError(pgErr, "create user", time.Now())
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err, "users_username_key"))
	assert.True(t, IsUniqueViolation(err, ""))
	assert.False(t, IsUniqueViolation(err, "other_key"))
	assert.False(t, IsUniqueViolation(errors.New("plain"), ""))
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.False(t, IsRetryableError(pgx.ErrNoRows))
	assert.False(t, IsRetryableError(context.DeadlineExceeded))
	assert.True(t, IsRetryableError(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsRetryableError(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "08006"})))
	assert.False(t, IsRetryableError(&pgconn.PgError{Code: "23505"}))
}

func TestRetryWithBackoff(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}

	t.Run("retries transient failures", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), nil, cfg, func(context.Context) error {
			calls++
			if calls < 3 {
				return &pgconn.PgError{Code: "40P01"}
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on permanent failure", func(t *testing.T) {
		calls := 0
		permanent := &pgconn.PgError{Code: "23505"}
		err := RetryWithBackoff(context.Background(), nil, cfg, func(context.Context) error {
			calls++
			return permanent
		})
		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), nil, cfg, func(context.Context) error {
			calls++
			return &pgconn.PgError{Code: "08006"}
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after 3 attempts")
		assert.Equal(t, 3, calls)
	})
}

func TestQuerierFrom_FallsBackWithoutTx(t *testing.T) {
	assert.Nil(t, QuerierFrom(context.Background(), nil))
}
