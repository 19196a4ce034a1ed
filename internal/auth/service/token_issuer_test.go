package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authdomain "github.com/AlibekovAA/jwt-auth/internal/auth/domain"
	"github.com/AlibekovAA/jwt-auth/internal/auth/service"
	"github.com/AlibekovAA/jwt-auth/internal/common/constants"
	"github.com/AlibekovAA/jwt-auth/internal/common/jwtverify"
)

func TestTokenIssuer_AccessTokenClaims(t *testing.T) {
	env := setupAuthService(t)

	issued, err := env.issuer.IssueAccessToken("user-1")
	require.NoError(t, err)
	assert.Equal(t, env.clock.Now().Add(env.accessTTL), issued.ExpiresAt)
	assert.Len(t, issued.JTI, 32)

	var claims jwtverify.TokenClaims
	_, err = jwt.ParseWithClaims(issued.Raw, &claims, func(token *jwt.Token) (any, error) {
		return []byte(constants.TestJWTSecret), nil
	}, jwt.WithTimeFunc(env.clock.Now))
	require.NoError(t, err)

	assert.Equal(t, jwtverify.AccessToken, claims.TokenType)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, issued.JTI, claims.ID)
	assert.Equal(t, env.clock.Now().Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, issued.ExpiresAt.Unix(), claims.ExpiresAt.Unix())
}

func TestTokenIssuer_RefreshTokenLifetime(t *testing.T) {
	env := setupAuthService(t)

	issued, err := env.issuer.IssueRefreshToken("user-1")
	require.NoError(t, err)
	assert.Equal(t, env.clock.Now().Add(env.refreshTTL), issued.ExpiresAt)

	claims, err := env.verifier.Parse(issued.Raw, jwtverify.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, issued.JTI, claims.JTI)
}

func TestTokenIssuer_HS256Header(t *testing.T) {
	env := setupAuthService(t)

	issued, err := env.issuer.IssueAccessToken("user-1")
	require.NoError(t, err)

	token, _, err := jwt.NewParser().ParseUnverified(issued.Raw, &jwtverify.TokenClaims{})
	require.NoError(t, err)
	assert.Equal(t, "HS256", token.Method.Alg())
	assert.Equal(t, 3, len(strings.Split(issued.Raw, ".")))
}

func TestRefreshTokenStore_IssueStoresHashInTransaction(t *testing.T) {
	env := setupAuthService(t)

	var stored authdomain.RefreshToken
	env.refreshRepo.createFunc = func(ctx context.Context, token authdomain.RefreshToken) error {
		stored = token
		return nil
	}

	issued, err := env.store.Issue(context.Background(), activeUser("user-1", "ada"))
	require.NoError(t, err)

	assert.Equal(t, 1, env.txManager.calls)
	assert.Equal(t, service.HashJTI(issued.JTI), stored.JTIHash)
	assert.NotEqual(t, issued.JTI, stored.JTIHash)
	assert.Len(t, stored.JTIHash, 64)
	assert.Equal(t, "user-1", stored.UserID)
	assert.Equal(t, issued.ExpiresAt, stored.ExpiresAt)
}

func TestRefreshTokenStore_EvictsOverLimit(t *testing.T) {
	env := setupAuthService(t)

	var keep []int
	env.refreshRepo.deleteExcessByUserIDFunc = func(ctx context.Context, userID string, n int) (int64, error) {
		keep = append(keep, n)
		return 0, nil
	}

	_, err := env.store.Issue(context.Background(), activeUser("user-1", "ada"))
	require.NoError(t, err)
	assert.Equal(t, []int{env.maxPerUser}, keep)
}

func TestRefreshTokenStore_IssueFailure(t *testing.T) {
	env := setupAuthService(t)
	createErr := errors.New("insert failed")
	env.refreshRepo.createFunc = func(ctx context.Context, token authdomain.RefreshToken) error {
		return createErr
	}

	_, err := env.store.Issue(context.Background(), activeUser("user-1", "ada"))
	assert.ErrorIs(t, err, createErr)
}

func TestRefreshTokenStore_IsOutstanding(t *testing.T) {
	env := setupAuthService(t)

	issued, err := env.store.Issue(context.Background(), activeUser("user-1", "ada"))
	require.NoError(t, err)

	ok, err := env.store.IsOutstanding(context.Background(), issued.JTI)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.store.IsOutstanding(context.Background(), "unknown-jti")
	require.NoError(t, err)
	assert.False(t, ok)

	env.clock.Advance(env.refreshTTL)
	ok, err = env.store.IsOutstanding(context.Background(), issued.JTI)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashJTI(t *testing.T) {
	assert.Equal(t, service.HashJTI("abc"), service.HashJTI("abc"))
	assert.NotEqual(t, service.HashJTI("abc"), service.HashJTI("abd"))
	assert.Len(t, service.HashJTI(""), 64)
}

func TestRefreshTokenStore_RetriesSerializationFailure(t *testing.T) {
	env := setupAuthService(t)

	attempts := 0
	env.txManager.withTxFunc = func(ctx context.Context, fn func(ctx context.Context) error) error {
		attempts++
		if attempts == 1 {
			return &pgconn.PgError{Code: "40001"}
		}
		return fn(ctx)
	}

	_, err := env.store.Issue(context.Background(), activeUser("user-1", "ada"))
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 1, env.refreshRepo.count())
}
