package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlibekovAA/jwt-auth/internal/auth/serializer"
	"github.com/AlibekovAA/jwt-auth/internal/auth/service"
	commonerrors "github.com/AlibekovAA/jwt-auth/internal/common/errors"
	"github.com/AlibekovAA/jwt-auth/internal/common/jwtverify"
	userdomain "github.com/AlibekovAA/jwt-auth/internal/user/domain"
)

func loginTokens(t *testing.T, env *testEnv) service.TokenPair {
	t.Helper()

	tokens, err := env.svc.Login(context.Background(), serializer.Credentials{
		Username: "ada",
		Password: "password123",
	})
	require.NoError(t, err)
	return tokens
}

func TestAuthService_Refresh_Success(t *testing.T) {
	env := setupAuthService(t)
	env.withUser(activeUser("user-1", "ada"))
	tokens := loginTokens(t, env)

	env.clock.Advance(time.Minute)

	access, err := env.svc.Refresh(context.Background(), tokens.Refresh)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.Access, access)

	claims, err := env.verifier.Parse(access, jwtverify.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestAuthService_Refresh_DoesNotRotate(t *testing.T) {
	env := setupAuthService(t)
	env.withUser(activeUser("user-1", "ada"))
	tokens := loginTokens(t, env)

	_, err := env.svc.Refresh(context.Background(), tokens.Refresh)
	require.NoError(t, err)
	_, err = env.svc.Refresh(context.Background(), tokens.Refresh)
	require.NoError(t, err)

	assert.Equal(t, 1, env.refreshRepo.count())
}

func TestAuthService_Refresh_RejectsAccessToken(t *testing.T) {
	env := setupAuthService(t)
	env.withUser(activeUser("user-1", "ada"))
	tokens := loginTokens(t, env)

	_, err := env.svc.Refresh(context.Background(), tokens.Access)
	assert.ErrorIs(t, err, commonerrors.ErrWrongTokenType)
}

func TestAuthService_Refresh_Garbage(t *testing.T) {
	env := setupAuthService(t)

	_, err := env.svc.Refresh(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, commonerrors.ErrInvalidToken)
}

func TestAuthService_Refresh_Expired(t *testing.T) {
	env := setupAuthService(t)
	env.withUser(activeUser("user-1", "ada"))
	tokens := loginTokens(t, env)

	env.clock.Advance(env.refreshTTL + time.Second)

	_, err := env.svc.Refresh(context.Background(), tokens.Refresh)
	assert.ErrorIs(t, err, commonerrors.ErrInvalidToken)
}

func TestAuthService_Refresh_NotOutstanding(t *testing.T) {
	env := setupAuthService(t)
	env.withUser(activeUser("user-1", "ada"))
	tokens := loginTokens(t, env)

	deleted, err := env.refreshRepo.DeleteExpired(context.Background(), env.clock.Now().Add(env.refreshTTL))
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	_, err = env.svc.Refresh(context.Background(), tokens.Refresh)
	assert.ErrorIs(t, err, commonerrors.ErrInvalidToken)
}

func TestAuthService_Refresh_UserGone(t *testing.T) {
	env := setupAuthService(t)
	env.withUser(activeUser("user-1", "ada"))
	tokens := loginTokens(t, env)

	env.userRepo.findByIDFunc = nil

	_, err := env.svc.Refresh(context.Background(), tokens.Refresh)
	assert.ErrorIs(t, err, service.ErrNoActiveAccountForToken)
}

func TestAuthService_Refresh_UserDeactivated(t *testing.T) {
	env := setupAuthService(t)
	user := activeUser("user-1", "ada")
	env.withUser(user)
	tokens := loginTokens(t, env)

	env.userRepo.findByIDFunc = func(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
		u := user
		u.IsActive = false
		return u, nil
	}

	_, err := env.svc.Refresh(context.Background(), tokens.Refresh)
	assert.ErrorIs(t, err, service.ErrNoActiveAccountForToken)
}

func TestAuthService_Verify(t *testing.T) {
	env := setupAuthService(t)
	env.withUser(activeUser("user-1", "ada"))
	tokens := loginTokens(t, env)

	t.Run("access token", func(t *testing.T) {
		assert.NoError(t, env.svc.Verify(context.Background(), tokens.Access))
	})

	t.Run("outstanding refresh token", func(t *testing.T) {
		assert.NoError(t, env.svc.Verify(context.Background(), tokens.Refresh))
	})

	t.Run("garbage", func(t *testing.T) {
		assert.ErrorIs(t, env.svc.Verify(context.Background(), "abc.def.ghi"), commonerrors.ErrInvalidToken)
	})

	t.Run("expired access token", func(t *testing.T) {
		env.clock.Advance(env.accessTTL + time.Second)
		assert.ErrorIs(t, env.svc.Verify(context.Background(), tokens.Access), commonerrors.ErrInvalidToken)
	})
}

func TestAuthService_Verify_EvictedRefreshToken(t *testing.T) {
	env := setupAuthService(t)
	env.withUser(activeUser("user-1", "ada"))

	first := loginTokens(t, env)
	for i := 0; i < env.maxPerUser; i++ {
		env.clock.Advance(time.Second)
		loginTokens(t, env)
	}

	assert.Equal(t, env.maxPerUser, env.refreshRepo.count())
	assert.ErrorIs(t, env.svc.Verify(context.Background(), first.Refresh), commonerrors.ErrInvalidToken)
}

func TestAuthService_CurrentUser(t *testing.T) {
	env := setupAuthService(t)
	user := activeUser("user-1", "ada")
	env.withUser(user)

	profile, err := env.svc.CurrentUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, userdomain.Profile{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Username:  "ada",
		Email:     "ada@example.com",
	}, profile)

	_, err = env.svc.CurrentUser(context.Background(), "someone-else")
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestAuthService_CurrentUser_Inactive(t *testing.T) {
	env := setupAuthService(t)
	user := activeUser("user-1", "ada")
	user.IsActive = false
	env.withUser(user)

	_, err := env.svc.CurrentUser(context.Background(), "user-1")
	assert.ErrorIs(t, err, service.ErrUserInactive)
}
