package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	authdomain "github.com/AlibekovAA/jwt-auth/internal/auth/domain"
	authrepo "github.com/AlibekovAA/jwt-auth/internal/auth/repository"
	"github.com/AlibekovAA/jwt-auth/internal/auth/service"
	"github.com/AlibekovAA/jwt-auth/internal/common/clock"
	"github.com/AlibekovAA/jwt-auth/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/jwt-auth/internal/common/crypto"
	"github.com/AlibekovAA/jwt-auth/internal/common/jwtverify"
	"github.com/AlibekovAA/jwt-auth/internal/common/logger"
	"github.com/AlibekovAA/jwt-auth/internal/common/resilience"
	userdomain "github.com/AlibekovAA/jwt-auth/internal/user/domain"
	userrepo "github.com/AlibekovAA/jwt-auth/internal/user/repository"
)

type mockUserRepo struct {
	createFunc           func(ctx context.Context, user userdomain.User) error
	findByUsernameFunc   func(ctx context.Context, username string) (userdomain.User, error)
	findByIDFunc         func(ctx context.Context, id userdomain.ID) (userdomain.User, error)
	existsByUsernameFunc func(ctx context.Context, username string) (bool, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user userdomain.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (userdomain.User, error) {
	if m.findByUsernameFunc != nil {
		return m.findByUsernameFunc(ctx, username)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) FindByID(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsByUsernameFunc != nil {
		return m.existsByUsernameFunc(ctx, username)
	}
	return false, nil
}

// mockRefreshTokenRepo keeps tokens in memory unless a func override is set.
type mockRefreshTokenRepo struct {
	createFunc               func(ctx context.Context, token authdomain.RefreshToken) error
	findByJTIHashFunc        func(ctx context.Context, hash string) (authdomain.RefreshToken, error)
	deleteExcessByUserIDFunc func(ctx context.Context, userID string, keep int) (int64, error)

	mu     sync.Mutex
	tokens []authdomain.RefreshToken
}

func (m *mockRefreshTokenRepo) Create(ctx context.Context, token authdomain.RefreshToken) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = append(m.tokens, token)
	return nil
}

func (m *mockRefreshTokenRepo) FindByJTIHash(ctx context.Context, hash string) (authdomain.RefreshToken, error) {
	if m.findByJTIHashFunc != nil {
		return m.findByJTIHashFunc(ctx, hash)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.JTIHash == hash {
			return t, nil
		}
	}
	return authdomain.RefreshToken{}, authrepo.ErrRefreshTokenNotFound
}

func (m *mockRefreshTokenRepo) DeleteExcessByUserID(ctx context.Context, userID string, keep int) (int64, error) {
	if m.deleteExcessByUserIDFunc != nil {
		return m.deleteExcessByUserIDFunc(ctx, userID, keep)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var own, rest []authdomain.RefreshToken
	for _, t := range m.tokens {
		if t.UserID == userID {
			own = append(own, t)
		} else {
			rest = append(rest, t)
		}
	}
	if len(own) <= keep {
		return 0, nil
	}
	sort.SliceStable(own, func(i, j int) bool { return own[i].CreatedAt.After(own[j].CreatedAt) })
	m.tokens = append(rest, own[:keep]...)
	return int64(len(own) - keep), nil
}

func (m *mockRefreshTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []authdomain.RefreshToken
	for _, t := range m.tokens {
		if !t.IsExpired(now) {
			kept = append(kept, t)
		}
	}
	deleted := int64(len(m.tokens) - len(kept))
	m.tokens = kept
	return deleted, nil
}

func (m *mockRefreshTokenRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

type inTxKey struct{}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(inTxKey{}).(bool)
	return v
}

type mockTxManager struct {
	withTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error
	calls      int
}

func (m *mockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	if m.withTxFunc != nil {
		return m.withTxFunc(ctx, fn)
	}
	return fn(context.WithValue(ctx, inTxKey{}, true))
}

type mockHasher struct {
	hashFunc    func(password string) (string, error)
	compareFunc func(hash string, password string) error
	compares    int
}

func (m *mockHasher) Hash(password string) (string, error) {
	if m.hashFunc != nil {
		return m.hashFunc(password)
	}
	return "hashed:" + password, nil
}

func (m *mockHasher) Compare(hash string, password string) error {
	m.compares++
	if m.compareFunc != nil {
		return m.compareFunc(hash, password)
	}
	if hash != "hashed:"+password {
		return commoncrypto.ErrPasswordMismatch
	}
	return nil
}

type mockIDGenerator struct {
	newIDFunc func() (string, error)
	mu        sync.Mutex
	n         int
}

func (m *mockIDGenerator) NewID() (string, error) {
	if m.newIDFunc != nil {
		return m.newIDFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	return fmt.Sprintf("id-%d", m.n), nil
}

type testEnv struct {
	svc         *service.AuthService
	store       *service.RefreshTokenStore
	issuer      *service.TokenIssuer
	verifier    *jwtverify.Verifier
	userRepo    *mockUserRepo
	refreshRepo *mockRefreshTokenRepo
	txManager   *mockTxManager
	hasher      *mockHasher
	idGenerator *mockIDGenerator
	clock       *clock.MockClock
	maxPerUser  int
	refreshTTL  time.Duration
	accessTTL   time.Duration
}

func setupAuthService(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		userRepo:    &mockUserRepo{},
		refreshRepo: &mockRefreshTokenRepo{},
		txManager:   &mockTxManager{},
		hasher:      &mockHasher{},
		idGenerator: &mockIDGenerator{},
		clock:       clock.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)),
		maxPerUser:  constants.DefaultMaxRefreshTokensPerUser,
		accessTTL:   constants.TestAccessTokenTTL,
		refreshTTL:  constants.DefaultRefreshTokenTTL,
	}

	log, _ := logger.New("", "test", "error")

	dbBreaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Threshold:  3,
		ResetAfter: time.Minute,
		Name:       "test-db",
		Logger:     log,
		Clock:      env.clock,
	})
	env.issuer = service.NewTokenIssuer(
		constants.TestJWTSecret,
		&commoncrypto.TokenIDGenerator{},
		env.accessTTL,
		env.refreshTTL,
		env.clock,
	)
	env.verifier = jwtverify.NewVerifier(constants.TestJWTSecret, env.clock)
	env.store = service.NewRefreshTokenStore(
		env.refreshRepo,
		env.txManager,
		dbBreaker,
		env.issuer,
		env.idGenerator,
		env.maxPerUser,
		env.clock,
		log,
	)
	env.svc = service.NewAuthService(service.Deps{
		Repo:             env.userRepo,
		RefreshTokens:    env.store,
		TxManager:        env.txManager,
		Issuer:           env.issuer,
		Verifier:         env.verifier,
		Hasher:           env.hasher,
		IDGenerator:      env.idGenerator,
		DBCircuitBreaker: dbBreaker,
		Clock:            env.clock,
		Log:              log,
	})

	return env
}

func activeUser(id, username string) userdomain.User {
	return userdomain.User{
		ID:           userdomain.ID(id),
		Username:     username,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        username + "@example.com",
		PasswordHash: "hashed:password123",
		IsActive:     true,
	}
}

// withUser makes the user repo serve exactly one stored user.
func (env *testEnv) withUser(user userdomain.User) {
	env.userRepo.findByUsernameFunc = func(ctx context.Context, username string) (userdomain.User, error) {
		if username == user.Username {
			return user, nil
		}
		return userdomain.User{}, userrepo.ErrUserNotFound
	}
	env.userRepo.findByIDFunc = func(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
		if id == user.ID {
			return user, nil
		}
		return userdomain.User{}, userrepo.ErrUserNotFound
	}
}
