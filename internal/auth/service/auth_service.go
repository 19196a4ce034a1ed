package service

import (
	"context"
	"errors"
	"sync"

	"github.com/AlibekovAA/jwt-auth/internal/auth/serializer"
	"github.com/AlibekovAA/jwt-auth/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/jwt-auth/internal/common/crypto"
	commondb "github.com/AlibekovAA/jwt-auth/internal/common/db"
	commonerrors "github.com/AlibekovAA/jwt-auth/internal/common/errors"
	"github.com/AlibekovAA/jwt-auth/internal/common/jwtverify"
	"github.com/AlibekovAA/jwt-auth/internal/common/logger"
	"github.com/AlibekovAA/jwt-auth/internal/common/resilience"
	userdomain "github.com/AlibekovAA/jwt-auth/internal/user/domain"
	userrepo "github.com/AlibekovAA/jwt-auth/internal/user/repository"
)

type AuthService struct {
	repo             userrepo.Repository
	refreshTokens    *RefreshTokenStore
	txManager        commondb.TxManager
	issuer           *TokenIssuer
	verifier         *jwtverify.Verifier
	hasher           commoncrypto.PasswordHasher
	idGenerator      commoncrypto.IDGenerator
	dbCircuitBreaker resilience.CircuitBreakerInterface
	clock            clock.Clock
	log              *logger.Logger

	dummyHashOnce sync.Once
	dummyHash     string
}

type Deps struct {
	Repo             userrepo.Repository
	RefreshTokens    *RefreshTokenStore
	TxManager        commondb.TxManager
	Issuer           *TokenIssuer
	Verifier         *jwtverify.Verifier
	Hasher           commoncrypto.PasswordHasher
	IDGenerator      commoncrypto.IDGenerator
	DBCircuitBreaker resilience.CircuitBreakerInterface
	Clock            clock.Clock
	Log              *logger.Logger
}

func NewAuthService(deps Deps) *AuthService {
	return &AuthService{
		repo:             deps.Repo,
		refreshTokens:    deps.RefreshTokens,
		txManager:        deps.TxManager,
		issuer:           deps.Issuer,
		verifier:         deps.Verifier,
		hasher:           deps.Hasher,
		idGenerator:      deps.IDGenerator,
		dbCircuitBreaker: deps.DBCircuitBreaker,
		clock:            deps.Clock,
		log:              deps.Log,
	}
}

type TokenPair struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

type RegisterResult struct {
	ID       string
	Username string
	Email    string
	Tokens   TokenPair
}

// Register validates the sign-up payload, stores the user with a hashed
// password and returns a fresh token pair. The user row and its first
// refresh token commit together.
func (s *AuthService) Register(ctx context.Context, payload serializer.Payload) (RegisterResult, error) {
	input, fieldErrs, err := serializer.BindRegistration(payload)
	if err != nil {
		return RegisterResult{}, err
	}

	s.log.WithFields(ctx, logger.Fields{
		"username": input.Username,
		"action":   "register_attempt",
	}).Info("register attempt")

	if !fieldErrs.Has("username") && input.Username != "" {
		var exists bool
		err := s.callDB(ctx, func(ctx context.Context) error {
			var err error
			exists, err = s.repo.ExistsByUsername(ctx, input.Username)
			return err
		})
		if err != nil {
			s.log.WithFields(ctx, logger.Fields{
				"username": input.Username,
				"action":   "register_exists_check_failed",
			}).Errorf("register failed: %v", err)
			return RegisterResult{}, err
		}
		if exists {
			fieldErrs.Add("username", msgUsernameTaken)
		}
	}

	if len(fieldErrs) > 0 {
		incrementRegistrations("invalid")
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"fields":   fieldErrs.Fields(),
			"action":   "register_validation_failed",
		}).Warn("register validation failed")
		return RegisterResult{}, commonerrors.NewValidationError(fieldErrs)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_hash_failed",
		}).Errorf("register failed: password hash error: %v", err)
		return RegisterResult{}, newInternalError("password_hash_failed", "failed to hash password", err)
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		return RegisterResult{}, newInternalError("id_generation_failed", "failed to generate user id", err)
	}

	user := userdomain.User{
		ID:           userdomain.ID(id),
		Username:     input.Username,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    s.clock.Now(),
	}

	var (
		tokens  TokenPair
		created bool
	)
	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		err := s.callDB(ctx, func(ctx context.Context) error {
			return s.repo.Create(ctx, user)
		})
		if err != nil {
			return err
		}
		created = true

		tokens, err = s.issueTokens(ctx, user)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, userrepo.ErrUsernameAlreadyExists):
			incrementRegistrations("invalid")
			s.log.WithFields(ctx, logger.Fields{
				"username": input.Username,
				"action":   "register_username_exists",
			}).Warn("register failed: username taken concurrently")
			return RegisterResult{}, usernameTakenError()
		case created:
			incrementRegistrations("error")
			s.log.WithFields(ctx, logger.Fields{
				"username": input.Username,
				"user_id":  string(user.ID),
				"action":   "register_token_issue_failed",
			}).Errorf("register failed after user insert, rolled back: %v", err)
		default:
			incrementRegistrations("error")
			s.log.WithFields(ctx, logger.Fields{
				"username": input.Username,
				"action":   "register_create_failed",
			}).Errorf("register failed: %v", err)
		}
		return RegisterResult{}, err
	}

	incrementRegistrations("success")
	s.log.WithFields(ctx, logger.Fields{
		"username": user.Username,
		"user_id":  string(user.ID),
		"action":   "register_success",
	}).Info("register success")

	return RegisterResult{
		ID:       string(user.ID),
		Username: user.Username,
		Email:    user.Email,
		Tokens:   tokens,
	}, nil
}

// Login exchanges credentials of an active user for a token pair.
func (s *AuthService) Login(ctx context.Context, input serializer.Credentials) (TokenPair, error) {
	s.log.WithFields(ctx, logger.Fields{
		"username": input.Username,
		"action":   "login_attempt",
	}).Info("login attempt")

	var user userdomain.User
	err := s.callDB(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.repo.FindByUsername(ctx, input.Username)
		return err
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			s.burnPasswordCheck(input.Password)
			incrementLogins("invalid_credentials")
			s.log.WithFields(ctx, logger.Fields{
				"username": input.Username,
				"action":   "login_user_not_found",
			}).Warn("login failed: not found")
			return TokenPair{}, ErrNoActiveAccount
		}
		incrementLogins("error")
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "login_fetch_failed",
		}).Errorf("login failed: %v", err)
		return TokenPair{}, err
	}

	if err := s.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		incrementLogins("invalid_credentials")
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "login_invalid_password",
		}).Warn("login failed: invalid password")
		return TokenPair{}, ErrNoActiveAccount
	}

	if !user.IsActive {
		incrementLogins("inactive")
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"user_id":  string(user.ID),
			"action":   "login_inactive_user",
		}).Warn("login failed: user is inactive")
		return TokenPair{}, ErrNoActiveAccount
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		incrementLogins("error")
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"user_id":  string(user.ID),
			"action":   "login_token_issue_failed",
		}).Errorf("login failed: token issue error: %v", err)
		return TokenPair{}, err
	}

	incrementLogins("success")
	s.log.WithFields(ctx, logger.Fields{
		"username": user.Username,
		"user_id":  string(user.ID),
		"action":   "login_success",
	}).Info("login success")

	return tokens, nil
}

// Refresh returns a new access token for an outstanding refresh token. The
// refresh token itself stays valid until it expires or is evicted.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (string, error) {
	claims, err := s.verifier.Parse(rawRefresh, jwtverify.RefreshToken)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "refresh_token_invalid",
			"error":  err.Error(),
		}).Warn("refresh failed: invalid token")
		return "", tokenError(err)
	}

	outstanding, err := s.refreshTokens.IsOutstanding(ctx, claims.JTI)
	if err != nil {
		return "", err
	}
	if !outstanding {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": claims.UserID,
			"action":  "refresh_token_not_outstanding",
		}).Warn("refresh failed: token is not outstanding")
		return "", commonerrors.ErrInvalidToken
	}

	user, err := s.findUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return "", ErrNoActiveAccountForToken
		}
		return "", err
	}
	if !user.IsActive {
		return "", ErrNoActiveAccountForToken
	}

	access, err := s.issuer.IssueAccessToken(string(user.ID))
	if err != nil {
		return "", newInternalError("token_issue_failed", "failed to issue access token", err)
	}

	incrementRefreshTokensUsed()
	s.log.WithFields(ctx, logger.Fields{
		"user_id": claims.UserID,
		"action":  "refresh_token_used",
	}).Info("refresh token used")

	return access.Raw, nil
}

// Verify checks signature and expiry of a token of either type. Refresh
// tokens must additionally still be outstanding.
func (s *AuthService) Verify(ctx context.Context, raw string) error {
	claims, err := s.verifier.Parse(raw, "")
	if err != nil {
		return tokenError(err)
	}

	if claims.TokenType == jwtverify.RefreshToken {
		outstanding, err := s.refreshTokens.IsOutstanding(ctx, claims.JTI)
		if err != nil {
			return err
		}
		if !outstanding {
			return commonerrors.ErrInvalidToken
		}
	}

	return nil
}

// CurrentUser returns the profile of the authenticated caller.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (userdomain.Profile, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"user_id": userID,
				"action":  "current_user_not_found",
			}).Warn("authenticated user no longer exists")
			return userdomain.Profile{}, ErrUserNotFound
		}
		return userdomain.Profile{}, err
	}
	if !user.IsActive {
		return userdomain.Profile{}, ErrUserInactive
	}
	return user.Profile(), nil
}

func (s *AuthService) findUser(ctx context.Context, userID string) (userdomain.User, error) {
	var user userdomain.User
	err := s.callDB(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.repo.FindByID(ctx, userdomain.ID(userID))
		return err
	})
	return user, err
}

func (s *AuthService) issueTokens(ctx context.Context, user userdomain.User) (TokenPair, error) {
	refresh, err := s.refreshTokens.Issue(ctx, user)
	if err != nil {
		return TokenPair{}, err
	}

	access, err := s.issuer.IssueAccessToken(string(user.ID))
	if err != nil {
		return TokenPair{}, newInternalError("token_issue_failed", "failed to issue access token", err)
	}

	return TokenPair{Refresh: refresh.Raw, Access: access.Raw}, nil
}

func (s *AuthService) callDB(ctx context.Context, fn func(context.Context) error) error {
	return handleCircuitBreakerError(s.dbCircuitBreaker.Call(ctx, fn))
}

// burnPasswordCheck makes unknown usernames cost one hash comparison, the
// same as a wrong password.
func (s *AuthService) burnPasswordCheck(password string) {
	s.dummyHashOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("unusable-password")
	})
	if s.dummyHash != "" {
		_ = s.hasher.Compare(s.dummyHash, password)
	}
}

// tokenError keeps the wrong-type message and collapses every other parse
// failure into the generic invalid token error.
func tokenError(err error) error {
	if errors.Is(err, commonerrors.ErrWrongTokenType) {
		return commonerrors.ErrWrongTokenType
	}
	return commonerrors.ErrInvalidToken.WithCause(err)
}
