package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	authdomain "github.com/AlibekovAA/jwt-auth/internal/auth/domain"
	authrepo "github.com/AlibekovAA/jwt-auth/internal/auth/repository"
	"github.com/AlibekovAA/jwt-auth/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/jwt-auth/internal/common/crypto"
	commondb "github.com/AlibekovAA/jwt-auth/internal/common/db"
	commonerrors "github.com/AlibekovAA/jwt-auth/internal/common/errors"
	"github.com/AlibekovAA/jwt-auth/internal/common/logger"
	"github.com/AlibekovAA/jwt-auth/internal/common/resilience"
	userdomain "github.com/AlibekovAA/jwt-auth/internal/user/domain"
)

// RefreshTokenStore issues refresh tokens and tracks which ones are still
// outstanding. Each user keeps at most maxRefreshTokens of them.
type RefreshTokenStore struct {
	refreshTokenRepo authrepo.RefreshTokenRepository
	txManager        commondb.TxManager
	dbCircuitBreaker resilience.CircuitBreakerInterface
	issuer           *TokenIssuer
	idGenerator      commoncrypto.IDGenerator
	clock            clock.Clock
	maxRefreshTokens int
	log              *logger.Logger
}

func NewRefreshTokenStore(
	refreshTokenRepo authrepo.RefreshTokenRepository,
	txManager commondb.TxManager,
	dbCircuitBreaker resilience.CircuitBreakerInterface,
	issuer *TokenIssuer,
	idGenerator commoncrypto.IDGenerator,
	maxRefreshTokens int,
	clock clock.Clock,
	log *logger.Logger,
) *RefreshTokenStore {
	return &RefreshTokenStore{
		refreshTokenRepo: refreshTokenRepo,
		txManager:        txManager,
		dbCircuitBreaker: dbCircuitBreaker,
		issuer:           issuer,
		idGenerator:      idGenerator,
		clock:            clock,
		maxRefreshTokens: maxRefreshTokens,
		log:              log,
	}
}

// Issue signs a refresh token for user, records it and evicts the oldest
// tokens beyond the per-user limit in the same transaction. Serialization
// failures and deadlocks retry the whole transaction.
func (s *RefreshTokenStore) Issue(ctx context.Context, user userdomain.User) (IssuedToken, error) {
	token, err := s.issuer.IssueRefreshToken(string(user.ID))
	if err != nil {
		return IssuedToken{}, err
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		return IssuedToken{}, err
	}

	stored := authdomain.RefreshToken{
		ID:        id,
		JTIHash:   HashJTI(token.JTI),
		UserID:    string(user.ID),
		ExpiresAt: token.ExpiresAt,
		CreatedAt: s.clock.Now(),
	}

	var evicted int64
	err = s.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		return commondb.RetryWithBackoff(ctx, s.log, commondb.DefaultRetryConfig, func(ctx context.Context) error {
			return s.txManager.WithTx(ctx, func(ctx context.Context) error {
				if err := s.refreshTokenRepo.Create(ctx, stored); err != nil {
					return err
				}
				n, err := s.refreshTokenRepo.DeleteExcessByUserID(ctx, stored.UserID, s.maxRefreshTokens)
				if err != nil {
					return err
				}
				evicted = n
				return nil
			})
		})
	})
	if err != nil {
		if errors.Is(err, commonerrors.ErrCircuitOpen) {
			s.log.WithFields(ctx, logger.Fields{
				"user_id": stored.UserID,
				"action":  "create_refresh_token_db_circuit_open",
			}).Error("failed to create refresh token: database circuit breaker is open")
		}
		return IssuedToken{}, handleCircuitBreakerError(err)
	}

	incrementRefreshTokensIssued()
	addRefreshTokensEvicted(evicted)
	if evicted > 0 {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": stored.UserID,
			"evicted": evicted,
			"action":  "refresh_tokens_evicted",
		}).Debug("evicted oldest refresh tokens over the per-user limit")
	}

	return token, nil
}

// IsOutstanding reports whether the refresh token with this jti was issued
// here and has neither expired nor been evicted.
func (s *RefreshTokenStore) IsOutstanding(ctx context.Context, jti string) (bool, error) {
	var stored authdomain.RefreshToken
	err := s.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		stored, err = s.refreshTokenRepo.FindByJTIHash(ctx, HashJTI(jti))
		return err
	})
	if errors.Is(err, authrepo.ErrRefreshTokenNotFound) {
		return false, nil
	}
	if err != nil {
		return false, handleCircuitBreakerError(err)
	}
	return !stored.IsExpired(s.clock.Now()), nil
}

func HashJTI(jti string) string {
	sum := sha256.Sum256([]byte(jti))
	return hex.EncodeToString(sum[:])
}
