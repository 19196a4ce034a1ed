package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AlibekovAA/jwt-auth/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/jwt-auth/internal/common/crypto"
	"github.com/AlibekovAA/jwt-auth/internal/common/jwtverify"
)

type IssuedToken struct {
	Raw       string
	JTI       string
	ExpiresAt time.Time
}

type TokenIssuer struct {
	jwtSecret       []byte
	idGenerator     commoncrypto.IDGenerator
	clock           clock.Clock
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

func NewTokenIssuer(
	jwtSecret string,
	idGenerator commoncrypto.IDGenerator,
	accessTokenTTL time.Duration,
	refreshTokenTTL time.Duration,
	clock clock.Clock,
) *TokenIssuer {
	return &TokenIssuer{
		jwtSecret:       []byte(jwtSecret),
		idGenerator:     idGenerator,
		clock:           clock,
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
	}
}

func (ti *TokenIssuer) IssueAccessToken(userID string) (IssuedToken, error) {
	token, err := ti.issue(jwtverify.AccessToken, userID, ti.accessTokenTTL)
	if err != nil {
		return IssuedToken{}, err
	}
	incrementAccessTokensIssued()
	return token, nil
}

// IssueRefreshToken only signs the token. Callers must record it as
// outstanding before handing it out.
func (ti *TokenIssuer) IssueRefreshToken(userID string) (IssuedToken, error) {
	return ti.issue(jwtverify.RefreshToken, userID, ti.refreshTokenTTL)
}

func (ti *TokenIssuer) issue(tokenType jwtverify.TokenType, userID string, ttl time.Duration) (IssuedToken, error) {
	jti, err := ti.idGenerator.NewID()
	if err != nil {
		return IssuedToken{}, err
	}

	now := ti.clock.Now()
	expiresAt := now.Add(ttl)
	claims := jwtverify.TokenClaims{
		TokenType: tokenType,
		UserID:    userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := t.SignedString(ti.jwtSecret)
	if err != nil {
		return IssuedToken{}, err
	}

	return IssuedToken{
		Raw:       tokenString,
		JTI:       jti,
		ExpiresAt: expiresAt,
	}, nil
}
