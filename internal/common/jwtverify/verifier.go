package jwtverify

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AlibekovAA/jwt-auth/internal/common/clock"
	commonerrors "github.com/AlibekovAA/jwt-auth/internal/common/errors"
	"github.com/AlibekovAA/jwt-auth/internal/observability/metrics"
)

type Verifier struct {
	secret []byte
	clock  clock.Clock
}

func NewVerifier(secret string, c clock.Clock) *Verifier {
	if c == nil {
		c = clock.NewRealClock()
	}
	return &Verifier{secret: []byte(secret), clock: c}
}

// Parse checks signature, expiry and required claims. An empty expected type
// accepts both access and refresh tokens.
func (v *Verifier) Parse(tokenString string, expected TokenType) (Claims, error) {
	metrics.JWTValidationsTotal.Inc()

	claims, err := v.parse(tokenString, expected)
	if err != nil {
		metrics.JWTValidationsFailed.WithLabelValues(failureReason(err)).Inc()
		return Claims{}, err
	}
	return claims, nil
}

func (v *Verifier) parse(tokenString string, expected TokenType) (Claims, error) {
	var tc TokenClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.clock.Now),
	)

	_, err := parser.ParseWithClaims(tokenString, &tc, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) && !isHS256(tokenString) {
			return Claims{}, commonerrors.ErrInvalidTokenSigningMethod.WithCause(err)
		}
		return Claims{}, commonerrors.ErrInvalidToken.WithCause(err)
	}

	if tc.UserID == "" || tc.ID == "" || tc.TokenType == "" {
		return Claims{}, commonerrors.ErrInvalidTokenClaims
	}
	if tc.TokenType != AccessToken && tc.TokenType != RefreshToken {
		return Claims{}, commonerrors.ErrInvalidTokenClaims
	}
	if expected != "" && tc.TokenType != expected {
		return Claims{}, commonerrors.ErrWrongTokenType
	}

	return Claims{
		UserID:    tc.UserID,
		JTI:       tc.ID,
		TokenType: tc.TokenType,
	}, nil
}

func isHS256(tokenString string) bool {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	return err == nil && token.Method == jwt.SigningMethodHS256
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature"
	case errors.Is(err, commonerrors.ErrWrongTokenType):
		return "wrong_type"
	case errors.Is(err, commonerrors.ErrInvalidTokenClaims):
		return "claims"
	default:
		return "invalid"
	}
}
