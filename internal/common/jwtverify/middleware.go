package jwtverify

import (
	"context"
	"net/http"
	"strings"

	commonerrors "github.com/AlibekovAA/jwt-auth/internal/common/errors"
	commonhttp "github.com/AlibekovAA/jwt-auth/internal/common/http"
	"github.com/AlibekovAA/jwt-auth/internal/common/logger"
)

type contextKey string

const claimsKey contextKey = "jwt_claims"

const bearerScheme = "Bearer"

// Middleware authenticates requests with an access token from the
// Authorization header and stores its claims in the request context.
func Middleware(verifier *Verifier, log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r.Header.Get("Authorization"))
			if err != nil {
				reject(w, r, log, err)
				return
			}

			claims, err := verifier.Parse(tokenString, AccessToken)
			if err != nil {
				reject(w, r, log, commonerrors.ErrTokenNotValidForAnyType.WithCause(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	log.WithFields(r.Context(), logger.Fields{
		"action": "jwt_auth_failed",
		"path":   r.URL.Path,
		"error":  err.Error(),
	}).Warn("jwt authentication failed")
	commonhttp.HandleError(w, r, err, log)
}

func bearerToken(header string) (string, error) {
	parts := strings.Fields(header)
	if len(parts) == 0 || parts[0] != bearerScheme {
		return "", commonerrors.ErrNotAuthenticated
	}
	if len(parts) != 2 {
		return "", commonerrors.ErrBadAuthorizationHeader
	}
	return parts[1], nil
}

func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func FromContext(ctx context.Context) (Claims, bool) {
	val := ctx.Value(claimsKey)
	claims, ok := val.(Claims)
	return claims, ok
}
