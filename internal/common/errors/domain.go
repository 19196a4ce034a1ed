package commonerrors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCategory string

const (
	CategoryValidation   ErrorCategory = "VALIDATION"
	CategoryNotFound     ErrorCategory = "NOT_FOUND"
	CategoryConflict     ErrorCategory = "CONFLICT"
	CategoryUnauthorized ErrorCategory = "UNAUTHORIZED"
	CategoryInternal     ErrorCategory = "INTERNAL"
	CategoryExternal     ErrorCategory = "EXTERNAL"
)

type DomainError interface {
	error
	Code() string
	Category() ErrorCategory
	HTTPStatus() int
	Message() string
	Unwrap() error
	WithCause(cause error) DomainError
}

type domainError struct {
	code     string
	category ErrorCategory
	status   int
	message  string
	cause    error
}

func (e *domainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *domainError) Code() string {
	return e.code
}

func (e *domainError) Category() ErrorCategory {
	return e.category
}

func (e *domainError) HTTPStatus() int {
	return e.status
}

func (e *domainError) Message() string {
	return e.message
}

func (e *domainError) Unwrap() error {
	return e.cause
}

// Is makes errors.Is match a wrapped copy against its sentinel.
func (e *domainError) Is(target error) bool {
	t, ok := target.(*domainError)
	if !ok {
		return false
	}
	return e.code == t.code && e.message == t.message
}

func (e *domainError) WithCause(cause error) DomainError {
	return &domainError{
		code:     e.code,
		category: e.category,
		status:   e.status,
		message:  e.message,
		cause:    cause,
	}
}

func NewDomainError(code string, category ErrorCategory, status int, message string) DomainError {
	return &domainError{
		code:     code,
		category: category,
		status:   status,
		message:  message,
	}
}

func AsDomainError(err error) (DomainError, bool) {
	var de DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

var (
	ErrMissingRequiredEnv = NewDomainError(
		"missing_required_env",
		CategoryValidation,
		http.StatusInternalServerError,
		"missing required environment variable",
	)

	ErrInvalidJWTSecret = NewDomainError(
		"invalid_jwt_secret",
		CategoryValidation,
		http.StatusInternalServerError,
		"JWT_SECRET must be at least 32 bytes",
	)

	ErrCircuitOpen = NewDomainError(
		"circuit_open",
		CategoryExternal,
		http.StatusServiceUnavailable,
		"circuit breaker is open",
	)

	ErrNotAuthenticated = NewDomainError(
		"not_authenticated",
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"Authentication credentials were not provided.",
	)

	ErrInvalidToken = NewDomainError(
		"token_not_valid",
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"Token is invalid or expired",
	)

	ErrInvalidTokenSigningMethod = NewDomainError(
		"token_not_valid",
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid token signing method",
	)

	ErrInvalidTokenClaims = NewDomainError(
		"token_not_valid",
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid token claims",
	)

	ErrWrongTokenType = NewDomainError(
		"token_not_valid",
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"Token has wrong type",
	)

	ErrParseError = NewDomainError(
		"parse_error",
		CategoryValidation,
		http.StatusBadRequest,
		"JSON parse error",
	)

	ErrUserNotFound = NewDomainError(
		"user_not_found",
		CategoryNotFound,
		http.StatusNotFound,
		"user not found",
	)

	ErrInternalError = NewDomainError(
		"error",
		CategoryInternal,
		http.StatusInternalServerError,
		"internal server error",
	)

	ErrRequestTooLarge = NewDomainError(
		"request_too_large",
		CategoryValidation,
		http.StatusRequestEntityTooLarge,
		"Request body is too large.",
	)

	ErrThrottled = NewDomainError(
		"throttled",
		CategoryValidation,
		http.StatusTooManyRequests,
		"Request was throttled.",
	)

	ErrNotFound = NewDomainError(
		"not_found",
		CategoryNotFound,
		http.StatusNotFound,
		"Not found.",
	)

	ErrBadAuthorizationHeader = NewDomainError(
		"bad_authorization_header",
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"Authorization header must contain two space-delimited values",
	)

	ErrTokenNotValidForAnyType = NewDomainError(
		"token_not_valid",
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"Given token not valid for any token type",
	)
)
