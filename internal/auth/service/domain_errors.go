package service

import (
	"net/http"

	commonerrors "github.com/AlibekovAA/jwt-auth/internal/common/errors"
)

var (
	ErrNoActiveAccount = commonerrors.NewDomainError(
		"no_active_account",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"No active account found with the given credentials",
	)

	ErrNoActiveAccountForToken = commonerrors.NewDomainError(
		"no_active_account",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"No active account found for the given token.",
	)

	ErrUserNotFound = commonerrors.NewDomainError(
		"user_not_found",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"User not found",
	)

	ErrUserInactive = commonerrors.NewDomainError(
		"user_inactive",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"User is inactive",
	)

	ErrServiceUnavailable = commonerrors.NewDomainError(
		"service_unavailable",
		commonerrors.CategoryExternal,
		http.StatusServiceUnavailable,
		"Service temporarily unavailable, try again later.",
	)
)

const msgUsernameTaken = "A user with that username already exists."
