package service

import (
	"errors"
	"net/http"

	commonerrors "github.com/AlibekovAA/jwt-auth/internal/common/errors"
)

func handleCircuitBreakerError(err error) error {
	if errors.Is(err, commonerrors.ErrCircuitOpen) {
		return ErrServiceUnavailable.WithCause(err)
	}
	return err
}

func usernameTakenError() error {
	errs := commonerrors.FieldErrors{}
	errs.Add("username", msgUsernameTaken)
	return commonerrors.NewValidationError(errs)
}

func newInternalError(code, message string, cause error) commonerrors.DomainError {
	err := commonerrors.NewDomainError(
		code,
		commonerrors.CategoryInternal,
		http.StatusInternalServerError,
		message,
	)
	if cause != nil {
		err = err.WithCause(cause)
	}
	return err
}
