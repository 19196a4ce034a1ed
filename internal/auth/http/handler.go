package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/AlibekovAA/jwt-auth/internal/auth/serializer"
	"github.com/AlibekovAA/jwt-auth/internal/auth/service"
	commonerrors "github.com/AlibekovAA/jwt-auth/internal/common/errors"
	commonhttp "github.com/AlibekovAA/jwt-auth/internal/common/http"
	"github.com/AlibekovAA/jwt-auth/internal/common/jwtverify"
	"github.com/AlibekovAA/jwt-auth/internal/common/logger"
	userdomain "github.com/AlibekovAA/jwt-auth/internal/user/domain"
)

type AuthService interface {
	Register(ctx context.Context, payload serializer.Payload) (service.RegisterResult, error)
	Login(ctx context.Context, input serializer.Credentials) (service.TokenPair, error)
	Refresh(ctx context.Context, rawRefresh string) (string, error)
	Verify(ctx context.Context, raw string) error
	CurrentUser(ctx context.Context, userID string) (userdomain.Profile, error)
}

const (
	msgRegistrationSuccessful = "Registration successful!"
	msgRegistrationFailed     = "Registration failed."
)

type registerResponse struct {
	Message  string `json:"message"`
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
}

type registerErrorResponse struct {
	Message string                   `json:"message"`
	Errors  commonerrors.FieldErrors `json:"errors"`
}

type accessResponse struct {
	Access string `json:"access"`
}

type Handler struct {
	auth   AuthService
	errors *commonhttp.ErrorHandler
	log    *logger.Logger
}

func NewHandler(auth AuthService, log *logger.Logger) *Handler {
	return &Handler{
		auth:   auth,
		errors: commonhttp.NewErrorHandler(log),
		log:    log,
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	result, err := h.register(r)
	if err != nil {
		var verr *commonerrors.ValidationError
		if errors.As(err, &verr) {
			h.errors.HandleValidationError(w, r, verr, registerErrorResponse{
				Message: msgRegistrationFailed,
				Errors:  verr.Fields,
			})
			return
		}
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusCreated, registerResponse{
		Message:  msgRegistrationSuccessful,
		ID:       result.ID,
		Username: result.Username,
		Email:    result.Email,
		Access:   result.Tokens.Access,
		Refresh:  result.Tokens.Refresh,
	})
}

func (h *Handler) register(r *http.Request) (service.RegisterResult, error) {
	payload, err := serializer.DecodePayload(r)
	if err != nil {
		return service.RegisterResult{}, err
	}
	return h.auth.Register(r.Context(), payload)
}

// Login serves both /login/ and /token/.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	payload, err := serializer.DecodePayload(r)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	creds, err := serializer.BindCredentials(payload)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	tokens, err := h.auth.Login(r.Context(), creds)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	raw, err := h.bindToken(r, "refresh")
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	access, err := h.auth.Refresh(r.Context(), raw)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, accessResponse{Access: access})
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	raw, err := h.bindToken(r, "token")
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	if err := h.auth.Verify(r.Context(), raw); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, struct{}{})
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		h.errors.HandleError(w, r, commonerrors.ErrNotAuthenticated)
		return
	}

	profile, err := h.auth.CurrentUser(r.Context(), claims.UserID)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) bindToken(r *http.Request, field string) (string, error) {
	payload, err := serializer.DecodePayload(r)
	if err != nil {
		return "", err
	}
	return serializer.BindToken(payload, field)
}
