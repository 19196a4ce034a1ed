package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/AlibekovAA/jwt-auth/internal/common/constants"
	commonerrors "github.com/AlibekovAA/jwt-auth/internal/common/errors"
	"github.com/AlibekovAA/jwt-auth/internal/common/httpmetrics"
	"github.com/AlibekovAA/jwt-auth/internal/common/logger"
	"github.com/AlibekovAA/jwt-auth/internal/observability/metrics"
)

type ErrorHandler struct {
	log *logger.Logger
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	return &ErrorHandler{log: log}
}

// HandleError renders err. Validation errors become a field map, domain
// errors use their status and code, anything else is a 500.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	var validationErr *commonerrors.ValidationError
	if errors.As(err, &validationErr) {
		h.HandleValidationError(w, r, validationErr, validationErr.Fields)
		return
	}

	if domainErr, ok := commonerrors.AsDomainError(err); ok {
		h.handleDomainError(w, r, domainErr)
		return
	}

	ctx := r.Context()
	h.log.WithFields(ctx, logger.Fields{
		"error":  err.Error(),
		"action": "unhandled_error",
		"path":   r.URL.Path,
	}).Errorf("unhandled error: %v", err)

	h.countHTTPError(r, http.StatusInternalServerError)
	WriteDomainError(w, commonerrors.ErrInternalError)
}

// HandleValidationError counts rejected fields and writes body with 400.
// body lets callers wrap the field map in their own envelope.
func (h *ErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, err *commonerrors.ValidationError, body any) {
	for _, field := range err.Fields.Fields() {
		metrics.FieldValidationErrorsTotal.WithLabelValues(field).Inc()
	}

	if h.log.ShouldLog(logger.DEBUG) {
		h.log.WithFields(r.Context(), logger.Fields{
			"action": "validation_error",
			"fields": err.Fields.Fields(),
		}).Debug("request rejected by field validation")
	}

	h.countHTTPError(r, http.StatusBadRequest)
	WriteJSON(w, http.StatusBadRequest, body)
}

func (h *ErrorHandler) handleDomainError(w http.ResponseWriter, r *http.Request, domainErr commonerrors.DomainError) {
	ctx := r.Context()
	status := domainErr.HTTPStatus()

	logFields := logger.Fields{
		"error_code": domainErr.Code(),
		"category":   string(domainErr.Category()),
		"status":     status,
		"action":     "domain_error",
	}

	if status >= http.StatusInternalServerError {
		h.log.WithFields(ctx, logFields).Errorf("domain error: %s", domainErr.Error())
	} else if h.log.ShouldLog(logger.DEBUG) {
		h.log.WithFields(ctx, logFields).Debugf("domain error: %s", domainErr.Error())
	}

	metrics.DomainErrorsTotal.WithLabelValues(
		string(domainErr.Category()),
		domainErr.Code(),
		strconv.Itoa(status),
	).Inc()
	h.countHTTPError(r, status)

	WriteDomainError(w, domainErr)
}

func (h *ErrorHandler) countHTTPError(r *http.Request, status int) {
	metrics.HTTPErrorsTotal.WithLabelValues(
		strconv.Itoa(status),
		httpmetrics.NormalizePath(r.URL.Path),
		r.Method,
	).Inc()
}

func HandleError(w http.ResponseWriter, r *http.Request, err error, log *logger.Logger) {
	NewErrorHandler(log).HandleError(w, r, err)
}

func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	traceID, _ := ctx.Value(constants.TraceIDKey).(string)
	return traceID
}
