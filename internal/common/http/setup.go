package http

import (
	"net/http"

	"github.com/AlibekovAA/jwt-auth/internal/common/constants"
	"github.com/AlibekovAA/jwt-auth/internal/common/httpmetrics"
	"github.com/AlibekovAA/jwt-auth/internal/common/logger"
)

// BuildBaseHandler wraps handler with the middleware every service shares.
// The outermost layer runs first.
func BuildBaseHandler(log *logger.Logger, handler http.Handler) http.Handler {
	collector := httpmetrics.New()
	recovery := RecoveryMiddleware(log)
	maxRequestSize := MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize)

	return SecurityHeadersMiddleware(TraceIDMiddleware(recovery(maxRequestSize(collector.Wrap(handler)))))
}
