package http

import (
	"net/http"
	"runtime/debug"

	commonerrors "github.com/AlibekovAA/jwt-auth/internal/common/errors"
	"github.com/AlibekovAA/jwt-auth/internal/common/logger"
	"github.com/AlibekovAA/jwt-auth/internal/observability/metrics"
)

func RecoveryMiddleware(log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					metrics.PanicsRecovered.Inc()
					log.WithFields(r.Context(), logger.Fields{
						"action": "panic_recovered",
						"path":   r.URL.Path,
						"method": r.Method,
					}).Criticalf("panic recovered: %v\n%s", err, debug.Stack())
					WriteDomainError(w, commonerrors.ErrInternalError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
