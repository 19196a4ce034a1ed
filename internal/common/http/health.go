package http

import (
	"context"
	"net/http"
	"time"

	"github.com/AlibekovAA/jwt-auth/internal/common/logger"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

func HealthHandler(log *logger.Logger, checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}

		for name, check := range checks {
			if err := check(ctx); err != nil {
				log.WithFields(ctx, logger.Fields{
					"action":     "health_check",
					"dependency": name,
					"error":      err.Error(),
				}).Warn("health check failed")
				status = http.StatusServiceUnavailable
				body["status"] = "unavailable"
				body[name] = "down"
				continue
			}
			body[name] = "up"
		}

		WriteJSON(w, status, body)
	}
}
