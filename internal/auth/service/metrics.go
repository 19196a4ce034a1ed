package service

import (
	"github.com/AlibekovAA/jwt-auth/internal/observability/metrics"
)

func incrementRegistrations(result string) {
	metrics.RegistrationsTotal.WithLabelValues(result).Inc()
}

func incrementLogins(result string) {
	metrics.LoginsTotal.WithLabelValues(result).Inc()
}

func incrementAccessTokensIssued() {
	metrics.AccessTokensIssued.Inc()
}

func incrementRefreshTokensIssued() {
	metrics.RefreshTokensIssued.Inc()
}

func incrementRefreshTokensUsed() {
	metrics.RefreshTokensUsed.Inc()
}

func addRefreshTokensEvicted(n int64) {
	if n > 0 {
		metrics.RefreshTokensEvicted.Add(float64(n))
	}
}
