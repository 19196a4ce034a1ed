package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AlibekovAA/jwt-auth/internal/common/constants"
	commonerrors "github.com/AlibekovAA/jwt-auth/internal/common/errors"
	"github.com/AlibekovAA/jwt-auth/internal/observability/metrics"
)

type LimiterType string

const (
	LimiterLogin    LimiterType = "login"
	LimiterRegister LimiterType = "register"
	LimiterRefresh  LimiterType = "refresh"
	LimiterGeneral  LimiterType = "general"
)

// RateLimiter keeps one token bucket per client key.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// StartCleanup periodically drops buckets that are full again, until ctx is done.
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = constants.RateLimitCleanupInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.cleanupLimiters()
			}
		}
	}()
}

func (rl *RateLimiter) cleanupLimiters() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, limiter := range rl.limiters {
		if limiter.Tokens() >= float64(rl.burst) {
			delete(rl.limiters, key)
		}
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[key]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		limiter, exists = rl.limiters[key]
		if !exists {
			limiter = rate.NewLimiter(rl.rate, rl.burst)
			rl.limiters[key] = limiter
		}
		rl.mu.Unlock()
	}

	return limiter
}

func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

func (rl *RateLimiter) size() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.limiters)
}

// StrictRateLimiter holds a separate budget for each sensitive endpoint so
// that credential guessing cannot borrow from general traffic.
type StrictRateLimiter struct {
	limiters map[LimiterType]*RateLimiter
}

func NewStrictRateLimiter() *StrictRateLimiter {
	return &StrictRateLimiter{
		limiters: map[LimiterType]*RateLimiter{
			LimiterLogin:    NewRateLimiter(constants.RateLimitLoginRequestsPerSecond, constants.RateLimitLoginBurst),
			LimiterRegister: NewRateLimiter(constants.RateLimitRegisterRequestsPerSecond, constants.RateLimitRegisterBurst),
			LimiterRefresh:  NewRateLimiter(constants.RateLimitRefreshRequestsPerSecond, constants.RateLimitRefreshBurst),
			LimiterGeneral:  NewRateLimiter(constants.RateLimitGeneralRequestsPerSecond, constants.RateLimitGeneralBurst),
		},
	}
}

// NewStrictRateLimiterWith is used by tests to install custom buckets.
func NewStrictRateLimiterWith(limiters map[LimiterType]*RateLimiter) *StrictRateLimiter {
	return &StrictRateLimiter{limiters: limiters}
}

func (srl *StrictRateLimiter) StartCleanup(ctx context.Context) {
	for _, l := range srl.limiters {
		l.StartCleanup(ctx, constants.RateLimitCleanupInterval)
	}
}

func (srl *StrictRateLimiter) Middleware(limiterType LimiterType) func(http.Handler) http.Handler {
	limiter, ok := srl.limiters[limiterType]
	if !ok {
		limiter = srl.limiters[LimiterGeneral]
	}

	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(GetClientIP(r)) {
				metrics.RateLimitBlocked.WithLabelValues(r.URL.Path, string(limiterType)).Inc()
				WriteDomainError(w, commonerrors.ErrThrottled)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
