package cleanup

import (
	"context"
	"time"

	"github.com/AlibekovAA/jwt-auth/internal/common/clock"
	"github.com/AlibekovAA/jwt-auth/internal/common/constants"
	"github.com/AlibekovAA/jwt-auth/internal/common/logger"
	"github.com/AlibekovAA/jwt-auth/internal/observability/metrics"
)

type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Cleaner struct {
	repo     ExpiredDeleter
	clock    clock.Clock
	interval time.Duration
	log      *logger.Logger
}

func New(repo ExpiredDeleter, c clock.Clock, interval time.Duration, log *logger.Logger) *Cleaner {
	if interval <= 0 {
		interval = constants.RefreshTokenCleanupInterval
	}
	return &Cleaner{repo: repo, clock: c, interval: interval, log: log}
}

// Run deletes expired refresh tokens every interval until ctx is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = c.RunOnce(ctx)
		}
	}
}

func (c *Cleaner) RunOnce(ctx context.Context) (int64, error) {
	deleted, err := c.repo.DeleteExpired(ctx, c.clock.Now())
	if err != nil {
		c.log.WithFields(ctx, logger.Fields{
			"action": "refresh_token_cleanup_failed",
		}).Errorf("refresh token cleanup failed: %v", err)
		return 0, err
	}

	if deleted > 0 {
		metrics.RefreshTokensCleanupDeleted.Add(float64(deleted))
		c.log.WithFields(ctx, logger.Fields{
			"action":  "refresh_token_cleanup",
			"deleted": deleted,
		}).Info("deleted expired refresh tokens")
	}
	return deleted, nil
}
