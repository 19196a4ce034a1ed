package db

import (
	"context"
	_ "embed"
	"time"

	"github.com/AlibekovAA/jwt-auth/internal/common/logger"
	"github.com/AlibekovAA/jwt-auth/internal/observability/metrics"
)

//go:embed migrations/schema.sql
var schemaSQL string

// Migrate applies the idempotent schema. It is safe to run on every start.
func Migrate(ctx context.Context, q Querier, log *logger.Logger) error {
	start := time.Now()
	_, err := q.Exec(ctx, schemaSQL)
	if err := HandleExecError(err, "migrate schema", start); err != nil {
		return err
	}

	metrics.DBMigrationsApplied.Inc()
	log.WithFields(ctx, logger.Fields{
		"action":   "db_migrate",
		"duration": time.Since(start).String(),
	}).Info("database schema is up to date")
	return nil
}
