package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	authrepo "github.com/AlibekovAA/jwt-auth/internal/auth/repository"
	"github.com/AlibekovAA/jwt-auth/internal/common/config"
	"github.com/AlibekovAA/jwt-auth/internal/common/constants"
	"github.com/AlibekovAA/jwt-auth/internal/common/db"
	"github.com/AlibekovAA/jwt-auth/internal/common/logger"
	userrepo "github.com/AlibekovAA/jwt-auth/internal/user/repository"
)

// AuthApp holds the process-wide dependencies of the auth service.
type AuthApp struct {
	Log              *logger.Logger
	Config           config.AuthConfig
	Pool             *pgxpool.Pool
	TxManager        *db.PgTxManager
	UserRepo         userrepo.Repository
	RefreshTokenRepo authrepo.RefreshTokenRepository
}

// NewAuthApp loads configuration, connects to Postgres and brings the schema
// up to date. Background pool metrics stop when ctx is cancelled.
func NewAuthApp(ctx context.Context) (*AuthApp, error) {
	config.LoadDotEnv()

	cfg, err := config.LoadAuthConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogDir, "auth", cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	pool, err := db.NewPool(ctx, log, cfg.DatabaseURL)
	if err != nil {
		_ = log.Close()
		return nil, fmt.Errorf("failed to initialize database pool: %w", err)
	}

	err = db.RetryWithBackoff(ctx, log, db.DefaultRetryConfig, func(ctx context.Context) error {
		return db.Migrate(ctx, pool, log)
	})
	if err != nil {
		pool.Close()
		_ = log.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	db.StartPoolMetrics(ctx, pool, constants.DBPoolMetricsInterval)

	return &AuthApp{
		Log:              log,
		Config:           cfg,
		Pool:             pool,
		TxManager:        db.NewTxManager(pool),
		UserRepo:         userrepo.NewPgRepository(pool),
		RefreshTokenRepo: authrepo.NewPgRefreshTokenRepository(pool),
	}, nil
}

func (a *AuthApp) Close() {
	a.Pool.Close()
	_ = a.Log.Close()
}
