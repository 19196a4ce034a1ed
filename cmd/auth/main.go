package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	authcleanup "github.com/AlibekovAA/jwt-auth/internal/auth/cleanup"
	authhttp "github.com/AlibekovAA/jwt-auth/internal/auth/http"
	"github.com/AlibekovAA/jwt-auth/internal/auth/service"
	"github.com/AlibekovAA/jwt-auth/internal/common/bootstrap"
	"github.com/AlibekovAA/jwt-auth/internal/common/clock"
	"github.com/AlibekovAA/jwt-auth/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/jwt-auth/internal/common/crypto"
	commonhttp "github.com/AlibekovAA/jwt-auth/internal/common/http"
	"github.com/AlibekovAA/jwt-auth/internal/common/jwtverify"
	"github.com/AlibekovAA/jwt-auth/internal/common/resilience"
	srv "github.com/AlibekovAA/jwt-auth/internal/common/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewAuthApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "auth: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	cfg := app.Config
	log := app.Log
	realClock := clock.NewRealClock()

	dbBreaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Threshold:  cfg.CircuitBreakerThreshold,
		Timeout:    cfg.CircuitBreakerTimeout,
		ResetAfter: cfg.CircuitBreakerReset,
		Name:       "auth-db",
		Logger:     log,
		Clock:      realClock,
	})

	idGenerator := commoncrypto.NewUUIDGenerator()
	issuer := service.NewTokenIssuer(
		cfg.JWTSecret,
		&commoncrypto.TokenIDGenerator{},
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		realClock,
	)
	verifier := jwtverify.NewVerifier(cfg.JWTSecret, realClock)

	refreshTokens := service.NewRefreshTokenStore(
		app.RefreshTokenRepo,
		app.TxManager,
		dbBreaker,
		issuer,
		idGenerator,
		cfg.MaxRefreshTokensPerUser,
		realClock,
		log,
	)

	authService := service.NewAuthService(service.Deps{
		Repo:             app.UserRepo,
		RefreshTokens:    refreshTokens,
		TxManager:        app.TxManager,
		Issuer:           issuer,
		Verifier:         verifier,
		Hasher:           commoncrypto.NewBcryptHasher(constants.BcryptCost),
		IDGenerator:      idGenerator,
		DBCircuitBreaker: dbBreaker,
		Clock:            realClock,
		Log:              log,
	})

	bgCtx, cancelBackground := context.WithCancel(ctx)
	defer cancelBackground()

	cleaner := authcleanup.New(app.RefreshTokenRepo, realClock, constants.RefreshTokenCleanupInterval, log)
	go cleaner.Run(bgCtx)

	rateLimiter := commonhttp.NewStrictRateLimiter()
	rateLimiter.StartCleanup(bgCtx)

	router := authhttp.NewRouter(authhttp.RouterDeps{
		Handler:            authhttp.NewHandler(authService, log),
		Verifier:           verifier,
		RateLimiter:        rateLimiter,
		Log:                log,
		APIBasePath:        cfg.APIBasePath,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RequestTimeout:     cfg.RequestTimeout,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
		HealthChecks: map[string]commonhttp.HealthCheck{
			"database": app.Pool.Ping,
		},
		MetricsHandler: promhttp.Handler(),
	})

	serverConfig := srv.DefaultServerConfig(cfg.HTTPPort)
	server := srv.NewServer(serverConfig, commonhttp.BuildBaseHandler(log, router))

	err = srv.Run(ctx, server, serverConfig, log, "auth", func(ctx context.Context) error {
		log.Info("auth service: stopping background workers")
		cancelBackground()
		return nil
	})
	if err != nil {
		log.Errorf("auth service exited with error: %v", err)
		cancelBackground()
		app.Close()
		os.Exit(1)
	}
}
