package constants

import "time"

const (
	UsernameMaxLength  = 150
	NameMaxLength      = 150
	EmailMaxLength     = 254
	PasswordMaxBytes   = 72
	JWTSecretMinLength = 32
	BcryptCost         = 12

	DefaultMaxRequestSize = 1 << 20

	DBPoolMaxConns        = 25
	DBPoolMinConns        = 5
	DBPoolConnMaxLifetime = time.Hour
	DBPoolConnMaxIdleTime = 30 * time.Minute
	DBPoolHealthCheck     = 1 * time.Minute
	DBPoolConnectTimeout  = 5 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = 1 * time.Second
	DBPoolMetricsInterval = 30 * time.Second
	DBQueryTimeout        = 30 * time.Second

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	DefaultAuthHTTPPort = "8000"
	DefaultAPIBasePath  = "/api"

	DefaultCircuitBreakerThreshold = 500
	DefaultCircuitBreakerTimeout   = 15 * time.Second
	DefaultCircuitBreakerReset     = 10 * time.Second

	DefaultAuthRequestTimeout      = 5 * time.Second
	DefaultAccessTokenTTL          = 5 * time.Minute
	DefaultRefreshTokenTTL         = 24 * time.Hour
	DefaultMaxRefreshTokensPerUser = 5

	RefreshTokenCleanupInterval = time.Hour

	RateLimitCleanupInterval           = 5 * time.Minute
	RateLimitLoginRequestsPerSecond    = 1
	RateLimitLoginBurst                = 5
	RateLimitRegisterRequestsPerSecond = 0.2
	RateLimitRegisterBurst             = 3
	RateLimitRefreshRequestsPerSecond  = 2
	RateLimitRefreshBurst              = 10
	RateLimitGeneralRequestsPerSecond  = 20
	RateLimitGeneralBurst              = 40

	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28

	TestJWTSecret      = "test-secret-key-that-is-at-least-32-bytes-long"
	TestAccessTokenTTL = 5 * time.Minute
)

type TraceIDKeyType string

const TraceIDKey TraceIDKeyType = "trace_id"
