package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	commonerrors "github.com/AlibekovAA/jwt-auth/internal/common/errors"
	commonhttp "github.com/AlibekovAA/jwt-auth/internal/common/http"
	"github.com/AlibekovAA/jwt-auth/internal/common/jwtverify"
	"github.com/AlibekovAA/jwt-auth/internal/common/logger"
)

type RouterDeps struct {
	Handler            *Handler
	Verifier           *jwtverify.Verifier
	RateLimiter        *commonhttp.StrictRateLimiter
	Log                *logger.Logger
	APIBasePath        string
	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
	TrustProxyHeaders  bool
	HealthChecks       map[string]commonhttp.HealthCheck
	MetricsHandler     http.Handler
}

func NewRouter(d RouterDeps) http.Handler {
	if d.Handler == nil {
		panic("http.NewRouter: nil handler")
	}
	if d.Verifier == nil {
		panic("http.NewRouter: nil verifier")
	}
	if d.RateLimiter == nil {
		d.RateLimiter = commonhttp.NewStrictRateLimiter()
	}

	r := chi.NewRouter()

	// Only behind a proxy that overwrites these headers.
	if d.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.StripSlashes)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", commonhttp.HeaderTraceID},
		ExposedHeaders:   []string{commonhttp.HeaderTraceID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		commonhttp.WriteDomainError(w, commonerrors.ErrNotFound)
	})
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/health", commonhttp.HealthHandler(d.Log, d.HealthChecks))
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	api := func(r chi.Router) {
		if d.RequestTimeout > 0 {
			r.Use(middleware.Timeout(d.RequestTimeout))
		}

		limit := d.RateLimiter.Middleware

		r.With(limit(commonhttp.LimiterRegister)).Post("/register", d.Handler.Register)
		r.With(limit(commonhttp.LimiterLogin)).Post("/login", d.Handler.Login)
		r.With(limit(commonhttp.LimiterLogin)).Post("/token", d.Handler.Login)
		r.With(limit(commonhttp.LimiterRefresh)).Post("/token/refresh", d.Handler.Refresh)
		r.With(limit(commonhttp.LimiterGeneral)).Post("/token/verify", d.Handler.Verify)

		r.Group(func(r chi.Router) {
			r.Use(limit(commonhttp.LimiterGeneral))
			r.Use(jwtverify.Middleware(d.Verifier, d.Log))
			r.Get("/user", d.Handler.CurrentUser)
		})
	}

	if d.APIBasePath == "" {
		r.Group(api)
	} else {
		r.Route(d.APIBasePath, api)
	}

	return r
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	commonhttp.WriteError(
		w,
		http.StatusMethodNotAllowed,
		commonhttp.CodeMethodNotAllowed,
		fmt.Sprintf("Method %q not allowed.", r.Method),
	)
}
