package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/AlibekovAA/jwt-auth/internal/common/logger"
)

// ShutdownHook runs after the listener stops accepting keep-alive traffic and
// before in-flight requests are awaited.
type ShutdownHook func(ctx context.Context) error

// Run serves on srv until ctx is cancelled, then shuts down gracefully.
// A listener failure is returned immediately.
func Run(ctx context.Context, srv *http.Server, cfg ServerConfig, log *logger.Logger, serviceName string, hooks ...ShutdownHook) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
	}
	return Serve(ctx, srv, ln, cfg, log, serviceName, hooks...)
}

func Serve(ctx context.Context, srv *http.Server, ln net.Listener, cfg ServerConfig, log *logger.Logger, serviceName string, hooks ...ShutdownHook) error {
	serveErr := make(chan error, 1)
	go func() {
		log.Infof("%s service listening on %s", serviceName, ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("%s service stopped: %w", serviceName, err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Infof("shutting down %s service...", serviceName)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	drainCtx, drainCancel := context.WithTimeout(shutdownCtx, cfg.DrainTimeout)
	defer drainCancel()

	srv.SetKeepAlivesEnabled(false)

	for i, hook := range hooks {
		if err := hook(drainCtx); err != nil {
			log.Errorf("%s service: shutdown hook %d failed: %v", serviceName, i, err)
		}
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("%s service forced to shutdown: %v", serviceName, err)
		return err
	}

	log.Infof("%s service stopped gracefully", serviceName)
	return nil
}
