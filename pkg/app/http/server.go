package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/scryptex/bridge-middleware/pkg/config"
)

const defaultShutdownTimeout = 30 * time.Second

// Server describes one HTTP surface of a bridge process.
type Server struct {
	// Name identifies the process in logs, e.g. "bridge-server" or "relayer".
	Name    string
	Handler http.Handler
	Config  *config.ServerConfig
	// OnShutdown hooks run when shutdown starts. Hijacked connections such as
	// websocket subscribers are not tracked by http.Server and must be closed here.
	OnShutdown []func()
}

// ServeAndWait serves s on the configured address until ctx is canceled or the
// listener fails, then shuts down gracefully within the configured timeout.
// It returns the listener failure, if any, or the shutdown error.
func ServeAndWait(ctx context.Context, s Server, logger *zap.Logger) error {
	if s.Handler == nil {
		return fmt.Errorf("%s: nil handler", s.Name)
	}
	if s.Config == nil {
		return fmt.Errorf("%s: nil server config", s.Name)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("server", s.Name))

	shutdownTimeout := s.Config.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	srv := &http.Server{
		Addr:         net.JoinHostPort(s.Config.Host, strconv.Itoa(s.Config.Port)),
		Handler:      s.Handler,
		ReadTimeout:  s.Config.ReadTimeout,
		WriteTimeout: s.Config.WriteTimeout,
		IdleTimeout:  s.Config.IdleTimeout,
	}
	for _, hook := range s.OnShutdown {
		srv.RegisterOnShutdown(hook)
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("%s: listen on %s: %w", s.Name, srv.Addr, err)
	}
	logger.Info("HTTP server listening",
		zap.String("address", ln.Addr().String()),
		zap.Duration("read_timeout", srv.ReadTimeout),
		zap.Duration("write_timeout", srv.WriteTimeout))

	errCh := make(chan error, 1)
	go func() {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errCh:
		if runErr != nil {
			logger.Error("HTTP server failed", zap.Error(runErr))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("Shutting down HTTP server", zap.Duration("timeout", shutdownTimeout))
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
		return fmt.Errorf("%s: shutdown: %w", s.Name, err)
	}
	if runErr != nil {
		return fmt.Errorf("%s: serve: %w", s.Name, runErr)
	}

	logger.Info("HTTP server stopped")
	return nil
}
