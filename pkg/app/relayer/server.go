// Package relayer implements app.Runner for a standalone relayer process. It drives the
// same store as the bridge servers, which then run with relayer.enabled=false.
package relayer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/scryptex/bridge-middleware/pkg/app"
	apperrors "github.com/scryptex/bridge-middleware/pkg/app/errors"
	apphttp "github.com/scryptex/bridge-middleware/pkg/app/http"
	"github.com/scryptex/bridge-middleware/pkg/bridge"
	"github.com/scryptex/bridge-middleware/pkg/config"
)

const (
	defaultHTTPMiddlewareTimeout = 60 * time.Second
	readyTimeout                 = 2 * time.Second
)

// Server holds configuration for the relayer process.
type Server struct {
	cfg *config.Config
}

var _ app.Runner = (*Server)(nil)

// NewServer initializes a new relayer Server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// Run starts the relayer engine and the operational HTTP server.
// It blocks until an OS shutdown signal is received or a fatal server error occurs.
func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("nil config")
	}
	cfg := s.cfg
	if cfg.Database.Driver == config.DriverMemory {
		return app.ErrSharedStoreRequired
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting bridge relayer", zap.Int("chains", len(cfg.Chains)))

	core, err := app.NewCore(cfg, logger)
	if err != nil {
		return err
	}
	defer core.Close()

	engine, closeClients, err := core.NewRelayer(cfg, logger)
	if err != nil {
		return fmt.Errorf("create relayer: %w", err)
	}
	defer closeClients()

	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("start relayer engine: %w", err)
	}
	defer engine.Stop()

	return apphttp.ServeAndWait(ctx, apphttp.Server{
		Name:    "relayer",
		Handler: s.newRouter(core, logger),
		Config:  &cfg.Server,
	}, logger)
}

func (s *Server) newRouter(core *app.Core, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apphttp.AccessLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultHTTPMiddlewareTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := core.Ready(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT_READY"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	})

	if s.cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
		logger.Info("Metrics enabled", zap.String("path", "/metrics"))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/transfers/{id}", apphttp.HandleError(handleGetTransfer(core)))
		r.Get("/status", handleGetStatus(s.cfg))
	})

	return r
}

func handleGetTransfer(core *app.Core) apphttp.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id := chi.URLParam(r, "id")
		view, err := core.Reader.GetStatus(r.Context(), id)
		if errors.Is(err, bridge.ErrTransactionNotFound) {
			return apperrors.ResourceNotFoundError(err, "transaction not found")
		}
		if err != nil {
			return apperrors.GeneralError(err)
		}
		apphttp.WriteJSON(w, http.StatusOK, view)
		return nil
	}
}

func handleGetStatus(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		apphttp.WriteJSON(w, http.StatusOK, map[string]any{
			"status":        "running",
			"chains":        len(cfg.Chains),
			"submit_source": cfg.Relayer.SubmitSource,
			"concurrency":   cfg.Relayer.Concurrency,
		})
	}
}
