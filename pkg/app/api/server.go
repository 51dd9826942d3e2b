// Package api implements app.Runner for the bridge server process.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/scryptex/bridge-middleware/pkg/app"
	apphttp "github.com/scryptex/bridge-middleware/pkg/app/http"
	"github.com/scryptex/bridge-middleware/pkg/auth"
	"github.com/scryptex/bridge-middleware/pkg/bridge/service"
	"github.com/scryptex/bridge-middleware/pkg/bridge/sweep"
	"github.com/scryptex/bridge-middleware/pkg/config"
	"github.com/scryptex/bridge-middleware/pkg/ratelimit"
)

const (
	defaultRequestTimeout = 60 * time.Second
	readyTimeout          = 2 * time.Second
)

// Server holds cfg to init the bridge server.
type Server struct {
	cfg *config.Config
}

var _ app.Runner = (*Server)(nil)

// NewServer initializes a new bridge server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// Run wires the bridge, starts its background loops and serves HTTP until an OS
// shutdown signal is received or the server fails.
func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("bridge server config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting bridge server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Int("chains", len(cfg.Chains)))

	core, err := app.NewCore(cfg, logger)
	if err != nil {
		return err
	}
	defer core.Close()

	if core.Broker != nil {
		go func() {
			if err := core.Broker.Run(ctx); err != nil {
				logger.Error("Notification broker stopped", zap.Error(err))
			}
		}()
	}

	sweeper := sweep.NewSweeper(core.Store, core.Machine, core.Coordinator, cfg.Bridge.SweepInterval, logger)
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("start sweeper: %w", err)
	}
	// Stopped explicitly after ServeAndWait for deterministic shutdown order.
	stopSweeper := sync.OnceFunc(sweeper.Stop)
	defer stopSweeper()

	stopRelayer, err := s.startRelayer(ctx, core, logger)
	if err != nil {
		return err
	}
	defer stopRelayer()

	limiter := ratelimit.New(core.RedisClient())
	defer func() { _ = limiter.Close() }()

	svc := service.NewLog(service.NewService(
		core.Registry,
		core.Quotes,
		core.Machine,
		core.Reader,
		core.Coordinator,
		sweeper,
	), logger)

	router := s.setupRouter(core, svc, service.RouteConfig{
		Limiter:  limiter,
		Policies: ratelimit.PoliciesFromConfig(cfg.RateLimit),
		Operator: auth.NewOperatorAuth(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer),
	}, logger)

	err = apphttp.ServeAndWait(ctx, apphttp.Server{
		Name:       "bridge-server",
		Handler:    router,
		Config:     &cfg.Server,
		OnShutdown: []func(){core.Hub.Close},
	}, logger)

	// Stop background work before deferred store and redis closes kick in.
	stopRelayer()
	stopSweeper()

	return err
}

// startRelayer runs the relayer in-process when enabled. Deployments that run
// cmd/relayer separately set relayer.enabled=false here.
func (s *Server) startRelayer(ctx context.Context, core *app.Core, logger *zap.Logger) (func(), error) {
	if !s.cfg.Relayer.Enabled {
		logger.Info("In-process relayer disabled")
		return func() {}, nil
	}

	engine, closeClients, err := core.NewRelayer(s.cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create relayer: %w", err)
	}
	if err := engine.Start(ctx); err != nil {
		closeClients()
		return nil, fmt.Errorf("start relayer engine: %w", err)
	}

	return sync.OnceFunc(func() {
		engine.Stop()
		closeClients()
	}), nil
}

func (s *Server) setupRouter(core *app.Core, svc service.Service, routeCfg service.RouteConfig, logger *zap.Logger) chi.Router {
	timeout := s.cfg.Server.MiddlewareTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apphttp.AccessLog(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/ready", readyHandler(core, logger))

	if s.cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
		logger.Info("Metrics enabled", zap.String("path", "/metrics"))
	}

	// The websocket outlives the request timeout.
	r.Get("/bridge/ws", core.Hub.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))
		service.RegisterRoutes(r, svc, routeCfg, logger)
	})

	return r
}

func readyHandler(core *app.Core, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := core.Ready(ctx); err != nil {
			logger.Warn("Readiness check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT_READY"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}
