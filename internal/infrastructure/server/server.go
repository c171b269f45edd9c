package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	api "github.com/GriffinCanCode/PenBox/backend/internal/api/http"
	"github.com/GriffinCanCode/PenBox/backend/internal/api/middleware"
	"github.com/GriffinCanCode/PenBox/backend/internal/api/ws"
	"github.com/GriffinCanCode/PenBox/backend/internal/domain/pen"
	"github.com/GriffinCanCode/PenBox/backend/internal/domain/preview"
	"github.com/GriffinCanCode/PenBox/backend/internal/domain/relay"
	"github.com/GriffinCanCode/PenBox/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/PenBox/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/PenBox/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PenBox/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/PenBox/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/PenBox/backend/internal/providers/sandbox"
)

// Version is reported by the status endpoint
var Version = "0.1.0"

// Server wraps the HTTP server and dependencies
type Server struct {
	config  *config.Config
	logger  *logging.Logger
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer

	store *pen.Store
	pool  *sandbox.Pool
	relay *relay.Relay
	hub   *ws.Hub

	router  *gin.Engine
	handler http.Handler
	http    *http.Server
}

// New creates a new server instance
func New(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		File:        cfg.Logging.File,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxBackups:  cfg.Logging.MaxBackups,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	logger.Info("Initializing PenBox server",
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Backend),
		zap.Duration("debounce", cfg.Preview.Debounce),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("penbox", logger.Logger)

	repo, breaker, err := openStore(context.Background(), cfg.Store, logger.Named("store"))
	if err != nil {
		tracer.Close()
		return nil, err
	}
	store := pen.NewStore(pen.Instrument(repo, metrics))

	sandboxCfg := sandbox.DefaultConfig()
	sandboxCfg.Timeout = cfg.Sandbox.Timeout
	pool, err := sandbox.NewPool(sandboxCfg, cfg.Sandbox.PoolSize, metrics)
	if err != nil {
		store.Close()
		tracer.Close()
		return nil, fmt.Errorf("create sandbox pool: %w", err)
	}

	rl := relay.New(relay.Config{RPS: cfg.Relay.RPS, Burst: cfg.Relay.Burst}, logger.Named("relay").Logger, metrics)

	hubCfg := ws.DefaultConfig()
	hubCfg.Debounce = cfg.Preview.Debounce
	hubCfg.LogCap = cfg.Relay.LogCap
	if cfg.Preview.Debounce == 0 {
		hubCfg.Mode = preview.ModeImmediate
	}
	hub := ws.NewHub(hubCfg, rl, store, logger.Named("editor").Logger, metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.Middleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rate := middleware.DefaultRateLimitConfig()
		rate.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rate.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rate))
	}

	handlers := api.NewHandlers(api.Dependencies{
		Store:   store,
		Pool:    pool,
		Hub:     hub,
		Relay:   rl,
		Metrics: metrics,
		Logger:  logger.Named("http").Logger,
		Breaker: breaker,
		Backend: cfg.Store.Backend,
		Version: Version,
	})
	handlers.Register(router)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	var handler http.Handler = router
	if cfg.Server.Gzip {
		if handler, err = middleware.Gzip(router); err != nil {
			pool.Close()
			store.Close()
			tracer.Close()
			return nil, err
		}
	}

	logger.Info("Server initialized successfully")

	return &Server{
		config:  cfg,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
		store:   store,
		pool:    pool,
		relay:   rl,
		hub:     hub,
		router:  router,
		handler: handler,
		http: &http.Server{
			Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler: handler,
		},
	}, nil
}

// openStore builds the configured repository. The breaker is only set for
// the remote backend.
func openStore(ctx context.Context, cfg config.StoreConfig, logger *logging.Logger) (pen.Repository, *resilience.Breaker, error) {
	var seed []*pen.Pen
	if cfg.Fixtures != "" {
		pens, err := pen.LoadFixtures(cfg.Fixtures)
		if err != nil {
			return nil, nil, fmt.Errorf("load fixtures: %w", err)
		}
		seed = pens
		logger.Info("Loaded fixtures", zap.String("pattern", cfg.Fixtures), zap.Int("pens", len(pens)))
	}

	switch cfg.Backend {
	case config.StoreSQLite:
		repo, err := pen.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.Seed(ctx, seed); err != nil {
			repo.Close()
			return nil, nil, err
		}
		logger.Info("Opened SQLite store", zap.String("path", cfg.SQLitePath))
		return repo, nil, nil

	case config.StoreRemote:
		remote := pen.DefaultRemoteConfig(cfg.RemoteURL)
		remote.Token = cfg.RemoteToken
		remote.Table = cfg.RemoteTable
		remote.Timeout = cfg.Timeout
		repo := pen.NewRemoteRepository(remote, logger.Logger)
		if len(seed) > 0 {
			logger.Warn("Fixtures are ignored by the remote store")
		}
		logger.Info("Using remote store", zap.String("url", cfg.RemoteURL), zap.String("table", cfg.RemoteTable))
		return repo, repo.Breaker(), nil

	default:
		return pen.NewMemoryRepository(seed...), nil, nil
	}
}

// Handler returns the root handler, gzip included
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Logger returns the server logger
func (s *Server) Logger() *logging.Logger {
	return s.logger
}

// Run serves until ctx is cancelled or the listener fails, then shuts down
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return s.Shutdown()
	})

	return g.Wait()
}

// Shutdown drains editor sessions and in-flight requests, then releases
// every resource
func (s *Server) Shutdown() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	// hijacked websocket connections are not tracked by http.Server
	if err := s.hub.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close editor sessions: %w", err))
	}
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http: %w", err))
	}
	if err := s.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close releases the sandbox pool, the store and the tracer
func (s *Server) Close() error {
	var errs []error
	if err := s.pool.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close sandbox pool: %w", err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("Failed to close store", zap.Error(err))
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	s.tracer.Close()

	// Sync logger before exit
	s.logger.Sync()

	return errors.Join(errs...)
}
