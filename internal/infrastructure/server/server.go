package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/AgentOS/webruntime/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/app"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/registry"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/host"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/sandbox"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/tracing"
)

// Server wraps the ops HTTP server and the runtime it exposes
type Server struct {
	router  *gin.Engine
	http    *http.Server
	manager *app.Manager
	catalog *registry.Catalog
	host    *host.Adapter
	tracer  *tracing.Tracer
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// Option customizes server assembly
type Option func(*options)

type options struct {
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// WithLogger replaces the logger built from the logging config
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics replaces the metrics registered on the default registry
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(o *options) { o.metrics = metrics }
}

// NewServer assembles the runtime and its ops API
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: cfg.Logging.Development,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	logger.Info("Initializing web runtime",
		zap.String("port", cfg.Server.Port),
		zap.String("apps_dir", cfg.Runtime.AppsDir),
		zap.String("container_app_id", cfg.Runtime.ContainerAppID),
	)

	metrics := o.metrics
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}
	tracer := tracing.New("webruntime", logger.Logger)

	container := app.NewContainerState(cfg.Runtime.ContainerAppID)
	hostCfg := host.Config{
		DevicePropertiesPath: cfg.Runtime.DeviceInfoPath,
		SystemLanguage:       cfg.Runtime.SystemLanguage,
	}
	adapter, err := host.New(hostCfg, container,
		host.WithLogger(logger.Logger),
		host.WithMetrics(metrics),
	)
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("failed to create host adapter: %w", err)
	}

	catalog, err := registry.NewCatalog(cfg.Runtime.AppsDir,
		registry.WithCacheSize(cfg.Cache.ManifestCacheSize),
		registry.WithLogger(logger.Logger),
		registry.WithMetrics(metrics),
	)
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("failed to create catalog: %w", err)
	}
	if _, err := catalog.Scan(context.Background()); err != nil {
		logger.Warn("Initial catalog scan failed", zap.Error(err))
	}

	sandboxCfg := sandbox.DefaultConfig()
	sandboxCfg.Timeout = cfg.Sandbox.Timeout
	sandboxCfg.EnableConsole = cfg.Sandbox.Console

	manager := app.NewManager(adapter, container).
		WithMetrics(metrics).
		WithLogger(logger.Component("instances")).
		WithSandbox(sandboxCfg).
		WithLocaleRegion(cfg.Runtime.LocaleRegion)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.Recovery(logger.Component("ops")))
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := apihttp.NewHandlers(manager, catalog, metrics, tracer, logger.Logger)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Catalog
	router.GET("/catalog", handlers.ListCatalog)
	router.POST("/catalog/rescan", handlers.RescanCatalog)
	router.GET("/catalog/:appId", handlers.GetCatalogApp)
	router.POST("/catalog/:appId/launch", handlers.LaunchApp)

	// Instances
	router.GET("/instances", handlers.ListInstances)
	router.GET("/instances/:id", handlers.GetInstance)
	router.DELETE("/instances/:id", handlers.CloseInstance)
	router.POST("/instances/:id/call", handlers.CallInstance)
	router.POST("/instances/:id/eval", handlers.EvalInstance)

	s := &Server{
		router:  router,
		manager: manager,
		catalog: catalog,
		host:    adapter,
		tracer:  tracer,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}
	s.launchContainer()

	logger.Info("Server initialized successfully")
	return s, nil
}

// launchContainer starts the designated container application when it is installed
func (s *Server) launchContainer() {
	appID := s.config.Runtime.ContainerAppID
	if appID == "" {
		return
	}

	m, ok := s.catalog.Lookup(appID)
	if !ok {
		s.logger.Warn("Container application not installed", zap.String("app_id", appID))
		return
	}
	if _, _, err := s.manager.Launch(context.Background(), m, app.LaunchOptions{}); err != nil {
		s.logger.Error("Failed to launch container application", zap.String("app_id", appID), zap.Error(err))
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Manager() *app.Manager      { return s.manager }
func (s *Server) Catalog() *registry.Catalog { return s.catalog }
func (s *Server) Host() *host.Adapter        { return s.host }

// Run serves the ops API until Shutdown is called
func (s *Server) Run() error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the ops API, closes every instance and flushes telemetry
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var err error
	if s.http != nil {
		if shutdownErr := s.http.Shutdown(ctx); shutdownErr != nil {
			s.logger.Error("Failed to stop HTTP server", zap.Error(shutdownErr))
			err = fmt.Errorf("failed to stop http server: %w", shutdownErr)
		}
	}

	s.manager.CloseAll()
	s.tracer.Close()
	s.metrics.Close()
	_ = s.logger.Close()

	return err
}
