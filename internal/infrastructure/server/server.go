// Package server wires configuration, the browser model, session storage
// and the HTTP/websocket API into one runnable server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/tabsession/internal/api/command"
	apihttp "github.com/GriffinCanCode/tabsession/internal/api/http"
	"github.com/GriffinCanCode/tabsession/internal/api/middleware"
	"github.com/GriffinCanCode/tabsession/internal/api/ws"
	"github.com/GriffinCanCode/tabsession/internal/domain/session"
	"github.com/GriffinCanCode/tabsession/internal/infrastructure/config"
	"github.com/GriffinCanCode/tabsession/internal/infrastructure/logging"
	"github.com/GriffinCanCode/tabsession/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/tabsession/internal/providers/browser"
)

const readHeaderTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	http    *http.Server
	browser *browser.Browser
	manager *session.Manager
	hub     *ws.Hub
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	backend, err := browser.ParseBackend(cfg.Browser.Backend)
	if err != nil {
		return nil, err
	}

	logger.Info("Initializing session server",
		zap.String("addr", cfg.Address()),
		zap.String("backend", string(backend)),
	)

	metrics := monitoring.NewMetrics()

	store, err := session.NewStore(session.StoreConfig{
		Dir:            cfg.Session.Dir,
		InternalPrefix: cfg.Session.InternalPrefix,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	logger.Info("Session store ready", zap.String("dir", store.Dir()))

	b := browser.New(browser.Config{
		Backend: backend,
		Loader: browser.NewHTTPLoader(browser.HTTPLoaderConfig{
			UserAgent: cfg.Browser.UserAgent,
			Timeout:   cfg.Browser.LoadTimeout.Duration,
		}),
		Logger:  logger,
		Metrics: metrics,
	})

	hub := ws.NewHub(nil, logger, metrics)
	manager := session.NewManager(store, b, b, logger,
		session.WithDefaultReporter(session.MultiReporter{session.NewLogReporter(logger), hub}),
		session.WithMetrics(metrics),
		session.WithDefaultName(cfg.Session.DefaultName),
	)
	dispatcher := command.NewDispatcher(manager, logger)
	hub.SetExecutor(dispatcher)

	if err := openStartWindow(b, cfg.Browser.StartURL, logger); err != nil {
		return nil, err
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.CORSConfig{
		AllowOrigins: cfg.Server.CORSOrigins,
		MaxAge:       middleware.DefaultCORSConfig().MaxAge,
	}))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(manager, dispatcher, b, logger)
	handlers.Register(router)

	stream := []gin.HandlerFunc{hub.HandleConnection}
	if cfg.RateLimit.Enabled {
		// Upgrades share one bucket on top of the per-client limit
		stream = append([]gin.HandlerFunc{middleware.GlobalRateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		})}, stream...)
	}
	router.GET("/stream", stream...)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	var handler http.Handler = router
	if cfg.Server.Gzip {
		handler = gzhttp.GzipHandler(router)
	}

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		http:    &http.Server{Addr: cfg.Address(), Handler: handler, ReadHeaderTimeout: readHeaderTimeout},
		browser: b,
		manager: manager,
		hub:     hub,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// openStartWindow opens the initial window. A start page that fails to load
// leaves the tab on about:blank.
func openStartWindow(b *browser.Browser, startURL string, logger *logging.Logger) error {
	ctx := context.Background()
	_, tab, err := b.OpenWindow(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to open start window: %w", err)
	}
	if startURL == "" || startURL == tab.URL() {
		return nil
	}
	if err := tab.Navigate(ctx, startURL); err != nil {
		logger.Warn("Failed to load start page", zap.String("url", startURL), zap.Error(err))
	}
	return nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Manager returns the session manager
func (s *Server) Manager() *session.Manager {
	return s.manager
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	s.hub.Close()
	err := s.http.Shutdown(ctx)
	if err != nil {
		s.logger.Error("Graceful shutdown failed", zap.Error(err))
	}
	_ = s.logger.Sync()
	return err
}

// Close shuts the server down immediately
func (s *Server) Close() error {
	s.hub.Close()
	err := s.http.Close()
	_ = s.logger.Sync()
	return err
}
