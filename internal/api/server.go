package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/tphakala/birdview/internal/api/middleware"
	v1 "github.com/tphakala/birdview/internal/api/v1"
	"github.com/tphakala/birdview/internal/conf"
	"github.com/tphakala/birdview/internal/dashboard"
	"github.com/tphakala/birdview/internal/dataset"
	"github.com/tphakala/birdview/internal/logger"
	"github.com/tphakala/birdview/internal/observability"
	"github.com/tphakala/birdview/internal/session"
)

// Server is the HTTP server for birdview.
// It manages the Echo instance, middleware and the API controller.
type Server struct {
	// Core components
	echo     *echo.Echo
	config   *Config
	settings *conf.Settings
	log      logger.Logger

	// Dependencies
	store     *dataset.Store
	dashboard *dashboard.Service
	sessions  *session.Manager
	metrics   *observability.Metrics

	apiController *v1.Controller

	startTime time.Time
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(log logger.Logger) ServerOption {
	return func(s *Server) {
		s.log = log
	}
}

// WithMetrics sets the observability metrics for the server.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a new HTTP server with the given settings and services.
func New(settings *conf.Settings, store *dataset.Store, svc *dashboard.Service, sessions *session.Manager, opts ...ServerOption) (*Server, error) {
	config := ConfigFromSettings(settings)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	s := &Server{
		config:    config,
		settings:  settings,
		store:     store,
		dashboard: svc,
		sessions:  sessions,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = GetLogger()
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Debug = config.Debug

	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()
	s.setupRoutes()

	s.log.Info("HTTP server initialized",
		logger.String("address", config.Address()),
		logger.Bool("debug", config.Debug))

	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	// Recovery middleware - should be first
	s.echo.Use(echomw.Recover())
	s.echo.Use(mw.NewRequestID())
	s.echo.Use(mw.NewRequestLogger(s.log.Module("http")))

	if s.metrics != nil {
		s.echo.Use(mw.NewTelemetry(s.metrics.HTTP))
	}

	s.echo.Use(mw.NewCORS(s.config.AllowedOrigins))
	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit))
	s.echo.Use(echomw.Gzip())
	s.echo.Use(mw.NewSecureHeaders())
}

// setupRoutes creates the API controller and routes unmatched requests
// through its error format.
func (s *Server) setupRoutes() {
	controllerOpts := []v1.Option{v1.WithLogger(s.log.Module("v1"))}
	if s.metrics != nil {
		controllerOpts = append(controllerOpts, v1.WithMetrics(s.metrics))
	}
	s.apiController = v1.New(s.echo, s.settings, s.store, s.dashboard, s.sessions, controllerOpts...)

	s.echo.HTTPErrorHandler = s.handleHTTPError
}

// handleHTTPError renders errors returned by middleware and the router, such as
// unknown routes, in the API error format.
func (s *Server) handleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(code)
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = s.apiController.HandleError(c, err, message, code)
	}
	if err != nil {
		s.log.Error("Failed to write error response", logger.Error(err))
	}
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.startBlocking()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("Shutdown signal received, initiating graceful shutdown")
		if err := s.Shutdown(); err != nil {
			return err
		}
		return <-errCh
	}
}

// startBlocking serves HTTP requests and blocks until the server is shut down.
func (s *Server) startBlocking() error {
	addr := s.config.Address()
	s.log.Info("Starting HTTP server", logger.String("address", addr))

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Error("Error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.apiController.Shutdown()

	s.log.Info("Server shutdown complete",
		logger.Duration("uptime", time.Since(s.startTime).Round(time.Second)))
	return nil
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// APIController returns the v1 API controller.
func (s *Server) APIController() *v1.Controller {
	return s.apiController
}
