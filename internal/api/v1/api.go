// Package api implements the birdview JSON API served under /api/v1.
//
// Handlers translate HTTP requests into dashboard passes and session updates.
// Every pass builds its own criteria and view; loaded tables are shared
// read-only through the dataset store.
package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"

	"github.com/tphakala/birdview/internal/conf"
	"github.com/tphakala/birdview/internal/dashboard"
	"github.com/tphakala/birdview/internal/dataset"
	"github.com/tphakala/birdview/internal/errors"
	"github.com/tphakala/birdview/internal/logger"
	"github.com/tphakala/birdview/internal/observability"
	"github.com/tphakala/birdview/internal/privacy"
	"github.com/tphakala/birdview/internal/session"
)

// Prefix is the route group all handlers are registered under.
const Prefix = "/api/v1"

// Controller manages the API routes and handlers.
type Controller struct {
	Echo  *echo.Echo
	Group *echo.Group

	Settings  *conf.Settings
	Store     *dataset.Store
	Dashboard *dashboard.Service
	Sessions  *session.Manager

	metrics    *observability.Metrics // nil when telemetry is disabled
	responses  *cache.Cache           // rendered dashboard passes, nil when caching is off
	generation atomic.Uint64          // bumped on reload, part of every response key
	startTime  time.Time
	log        logger.Logger
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithMetrics enables the /metrics route and HTTP metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithLogger overrides the controller logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

// New creates the controller and registers its routes on e.
func New(e *echo.Echo, settings *conf.Settings, store *dataset.Store, svc *dashboard.Service, sessions *session.Manager, opts ...Option) *Controller {
	c := &Controller{
		Echo:      e,
		Settings:  settings,
		Store:     store,
		Dashboard: svc,
		Sessions:  sessions,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Global().Module("api")
	}

	if ttl := settings.WebServer.CacheTTL; ttl > 0 {
		c.responses = cache.New(ttl, 2*ttl)
	}

	c.Group = e.Group(Prefix)
	c.initRoutes()
	return c
}

// initRoutes registers every API route.
func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	c.Group.GET("/habitats", c.ListHabitats)
	c.Group.GET("/habitats/:habitat/options", c.GetOptions)
	c.Group.GET("/habitats/:habitat/dashboard", c.GetDashboard)
	c.Group.GET("/habitats/:habitat/charts/:chart", c.GetChart)
	c.Group.POST("/habitats/:habitat/reload", c.ReloadHabitat, c.reloadLimiter())

	c.Group.POST("/sessions", c.CreateSession)
	c.Group.GET("/sessions/:id", c.GetSession)
	c.Group.PUT("/sessions/:id/criteria", c.UpdateSessionCriteria)
	c.Group.GET("/sessions/:id/dashboard", c.GetSessionDashboard)
	c.Group.DELETE("/sessions/:id", c.DeleteSession)

	if c.metrics != nil && c.Settings.Telemetry.Enabled {
		c.Group.GET("/metrics", echo.WrapHandler(c.metrics.Handler()))
	}
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // matches the server log entry
}

// NewErrorResponse creates an API error response. Error text is scrubbed of
// source credentials and host names before it leaves the server.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = privacy.ScrubMessage(err.Error())
	}

	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString()[:8],
	}
}

// HandleError logs err and replies with an ErrorResponse.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	resp := NewErrorResponse(err, message, code)

	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
		logger.String("ip", ctx.RealIP()),
	}
	if err != nil {
		fields = append(fields, logger.String("error", resp.Error))
	}

	log := c.log.WithContext(ctx.Request().Context())
	if code >= http.StatusInternalServerError {
		log.Error("API error", fields...)
	} else {
		log.Warn("API request rejected", fields...)
	}

	return ctx.JSON(code, resp)
}

// handleDomainError maps an error category to its status code.
func (c *Controller) handleDomainError(ctx echo.Context, err error, message string) error {
	return c.HandleError(ctx, err, message, statusForError(err))
}

func statusForError(err error) int {
	switch {
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsValidation(err):
		return http.StatusBadRequest
	case errors.IsCategory(err, errors.CategoryLimit):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Shutdown releases controller resources.
func (c *Controller) Shutdown() {
	if c.responses != nil {
		c.responses.Flush()
	}
	c.log.Debug("API controller shut down")
}
