package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/tphakala/birdview/internal/dataset"
	"github.com/tphakala/birdview/internal/logger"
	"github.com/tphakala/birdview/internal/observation"
)

const (
	defaultReloadPerMinute = 6
	reloadLimiterExpiry    = 10 * time.Minute
)

// HabitatInfo describes one habitat and the state of its table.
type HabitatInfo struct {
	Name       string              `json:"name"`
	Label      string              `json:"label"`
	Configured bool                `json:"configured"`
	Loaded     bool                `json:"loaded"`
	Report     *dataset.LoadReport `json:"report,omitempty"`
}

// ReloadResponse is returned after a successful reload.
type ReloadResponse struct {
	Habitat string             `json:"habitat"`
	Report  dataset.LoadReport `json:"report"`
}

// ListHabitats handles GET /api/v1/habitats.
func (c *Controller) ListHabitats(ctx echo.Context) error {
	habitats := observation.Habitats()
	out := make([]HabitatInfo, 0, len(habitats))
	for _, h := range habitats {
		info := HabitatInfo{
			Name:  h.String(),
			Label: h.Label(),
		}
		if _, err := c.Store.Source(h); err == nil {
			info.Configured = true
		}
		if report, ok := c.Store.Report(h); ok {
			info.Loaded = true
			info.Report = &report
		}
		out = append(out, info)
	}
	return ctx.JSON(http.StatusOK, out)
}

// GetOptions handles GET /api/v1/habitats/:habitat/options.
func (c *Controller) GetOptions(ctx echo.Context) error {
	habitat, err := observation.ParseHabitat(ctx.Param("habitat"))
	if err != nil {
		return c.handleDomainError(ctx, err, "Unknown habitat")
	}

	opts, err := c.Dashboard.Options(ctx.Request().Context(), habitat)
	if err != nil {
		return c.handleDomainError(ctx, err, "Failed to load habitat data")
	}
	return ctx.JSON(http.StatusOK, opts)
}

// ReloadHabitat handles POST /api/v1/habitats/:habitat/reload. A failed reload
// keeps serving the previously loaded table.
func (c *Controller) ReloadHabitat(ctx echo.Context) error {
	habitat, err := observation.ParseHabitat(ctx.Param("habitat"))
	if err != nil {
		return c.handleDomainError(ctx, err, "Unknown habitat")
	}

	_, report, err := c.Store.Reload(ctx.Request().Context(), habitat)
	if err != nil {
		return c.handleDomainError(ctx, err, "Failed to reload habitat data")
	}

	c.invalidateResponses()
	c.log.Info("Habitat reloaded via API",
		logger.String("habitat", habitat.String()),
		logger.Int("rows", report.Rows),
		logger.String("ip", ctx.RealIP()))

	return ctx.JSON(http.StatusOK, ReloadResponse{
		Habitat: habitat.String(),
		Report:  report,
	})
}

// reloadLimiter limits reload requests per client IP.
func (c *Controller) reloadLimiter() echo.MiddlewareFunc {
	perMinute := c.Settings.WebServer.ReloadPerMinute
	if perMinute <= 0 {
		perMinute = defaultReloadPerMinute
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Every(time.Minute / time.Duration(perMinute)),
				Burst:     perMinute,
				ExpiresIn: reloadLimiterExpiry,
			},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(ctx echo.Context, err error) error {
			return c.HandleError(ctx, err, "Unable to identify client", http.StatusForbidden)
		},
		DenyHandler: func(ctx echo.Context, _ string, err error) error {
			return c.HandleError(ctx, err, "Too many reload requests, please wait before trying again", http.StatusTooManyRequests)
		},
	})
}
