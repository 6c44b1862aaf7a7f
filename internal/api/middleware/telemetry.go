package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/birdview/internal/observability/metrics"
)

const unmatchedRoute = "unmatched"

// NewTelemetry records request count, latency and response size per route.
// Routes are reported by their template, so /sessions/:id stays one series.
func NewTelemetry(httpMetrics *metrics.HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if httpMetrics == nil {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			path := c.Path()
			if path == "" {
				path = unmatchedRoute
			}

			httpMetrics.RecordHTTPRequest(
				c.Request().Method,
				path,
				strconv.Itoa(statusOf(c, err)),
				time.Since(start).Seconds(),
				c.Response().Size,
			)
			return err
		}
	}
}

// statusOf returns the status the client will see. Errors that were not yet
// written are rendered later by the echo error handler.
func statusOf(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		if status := c.Response().Status; status != 0 {
			return status
		}
		return http.StatusOK
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}
