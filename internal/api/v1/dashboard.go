package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/birdview/internal/dashboard"
	"github.com/tphakala/birdview/internal/errors"
	"github.com/tphakala/birdview/internal/filter"
	"github.com/tphakala/birdview/internal/observation"
)

// HeaderCache reports whether a pass was served from the response cache.
const HeaderCache = "X-Cache"

// GetDashboard handles GET /api/v1/habitats/:habitat/dashboard.
//
// Query parameters: species and observer (repeatable), temp_min, temp_max.
// An omitted parameter takes the habitat default; a parameter present with
// only blank values is an explicit empty selection.
func (c *Controller) GetDashboard(ctx echo.Context) error {
	habitat, err := observation.ParseHabitat(ctx.Param("habitat"))
	if err != nil {
		return c.handleDomainError(ctx, err, "Unknown habitat")
	}

	criteria, err := c.criteriaFromQuery(ctx, habitat)
	if err != nil {
		return c.handleDomainError(ctx, err, "Failed to build dashboard")
	}

	return c.respondPass(ctx, c.responseKey(habitat, "", criteria), func(rctx context.Context) (any, error) {
		return c.Dashboard.Build(rctx, habitat, criteria)
	})
}

// GetChart handles GET /api/v1/habitats/:habitat/charts/:chart with the same
// query parameters as GetDashboard.
func (c *Controller) GetChart(ctx echo.Context) error {
	habitat, err := observation.ParseHabitat(ctx.Param("habitat"))
	if err != nil {
		return c.handleDomainError(ctx, err, "Unknown habitat")
	}
	chart, err := dashboard.ParseChart(ctx.Param("chart"))
	if err != nil {
		return c.handleDomainError(ctx, err, "Unknown chart")
	}

	criteria, err := c.criteriaFromQuery(ctx, habitat)
	if err != nil {
		return c.handleDomainError(ctx, err, "Failed to build chart")
	}

	return c.respondPass(ctx, c.responseKey(habitat, string(chart), criteria), func(rctx context.Context) (any, error) {
		return c.Dashboard.Chart(rctx, habitat, criteria, chart)
	})
}

// respondPass serves a pass from the response cache or builds and caches it.
// Only encoded bodies are cached, so a pass that fails to encode is never
// served again.
func (c *Controller) respondPass(ctx echo.Context, key string, build func(context.Context) (any, error)) error {
	if cached, ok := c.cachedResponse(key); ok {
		ctx.Response().Header().Set(HeaderCache, "hit")
		return ctx.JSONBlob(http.StatusOK, cached)
	}

	result, err := build(ctx.Request().Context())
	if err != nil {
		return c.handleDomainError(ctx, err, "Failed to build dashboard")
	}

	body, err := json.Marshal(result)
	if err != nil {
		return c.HandleError(ctx, errors.New(err).
			Component("api").
			Category(errors.CategoryAggregation).
			Build(), "Failed to encode dashboard", http.StatusInternalServerError)
	}

	c.storeResponse(key, body)
	ctx.Response().Header().Set(HeaderCache, "miss")
	return ctx.JSONBlob(http.StatusOK, body)
}

// criteriaFromQuery overlays query parameters on the habitat's default criteria.
func (c *Controller) criteriaFromQuery(ctx echo.Context, habitat observation.Habitat) (filter.Criteria, error) {
	criteria, err := c.Dashboard.Defaults(ctx.Request().Context(), habitat)
	if err != nil {
		return filter.Criteria{}, err
	}

	params := ctx.QueryParams()
	if values, ok := params["species"]; ok {
		criteria.Species = selection(values)
	}
	if values, ok := params["observer"]; ok {
		criteria.Observers = selection(values)
	}
	if criteria.TempMin, err = floatParam(params.Get("temp_min"), "temp_min", criteria.TempMin); err != nil {
		return filter.Criteria{}, err
	}
	if criteria.TempMax, err = floatParam(params.Get("temp_max"), "temp_max", criteria.TempMax); err != nil {
		return filter.Criteria{}, err
	}

	if err := criteria.Validate(); err != nil {
		return filter.Criteria{}, err
	}
	return criteria, nil
}

// selection returns the non-blank values, never nil.
func selection(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func floatParam(raw, name string, fallback float64) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New(fmt.Errorf("query parameter %s is not a number: %q", name, raw)).
			Component("api").
			Category(errors.CategoryValidation).
			Context("parameter", name).
			Build()
	}
	return v, nil
}
