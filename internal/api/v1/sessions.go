package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/birdview/internal/errors"
	"github.com/tphakala/birdview/internal/filter"
	"github.com/tphakala/birdview/internal/observation"
)

// SessionRequest creates a session or replaces its criteria. Criteria fields
// left out of the JSON keep the habitat defaults.
type SessionRequest struct {
	Habitat  string          `json:"habitat"`
	Criteria json.RawMessage `json:"criteria,omitempty"`
}

// CreateSession handles POST /api/v1/sessions.
func (c *Controller) CreateSession(ctx echo.Context) error {
	var req SessionRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid session request", http.StatusBadRequest)
	}

	habitat, err := observation.ParseHabitat(req.Habitat)
	if err != nil {
		return c.handleDomainError(ctx, err, "Unknown habitat")
	}

	criteria, err := c.requestCriteria(ctx.Request().Context(), habitat, req.Criteria)
	if err != nil {
		return c.handleDomainError(ctx, err, "Invalid session criteria")
	}

	s, err := c.Sessions.Create(habitat, criteria)
	if err != nil {
		return c.handleDomainError(ctx, err, "Failed to create session")
	}
	return ctx.JSON(http.StatusCreated, s)
}

// GetSession handles GET /api/v1/sessions/:id.
func (c *Controller) GetSession(ctx echo.Context) error {
	s, err := c.Sessions.Get(ctx.Param("id"))
	if err != nil {
		return c.handleDomainError(ctx, err, "Session not found")
	}
	return ctx.JSON(http.StatusOK, s)
}

// UpdateSessionCriteria handles PUT /api/v1/sessions/:id/criteria. The habitat
// may be switched in the same request; the new criteria then start from that
// habitat's defaults.
func (c *Controller) UpdateSessionCriteria(ctx echo.Context) error {
	current, err := c.Sessions.Get(ctx.Param("id"))
	if err != nil {
		return c.handleDomainError(ctx, err, "Session not found")
	}

	var req SessionRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid session request", http.StatusBadRequest)
	}

	habitat := current.Habitat
	if req.Habitat != "" {
		if habitat, err = observation.ParseHabitat(req.Habitat); err != nil {
			return c.handleDomainError(ctx, err, "Unknown habitat")
		}
	}

	base := current.Criteria
	if habitat != current.Habitat {
		if base, err = c.Dashboard.Defaults(ctx.Request().Context(), habitat); err != nil {
			return c.handleDomainError(ctx, err, "Failed to load habitat data")
		}
	}

	criteria, err := overlayCriteria(base, req.Criteria)
	if err != nil {
		return c.handleDomainError(ctx, err, "Invalid session criteria")
	}

	s, err := c.Sessions.Update(current.ID, habitat, criteria)
	if err != nil {
		return c.handleDomainError(ctx, err, "Failed to update session")
	}
	return ctx.JSON(http.StatusOK, s)
}

// GetSessionDashboard handles GET /api/v1/sessions/:id/dashboard.
func (c *Controller) GetSessionDashboard(ctx echo.Context) error {
	s, err := c.Sessions.Get(ctx.Param("id"))
	if err != nil {
		return c.handleDomainError(ctx, err, "Session not found")
	}

	return c.respondPass(ctx, c.responseKey(s.Habitat, "", s.Criteria), func(rctx context.Context) (any, error) {
		return c.Dashboard.Build(rctx, s.Habitat, s.Criteria)
	})
}

// DeleteSession handles DELETE /api/v1/sessions/:id.
func (c *Controller) DeleteSession(ctx echo.Context) error {
	if err := c.Sessions.Delete(ctx.Param("id")); err != nil {
		return c.handleDomainError(ctx, err, "Session not found")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// requestCriteria overlays raw JSON criteria on the habitat defaults.
func (c *Controller) requestCriteria(ctx context.Context, habitat observation.Habitat, raw json.RawMessage) (filter.Criteria, error) {
	defaults, err := c.Dashboard.Defaults(ctx, habitat)
	if err != nil {
		return filter.Criteria{}, err
	}
	return overlayCriteria(defaults, raw)
}

func overlayCriteria(base filter.Criteria, raw json.RawMessage) (filter.Criteria, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return base, nil
	}
	// decode over a copy so the base slices are not shared
	criteria := base
	criteria.Species = append([]string(nil), base.Species...)
	criteria.Observers = append([]string(nil), base.Observers...)
	if err := json.Unmarshal(raw, &criteria); err != nil {
		return filter.Criteria{}, errors.New(fmt.Errorf("malformed criteria: %w", err)).
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	return criteria, nil
}
