// Package session keeps each dashboard user's habitat choice and filter
// criteria. Sessions expire after an idle period; tables are never copied
// into a session.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/tphakala/birdview/internal/conf"
	"github.com/tphakala/birdview/internal/errors"
	"github.com/tphakala/birdview/internal/filter"
	"github.com/tphakala/birdview/internal/logger"
	"github.com/tphakala/birdview/internal/observability/metrics"
	"github.com/tphakala/birdview/internal/observation"
)

const (
	defaultTTL         = 30 * time.Minute
	defaultMaxSessions = 1000
)

// Session is one user's dashboard state. Values returned by Manager are copies.
type Session struct {
	ID        string              `json:"id"`
	Habitat   observation.Habitat `json:"habitat"`
	Criteria  filter.Criteria     `json:"criteria"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Manager issues and tracks sessions.
type Manager struct {
	mu      sync.Mutex // serializes every read-modify-write of items
	items   *cache.Cache
	ttl     time.Duration
	max     int
	metrics *metrics.DashboardMetrics
	log     logger.Logger
}

// NewManager creates a session manager. m may be nil.
func NewManager(cfg conf.SessionConfig, m *metrics.DashboardMetrics, log logger.Logger) *Manager {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	limit := cfg.MaxSessions
	if limit <= 0 {
		limit = defaultMaxSessions
	}
	if log == nil {
		log = logger.Global().Module("session")
	}

	mgr := &Manager{
		items:   cache.New(ttl, ttl/2),
		ttl:     ttl,
		max:     limit,
		metrics: m,
		log:     log,
	}
	mgr.items.OnEvicted(func(id string, _ any) {
		mgr.metrics.SetActiveSessions(mgr.items.ItemCount())
		mgr.log.Debug("Session ended", logger.String("session_id", id))
	})
	return mgr
}

// Create starts a session for habitat with the given criteria.
func (m *Manager) Create(habitat observation.Habitat, criteria filter.Criteria) (Session, error) {
	if err := criteria.Validate(); err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.items.ItemCount() >= m.max {
		return Session{}, errors.New(fmt.Errorf("session limit of %d reached", m.max)).
			Component("session").
			Category(errors.CategoryLimit).
			Context("max_sessions", m.max).
			Build()
	}

	now := time.Now()
	s := Session{
		ID:        uuid.NewString(),
		Habitat:   habitat,
		Criteria:  cloneCriteria(criteria),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.items.Set(s.ID, s, m.ttl)
	m.metrics.SetActiveSessions(m.items.ItemCount())
	m.log.Debug("Session created",
		logger.String("session_id", s.ID),
		logger.String("habitat", habitat.String()))

	return s, nil
}

// Get returns a session and extends its idle timeout.
func (m *Manager) Get(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(id)
	if err != nil {
		return Session{}, err
	}
	m.items.Set(id, s, m.ttl)
	return s, nil
}

// Update replaces a session's habitat and criteria.
func (m *Manager) Update(id string, habitat observation.Habitat, criteria filter.Criteria) (Session, error) {
	if err := criteria.Validate(); err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(id)
	if err != nil {
		return Session{}, err
	}
	s.Habitat = habitat
	s.Criteria = cloneCriteria(criteria)
	s.UpdatedAt = time.Now()
	m.items.Set(id, s, m.ttl)
	return s, nil
}

// Delete ends a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.lookup(id); err != nil {
		return err
	}
	m.items.Delete(id)
	return nil
}

// Count returns the number of live sessions, including expired ones not yet swept.
func (m *Manager) Count() int {
	return m.items.ItemCount()
}

// lookup must be called with m.mu held.
func (m *Manager) lookup(id string) (Session, error) {
	if _, err := uuid.Parse(id); err == nil {
		if v, found := m.items.Get(id); found {
			return v.(Session), nil
		}
	}
	return Session{}, errors.New(fmt.Errorf("session %q not found", id)).
		Component("session").
		Category(errors.CategoryNotFound).
		Build()
}

// cloneCriteria detaches the selection slices from the caller.
func cloneCriteria(c filter.Criteria) filter.Criteria {
	c.Species = append([]string(nil), c.Species...)
	c.Observers = append([]string(nil), c.Observers...)
	return c
}
