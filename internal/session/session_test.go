package session

import (
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdview/internal/conf"
	"github.com/tphakala/birdview/internal/errors"
	"github.com/tphakala/birdview/internal/filter"
	"github.com/tphakala/birdview/internal/logger"
	"github.com/tphakala/birdview/internal/observation"
)

func newManager(cfg conf.SessionConfig) *Manager {
	return NewManager(cfg, nil, logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC))
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	m := newManager(conf.SessionConfig{})
	criteria := filter.Criteria{Species: []string{"Robin"}, Observers: []string{"J"}, TempMin: 0, TempMax: 20}

	s, err := m.Create(observation.Forest, criteria)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 1, m.Count())

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	updated, err := m.Update(s.ID, observation.Grassland, filter.Criteria{TempMin: 5, TempMax: 6})
	require.NoError(t, err)
	assert.Equal(t, observation.Grassland, updated.Habitat)
	assert.Equal(t, s.CreatedAt, updated.CreatedAt)

	require.NoError(t, m.Delete(s.ID))
	_, err = m.Get(s.ID)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestSessionsAreIndependent(t *testing.T) {
	t.Parallel()

	m := newManager(conf.SessionConfig{})
	species := []string{"Robin"}

	a, err := m.Create(observation.Forest, filter.Criteria{Species: species, TempMax: 10})
	require.NoError(t, err)
	b, err := m.Create(observation.Forest, filter.Criteria{Species: []string{"Hawk"}, TempMax: 10})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	species[0] = "Mutated"
	got, err := m.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Robin"}, got.Criteria.Species, "sessions keep their own copy")
}

func TestConcurrentReadsKeepUpdates(t *testing.T) {
	t.Parallel()

	m := newManager(conf.SessionConfig{})
	s, err := m.Create(observation.Forest, filter.Criteria{TempMax: 0})
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		stop atomic.Bool
	)
	for range 4 {
		wg.Go(func() {
			for !stop.Load() {
				_, _ = m.Get(s.ID)
			}
		})
	}
	t.Cleanup(func() {
		stop.Store(true)
		wg.Wait()
	})

	for i := 1; i <= 200; i++ {
		_, err := m.Update(s.ID, observation.Forest, filter.Criteria{TempMax: float64(i)})
		require.NoError(t, err)
		got, err := m.Get(s.ID)
		require.NoError(t, err)
		require.InDelta(t, float64(i), got.Criteria.TempMax, 0, "update %d was overwritten", i)
	}

	require.NoError(t, m.Delete(s.ID))
	time.Sleep(10 * time.Millisecond)
	stop.Store(true)
	wg.Wait()

	_, err = m.Get(s.ID)
	assert.True(t, errors.IsNotFound(err), "a deleted session stays deleted")
	assert.Zero(t, m.Count())
}

func TestSessionLimit(t *testing.T) {
	t.Parallel()

	m := newManager(conf.SessionConfig{MaxSessions: 2})
	for range 2 {
		_, err := m.Create(observation.Forest, filter.Criteria{})
		require.NoError(t, err)
	}
	_, err := m.Create(observation.Forest, filter.Criteria{})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryLimit))
}

func TestSessionExpires(t *testing.T) {
	t.Parallel()

	m := newManager(conf.SessionConfig{TTL: 20 * time.Millisecond})
	s, err := m.Create(observation.Forest, filter.Criteria{})
	require.NoError(t, err)

	// poll the cache directly; Get would extend the idle timeout
	assert.Eventually(t, func() bool {
		_, found := m.items.Get(s.ID)
		return !found
	}, time.Second, 10*time.Millisecond)

	_, err = m.Get(s.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestSessionRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	m := newManager(conf.SessionConfig{})

	_, err := m.Create(observation.Forest, filter.Criteria{TempMin: 3, TempMax: 1})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	for _, id := range []string{"", "not-a-uuid", "5b0c2a3e-0000-4000-8000-000000000000"} {
		_, err := m.Get(id)
		assert.True(t, errors.IsNotFound(err), id)
		assert.True(t, errors.IsNotFound(m.Delete(id)), id)
	}
}
