package api

import (
	"strconv"
	"strings"

	"github.com/patrickmn/go-cache"

	"github.com/tphakala/birdview/internal/filter"
	"github.com/tphakala/birdview/internal/observation"
)

const (
	keyListSep  = "\x1f"
	keyFieldSep = "\x1e"
)

// responseKey identifies a pass by habitat, chart (empty for the full dashboard),
// criteria and the current cache generation.
func (c *Controller) responseKey(habitat observation.Habitat, chart string, criteria filter.Criteria) string {
	return strings.Join([]string{
		strconv.FormatUint(c.generation.Load(), 10),
		habitat.String(),
		chart,
		strings.Join(criteria.Species, keyListSep),
		strings.Join(criteria.Observers, keyListSep),
		strconv.FormatFloat(criteria.TempMin, 'g', -1, 64),
		strconv.FormatFloat(criteria.TempMax, 'g', -1, 64),
	}, keyFieldSep)
}

func (c *Controller) cachedResponse(key string) ([]byte, bool) {
	if c.responses == nil {
		return nil, false
	}
	v, found := c.responses.Get(key)
	body, ok := v.([]byte)
	found = found && ok
	if c.metrics != nil {
		c.metrics.HTTP.RecordResponseCache(found)
	}
	return body, found
}

func (c *Controller) storeResponse(key string, body []byte) {
	if c.responses == nil {
		return
	}
	c.responses.Set(key, body, cache.DefaultExpiration)
}

// invalidateResponses drops every cached pass. Passes stored under an older
// generation are never looked up again.
func (c *Controller) invalidateResponses() {
	c.generation.Add(1)
	if c.responses != nil {
		c.responses.Flush()
	}
}
