package dashboard

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/tphakala/birdview/internal/aggregate"
	"github.com/tphakala/birdview/internal/errors"
	"github.com/tphakala/birdview/internal/observation"
	"github.com/tphakala/birdview/internal/schema"
)

// Chart names one dashboard view.
type Chart string

const (
	ChartTopSpecies   Chart = "top-species"
	ChartTopObservers Chart = "top-observers"
	ChartPivot        Chart = "pivot"
	ChartMap          Chart = "map"
	ChartConservation Chart = "conservation"
	ChartTimeSeries   Chart = "timeseries"
	ChartScatter      Chart = "scatter"
	ChartHistogram    Chart = "histogram"
)

// Charts returns every chart in dashboard order.
func Charts() []Chart {
	return []Chart{
		ChartTimeSeries,
		ChartTopSpecies,
		ChartScatter,
		ChartHistogram,
		ChartMap,
		ChartTopObservers,
		ChartConservation,
		ChartPivot,
	}
}

// ParseChart validates a chart name.
func ParseChart(name string) (Chart, error) {
	c := Chart(name)
	if slices.Contains(Charts(), c) {
		return c, nil
	}
	return "", errors.New(fmt.Errorf("unknown chart %q", name)).
		Component("dashboard").
		Category(errors.CategoryNotFound).
		Context("chart", name).
		Build()
}

// Warning reports a chart skipped because a schema role did not resolve.
type Warning struct {
	Chart   Chart    `json:"chart"`
	Roles   []string `json:"roles"`
	Message string   `json:"message"`
}

// pass holds what every chart of one pass shares.
type pass struct {
	habitat observation.Habitat
	view    observation.View
	res     schema.Resolution
	cfg     Config
}

func (p *pass) rng() *rand.Rand {
	if p.cfg.SampleSeed == 0 {
		return nil
	}
	return rand.New(rand.NewPCG(uint64(p.cfg.SampleSeed), 0))
}

// chart computes one view. A nil warning means the chart rendered.
func (p *pass) chart(c Chart) (any, *Warning) {
	switch c {
	case ChartTopSpecies:
		return aggregate.TopN(p.view, aggregate.BySpecies, p.cfg.TopN), nil
	case ChartTopObservers:
		return aggregate.TopN(p.view, aggregate.ByObserver, p.cfg.TopN), nil
	case ChartPivot:
		return aggregate.TemporalPivot(p.view), nil
	case ChartTimeSeries:
		return aggregate.TimeSeries(p.view), nil
	case ChartScatter:
		return aggregate.TemperatureScatter(p.view), nil
	case ChartHistogram:
		return aggregate.DistanceHistogram(p.view, p.cfg.HistogramBins), nil
	case ChartMap:
		sample, ok := aggregate.Geo(p.view, p.res, p.cfg.GeoSampleSize, p.rng())
		if !ok {
			return sample, p.missing(c, "Latitude/Longitude columns not found in dataset", schema.RoleLatitude, schema.RoleLongitude)
		}
		return sample, nil
	case ChartConservation:
		freq, ok := aggregate.ConservationTopN(p.view, p.res, p.cfg.TopN)
		if !ok {
			return freq, p.missing(c, "No conservation status column found in dataset", schema.RoleConservation)
		}
		return freq, nil
	}
	return nil, nil
}

// missing builds the warning for the unresolved subset of roles.
func (p *pass) missing(c Chart, msg string, roles ...schema.Role) *Warning {
	w := &Warning{Chart: c, Message: msg, Roles: []string{}}
	for _, role := range roles {
		if _, ok := p.res.Column(role); !ok {
			w.Roles = append(w.Roles, string(role))
		}
	}
	return w
}
