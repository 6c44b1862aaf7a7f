// Package dashboard runs one filter-and-aggregate pass over a habitat's table and
// returns every chart's data along with warnings for charts that had to be skipped.
package dashboard

import (
	"context"
	"time"

	"github.com/tphakala/birdview/internal/aggregate"
	"github.com/tphakala/birdview/internal/filter"
	"github.com/tphakala/birdview/internal/logger"
	"github.com/tphakala/birdview/internal/observability/metrics"
	"github.com/tphakala/birdview/internal/observation"
	"github.com/tphakala/birdview/internal/schema"
)

// TableSource provides loaded tables; dataset.Store implements it.
type TableSource interface {
	Get(ctx context.Context, habitat observation.Habitat) (*observation.Table, error)
}

// Service builds dashboard passes. It holds no per-user state and is safe for
// concurrent use; tables are shared read-only.
type Service struct {
	tables  TableSource
	cfg     Config
	metrics *metrics.DashboardMetrics
	log     logger.Logger
}

// NewService creates a dashboard service. m may be nil.
func NewService(tables TableSource, cfg Config, m *metrics.DashboardMetrics, log logger.Logger) *Service {
	if log == nil {
		log = logger.Global().Module("dashboard")
	}
	return &Service{
		tables:  tables,
		cfg:     cfg.withDefaults(),
		metrics: m,
		log:     log,
	}
}

// Config returns the effective view configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Result is the data for every chart of one pass.
type Result struct {
	Habitat      observation.Habitat     `json:"habitat"`
	Label        string                  `json:"label"`
	Criteria     filter.Criteria         `json:"criteria"`
	Resolution   schema.Resolution       `json:"resolution"`
	Summary      aggregate.Summary       `json:"summary"`
	TimeSeries   []aggregate.SeriesPoint `json:"timeseries"`
	TopSpecies   aggregate.Frequency     `json:"top_species"`
	Scatter      aggregate.Scatter       `json:"scatter"`
	Histogram    aggregate.Histogram     `json:"histogram"`
	Map          *aggregate.GeoSample    `json:"map"` // nil when coordinates are unresolved
	TopObservers aggregate.Frequency     `json:"top_observers"`
	Conservation aggregate.Frequency     `json:"conservation"` // nil when the status column is unresolved
	Pivot        *aggregate.Pivot        `json:"pivot"`
	Warnings     []Warning               `json:"warnings"`
	Duration     time.Duration           `json:"duration_ns"`
}

// Build fetches the habitat's table and runs every chart over the rows matching
// criteria. A load failure or invalid criteria fails the pass; unresolved schema
// roles only skip their charts.
func (s *Service) Build(ctx context.Context, habitat observation.Habitat, criteria filter.Criteria) (*Result, error) {
	start := time.Now()

	p, err := s.prepare(ctx, habitat, &criteria)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Habitat:    habitat,
		Label:      habitat.Label(),
		Criteria:   criteria,
		Resolution: p.res,
		Summary:    aggregate.Summarize(p.view),
		Warnings:   []Warning{},
	}

	for _, c := range Charts() {
		data, warning := p.chart(c)
		if warning != nil {
			s.warn(habitat, warning)
			result.Warnings = append(result.Warnings, *warning)
			continue
		}
		switch v := data.(type) {
		case []aggregate.SeriesPoint:
			result.TimeSeries = v
		case aggregate.Scatter:
			result.Scatter = v
		case aggregate.Histogram:
			result.Histogram = v
		case aggregate.GeoSample:
			result.Map = &v
		case *aggregate.Pivot:
			result.Pivot = v
		case aggregate.Frequency:
			switch c {
			case ChartTopSpecies:
				result.TopSpecies = v
			case ChartTopObservers:
				result.TopObservers = v
			case ChartConservation:
				result.Conservation = v
			}
		}
	}

	result.Duration = time.Since(start)
	s.metrics.RecordPass(habitat.String(), p.view.Len(), result.Duration.Seconds())
	s.log.Debug("Dashboard pass complete",
		logger.String("habitat", habitat.String()),
		logger.Int("rows", p.view.Len()),
		logger.Int("warnings", len(result.Warnings)),
		logger.Duration("duration", result.Duration))

	return result, nil
}

// ChartResult is a single chart of one pass.
type ChartResult struct {
	Habitat observation.Habitat `json:"habitat"`
	Chart   Chart               `json:"chart"`
	Rows    int                 `json:"rows"`
	Data    any                 `json:"data"`
	Warning *Warning            `json:"warning,omitempty"`
}

// Chart runs a pass that computes only one chart.
func (s *Service) Chart(ctx context.Context, habitat observation.Habitat, criteria filter.Criteria, chart Chart) (*ChartResult, error) {
	start := time.Now()

	p, err := s.prepare(ctx, habitat, &criteria)
	if err != nil {
		return nil, err
	}

	data, warning := p.chart(chart)
	if warning != nil {
		s.warn(habitat, warning)
	}
	s.metrics.RecordPass(habitat.String(), p.view.Len(), time.Since(start).Seconds())

	return &ChartResult{Habitat: habitat, Chart: chart, Rows: p.view.Len(), Data: data, Warning: warning}, nil
}

// prepare loads the table, validates criteria and filters.
func (s *Service) prepare(ctx context.Context, habitat observation.Habitat, criteria *filter.Criteria) (*pass, error) {
	criteria.Empty = s.cfg.Empty
	if err := criteria.Validate(); err != nil {
		s.metrics.RecordPassError(habitat.String())
		return nil, err
	}

	table, err := s.tables.Get(ctx, habitat)
	if err != nil {
		s.metrics.RecordPassError(habitat.String())
		return nil, err
	}

	return &pass{
		habitat: habitat,
		view:    filter.Apply(table.View(), *criteria),
		res:     schema.Resolve(table.Columns, s.cfg.Candidates),
		cfg:     s.cfg,
	}, nil
}

func (s *Service) warn(habitat observation.Habitat, w *Warning) {
	for _, role := range w.Roles {
		s.metrics.RecordSchemaMiss(habitat.String(), role)
	}
	s.log.Warn(w.Message,
		logger.String("habitat", habitat.String()),
		logger.String("chart", string(w.Chart)),
		logger.Strings("roles", w.Roles))
}

// Options is what a habitat offers to the selector widgets plus the initial selection.
type Options struct {
	Habitat    observation.Habitat `json:"habitat"`
	Label      string              `json:"label"`
	Columns    []string            `json:"columns"`
	Rows       int                 `json:"rows"`
	Available  filter.Options      `json:"available"`
	Defaults   filter.Criteria     `json:"defaults"`
	Resolution schema.Resolution   `json:"resolution"`
	Missing    []schema.Role       `json:"missing_roles"`
}

// Options returns selector options and default criteria for habitat.
func (s *Service) Options(ctx context.Context, habitat observation.Habitat) (*Options, error) {
	table, err := s.tables.Get(ctx, habitat)
	if err != nil {
		return nil, err
	}

	available := filter.OptionsFor(table)
	res := schema.Resolve(table.Columns, s.cfg.Candidates)
	missing := res.Missing()
	if missing == nil {
		missing = []schema.Role{}
	}

	return &Options{
		Habitat:    habitat,
		Label:      habitat.Label(),
		Columns:    table.Columns,
		Rows:       table.Len(),
		Available:  available,
		Defaults:   filter.DefaultsFrom(available, s.cfg.DefaultSelection, s.cfg.Empty),
		Resolution: res,
		Missing:    missing,
	}, nil
}

// Defaults returns the initial criteria for habitat.
func (s *Service) Defaults(ctx context.Context, habitat observation.Habitat) (filter.Criteria, error) {
	table, err := s.tables.Get(ctx, habitat)
	if err != nil {
		return filter.Criteria{}, err
	}
	return filter.Defaults(table, s.cfg.DefaultSelection, s.cfg.Empty), nil
}
