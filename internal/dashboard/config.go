package dashboard

import (
	"github.com/tphakala/birdview/internal/aggregate"
	"github.com/tphakala/birdview/internal/conf"
	"github.com/tphakala/birdview/internal/filter"
	"github.com/tphakala/birdview/internal/schema"
)

// Config tunes the views a pass produces.
type Config struct {
	TopN             int
	GeoSampleSize    int
	HistogramBins    int
	DefaultSelection int
	// SampleSeed fixes the map sample; 0 draws a new sample every pass.
	SampleSeed int64
	Empty      filter.EmptyPolicy
	Candidates schema.Candidates
}

// ConfigFromSettings builds a Config from the dashboard and schema sections.
func ConfigFromSettings(settings *conf.Settings) Config {
	candidates := schema.DefaultCandidates()
	if len(settings.Schema.Latitude) > 0 {
		candidates[schema.RoleLatitude] = settings.Schema.Latitude
	}
	if len(settings.Schema.Longitude) > 0 {
		candidates[schema.RoleLongitude] = settings.Schema.Longitude
	}
	if len(settings.Schema.Conservation) > 0 {
		candidates[schema.RoleConservation] = settings.Schema.Conservation
	}

	return Config{
		TopN:             settings.Dashboard.TopN,
		GeoSampleSize:    settings.Dashboard.GeoSampleSize,
		HistogramBins:    settings.Dashboard.HistogramBins,
		DefaultSelection: settings.Dashboard.DefaultSelection,
		SampleSeed:       settings.Dashboard.SampleSeed,
		Empty:            filter.ParseEmptyPolicy(settings.Dashboard.EmptySelection),
		Candidates:       candidates,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.TopN <= 0 {
		c.TopN = aggregate.DefaultTopN
	}
	if c.GeoSampleSize <= 0 {
		c.GeoSampleSize = aggregate.DefaultGeoSampleSize
	}
	if c.HistogramBins <= 0 {
		c.HistogramBins = aggregate.DefaultHistogramBins
	}
	if c.DefaultSelection <= 0 {
		c.DefaultSelection = filter.DefaultSelectionSize
	}
	if c.Candidates == nil {
		c.Candidates = schema.DefaultCandidates()
	}
	return c
}
