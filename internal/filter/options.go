package filter

import (
	"math"

	"github.com/tphakala/birdview/internal/observation"
)

// DefaultSelectionSize is how many species and observers are preselected.
const DefaultSelectionSize = 5

// Options lists what a table offers to the selector widgets.
type Options struct {
	Species   []string `json:"species"`
	Observers []string `json:"observers"`
	TempMin   float64  `json:"temp_min"`
	TempMax   float64  `json:"temp_max"`
	// HasTemperature is false when no row carries a temperature; the bounds are then zero.
	HasTemperature bool `json:"has_temperature"`
}

// OptionsFor returns every distinct species and observer in first-seen order and the
// observed temperature bounds. Blank names are skipped.
func OptionsFor(table *observation.Table) Options {
	var (
		opts         Options
		seenSpecies  = make(map[string]struct{})
		seenObserver = make(map[string]struct{})
	)
	opts.TempMin = math.Inf(1)
	opts.TempMax = math.Inf(-1)

	for r := range table.View().Records() {
		if r.CommonName != "" {
			if _, ok := seenSpecies[r.CommonName]; !ok {
				seenSpecies[r.CommonName] = struct{}{}
				opts.Species = append(opts.Species, r.CommonName)
			}
		}
		if r.Observer != "" {
			if _, ok := seenObserver[r.Observer]; !ok {
				seenObserver[r.Observer] = struct{}{}
				opts.Observers = append(opts.Observers, r.Observer)
			}
		}
		if !math.IsNaN(r.Temperature) {
			opts.HasTemperature = true
			opts.TempMin = min(opts.TempMin, r.Temperature)
			opts.TempMax = max(opts.TempMax, r.Temperature)
		}
	}

	if !opts.HasTemperature {
		opts.TempMin, opts.TempMax = 0, 0
	}
	if opts.Species == nil {
		opts.Species = []string{}
	}
	if opts.Observers == nil {
		opts.Observers = []string{}
	}
	return opts
}

// Defaults builds the initial criteria for a table: the first n distinct species and
// observers in table order and the full observed temperature range.
func Defaults(table *observation.Table, n int, policy EmptyPolicy) Criteria {
	if n <= 0 {
		n = DefaultSelectionSize
	}
	return DefaultsFrom(OptionsFor(table), n, policy)
}

// DefaultsFrom builds default criteria from already computed options.
func DefaultsFrom(opts Options, n int, policy EmptyPolicy) Criteria {
	return Criteria{
		Species:   firstN(opts.Species, n),
		Observers: firstN(opts.Observers, n),
		TempMin:   opts.TempMin,
		TempMax:   opts.TempMax,
		Empty:     policy,
	}
}

func firstN(values []string, n int) []string {
	out := make([]string, min(n, len(values)))
	copy(out, values)
	return out
}
