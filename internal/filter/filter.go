// Package filter narrows an observation table to the rows matching a user's
// species, observer and temperature selection.
package filter

import (
	"fmt"
	"math"
	"strings"

	"github.com/tphakala/birdview/internal/conf"
	"github.com/tphakala/birdview/internal/errors"
	"github.com/tphakala/birdview/internal/observation"
)

// EmptyPolicy decides what an empty species or observer selection matches.
type EmptyPolicy int

const (
	// EmptyMatchesNone treats an empty selection literally: no row passes.
	EmptyMatchesNone EmptyPolicy = iota
	// EmptyMatchesAll treats an empty selection as "no filter on this field".
	EmptyMatchesAll
)

// ParseEmptyPolicy converts the dashboard.empty_selection setting.
func ParseEmptyPolicy(value string) EmptyPolicy {
	if strings.EqualFold(strings.TrimSpace(value), conf.EmptySelectionAll) {
		return EmptyMatchesAll
	}
	return EmptyMatchesNone
}

func (p EmptyPolicy) String() string {
	if p == EmptyMatchesAll {
		return conf.EmptySelectionAll
	}
	return conf.EmptySelectionNone
}

// Criteria is one pass's filter selection. Build a new value per pass; Apply
// never modifies it.
type Criteria struct {
	Species   []string    `json:"species"`
	Observers []string    `json:"observers"`
	TempMin   float64     `json:"temp_min"`
	TempMax   float64     `json:"temp_max"`
	Empty     EmptyPolicy `json:"-"`
}

// Validate checks the temperature interval. Bounds must be finite so that
// criteria always survive a JSON round trip.
func (c Criteria) Validate() error {
	if math.IsNaN(c.TempMin) || math.IsNaN(c.TempMax) {
		return invalid("temperature bounds must be numbers")
	}
	if math.IsInf(c.TempMin, 0) || math.IsInf(c.TempMax, 0) {
		return invalid("temperature bounds must be finite")
	}
	if c.TempMin > c.TempMax {
		return invalid(fmt.Sprintf("temperature minimum %g is greater than maximum %g", c.TempMin, c.TempMax))
	}
	return nil
}

func invalid(msg string) error {
	return errors.New(fmt.Errorf("invalid filter criteria: %s", msg)).
		Component("filter").
		Category(errors.CategoryValidation).
		Build()
}

// set is a membership test for one selection; nil means "match everything".
type set map[string]struct{}

func newSet(values []string, policy EmptyPolicy) set {
	if len(values) == 0 && policy == EmptyMatchesAll {
		return nil
	}
	s := make(set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s set) has(v string) bool {
	if s == nil {
		return true
	}
	_, ok := s[v]
	return ok
}

// Apply returns the rows of view that satisfy every predicate of c, in input order.
// A NaN temperature never lies inside the interval.
func Apply(view observation.View, c Criteria) observation.View {
	species := newSet(c.Species, c.Empty)
	observers := newSet(c.Observers, c.Empty)

	// empty literal selections short-circuit to an empty view
	if (species != nil && len(species) == 0) || (observers != nil && len(observers) == 0) {
		return view.Subset(func(*observation.Record) bool { return false })
	}

	return view.Subset(func(r *observation.Record) bool {
		return species.has(r.CommonName) &&
			observers.has(r.Observer) &&
			r.Temperature >= c.TempMin && r.Temperature <= c.TempMax
	})
}

// Matches reports whether a single record satisfies c.
func Matches(r *observation.Record, c Criteria) bool {
	return newSet(c.Species, c.Empty).has(r.CommonName) &&
		newSet(c.Observers, c.Empty).has(r.Observer) &&
		r.Temperature >= c.TempMin && r.Temperature <= c.TempMax
}
