// Package aggregate computes the derived views each dashboard chart consumes.
// Every function is pure over a filtered view and returns an empty, non-nil
// result for an empty view.
package aggregate

import (
	"cmp"
	"slices"
	"strings"

	"github.com/tphakala/birdview/internal/observation"
	"github.com/tphakala/birdview/internal/schema"
)

// DefaultTopN is the number of groups kept in frequency views.
const DefaultTopN = 10

// Key selects the column a frequency view groups by.
type Key int

const (
	BySpecies Key = iota
	ByObserver
)

func (k Key) value(r *observation.Record) string {
	if k == ByObserver {
		return r.Observer
	}
	return r.CommonName
}

// Count is one group of a frequency view.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Frequency is a ranked list of groups, highest count first.
type Frequency []Count

// Total sums the counts.
func (f Frequency) Total() int {
	total := 0
	for _, c := range f {
		total += c.Count
	}
	return total
}

// Labels returns the group labels in rank order.
func (f Frequency) Labels() []string {
	out := make([]string, len(f))
	for i, c := range f {
		out[i] = c.Label
	}
	return out
}

// TopN counts rows per group and keeps the n largest groups, ordered by
// descending count. Equal counts keep the order in which the groups first
// appear in the view. Rows with a blank label are not counted. n <= 0 means
// DefaultTopN.
func TopN(view observation.View, key Key, n int) Frequency {
	if n <= 0 {
		n = DefaultTopN
	}

	index := make(map[string]int)
	counts := Frequency{}
	for r := range view.Records() {
		label := key.value(r)
		if strings.TrimSpace(label) == "" {
			continue
		}
		if i, ok := index[label]; ok {
			counts[i].Count++
			continue
		}
		index[label] = len(counts)
		counts = append(counts, Count{Label: label, Count: 1})
	}

	slices.SortStableFunc(counts, func(a, b Count) int {
		return cmp.Compare(b.Count, a.Count)
	})

	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// nullMarkers are the cell values CSV exports use for "no value"; such a
// conservation cell does not flag its row.
var nullMarkers = map[string]struct{}{
	"#N/A": {}, "#N/A N/A": {}, "#NA": {}, "<NA>": {},
	"N/A": {}, "n/a": {}, "NA": {}, "NULL": {}, "null": {},
	"NaN": {}, "nan": {}, "-NaN": {}, "-nan": {}, "None": {},
}

func isNullCell(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	_, null := nullMarkers[value]
	return null
}

// ConservationTopN ranks species among rows whose conservation-status cell
// holds a value. ok is false when no conservation column was resolved.
func ConservationTopN(view observation.View, res schema.Resolution, n int) (freq Frequency, ok bool) {
	column, ok := res.Column(schema.RoleConservation)
	if !ok {
		return Frequency{}, false
	}
	flagged := view.Subset(func(r *observation.Record) bool {
		return !isNullCell(r.Field(column))
	})
	return TopN(flagged, BySpecies, n), true
}
