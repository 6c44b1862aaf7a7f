package aggregate

import (
	"math"
	"slices"
	"time"

	"github.com/tphakala/birdview/internal/observation"
)

// SeriesPoint is one observation on the time series chart.
type SeriesPoint struct {
	Date    time.Time `json:"date"`
	Count   float64   `json:"count"`
	Species string    `json:"species"`
}

// TimeSeries returns date vs initial count for every row, ordered by date.
// Rows sharing a date keep view order.
func TimeSeries(view observation.View) []SeriesPoint {
	points := make([]SeriesPoint, 0, view.Len())
	for r := range view.Records() {
		points = append(points, SeriesPoint{Date: r.Date, Count: r.InitialCount, Species: r.CommonName})
	}
	slices.SortStableFunc(points, func(a, b SeriesPoint) int {
		return a.Date.Compare(b.Date)
	})
	return points
}

// ScatterPoint is one observation on the temperature scatter plot.
type ScatterPoint struct {
	Temperature float64 `json:"temperature"`
	Count       float64 `json:"count"`
	Species     string  `json:"species"`
}

// Scatter holds temperature vs count points coloured by species.
type Scatter struct {
	Points []ScatterPoint `json:"points"`
	// Species lists the colour groups in first-seen order.
	Species []string `json:"species"`
	// Skipped counts rows without a temperature.
	Skipped int `json:"skipped"`
}

// TemperatureScatter plots initial count against temperature. Rows without a
// temperature are skipped and counted.
func TemperatureScatter(view observation.View) Scatter {
	s := Scatter{Points: []ScatterPoint{}, Species: []string{}}
	seen := make(map[string]struct{})
	for r := range view.Records() {
		if math.IsNaN(r.Temperature) {
			s.Skipped++
			continue
		}
		s.Points = append(s.Points, ScatterPoint{Temperature: r.Temperature, Count: r.InitialCount, Species: r.CommonName})
		if _, ok := seen[r.CommonName]; !ok {
			seen[r.CommonName] = struct{}{}
			s.Species = append(s.Species, r.CommonName)
		}
	}
	return s
}

// dateRange returns the earliest and latest row date.
func dateRange(view observation.View) (first, last time.Time, ok bool) {
	for r := range view.Records() {
		if !ok {
			first, last, ok = r.Date, r.Date, true
			continue
		}
		if r.Date.Before(first) {
			first = r.Date
		}
		if r.Date.After(last) {
			last = r.Date
		}
	}
	return first, last, ok
}

// Summary describes a filtered view in a few numbers.
type Summary struct {
	Rows          int        `json:"rows"`
	Species       int        `json:"species"`
	Observers     int        `json:"observers"`
	TotalCount    float64    `json:"total_count"`
	FirstDate     *time.Time `json:"first_date,omitempty"`
	LastDate      *time.Time `json:"last_date,omitempty"`
	MeanTemp      *float64   `json:"mean_temperature,omitempty"`
	TemperatureNA int        `json:"temperature_missing"`
}

// Summarize counts rows, distinct species and observers, and the summed initial count.
func Summarize(view observation.View) Summary {
	var (
		s         = Summary{Rows: view.Len()}
		species   = make(map[string]struct{})
		observers = make(map[string]struct{})
		tempSum   float64
		tempN     int
	)
	for r := range view.Records() {
		species[r.CommonName] = struct{}{}
		observers[r.Observer] = struct{}{}
		s.TotalCount += r.InitialCount
		if math.IsNaN(r.Temperature) {
			s.TemperatureNA++
			continue
		}
		tempSum += r.Temperature
		tempN++
	}
	s.Species = len(species)
	s.Observers = len(observers)
	if first, last, ok := dateRange(view); ok {
		s.FirstDate, s.LastDate = &first, &last
	}
	if tempN > 0 {
		mean := tempSum / float64(tempN)
		s.MeanTemp = &mean
	}
	return s
}
