package aggregate

import (
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"github.com/tphakala/birdview/internal/observation"
	"github.com/tphakala/birdview/internal/schema"
)

// DefaultGeoSampleSize bounds the number of map points.
const DefaultGeoSampleSize = 500

// Point is one map marker.
type Point struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Species string  `json:"species"`
}

// Center is the mean position of a set of points.
type Center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeoSample is a bounded random subset of the rows with usable coordinates.
type GeoSample struct {
	Points []Point `json:"points"`
	// Center averages every row with usable coordinates, not only the sampled ones.
	Center *Center `json:"center,omitempty"`
	// Available counts rows with usable coordinates before sampling.
	Available int `json:"available"`
}

// Geo samples min(size, n) points from the n rows whose latitude and longitude
// parse and lie in range. Sampled points keep view order. ok is false when
// either coordinate column is unresolved. A nil rng uses a randomly seeded one.
func Geo(view observation.View, res schema.Resolution, size int, rng *rand.Rand) (sample GeoSample, ok bool) {
	sample = GeoSample{Points: []Point{}}
	latCol, latOK := res.Column(schema.RoleLatitude)
	lonCol, lonOK := res.Column(schema.RoleLongitude)
	if !latOK || !lonOK {
		return sample, false
	}
	if size <= 0 {
		size = DefaultGeoSampleSize
	}

	var (
		candidates     []Point
		sumLat, sumLon float64
	)
	for r := range view.Records() {
		lat, okLat := parseCoordinate(r.Field(latCol), 90)
		lon, okLon := parseCoordinate(r.Field(lonCol), 180)
		if !okLat || !okLon {
			continue
		}
		candidates = append(candidates, Point{Lat: lat, Lon: lon, Species: r.CommonName})
		sumLat += lat
		sumLon += lon
	}

	sample.Available = len(candidates)
	if len(candidates) == 0 {
		return sample, true
	}
	n := float64(len(candidates))
	sample.Center = &Center{Lat: sumLat / n, Lon: sumLon / n}

	if len(candidates) <= size {
		sample.Points = candidates
		return sample, true
	}

	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	picked := samplePositions(rng, len(candidates), size)
	sample.Points = make([]Point, len(picked))
	for i, pos := range picked {
		sample.Points[i] = candidates[pos]
	}
	return sample, true
}

// samplePositions picks k distinct positions out of n with a partial
// Fisher-Yates shuffle and returns them ascending.
func samplePositions(rng *rand.Rand, n, k int) []int {
	positions := make([]int, n)
	for i := range positions {
		positions[i] = i
	}
	for i := range k {
		j := i + rng.IntN(n-i)
		positions[i], positions[j] = positions[j], positions[i]
	}
	picked := positions[:k]
	slices.Sort(picked)
	return picked
}

func parseCoordinate(value string, limit float64) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || f < -limit || f > limit {
		return 0, false
	}
	return f, true
}
