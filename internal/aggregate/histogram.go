package aggregate

import (
	"math"
	"strconv"
	"strings"

	"github.com/tphakala/birdview/internal/observation"
)

// DefaultHistogramBins is the bin count for numeric histograms.
const DefaultHistogramBins = 20

// HistogramKind tells a renderer how to read the bins.
type HistogramKind string

const (
	HistogramEmpty       HistogramKind = "empty"
	HistogramNumeric     HistogramKind = "numeric"
	HistogramCategorical HistogramKind = "categorical"
)

// Bin is one histogram bar. Lower and Upper are set only for numeric
// histograms; the last numeric bin includes its upper edge.
type Bin struct {
	Label string   `json:"label"`
	Lower *float64 `json:"lower,omitempty"`
	Upper *float64 `json:"upper,omitempty"`
	Count int      `json:"count"`
}

func numericBin(lower, upper float64, closed bool) Bin {
	return Bin{Label: formatRange(lower, upper, closed), Lower: &lower, Upper: &upper}
}

// Histogram is the distance distribution.
type Histogram struct {
	Kind HistogramKind `json:"kind"`
	Bins []Bin         `json:"bins"`
	// Missing counts rows with a blank distance.
	Missing int `json:"missing"`
}

// DistanceHistogram bins the Distance column. When every non-blank value is
// numeric the range [min, max] is split into equal-width bins; otherwise each
// distinct label (such as "<= 50 Meters") becomes a bin in first-seen order.
func DistanceHistogram(view observation.View, bins int) Histogram {
	if bins <= 0 {
		bins = DefaultHistogramBins
	}

	h := Histogram{Kind: HistogramEmpty, Bins: []Bin{}}
	var (
		values  []string
		numbers []float64
		numeric = true
	)
	for r := range view.Records() {
		v := strings.TrimSpace(r.Distance)
		if v == "" {
			h.Missing++
			continue
		}
		values = append(values, v)
		if numeric {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				numeric = false
				continue
			}
			numbers = append(numbers, f)
		}
	}

	switch {
	case len(values) == 0:
		return h
	case numeric:
		h.Kind = HistogramNumeric
		h.Bins = numericBins(numbers, bins)
	default:
		h.Kind = HistogramCategorical
		h.Bins = categoricalBins(values)
	}
	return h
}

// numericBins works on halved values so that spans wider than the float64
// range still produce finite edges and valid bin indexes.
func numericBins(values []float64, bins int) []Bin {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	halfSpan := hi/2 - lo/2
	if lo == hi || halfSpan <= 0 {
		single := numericBin(lo, hi, true)
		single.Count = len(values)
		return []Bin{single}
	}

	edge := func(i int) float64 {
		if i >= bins {
			return hi
		}
		x := halfSpan * (float64(i) / float64(bins))
		return (lo + x) + x
	}
	out := make([]Bin, bins)
	for i := range out {
		out[i] = numericBin(edge(i), edge(i+1), i == bins-1)
	}
	for _, v := range values {
		i := int((v/2 - lo/2) / halfSpan * float64(bins))
		out[min(max(i, 0), bins-1)].Count++
	}
	return out
}

func categoricalBins(values []string) []Bin {
	index := make(map[string]int)
	var out []Bin
	for _, v := range values {
		if i, ok := index[v]; ok {
			out[i].Count++
			continue
		}
		index[v] = len(out)
		out = append(out, Bin{Label: v, Count: 1})
	}
	return out
}

func formatRange(lower, upper float64, closed bool) string {
	end := ")"
	if closed {
		end = "]"
	}
	return "[" + strconv.FormatFloat(lower, 'g', 6, 64) + ", " + strconv.FormatFloat(upper, 'g', 6, 64) + end
}
