package aggregate

import (
	"cmp"
	"slices"

	"github.com/tphakala/birdview/internal/observation"
)

// PivotCell is the summed initial count of one month of one year.
type PivotCell struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Sum   float64 `json:"sum"`
}

// Pivot is a sparse month by year table. Buckets without rows are absent,
// not zero.
type Pivot struct {
	Months []int       `json:"months"` // distinct months present, ascending
	Years  []int       `json:"years"`  // distinct years present, ascending
	Cells  []PivotCell `json:"cells"`  // ordered by year, then month

	index map[[2]int]int
}

// TemporalPivot sums InitialCount per (month, year) of the row date.
func TemporalPivot(view observation.View) *Pivot {
	p := &Pivot{
		Months: []int{},
		Years:  []int{},
		Cells:  []PivotCell{},
		index:  make(map[[2]int]int),
	}

	for r := range view.Records() {
		key := [2]int{r.Date.Year(), int(r.Date.Month())}
		if i, ok := p.index[key]; ok {
			p.Cells[i].Sum += r.InitialCount
			continue
		}
		p.index[key] = len(p.Cells)
		p.Cells = append(p.Cells, PivotCell{Year: key[0], Month: key[1], Sum: r.InitialCount})
	}

	slices.SortFunc(p.Cells, func(a, b PivotCell) int {
		return cmp.Or(cmp.Compare(a.Year, b.Year), cmp.Compare(a.Month, b.Month))
	})
	for i, c := range p.Cells {
		p.index[[2]int{c.Year, c.Month}] = i
		p.Years = appendDistinct(p.Years, c.Year)
		if !slices.Contains(p.Months, c.Month) {
			p.Months = append(p.Months, c.Month)
		}
	}
	slices.Sort(p.Months)

	return p
}

// appendDistinct appends v unless it equals the last element; values arrive sorted.
func appendDistinct(s []int, v int) []int {
	if len(s) > 0 && s[len(s)-1] == v {
		return s
	}
	return append(s, v)
}

// Value returns the cell for month and year; ok is false for an absent bucket.
func (p *Pivot) Value(month, year int) (sum float64, ok bool) {
	i, ok := p.index[[2]int{year, month}]
	if !ok {
		return 0, false
	}
	return p.Cells[i].Sum, true
}

// Total sums every cell.
func (p *Pivot) Total() float64 {
	total := 0.0
	for _, c := range p.Cells {
		total += c.Sum
	}
	return total
}

// Len returns the number of non-empty buckets.
func (p *Pivot) Len() int {
	return len(p.Cells)
}
