package observation

import "iter"

// View is an ordered subset of a table's records held as indices into the
// parent table. Views never copy or mutate records.
type View struct {
	table   *Table
	indices []int
	all     bool
}

// NewView builds a view from explicit table indices. Indices must be in range.
func NewView(t *Table, indices []int) View {
	return View{table: t, indices: indices}
}

// Table returns the parent table.
func (v View) Table() *Table {
	return v.table
}

// Len returns the number of records in the view.
func (v View) Len() int {
	if v.all {
		return v.table.Len()
	}
	return len(v.indices)
}

// Index maps a view position to the parent table index.
func (v View) Index(i int) int {
	if v.all {
		return i
	}
	return v.indices[i]
}

// Record returns the record at view position i.
func (v View) Record(i int) *Record {
	return &v.table.Records[v.Index(i)]
}

// Records iterates the view's records in order.
func (v View) Records() iter.Seq[*Record] {
	return func(yield func(*Record) bool) {
		for i := range v.Len() {
			if !yield(v.Record(i)) {
				return
			}
		}
	}
}

// Subset returns the records for which keep is true, preserving order.
func (v View) Subset(keep func(*Record) bool) View {
	indices := make([]int, 0, v.Len())
	for i := range v.Len() {
		if keep(v.Record(i)) {
			indices = append(indices, v.Index(i))
		}
	}
	return View{table: v.table, indices: indices}
}

// Indices returns the parent table indices in view order.
func (v View) Indices() []int {
	out := make([]int, v.Len())
	for i := range out {
		out[i] = v.Index(i)
	}
	return out
}
