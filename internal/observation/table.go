package observation

import (
	"slices"
	"time"
)

// Column names every observation table must carry.
const (
	ColumnDate         = "Date"
	ColumnCommonName   = "Common_Name"
	ColumnObserver     = "Observer"
	ColumnInitialCount = "Initial_Three_Min_Cnt"
	ColumnTemperature  = "Temperature"
	ColumnDistance     = "Distance"
)

// RequiredColumns lists the columns a source must provide for a table to load.
var RequiredColumns = []string{
	ColumnDate,
	ColumnCommonName,
	ColumnObserver,
	ColumnInitialCount,
	ColumnTemperature,
}

// Record is one observation row. Core fields are typed; Fields keeps every
// raw cell by column name so optional columns stay reachable.
type Record struct {
	Date         time.Time
	CommonName   string
	Observer     string
	InitialCount float64
	Temperature  float64 // NaN when the cell was blank
	Distance     string
	Fields       map[string]string
}

// Field returns the raw cell for a column, or "" when absent.
func (r *Record) Field(column string) string {
	if r == nil || r.Fields == nil {
		return ""
	}
	return r.Fields[column]
}

// Table is a loaded observation dataset for one habitat.
// A table is read-only after load and shared by all dashboard passes.
type Table struct {
	Habitat  Habitat
	Source   string
	Columns  []string
	Records  []Record
	LoadedAt time.Time
}

// NewTable builds a table; columns keep header order.
func NewTable(habitat Habitat, source string, columns []string, records []Record) *Table {
	return &Table{
		Habitat:  habitat,
		Source:   source,
		Columns:  columns,
		Records:  records,
		LoadedAt: time.Now(),
	}
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// HasColumn reports whether the table header contains column.
func (t *Table) HasColumn(column string) bool {
	return t != nil && slices.Contains(t.Columns, column)
}

// View returns a view over every record in table order.
func (t *Table) View() View {
	return View{table: t, all: true}
}
