package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/birdview/internal/observation"
)

func TestOptionsFor(t *testing.T) {
	t.Parallel()

	table := observation.NewTable(observation.Forest, "test", nil, []observation.Record{
		record("Robin", "J", 10),
		record("Hawk", "K", math.NaN()),
		record("Robin", "", -2.5),
		record("", "L", 31),
	})

	opts := OptionsFor(table)
	assert.Equal(t, []string{"Robin", "Hawk"}, opts.Species)
	assert.Equal(t, []string{"J", "K", "L"}, opts.Observers)
	assert.True(t, opts.HasTemperature)
	assert.InDelta(t, -2.5, opts.TempMin, 0)
	assert.InDelta(t, 31.0, opts.TempMax, 0)
}

func TestOptionsForWithoutTemperatures(t *testing.T) {
	t.Parallel()

	opts := OptionsFor(observation.NewTable(observation.Forest, "test", nil, []observation.Record{
		record("Robin", "J", math.NaN()),
	}))
	assert.False(t, opts.HasTemperature)
	assert.Zero(t, opts.TempMin)
	assert.Zero(t, opts.TempMax)

	empty := OptionsFor(observation.NewTable(observation.Forest, "test", nil, nil))
	assert.NotNil(t, empty.Species)
	assert.Empty(t, empty.Species)
}

func TestDefaultsTakeFirstDistinctInTableOrder(t *testing.T) {
	t.Parallel()

	var records []observation.Record
	for _, name := range []string{"A", "B", "A", "C", "D", "E", "F", "G"} {
		records = append(records, record(name, "obs-"+name, 12))
	}
	table := observation.NewTable(observation.Forest, "test", nil, records)

	c := Defaults(table, 5, EmptyMatchesNone)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, c.Species)
	assert.Equal(t, []string{"obs-A", "obs-B", "obs-C", "obs-D", "obs-E"}, c.Observers)
	assert.InDelta(t, 12.0, c.TempMin, 0)
	assert.InDelta(t, 12.0, c.TempMax, 0)

	assert.Len(t, Defaults(table, 0, EmptyMatchesNone).Species, DefaultSelectionSize)
	assert.Len(t, Defaults(table, 50, EmptyMatchesNone).Species, 7)
}

func TestDefaultsViewIsNonEmpty(t *testing.T) {
	t.Parallel()

	table := robinHawkTable()
	view := Apply(table.View(), Defaults(table, DefaultSelectionSize, EmptyMatchesNone))
	assert.Equal(t, 2, view.Len())
}
