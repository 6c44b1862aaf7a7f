package filter

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdview/internal/errors"
	"github.com/tphakala/birdview/internal/observation"
)

func record(species, observer string, temp float64) observation.Record {
	return observation.Record{
		Date:         time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC),
		CommonName:   species,
		Observer:     observer,
		InitialCount: 1,
		Temperature:  temp,
	}
}

func robinHawkTable() *observation.Table {
	return observation.NewTable(observation.Forest, "test", observation.RequiredColumns, []observation.Record{
		record("Robin", "J", 10),
		record("Hawk", "K", 30),
	})
}

func TestApplyRobinHawk(t *testing.T) {
	t.Parallel()

	table := robinHawkTable()
	view := Apply(table.View(), Criteria{
		Species:   []string{"Robin"},
		Observers: []string{"J"},
		TempMin:   0,
		TempMax:   20,
	})

	require.Equal(t, 1, view.Len())
	assert.Equal(t, "Robin", view.Record(0).CommonName)
	assert.Equal(t, []int{0}, view.Indices())
	assert.Equal(t, 2, table.Len(), "source table untouched")
}

func TestApplyTemperatureBoundsInclusive(t *testing.T) {
	t.Parallel()

	table := robinHawkTable()
	view := Apply(table.View(), Criteria{
		Species:   []string{"Robin", "Hawk"},
		Observers: []string{"J", "K"},
		TempMin:   10,
		TempMax:   30,
	})
	assert.Equal(t, 2, view.Len())
}

func TestApplyNaNTemperatureNeverMatches(t *testing.T) {
	t.Parallel()

	table := observation.NewTable(observation.Forest, "test", nil, []observation.Record{
		record("Robin", "J", math.NaN()),
	})
	view := Apply(table.View(), Criteria{
		Species:   []string{"Robin"},
		Observers: []string{"J"},
		TempMin:   math.Inf(-1),
		TempMax:   math.Inf(1),
	})
	assert.Zero(t, view.Len())
}

func TestApplyEmptySelectionPolicy(t *testing.T) {
	t.Parallel()

	table := robinHawkTable()
	c := Criteria{Observers: []string{"J", "K"}, TempMin: -50, TempMax: 50}

	assert.Zero(t, Apply(table.View(), c).Len(), "empty selection matches nothing by default")

	c.Empty = EmptyMatchesAll
	assert.Equal(t, 2, Apply(table.View(), c).Len())

	c.Observers = nil
	assert.Equal(t, 2, Apply(table.View(), c).Len())
}

func TestApplyEmptyTable(t *testing.T) {
	t.Parallel()

	view := Apply(observation.NewTable(observation.Forest, "test", nil, nil).View(),
		Criteria{Species: []string{"Robin"}, Observers: []string{"J"}, TempMax: 10})
	assert.Zero(t, view.Len())
}

func TestParseEmptyPolicy(t *testing.T) {
	t.Parallel()

	assert.Equal(t, EmptyMatchesAll, ParseEmptyPolicy("all"))
	assert.Equal(t, EmptyMatchesAll, ParseEmptyPolicy(" ALL "))
	assert.Equal(t, EmptyMatchesNone, ParseEmptyPolicy("none"))
	assert.Equal(t, EmptyMatchesNone, ParseEmptyPolicy(""))
	assert.Equal(t, "all", EmptyMatchesAll.String())
	assert.Equal(t, "none", EmptyMatchesNone.String())
}

func TestCriteriaValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, Criteria{TempMin: 5, TempMax: 5}.Validate())

	err := Criteria{TempMin: 20, TempMax: 0}.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	require.Error(t, Criteria{TempMin: math.NaN(), TempMax: 1}.Validate())

	err = Criteria{TempMin: math.Inf(-1), TempMax: 100}.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.True(t, errors.IsValidation(Criteria{TempMin: 0, TempMax: math.Inf(1)}.Validate()))
}

// randomTable builds a table from small alphabets so selections overlap often.
func randomTable(rng *rand.Rand, n int) *observation.Table {
	species := []string{"Robin", "Hawk", "Wren", "Jay", "Crow", "Finch"}
	observers := []string{"J", "K", "L", "M"}
	records := make([]observation.Record, n)
	for i := range records {
		temp := float64(rng.IntN(40) - 5)
		if rng.IntN(10) == 0 {
			temp = math.NaN()
		}
		records[i] = record(species[rng.IntN(len(species))], observers[rng.IntN(len(observers))], temp)
	}
	return observation.NewTable(observation.Grassland, "random", observation.RequiredColumns, records)
}

func randomCriteria(rng *rand.Rand) Criteria {
	pick := func(from []string) []string {
		var out []string
		for _, v := range from {
			if rng.IntN(2) == 0 {
				out = append(out, v)
			}
		}
		return out
	}
	lo := float64(rng.IntN(30) - 5)
	return Criteria{
		Species:   pick([]string{"Robin", "Hawk", "Wren", "Jay", "Crow", "Finch", "Owl"}),
		Observers: pick([]string{"J", "K", "L", "M", "N"}),
		TempMin:   lo,
		TempMax:   lo + float64(rng.IntN(20)),
		Empty:     EmptyPolicy(rng.IntN(2)),
	}
}

func TestApplyProperties(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	for range 200 {
		table := randomTable(rng, rng.IntN(60))
		c := randomCriteria(rng)

		view := Apply(table.View(), c)

		// subset and predicate
		indices := view.Indices()
		assert.True(t, slices.IsSorted(indices), "input order preserved")
		for i := range view.Len() {
			assert.True(t, Matches(view.Record(i), c))
		}

		// completeness: every matching row is in the view
		want := 0
		for r := range table.View().Records() {
			if Matches(r, c) {
				want++
			}
		}
		assert.Equal(t, want, view.Len())

		// idempotence
		again := Apply(view, c)
		assert.Equal(t, indices, again.Indices())
	}
}
