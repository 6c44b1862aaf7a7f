// Package observation holds the in-memory model of a habitat's bird observation table
// and the zero-copy views the filter and aggregation stages operate on.
package observation

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tphakala/birdview/internal/errors"
)

// Habitat identifies which observation table a dashboard pass runs against.
type Habitat string

const (
	Forest    Habitat = "forest"
	Grassland Habitat = "grassland"
)

// Habitats returns every supported habitat in display order.
func Habitats() []Habitat {
	return []Habitat{Forest, Grassland}
}

// ParseHabitat parses a habitat name case-insensitively.
func ParseHabitat(name string) (Habitat, error) {
	h := Habitat(strings.ToLower(strings.TrimSpace(name)))
	switch h {
	case Forest, Grassland:
		return h, nil
	}
	return "", errors.New(fmt.Errorf("unknown habitat %q", name)).
		Component("observation").
		Category(errors.CategoryNotFound).
		Context("habitat", name).
		Build()
}

func (h Habitat) String() string {
	return string(h)
}

// Label returns the title-cased display name, e.g. "Forest".
func (h Habitat) Label() string {
	// Casers are stateful; one per call
	return cases.Title(language.English).String(string(h))
}
