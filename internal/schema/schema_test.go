package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstPresent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		columns    []string
		candidates []string
		want       string
		found      bool
	}{
		{"first candidate wins over later", []string{"Lat", "Latitude"}, []string{"Latitude", "Lat"}, "Latitude", true},
		{"falls through to later candidate", []string{"Date", "GPS_Latitude"}, []string{"Latitude", "Lat", "GPS_Latitude"}, "GPS_Latitude", true},
		{"case sensitive", []string{"latitude"}, []string{"Latitude"}, "", false},
		{"empty columns", nil, []string{"Latitude"}, "", false},
		{"empty candidates", []string{"Latitude"}, nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := FirstPresent(tt.columns, tt.candidates)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDefaults(t *testing.T) {
	t.Parallel()

	columns := []string{"Date", "Common_Name", "Latitude", "Longitude", "PIF_Watchlist_Status", "Regional_Stewardship_Status"}
	res := Resolve(columns, DefaultCandidates())

	col, ok := res.Column(RoleConservation)
	assert.True(t, ok)
	assert.Equal(t, "PIF_Watchlist_Status", col)
	assert.True(t, res.HasCoordinates())
	assert.Empty(t, res.Missing())
}

func TestResolveAbsentRoles(t *testing.T) {
	t.Parallel()

	res := Resolve([]string{"Date", "Common_Name", "Lat"}, DefaultCandidates())

	assert.False(t, res.HasCoordinates())
	assert.Equal(t, []Role{RoleLongitude, RoleConservation}, res.Missing())

	_, ok := res.Column(RoleConservation)
	assert.False(t, ok)
}

func TestResolveIsDeterministic(t *testing.T) {
	t.Parallel()

	columns := []string{"Longitude_DD", "Lon", "Latitude_DD", "Lat"}
	first := Resolve(columns, DefaultCandidates())
	for range 20 {
		assert.Equal(t, first, Resolve(columns, DefaultCandidates()))
	}
	assert.Equal(t, Resolution{RoleLatitude: "Lat", RoleLongitude: "Lon"}, first)
}
