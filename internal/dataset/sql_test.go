package dataset

import (
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tphakala/birdview/internal/errors"
	"github.com/tphakala/birdview/internal/observation"
)

// createSQLiteSource writes an observation table into a fresh SQLite database.
func createSQLiteSource(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "birds.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE forest_obs (
		Date TEXT, Common_Name TEXT, Observer TEXT,
		Initial_Three_Min_Cnt INTEGER, Temperature REAL, Distance TEXT, Latitude REAL)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO forest_obs VALUES
		('2021-05-01', 'Robin', 'J', 3, 10.5, '<= 50 Meters', 38.9),
		('2021-06-01', 'Hawk', 'K', 1, NULL, NULL, NULL)`).Error)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	return path
}

func TestLoadSQLiteSource(t *testing.T) {
	t.Parallel()

	path := createSQLiteSource(t)
	loader := NewLoader(Options{}, testLogger())

	table, report, err := loader.Load(t.Context(), observation.Forest, fmt.Sprintf("sqlite://%s?table=forest_obs", path))
	require.NoError(t, err)

	assert.Equal(t, KindSQLite, report.SourceType)
	require.Equal(t, 2, table.Len())
	assert.Contains(t, table.Columns, "Latitude")

	robin := table.Records[0]
	assert.Equal(t, "Robin", robin.CommonName)
	assert.InDelta(t, 3.0, robin.InitialCount, 0)
	assert.InDelta(t, 10.5, robin.Temperature, 0)
	assert.Equal(t, "38.9", robin.Field("Latitude"))

	hawk := table.Records[1]
	assert.True(t, math.IsNaN(hawk.Temperature))
	assert.Empty(t, hawk.Field("Latitude"))
}

func TestLoadSQLiteMissingTable(t *testing.T) {
	t.Parallel()

	path := createSQLiteSource(t)
	_, _, err := NewLoader(Options{}, testLogger()).
		Load(t.Context(), observation.Forest, fmt.Sprintf("sqlite://%s?table=grassland_obs", path))

	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryDatabase))
}

func TestFormatSQLValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{[]byte("Robin"), "Robin"},
		{"Hawk", "Hawk"},
		{int64(42), "42"},
		{float64(12.5), "12.5"},
		{float64(3), "3"},
		{true, "true"},
		{time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC), "2021-05-01"},
		{time.Date(2021, 5, 1, 6, 30, 0, 0, time.UTC), "2021-05-01 06:30:00"},
		{uint8(7), "7"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSQLValue(tt.in), "%#v", tt.in)
	}
}
