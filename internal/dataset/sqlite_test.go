package dataset_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/pelagiclab/sog-dataprep/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// newFixtureDB creates a SQLite database with a small but complete set of
// source rows, including NULL readings.
func newFixtureDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sog.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(dataset.SQLiteSchema)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO ctd_profiles (ctd_key, temperature_i10, salinity_i50, oxygen_inet)
		VALUES ('ctd-001', 9.1, 29.3, 5.6), ('ctd-002', NULL, 28.7, NULL)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO ctd_metadata (ctd_key, station, longitude, latitude, year, month, day, day_of_year)
		VALUES ('ctd-001', 'GEO1', -123.5, 49.25, 2008, 6, 15, 167),
		       ('ctd-002', 'CPF1', -123.1, 49.0, 2008, 7, 2, 184)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO satellite_chl (lon, lat, year, month, chl)
		VALUES (-123.0, 49.0, 2000, 6, 2.5), (-123.25, 49.0, 2000, 6, NULL)`)
	require.NoError(t, err)

	return path
}

func TestSQLiteSource_Load(t *testing.T) {
	path := newFixtureDB(t)

	src := dataset.NewSQLiteSource(path)
	tables, err := src.Load(context.Background())
	require.NoError(t, err)

	t.Run("profiles with NULL readings", func(t *testing.T) {
		require.Len(t, tables.Profiles, 2)

		p := tables.Profiles[0]
		assert.Equal(t, "ctd-001", p.CTDKey)
		require.NotNil(t, p.TemperatureI10)
		assert.InDelta(t, 9.1, *p.TemperatureI10, 1e-12)
		require.NotNil(t, p.SalinityI50)
		assert.InDelta(t, 29.3, *p.SalinityI50, 1e-12)
		assert.Nil(t, p.DensityINet, "column never inserted")

		p = tables.Profiles[1]
		assert.Nil(t, p.TemperatureI10)
		assert.Nil(t, p.OxygenINet)
		require.NotNil(t, p.SalinityI50)
		assert.InDelta(t, 28.7, *p.SalinityI50, 1e-12)
	})

	t.Run("metadata", func(t *testing.T) {
		require.Len(t, tables.Metadata, 2)
		assert.Equal(t, "GEO1", tables.Metadata[0].Station)
		assert.Equal(t, 2008, tables.Metadata[0].Year)
		assert.Equal(t, 184, tables.Metadata[1].DayOfYear)
	})

	t.Run("satellite with NULL chl", func(t *testing.T) {
		require.Len(t, tables.Satellite, 2)

		// Rows come back ordered by year, month, lon, lat.
		assert.InDelta(t, -123.25, tables.Satellite[0].Lon, 1e-12)
		assert.Nil(t, tables.Satellite[0].Chl)
		require.NotNil(t, tables.Satellite[1].Chl)
		assert.InDelta(t, 2.5, *tables.Satellite[1].Chl, 1e-12)
	})
}

func TestSQLiteSource_Load_MissingTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	require.NoError(t, db.Close())

	_, err = dataset.NewSQLiteSource(path).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ctd_profiles")
}
