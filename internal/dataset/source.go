// Package dataset loads the three Strait of Georgia source tables from
// either a CSV directory or a SQLite research database. Both backends
// produce identical Tables: empty or "NA" CSV fields and SQL NULLs become
// nil readings, never zeroes.
package dataset

import (
	"context"

	"github.com/pelagiclab/sog-dataprep/internal/domain"
)

// File names inside a CSV data directory. genmock writes fixtures under
// the same names so a fixture directory is loadable as-is.
const (
	ProfilesFile  = "ctd_profiles.csv"
	MetadataFile  = "ctd_metadata.csv"
	SatelliteFile = "satellite_chl.csv"
)

// SQLiteFile is the database name inside a data directory when the
// tables are delivered as SQLite instead of CSV.
const SQLiteFile = "sog.db"

// Tables bundles the source tables for one pipeline run.
type Tables struct {
	Profiles  []domain.CTDProfile
	Metadata  []domain.CastMetadata
	Satellite []domain.SatRecord
}

// Source loads the source tables from a backend.
type Source interface {
	Load(ctx context.Context) (*Tables, error)
	Name() string
}

// MetadataColumns is the cast metadata header, shared by the CSV reader
// and the fixture writer.
var MetadataColumns = []string{"ctd_key", "station", "longitude", "latitude", "year", "month", "day", "day_of_year"}

// SatelliteColumns is the satellite grid header.
var SatelliteColumns = []string{"lon", "lat", "year", "month", "chl"}

// ProfileColumns returns the physical table header: ctd_key followed by the
// variable names in domain.CastVariables order.
func ProfileColumns() []string {
	cols := make([]string, 0, 1+len(domain.CastVariables))
	cols = append(cols, "ctd_key")
	for _, v := range domain.CastVariables {
		cols = append(cols, v.Name)
	}
	return cols
}
