package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pelagiclab/sog-dataprep/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteSchema creates the three source tables. genmock uses it to build
// fixture databases; research deliveries follow the same layout.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS ctd_profiles (
	ctd_key TEXT PRIMARY KEY,
	temperature_i10 REAL,
	temperature_i50 REAL,
	temperature_inet REAL,
	salinity_i10 REAL,
	salinity_i50 REAL,
	salinity_inet REAL,
	density_i10 REAL,
	density_i50 REAL,
	density_inet REAL,
	oxygen_i10 REAL,
	oxygen_i50 REAL,
	oxygen_inet REAL
);
CREATE TABLE IF NOT EXISTS ctd_metadata (
	ctd_key TEXT PRIMARY KEY,
	station TEXT NOT NULL,
	longitude REAL NOT NULL,
	latitude REAL NOT NULL,
	year INTEGER NOT NULL,
	month INTEGER NOT NULL,
	day INTEGER NOT NULL,
	day_of_year INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS satellite_chl (
	lon REAL NOT NULL,
	lat REAL NOT NULL,
	year INTEGER NOT NULL,
	month INTEGER NOT NULL,
	chl REAL
);
`

// SQLiteSource reads the source tables from a SQLite database file.
// NULL readings become nil. Rows are ordered by key (profiles, metadata)
// or by time and cell (satellite) so loads are deterministic.
type SQLiteSource struct {
	path string
}

// NewSQLiteSource creates a source over a database file.
func NewSQLiteSource(path string) *SQLiteSource {
	return &SQLiteSource{path: path}
}

// Name identifies the source for logs.
func (s *SQLiteSource) Name() string {
	return "sqlite:" + s.path
}

// Load opens the database, reads all three tables, and closes it.
func (s *SQLiteSource) Load(ctx context.Context) (*Tables, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	profiles, err := loadProfilesSQL(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	meta, err := loadMetadataSQL(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}

	sat, err := loadSatelliteSQL(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("load satellite: %w", err)
	}

	return &Tables{Profiles: profiles, Metadata: meta, Satellite: sat}, nil
}

func loadProfilesSQL(ctx context.Context, db *sql.DB) ([]domain.CTDProfile, error) {
	query := "SELECT " + strings.Join(ProfileColumns(), ", ") + " FROM ctd_profiles ORDER BY ctd_key"

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ctd_profiles: %w", err)
	}
	defer rows.Close()

	var profiles []domain.CTDProfile
	for rows.Next() {
		var key string
		vals := make([]sql.NullFloat64, len(domain.CastVariables))

		dest := make([]any, 0, 1+len(vals))
		dest = append(dest, &key)
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan ctd_profiles row: %w", err)
		}

		p := domain.CTDProfile{CTDKey: key}
		for i, v := range domain.CastVariables {
			if vals[i].Valid {
				f := vals[i].Float64
				v.Set(&p, &f)
			}
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func loadMetadataSQL(ctx context.Context, db *sql.DB) ([]domain.CastMetadata, error) {
	query := "SELECT " + strings.Join(MetadataColumns, ", ") + " FROM ctd_metadata ORDER BY ctd_key"

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ctd_metadata: %w", err)
	}
	defer rows.Close()

	var meta []domain.CastMetadata
	for rows.Next() {
		var m domain.CastMetadata
		if err := rows.Scan(&m.CTDKey, &m.Station, &m.Longitude, &m.Latitude, &m.Year, &m.Month, &m.Day, &m.DayOfYear); err != nil {
			return nil, fmt.Errorf("scan ctd_metadata row: %w", err)
		}
		meta = append(meta, m)
	}
	return meta, rows.Err()
}

func loadSatelliteSQL(ctx context.Context, db *sql.DB) ([]domain.SatRecord, error) {
	query := "SELECT " + strings.Join(SatelliteColumns, ", ") + " FROM satellite_chl ORDER BY year, month, lon, lat"

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query satellite_chl: %w", err)
	}
	defer rows.Close()

	var records []domain.SatRecord
	for rows.Next() {
		var r domain.SatRecord
		var chl sql.NullFloat64
		if err := rows.Scan(&r.Lon, &r.Lat, &r.Year, &r.Month, &chl); err != nil {
			return nil, fmt.Errorf("scan satellite_chl row: %w", err)
		}
		if chl.Valid {
			f := chl.Float64
			r.Chl = &f
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
