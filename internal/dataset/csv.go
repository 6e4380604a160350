package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelagiclab/sog-dataprep/internal/domain"
)

// CSVSource reads the source tables from fixed-name CSV files in one
// directory. Row order is preserved from the files.
type CSVSource struct {
	dir string
}

// NewCSVSource creates a source over a directory containing ProfilesFile,
// MetadataFile, and SatelliteFile.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

// Name identifies the source for logs.
func (s *CSVSource) Name() string {
	return "csv:" + s.dir
}

// Load reads all three tables. Any malformed numeric field fails the load
// with the file and line in the error; only empty, "NA", and "NaN" fields
// are treated as missing values.
func (s *CSVSource) Load(_ context.Context) (*Tables, error) {
	profiles, err := loadProfilesCSV(filepath.Join(s.dir, ProfilesFile))
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	meta, err := loadMetadataCSV(filepath.Join(s.dir, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}

	sat, err := loadSatelliteCSV(filepath.Join(s.dir, SatelliteFile))
	if err != nil {
		return nil, fmt.Errorf("load satellite: %w", err)
	}

	return &Tables{Profiles: profiles, Metadata: meta, Satellite: sat}, nil
}

// csvTable is a parsed CSV file with a header index into its rows.
type csvTable struct {
	path   string
	colIdx map[string]int
	rows   [][]string
}

// readCSV parses a file and verifies every required column is present.
// The returned rows exclude the header; line numbers reported by field
// accessors are 1-based file lines.
func readCSV(path string, required []string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}

	colIdx := make(map[string]int, len(all[0]))
	for i, h := range all[0] {
		colIdx[strings.TrimSpace(h)] = i
	}
	for _, col := range required {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, col)
		}
	}

	return &csvTable{path: path, colIdx: colIdx, rows: all[1:]}, nil
}

func (t *csvTable) field(row int, col string) string {
	r := t.rows[row]
	i := t.colIdx[col]
	if i >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[i])
}

// line converts a row index to its 1-based line number in the file.
func (t *csvTable) line(row int) int {
	return row + 2
}

func (t *csvTable) optionalFloat(row int, col string) (*float64, error) {
	field := t.field(row, col)
	if field == "" || strings.EqualFold(field, "NA") {
		return nil, nil
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return nil, fmt.Errorf("%s line %d: column %q: %w", t.path, t.line(row), col, err)
	}
	if math.IsNaN(v) {
		return nil, nil
	}
	return &v, nil
}

func (t *csvTable) float(row int, col string) (float64, error) {
	v, err := strconv.ParseFloat(t.field(row, col), 64)
	if err != nil {
		return 0, fmt.Errorf("%s line %d: column %q: %w", t.path, t.line(row), col, err)
	}
	return v, nil
}

func (t *csvTable) int(row int, col string) (int, error) {
	v, err := strconv.Atoi(t.field(row, col))
	if err != nil {
		return 0, fmt.Errorf("%s line %d: column %q: %w", t.path, t.line(row), col, err)
	}
	return v, nil
}

func loadProfilesCSV(path string) ([]domain.CTDProfile, error) {
	table, err := readCSV(path, ProfileColumns())
	if err != nil {
		return nil, err
	}

	profiles := make([]domain.CTDProfile, 0, len(table.rows))
	for i := range table.rows {
		p := domain.CTDProfile{CTDKey: table.field(i, "ctd_key")}
		if p.CTDKey == "" {
			return nil, fmt.Errorf("%s line %d: empty ctd_key", path, table.line(i))
		}
		for _, v := range domain.CastVariables {
			val, err := table.optionalFloat(i, v.Name)
			if err != nil {
				return nil, err
			}
			v.Set(&p, val)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func loadMetadataCSV(path string) ([]domain.CastMetadata, error) {
	table, err := readCSV(path, MetadataColumns)
	if err != nil {
		return nil, err
	}

	meta := make([]domain.CastMetadata, 0, len(table.rows))
	for i := range table.rows {
		m := domain.CastMetadata{
			CTDKey:  table.field(i, "ctd_key"),
			Station: table.field(i, "station"),
		}
		if m.CTDKey == "" {
			return nil, fmt.Errorf("%s line %d: empty ctd_key", path, table.line(i))
		}
		if m.Longitude, err = table.float(i, "longitude"); err != nil {
			return nil, err
		}
		if m.Latitude, err = table.float(i, "latitude"); err != nil {
			return nil, err
		}
		if m.Year, err = table.int(i, "year"); err != nil {
			return nil, err
		}
		if m.Month, err = table.int(i, "month"); err != nil {
			return nil, err
		}
		if m.Day, err = table.int(i, "day"); err != nil {
			return nil, err
		}
		if m.DayOfYear, err = table.int(i, "day_of_year"); err != nil {
			return nil, err
		}
		meta = append(meta, m)
	}
	return meta, nil
}

func loadSatelliteCSV(path string) ([]domain.SatRecord, error) {
	table, err := readCSV(path, SatelliteColumns)
	if err != nil {
		return nil, err
	}

	records := make([]domain.SatRecord, 0, len(table.rows))
	for i := range table.rows {
		var r domain.SatRecord
		if r.Lon, err = table.float(i, "lon"); err != nil {
			return nil, err
		}
		if r.Lat, err = table.float(i, "lat"); err != nil {
			return nil, err
		}
		if r.Year, err = table.int(i, "year"); err != nil {
			return nil, err
		}
		if r.Month, err = table.int(i, "month"); err != nil {
			return nil, err
		}
		if r.Chl, err = table.optionalFloat(i, "chl"); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}
