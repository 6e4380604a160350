// Command genmock generates mock SOG source tables for the pipeline and
// validation test suites. Generation is seeded and the manifest clock is
// pinned, so the same seed always produces byte-identical output. It runs
// the actual domain aggregations over the generated data so the printed
// stats match real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -seed 42
//	go run ./cmd/genmock -out data/mock -format sqlite
package main

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pelagiclab/sog-dataprep/internal/dataset"
	"github.com/pelagiclab/sog-dataprep/internal/domain"
	"github.com/pelagiclab/sog-dataprep/internal/pipeline"
)

// stationDef fixes each station's sampling weight and nominal position.
// Weights are relative visit frequencies; GEO1, CPF1, and CPF2 are the
// busiest three so default top-3 classification keeps them primary.
type stationDef struct {
	name     string
	weight   float64
	lon, lat float64
}

var stationDefs = []stationDef{
	{"GEO1", 0.30, -123.74, 49.25},
	{"CPF1", 0.22, -123.60, 49.12},
	{"CPF2", 0.18, -123.43, 49.03},
	{"ES2", 0.12, -123.18, 49.30},
	{"SN-8", 0.10, -123.90, 49.48},
	{"GB2", 0.08, -123.05, 48.85},
}

// Satellite grid and span. The years deliberately straddle the default
// 1997-2018 aggregation window so boundary filtering is exercised.
var (
	satLons      = []float64{-124.0, -123.5, -123.0, -122.5}
	satLats      = []float64{48.5, 49.0, 49.5}
	satYearFirst = 1995
	satYearLast  = 2019
)

// chlSeason is the nominal chlorophyll level per calendar month, peaking
// with the spring bloom.
var chlSeason = [13]float64{0, 0.8, 1.0, 5.5, 4.8, 3.0, 2.0, 1.6, 1.8, 2.2, 1.4, 1.0, 0.8}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory for generated tables")
	format := flag.String("format", "csv", "output format: csv or sqlite")
	seed := flag.Int64("seed", 42, "random seed")
	casts := flag.Int("casts", 400, "number of CTD casts to generate")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *format != "csv" && *format != "sqlite" {
		return fmt.Errorf("invalid -format %q: must be csv or sqlite", *format)
	}

	tables, err := generate(*out, *format, *seed, *casts)
	if err != nil {
		return err
	}

	printStats(tables)
	return nil
}

// generate builds the seeded tables and writes them plus manifest.json
// under dir.
func generate(dir, format string, seed int64, casts int) (*dataset.Tables, error) {
	// Set a fixed clock for reproducible manifest timestamps.
	pipeline.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC),
	))
	defer pipeline.SetClock(nil)

	tables := buildTables(rand.New(rand.NewSource(seed)), casts)

	switch format {
	case "csv":
		if err := writeCSVTables(dir, tables); err != nil {
			return nil, fmt.Errorf("writing CSV tables: %w", err)
		}
		log.Printf("wrote CSV tables: %s", dir)
	case "sqlite":
		path := filepath.Join(dir, dataset.SQLiteFile)
		if err := writeSQLite(path, tables); err != nil {
			return nil, fmt.Errorf("writing sqlite database: %w", err)
		}
		log.Printf("wrote sqlite database: %s", path)
	}

	if err := writeManifest(dir, format, seed, tables); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}
	return tables, nil
}

// ── Table generation ──

func buildTables(rng *rand.Rand, casts int) *dataset.Tables {
	tables := &dataset.Tables{}

	for i := 0; i < casts; i++ {
		key := fmt.Sprintf("ctd-%04d", i+1)
		st := pickStation(rng)

		year := 2010 + rng.Intn(8)
		month := 1 + rng.Intn(12)
		day := 1 + rng.Intn(28)
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)

		tables.Profiles = append(tables.Profiles, makeProfile(rng, key, month))

		// A few casts have lost their metadata row; the join keeps the
		// profile with nil Meta.
		if rng.Float64() < 0.03 {
			continue
		}

		tables.Metadata = append(tables.Metadata, domain.CastMetadata{
			CTDKey:    key,
			Station:   st.name,
			Longitude: st.lon + (rng.Float64()-0.5)*0.04,
			Latitude:  st.lat + (rng.Float64()-0.5)*0.04,
			Year:      year,
			Month:     month,
			Day:       day,
			DayOfYear: date.YearDay(),
		})
	}

	tables.Satellite = buildSatellite(rng)
	return tables
}

func pickStation(rng *rand.Rand) stationDef {
	r := rng.Float64()
	acc := 0.0
	for _, st := range stationDefs {
		acc += st.weight
		if r < acc {
			return st
		}
	}
	return stationDefs[len(stationDefs)-1]
}

// makeProfile draws a seasonally plausible set of depth-integrated
// readings. Around 8% of the cells are missing, as in real deliveries.
func makeProfile(rng *rand.Rand, key string, month int) domain.CTDProfile {
	season := math.Sin(2 * math.Pi * float64(month-3) / 12)

	t10 := 9.0 + 4.0*season + rng.NormFloat64()*0.8
	t50 := t10 - 1.8 + rng.NormFloat64()*0.4
	tnet := t10 - 0.9 + rng.NormFloat64()*0.5

	s10 := 26.5 - 2.2*season + rng.NormFloat64()*0.6
	s50 := s10 + 2.4 + rng.NormFloat64()*0.3
	snet := s10 + 1.1 + rng.NormFloat64()*0.4

	d10 := 20.0 + (s10-27.0)*0.75 - (t10-9.0)*0.17 + rng.NormFloat64()*0.2
	d50 := d10 + 1.6 + rng.NormFloat64()*0.15
	dnet := d10 + 0.8 + rng.NormFloat64()*0.2

	o10 := 6.3 + 1.2*season + rng.NormFloat64()*0.5
	o50 := o10 - 1.5 + rng.NormFloat64()*0.3
	onet := o10 - 0.7 + rng.NormFloat64()*0.4

	p := domain.CTDProfile{CTDKey: key}
	values := []float64{t10, t50, tnet, s10, s50, snet, d10, d50, dnet, o10, o50, onet}
	for i, v := range domain.CastVariables {
		if rng.Float64() < 0.08 {
			continue
		}
		value := values[i]
		v.Set(&p, &value)
	}
	return p
}

func buildSatellite(rng *rand.Rand) []domain.SatRecord {
	var records []domain.SatRecord

	for ci, lon := range satLons {
		for cj, lat := range satLats {
			// The first and last grid cells are mostly cloud-covered, so
			// they fail the default coverage threshold.
			missing := 0.10
			if (ci == 0 && cj == 0) || (ci == len(satLons)-1 && cj == len(satLats)-1) {
				missing = 0.85
			}

			for year := satYearFirst; year <= satYearLast; year++ {
				for month := 1; month <= 12; month++ {
					rec := domain.SatRecord{Lon: lon, Lat: lat, Year: year, Month: month}
					if rng.Float64() >= missing {
						value := chlSeason[month] * (0.5 + rng.Float64())
						rec.Chl = &value
					}
					records = append(records, rec)
				}
			}
		}
	}
	return records
}

// ── Output ──

func writeCSVTables(dir string, tables *dataset.Tables) error {
	profileRows := make([][]string, 0, len(tables.Profiles))
	for _, p := range tables.Profiles {
		row := []string{p.CTDKey}
		for _, v := range domain.CastVariables {
			row = append(row, formatOptional(v.Get(p)))
		}
		profileRows = append(profileRows, row)
	}
	if err := writeCSV(filepath.Join(dir, dataset.ProfilesFile), dataset.ProfileColumns(), profileRows); err != nil {
		return err
	}

	metaRows := make([][]string, 0, len(tables.Metadata))
	for _, m := range tables.Metadata {
		metaRows = append(metaRows, []string{
			m.CTDKey,
			m.Station,
			formatFloat(m.Longitude),
			formatFloat(m.Latitude),
			strconv.Itoa(m.Year),
			strconv.Itoa(m.Month),
			strconv.Itoa(m.Day),
			strconv.Itoa(m.DayOfYear),
		})
	}
	if err := writeCSV(filepath.Join(dir, dataset.MetadataFile), dataset.MetadataColumns, metaRows); err != nil {
		return err
	}

	satRows := make([][]string, 0, len(tables.Satellite))
	for _, r := range tables.Satellite {
		satRows = append(satRows, []string{
			formatFloat(r.Lon),
			formatFloat(r.Lat),
			strconv.Itoa(r.Year),
			strconv.Itoa(r.Month),
			formatOptional(r.Chl),
		})
	}
	return writeCSV(filepath.Join(dir, dataset.SatelliteFile), dataset.SatelliteColumns, satRows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

func writeSQLite(path string, tables *dataset.Tables) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(dataset.SQLiteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	cols := dataset.ProfileColumns()
	insertProfile := "INSERT INTO ctd_profiles (" + strings.Join(cols, ", ") + ") VALUES (" + placeholders(len(cols)) + ")"
	for _, p := range tables.Profiles {
		args := make([]any, 0, len(cols))
		args = append(args, p.CTDKey)
		for _, v := range domain.CastVariables {
			args = append(args, v.Get(p))
		}
		if _, err := tx.Exec(insertProfile, args...); err != nil {
			return fmt.Errorf("insert profile %s: %w", p.CTDKey, err)
		}
	}

	insertMeta := "INSERT INTO ctd_metadata (" + strings.Join(dataset.MetadataColumns, ", ") + ") VALUES (" + placeholders(len(dataset.MetadataColumns)) + ")"
	for _, m := range tables.Metadata {
		if _, err := tx.Exec(insertMeta, m.CTDKey, m.Station, m.Longitude, m.Latitude, m.Year, m.Month, m.Day, m.DayOfYear); err != nil {
			return fmt.Errorf("insert metadata %s: %w", m.CTDKey, err)
		}
	}

	insertSat := "INSERT INTO satellite_chl (" + strings.Join(dataset.SatelliteColumns, ", ") + ") VALUES (" + placeholders(len(dataset.SatelliteColumns)) + ")"
	for _, r := range tables.Satellite {
		if _, err := tx.Exec(insertSat, r.Lon, r.Lat, r.Year, r.Month, r.Chl); err != nil {
			return fmt.Errorf("insert satellite record: %w", err)
		}
	}

	return tx.Commit()
}

type manifest struct {
	GeneratedAt      time.Time `json:"generated_at"`
	Seed             int64     `json:"seed"`
	Format           string    `json:"format"`
	Profiles         int       `json:"profiles"`
	MetadataRows     int       `json:"metadata_rows"`
	SatelliteRecords int       `json:"satellite_records"`
}

func writeManifest(dir, format string, seed int64, tables *dataset.Tables) error {
	m := manifest{
		GeneratedAt:      pipeline.Now().UTC(),
		Seed:             seed,
		Format:           format,
		Profiles:         len(tables.Profiles),
		MetadataRows:     len(tables.Metadata),
		SatelliteRecords: len(tables.Satellite),
	}
	return writeJSON(filepath.Join(dir, "manifest.json"), m)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// ── Stats ──

// printStats runs the real aggregations with default parameters so the
// numbers below can be pasted into test assertions.
func printStats(tables *dataset.Tables) {
	obs, joinStats := domain.JoinCasts(tables.Profiles, tables.Metadata)
	classified, classifyStats := domain.ClassifyStations(obs, domain.ClassifyConfig{PrimaryCount: 3})
	monthly, monthlyStats := domain.AggregateMonthly(classified, classifyStats.Primary)
	chl, satStats := domain.AggregateChl(tables.Satellite, domain.SatelliteConfig{
		YearMin:    1997,
		YearMax:    2018,
		MinCellObs: 100,
	})

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Profiles: %d (unmatched %d)\n", joinStats.Profiles, joinStats.Unmatched)

	fmt.Printf("Stations:")
	for _, c := range classifyStats.Counts {
		fmt.Printf(" %s=%d", c.Station, c.Count)
	}
	fmt.Println()
	fmt.Printf("Primary: %s (Other casts: %d)\n", strings.Join(classifyStats.Primary, ", "), classifyStats.OtherCount)

	missing := 0
	for _, n := range monthlyStats.MissingValues {
		missing += n
	}
	fmt.Printf("CTD monthly: %d groups from %d values (%d missing cells)\n", monthlyStats.Groups, monthlyStats.LongRows, missing)
	if len(monthly) > 0 {
		first := monthly[0]
		last := monthly[len(monthly)-1]
		fmt.Printf("  first: %d-%02d %s mean=%.4f n=%d\n", first.Year, first.Month, first.Variable, first.Mean, first.N)
		fmt.Printf("  last:  %d-%02d %s mean=%.4f n=%d\n", last.Year, last.Month, last.Variable, last.Mean, last.N)
	}

	fmt.Printf("Satellite: %d records, %d outside years, cells %d (qualified %d), months %d\n",
		satStats.Records, satStats.OutsideYears, satStats.Cells, satStats.QualifiedCells, satStats.Months)
	if trend := domain.AnomalyTrend(chl); trend != nil {
		fmt.Printf("Anomaly trend: slope=%.6f intercept=%.4f n=%d\n", trend.Slope, trend.Intercept, trend.N)
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
