// Command validate performs end-to-end integrity checks on a pipeline
// run: source tables, the station-labeled observation table, the CTD
// monthly means, and the chlorophyll time series. It re-runs the domain
// aggregations with the parameters recorded in report.json and verifies
// the exported tables match.
//
// Usage:
//
//	go run ./cmd/validate -data-dir data/mock -out-dir out
//	go run ./cmd/validate -data-dir data/mock -format sqlite -out-dir out
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelagiclab/sog-dataprep/internal/dataset"
	"github.com/pelagiclab/sog-dataprep/internal/domain"
	"github.com/pelagiclab/sog-dataprep/internal/export"
	"github.com/pelagiclab/sog-dataprep/internal/pipeline"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", "", "directory containing the source tables")
	format := flag.String("format", "csv", "source format: csv or sqlite")
	outDir := flag.String("out-dir", "", "directory containing the exported pipeline outputs")
	flag.Parse()

	if *dataDir == "" || *outDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dataDir, *format, *outDir); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir, format, outDir string) int {
	fmt.Println("=== SOG Data Preparation Integrity Validation ===")
	fmt.Println()

	// ── Load source tables and exported outputs ──
	var source dataset.Source
	switch format {
	case "sqlite":
		source = dataset.NewSQLiteSource(filepath.Join(dataDir, dataset.SQLiteFile))
	case "csv":
		source = dataset.NewCSVSource(dataDir)
	default:
		fmt.Fprintf(os.Stderr, "FATAL: invalid -format %q\n", format)
		return 1
	}

	tables, err := source.Load(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load source tables: %v\n", err)
		return 1
	}

	report, err := loadJSON[pipeline.RunReport](filepath.Join(outDir, export.ReportFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load run report: %v\n", err)
		return 1
	}

	obsRows, err := loadCSV(filepath.Join(outDir, export.ObservationsFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load observations: %v\n", err)
		return 1
	}

	monthlyRows, err := loadCSV(filepath.Join(outDir, export.MonthlyFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load ctd monthly: %v\n", err)
		return 1
	}

	chlRows, err := loadCSV(filepath.Join(outDir, export.ChlFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load chl timeseries: %v\n", err)
		return 1
	}

	// ── Run validation phases ──
	phases := []*phase{
		validateSourceIntegrity(tables),
		validateClassification(tables, report, obsRows),
		validateMonthly(tables, report, monthlyRows),
		validateSatellite(tables, report, chlRows),
		validateReproducibility(tables, report),
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-46s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Tables: %d profiles, %d metadata rows, %d satellite records\n",
		len(tables.Profiles), len(tables.Metadata), len(tables.Satellite))
	fmt.Printf("Outputs: %d observations, %d monthly rows, %d chl months\n",
		len(obsRows), len(monthlyRows), len(chlRows))

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// csvRow is a parsed CSV row with field values keyed by header name.
type csvRow struct {
	lineNum int
	fields  map[string]string
}

func loadCSV(path string) ([]csvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no header row in %s", path)
	}

	header := all[0]
	var rows []csvRow
	for i, row := range all[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(row) {
				fields[h] = strings.TrimSpace(row[j])
			}
		}
		rows = append(rows, csvRow{lineNum: i + 2, fields: fields})
	}
	return rows, nil
}

func loadJSON[T any](path string) (T, error) {
	var v T
	data, err := os.ReadFile(path)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, err
	}
	return v, nil
}

// ── Phase 1: Source Integrity ──
// Validates key uniqueness and value ranges in the source tables.

func validateSourceIntegrity(tables *dataset.Tables) *phase {
	p := &phase{name: "Phase 1: Source Integrity (tables)"}

	profileKeys := map[string]bool{}
	for i, prof := range tables.Profiles {
		if prof.CTDKey == "" {
			p.errorf("profile %d: empty ctd_key", i)
			continue
		}
		if profileKeys[prof.CTDKey] {
			p.errorf("profile %d: duplicate ctd_key %q", i, prof.CTDKey)
		}
		profileKeys[prof.CTDKey] = true
	}

	metaKeys := map[string]bool{}
	for i, m := range tables.Metadata {
		if m.CTDKey == "" {
			p.errorf("metadata %d: empty ctd_key", i)
			continue
		}
		if metaKeys[m.CTDKey] {
			p.errorf("metadata %d: duplicate ctd_key %q", i, m.CTDKey)
		}
		metaKeys[m.CTDKey] = true

		if m.Station == "" {
			p.errorf("metadata %s: empty station", m.CTDKey)
		}
		if m.Month < 1 || m.Month > 12 {
			p.errorf("metadata %s: month %d out of range", m.CTDKey, m.Month)
		}
		if m.Day < 1 || m.Day > 31 {
			p.errorf("metadata %s: day %d out of range", m.CTDKey, m.Day)
		}
		if m.DayOfYear < 1 || m.DayOfYear > 366 {
			p.errorf("metadata %s: day_of_year %d out of range", m.CTDKey, m.DayOfYear)
		}
		if m.Longitude < -180 || m.Longitude > 180 {
			p.errorf("metadata %s: longitude %g out of range", m.CTDKey, m.Longitude)
		}
		if m.Latitude < -90 || m.Latitude > 90 {
			p.errorf("metadata %s: latitude %g out of range", m.CTDKey, m.Latitude)
		}
	}

	for i, r := range tables.Satellite {
		if r.Month < 1 || r.Month > 12 {
			p.errorf("satellite record %d: month %d out of range", i, r.Month)
		}
		if r.Chl != nil && *r.Chl < 0 {
			p.errorf("satellite record %d: negative chlorophyll %g", i, *r.Chl)
		}
	}

	return p
}

// ── Phase 2: Station Classification ──
// Re-runs the join and classification and compares observations.csv.

func validateClassification(tables *dataset.Tables, report pipeline.RunReport, obsRows []csvRow) *phase {
	p := &phase{name: "Phase 2: Station Classification (observations)"}

	obs, joinStats := domain.JoinCasts(tables.Profiles, tables.Metadata)
	classified, stats := domain.ClassifyStations(obs, report.Params.Classify)

	if joinStats != report.Join {
		p.errorf("join stats: recomputed %+v, report has %+v", joinStats, report.Join)
	}
	if got, want := strings.Join(stats.Primary, ","), strings.Join(report.Classify.Primary, ","); got != want {
		p.errorf("primary stations: recomputed [%s], report has [%s]", got, want)
	}

	if len(obsRows) != len(classified) {
		p.errorf("observation count: expected %d, got %d", len(classified), len(obsRows))
		return p
	}

	primary := map[string]bool{}
	for _, st := range stats.Primary {
		primary[st] = true
	}

	groupByKey := map[string]string{}
	for _, row := range obsRows {
		key := row.fields["ctd_key"]
		group := row.fields["station_group"]
		if key == "" {
			p.errorf("line %d: empty ctd_key", row.lineNum)
			continue
		}
		if group == "" {
			p.errorf("line %d: empty station_group for %s", row.lineNum, key)
			continue
		}
		if !primary[group] && group != domain.OtherStation {
			p.errorf("line %d: station_group %q is neither primary nor %q", row.lineNum, group, domain.OtherStation)
		}
		groupByKey[key] = group
	}

	for _, o := range classified {
		if got := groupByKey[o.Profile.CTDKey]; got != o.StationGroup {
			p.errorf("cast %s: station_group %q, recomputed %q", o.Profile.CTDKey, got, o.StationGroup)
		}
	}

	return p
}

// ── Phase 3: CTD Monthly Means ──
// Re-runs the temporal aggregation and compares ctd_monthly.csv row by
// row, ordering included.

func validateMonthly(tables *dataset.Tables, report pipeline.RunReport, monthlyRows []csvRow) *phase {
	p := &phase{name: "Phase 3: CTD Monthly Means (recompute)"}

	obs, _ := domain.JoinCasts(tables.Profiles, tables.Metadata)
	classified, stats := domain.ClassifyStations(obs, report.Params.Classify)
	monthly, monthlyStats := domain.AggregateMonthly(classified, stats.Primary)

	if monthlyStats.Groups != report.Monthly.Groups {
		p.errorf("groups: recomputed %d, report has %d", monthlyStats.Groups, report.Monthly.Groups)
	}
	if len(monthlyRows) != len(monthly) {
		p.errorf("row count: expected %d, got %d", len(monthly), len(monthlyRows))
		return p
	}

	for i, want := range monthly {
		row := monthlyRows[i]
		if got := atoi(p, row, "year"); got != want.Year {
			p.errorf("line %d: year %d, recomputed %d", row.lineNum, got, want.Year)
		}
		if got := atoi(p, row, "month"); got != want.Month {
			p.errorf("line %d: month %d, recomputed %d", row.lineNum, got, want.Month)
		}
		if got := row.fields["variable"]; got != want.Variable {
			p.errorf("line %d: variable %q, recomputed %q", row.lineNum, got, want.Variable)
		}
		if got := atof(p, row, "mean"); !floatEq(got, want.Mean) {
			p.errorf("line %d: mean %g, recomputed %g", row.lineNum, got, want.Mean)
		}
		if got := atoi(p, row, "n"); got != want.N {
			p.errorf("line %d: n %d, recomputed %d", row.lineNum, got, want.N)
		}
	}

	return p
}

// ── Phase 4: Chlorophyll Series ──
// Re-runs the satellite aggregation, checks chl_timeseries.csv row by
// row, and verifies the anomaly identity and coverage monotonicity.

func validateSatellite(tables *dataset.Tables, report pipeline.RunReport, chlRows []csvRow) *phase {
	p := &phase{name: "Phase 4: Chlorophyll Series (recompute)"}

	cfg := report.Params.Satellite
	chl, satStats := domain.AggregateChl(tables.Satellite, cfg)

	if satStats != report.Satellite {
		p.errorf("satellite stats: recomputed %+v, report has %+v", satStats, report.Satellite)
	}
	if len(chlRows) != len(chl) {
		p.errorf("row count: expected %d, got %d", len(chl), len(chlRows))
		return p
	}

	for i, want := range chl {
		row := chlRows[i]
		checkChlRow(p, row, want)
	}

	// A stricter coverage threshold can only shrink the qualified cell set.
	stricter := cfg
	stricter.MinCellObs += 50
	_, strictStats := domain.AggregateChl(tables.Satellite, stricter)
	if strictStats.QualifiedCells > satStats.QualifiedCells {
		p.errorf("coverage: threshold %d qualifies %d cells, threshold %d qualifies %d",
			cfg.MinCellObs, satStats.QualifiedCells, stricter.MinCellObs, strictStats.QualifiedCells)
	}

	return p
}

func checkChlRow(p *phase, row csvRow, want domain.ChlMonthly) {
	if got := atoi(p, row, "year"); got != want.Year {
		p.errorf("line %d: year %d, recomputed %d", row.lineNum, got, want.Year)
	}
	if got := atoi(p, row, "month"); got != want.Month {
		p.errorf("line %d: month %d, recomputed %d", row.lineNum, got, want.Month)
	}
	if got := atof(p, row, "year_month"); !floatEq(got, want.YearMonth) {
		p.errorf("line %d: year_month %g, recomputed %g", row.lineNum, got, want.YearMonth)
	}

	mean := atof(p, row, "mean")
	clim := atof(p, row, "climatology")
	anomaly := atof(p, row, "anomaly")
	if !floatEq(mean, want.Mean) {
		p.errorf("line %d: mean %g, recomputed %g", row.lineNum, mean, want.Mean)
	}
	if !floatEq(clim, want.Climatology) {
		p.errorf("line %d: climatology %g, recomputed %g", row.lineNum, clim, want.Climatology)
	}
	if !floatEq(anomaly, want.Anomaly) {
		p.errorf("line %d: anomaly %g, recomputed %g", row.lineNum, anomaly, want.Anomaly)
	}
	if !floatEq(anomaly+clim, mean) {
		p.errorf("line %d: anomaly %g + climatology %g != mean %g", row.lineNum, anomaly, clim, mean)
	}

	n := atoi(p, row, "n")
	if n != want.N {
		p.errorf("line %d: n %d, recomputed %d", row.lineNum, n, want.N)
	}
	sd := row.fields["sd"]
	switch {
	case n < 2 && sd != "":
		p.errorf("line %d: sd %q present with n=%d", row.lineNum, sd, n)
	case n >= 2 && sd == "":
		p.errorf("line %d: sd missing with n=%d", row.lineNum, n)
	case sd != "" && want.SD != nil:
		if got, err := strconv.ParseFloat(sd, 64); err != nil {
			p.errorf("line %d: sd %q: %v", row.lineNum, sd, err)
		} else if !floatEq(got, *want.SD) {
			p.errorf("line %d: sd %g, recomputed %g", row.lineNum, got, *want.SD)
		}
	}
}

// ── Phase 5: Reproducibility ──
// The transforms are pure; two recomputations over the same tables must
// agree exactly.

func validateReproducibility(tables *dataset.Tables, report pipeline.RunReport) *phase {
	p := &phase{name: "Phase 5: Reproducibility (pure transforms)"}

	run := func() ([]domain.MonthlySummary, []domain.ChlMonthly, []string) {
		obs, _ := domain.JoinCasts(tables.Profiles, tables.Metadata)
		classified, stats := domain.ClassifyStations(obs, report.Params.Classify)
		monthly, _ := domain.AggregateMonthly(classified, stats.Primary)
		chl, _ := domain.AggregateChl(tables.Satellite, report.Params.Satellite)
		return monthly, chl, stats.Primary
	}

	m1, c1, p1 := run()
	m2, c2, p2 := run()

	if strings.Join(p1, ",") != strings.Join(p2, ",") {
		p.errorf("primary stations differ between runs: [%s] vs [%s]", strings.Join(p1, ","), strings.Join(p2, ","))
	}

	if len(m1) != len(m2) {
		p.errorf("monthly row counts differ: %d vs %d", len(m1), len(m2))
	} else {
		for i := range m1 {
			if m1[i] != m2[i] {
				p.errorf("monthly row %d differs: %+v vs %+v", i, m1[i], m2[i])
			}
		}
	}

	if len(c1) != len(c2) {
		p.errorf("chl row counts differ: %d vs %d", len(c1), len(c2))
	} else {
		for i := range c1 {
			if !chlEq(c1[i], c2[i]) {
				p.errorf("chl row %d differs: %+v vs %+v", i, c1[i], c2[i])
			}
		}
	}

	return p
}

func chlEq(a, b domain.ChlMonthly) bool {
	return a.Year == b.Year &&
		a.Month == b.Month &&
		a.YearMonth == b.YearMonth &&
		a.Mean == b.Mean &&
		a.N == b.N &&
		a.Climatology == b.Climatology &&
		a.Anomaly == b.Anomaly &&
		ptrFloatEq(a.SD, b.SD)
}

// ── Helpers ──

func atoi(p *phase, row csvRow, col string) int {
	n, err := strconv.Atoi(row.fields[col])
	if err != nil {
		p.errorf("line %d: column %q: %v", row.lineNum, col, err)
		return 0
	}
	return n
}

func atof(p *phase, row csvRow, col string) float64 {
	v, err := strconv.ParseFloat(row.fields[col], 64)
	if err != nil {
		p.errorf("line %d: column %q: %v", row.lineNum, col, err)
		return math.NaN()
	}
	return v
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func ptrFloatEq(a, b *float64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a == b || *a == *b
}
