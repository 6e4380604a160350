// Package export writes the derived tables to an output directory as the
// handoff to the downstream plotting workflow. CSV cells for missing values
// are empty, matching what the loaders read back.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelagiclab/sog-dataprep/internal/domain"
)

// Output file names inside the export directory.
const (
	ObservationsFile = "observations.csv"
	StationsFile     = "station_counts.csv"
	MonthlyFile      = "ctd_monthly.csv"
	ChlFile          = "chl_timeseries.csv"
	ReportFile       = "report.json"
)

// Writer writes derived tables under one directory.
type Writer struct {
	dir string
}

// NewWriter creates a Writer for the given directory. The directory is
// created on first write.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// WriteObservations writes the station-labeled observation table. Casts
// with no metadata keep their readings but have empty metadata cells.
func (w *Writer) WriteObservations(obs []domain.Observation) error {
	header := []string{"ctd_key", "station", "station_group", "longitude", "latitude", "year", "month", "day", "day_of_year"}
	for _, v := range domain.CastVariables {
		header = append(header, v.Name)
	}

	rows := make([][]string, 0, len(obs))
	for _, o := range obs {
		row := make([]string, 0, len(header))
		row = append(row, o.Profile.CTDKey)
		if o.Meta != nil {
			row = append(row,
				o.Meta.Station,
				o.StationGroup,
				formatFloat(o.Meta.Longitude),
				formatFloat(o.Meta.Latitude),
				strconv.Itoa(o.Meta.Year),
				strconv.Itoa(o.Meta.Month),
				strconv.Itoa(o.Meta.Day),
				strconv.Itoa(o.Meta.DayOfYear),
			)
		} else {
			row = append(row, "", o.StationGroup, "", "", "", "", "", "")
		}
		for _, v := range domain.CastVariables {
			row = append(row, formatOptional(v.Get(o.Profile)))
		}
		rows = append(rows, row)
	}

	return w.writeCSV(ObservationsFile, header, rows)
}

// WriteStations writes the station frequency ranking.
func (w *Writer) WriteStations(counts []domain.StationCount) error {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Station, strconv.Itoa(c.Count)})
	}
	return w.writeCSV(StationsFile, []string{"station", "count"}, rows)
}

// WriteMonthly writes the CTD monthly means.
func (w *Writer) WriteMonthly(rows []domain.MonthlySummary) error {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			strconv.Itoa(r.Year),
			strconv.Itoa(r.Month),
			r.Variable,
			formatFloat(r.Mean),
			strconv.Itoa(r.N),
		})
	}
	return w.writeCSV(MonthlyFile, []string{"year", "month", "variable", "mean", "n"}, out)
}

// WriteChl writes the satellite chlorophyll time series. SD is empty when
// the month had a single reading.
func (w *Writer) WriteChl(rows []domain.ChlMonthly) error {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			strconv.Itoa(r.Year),
			strconv.Itoa(r.Month),
			formatFloat(r.YearMonth),
			formatFloat(r.Mean),
			formatOptional(r.SD),
			strconv.Itoa(r.N),
			formatFloat(r.Climatology),
			formatFloat(r.Anomaly),
		})
	}
	return w.writeCSV(ChlFile, []string{"year", "month", "year_month", "mean", "sd", "n", "climatology", "anomaly"}, out)
}

// WriteReport writes the run report as indented JSON.
func (w *Writer) WriteReport(report any) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')
	return os.WriteFile(filepath.Join(w.dir, ReportFile), data, 0o600)
}

func (w *Writer) writeCSV(name string, header []string, rows [][]string) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(w.dir, name), buf.Bytes(), 0o600)
}

// formatFloat renders a float with enough precision to round-trip.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
