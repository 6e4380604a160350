package pipeline_test

import (
	"context"

	"github.com/pelagiclab/sog-dataprep/internal/dataset"
	"github.com/pelagiclab/sog-dataprep/internal/domain"
	"github.com/pelagiclab/sog-dataprep/internal/observability"
)

// --- mocks ---

type mockSource struct {
	tables *dataset.Tables
	err    error
	loads  int
}

func (m *mockSource) Load(_ context.Context) (*dataset.Tables, error) {
	m.loads++
	if m.err != nil {
		return nil, m.err
	}
	return m.tables, nil
}

func (m *mockSource) Name() string { return "mock" }

type mockExporter struct {
	observations []domain.Observation
	stations     []domain.StationCount
	monthly      []domain.MonthlySummary
	chl          []domain.ChlMonthly
	report       any
	err          error
}

func (m *mockExporter) WriteObservations(obs []domain.Observation) error {
	if m.err != nil {
		return m.err
	}
	m.observations = obs
	return nil
}

func (m *mockExporter) WriteStations(counts []domain.StationCount) error {
	if m.err != nil {
		return m.err
	}
	m.stations = counts
	return nil
}

func (m *mockExporter) WriteMonthly(rows []domain.MonthlySummary) error {
	if m.err != nil {
		return m.err
	}
	m.monthly = rows
	return nil
}

func (m *mockExporter) WriteChl(rows []domain.ChlMonthly) error {
	if m.err != nil {
		return m.err
	}
	m.chl = rows
	return nil
}

func (m *mockExporter) WriteReport(report any) error {
	if m.err != nil {
		return m.err
	}
	m.report = report
	return nil
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

// --- fixtures ---

func fptr(v float64) *float64 {
	return &v
}

func profile(key string, tempI10 *float64) domain.CTDProfile {
	return domain.CTDProfile{CTDKey: key, TemperatureI10: tempI10}
}

func meta(key, station string, year, month int) domain.CastMetadata {
	return domain.CastMetadata{
		CTDKey:    key,
		Station:   station,
		Longitude: -123.7,
		Latitude:  49.25,
		Year:      year,
		Month:     month,
		Day:       15,
		DayOfYear: 166,
	}
}

// makeTables builds a small hand-checkable dataset. Stations GEO1, CPF1,
// and CPF2 are the busiest three; XYZ9 and the unmatched ctd-99 profile
// fall into the Other group. The satellite grid has one qualified cell,
// one sparse cell, an all-missing month, and one record outside the year
// range.
func makeTables() *dataset.Tables {
	return &dataset.Tables{
		Profiles: []domain.CTDProfile{
			profile("ctd-01", fptr(8.0)),
			profile("ctd-02", fptr(10.0)),
			profile("ctd-03", fptr(9.0)),
			profile("ctd-04", fptr(12.0)),
			profile("ctd-05", nil),
			profile("ctd-06", fptr(6.0)),
			profile("ctd-07", fptr(7.0)),
			profile("ctd-08", fptr(20.0)),
			profile("ctd-99", fptr(30.0)),
		},
		Metadata: []domain.CastMetadata{
			meta("ctd-01", "GEO1", 2015, 6),
			meta("ctd-02", "GEO1", 2015, 6),
			meta("ctd-03", "GEO1", 2015, 7),
			meta("ctd-04", "CPF1", 2015, 6),
			meta("ctd-05", "CPF1", 2015, 6),
			meta("ctd-06", "CPF2", 2015, 6),
			meta("ctd-07", "CPF2", 2016, 6),
			meta("ctd-08", "XYZ9", 2015, 6),
		},
		Satellite: []domain.SatRecord{
			{Lon: -123.0, Lat: 49.0, Year: 2015, Month: 6, Chl: fptr(2.0)},
			{Lon: -123.0, Lat: 49.0, Year: 2015, Month: 7, Chl: fptr(4.0)},
			{Lon: -123.0, Lat: 49.0, Year: 2016, Month: 6, Chl: fptr(4.0)},
			{Lon: -123.0, Lat: 49.0, Year: 2015, Month: 8, Chl: nil},
			{Lon: -123.25, Lat: 49.0, Year: 2015, Month: 6, Chl: fptr(9.0)},
			{Lon: -123.0, Lat: 49.0, Year: 1996, Month: 6, Chl: fptr(1.0)},
		},
	}
}
