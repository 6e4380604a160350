package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pelagiclab/sog-dataprep/internal/domain"
	"github.com/pelagiclab/sog-dataprep/internal/pipeline"
)

func testParams() pipeline.Params {
	return pipeline.Params{
		Classify:  domain.ClassifyConfig{PrimaryCount: 3},
		Satellite: domain.SatelliteConfig{YearMin: 1997, YearMax: 2018, MinCellObs: 2},
	}
}

func TestPipeline_Run_HappyPath(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC))
	pipeline.SetClock(fakeClock)
	t.Cleanup(func() {
		pipeline.SetClock(nil)
	})

	src := &mockSource{tables: makeTables()}
	exp := &mockExporter{}
	p := pipeline.New(src, exp, slog.Default(), newTestMetrics(), testParams())

	require.NoError(t, p.Run(context.Background()))

	// Every profile survives the classification stage, labeled or Other.
	require.Len(t, exp.observations, 9)
	assert.Equal(t, "GEO1", exp.observations[0].StationGroup)
	assert.Equal(t, domain.OtherStation, exp.observations[7].StationGroup)
	assert.Equal(t, domain.OtherStation, exp.observations[8].StationGroup)

	expectedStations := []domain.StationCount{
		{Station: "GEO1", Count: 3},
		{Station: "CPF1", Count: 2},
		{Station: "CPF2", Count: 2},
		{Station: "XYZ9", Count: 1},
	}
	assert.Equal(t, expectedStations, exp.stations)

	expectedMonthly := []domain.MonthlySummary{
		{Year: 2015, Month: 6, Variable: "temperature_i10", Mean: 9.0, N: 4},
		{Year: 2015, Month: 7, Variable: "temperature_i10", Mean: 9.0, N: 1},
		{Year: 2016, Month: 6, Variable: "temperature_i10", Mean: 7.0, N: 1},
	}
	if diff := cmp.Diff(expectedMonthly, exp.monthly); diff != "" {
		t.Fatalf("monthly mismatch (-want +got):\n%s", diff)
	}

	// Cell B is sparse, so June 2015 keeps only cell A's reading. The
	// June climatology spans both years, (2.0+4.0)/2.
	expectedChl := []domain.ChlMonthly{
		{Year: 2015, Month: 6, YearMonth: domain.YearMonth(2015, 6), Mean: 2.0, N: 1, Climatology: 3.0, Anomaly: -1.0},
		{Year: 2015, Month: 7, YearMonth: domain.YearMonth(2015, 7), Mean: 4.0, N: 1, Climatology: 4.0, Anomaly: 0},
		{Year: 2016, Month: 6, YearMonth: domain.YearMonth(2016, 6), Mean: 4.0, N: 1, Climatology: 3.0, Anomaly: 1.0},
	}
	if diff := cmp.Diff(expectedChl, exp.chl); diff != "" {
		t.Fatalf("chl mismatch (-want +got):\n%s", diff)
	}

	report, ok := exp.report.(pipeline.RunReport)
	require.True(t, ok, "exporter should receive a RunReport")

	assert.True(t, report.GeneratedAt.Equal(fakeClock.Now().UTC()))
	assert.Equal(t, testParams(), report.Params)

	assert.Equal(t, domain.JoinStats{Profiles: 9, MetadataRows: 8, Matched: 8, Unmatched: 1}, report.Join)
	assert.Equal(t, []string{"GEO1", "CPF1", "CPF2"}, report.Classify.Primary)
	assert.Equal(t, 2, report.Classify.OtherCount)
	assert.Equal(t, 1, report.Classify.NoMetadata)

	assert.Equal(t, 9, report.Monthly.Observations)
	assert.Equal(t, 2, report.Monthly.NotPrimary)
	assert.Equal(t, 6, report.Monthly.LongRows)
	assert.Equal(t, 3, report.Monthly.Groups)
	assert.Equal(t, 1, report.Monthly.MissingValues["temperature_i10"])
	assert.Equal(t, 7, report.Monthly.MissingValues["salinity_i10"])

	expectedSat := domain.SatelliteStats{
		Records:           6,
		OutsideYears:      1,
		Cells:             2,
		QualifiedCells:    1,
		SparseCellRecords: 1,
		MissingChl:        1,
		EmptyMonths:       1,
		Months:            3,
	}
	assert.Equal(t, expectedSat, report.Satellite)

	require.NotNil(t, report.Trend)
	assert.Equal(t, 3, report.Trend.N)
	assert.Greater(t, report.Trend.Slope, 0.0)

	for _, stage := range []string{"load", "join", "classify", "ctd_monthly", "chl_monthly", "export"} {
		assert.Contains(t, report.StageSeconds, stage)
	}

	require.NoError(t, p.CheckReadiness(context.Background()))
	results := p.Results()
	require.NotNil(t, results)
	assert.Equal(t, exp.monthly, results.Monthly)
	assert.Equal(t, exp.chl, results.Chl)
}

func TestPipeline_Run_SourceError(t *testing.T) {
	src := &mockSource{err: errors.New("no such table")}
	exp := &mockExporter{}
	p := pipeline.New(src, exp, slog.Default(), newTestMetrics(), testParams())

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load source tables")

	assert.Error(t, p.CheckReadiness(context.Background()))
	assert.Nil(t, p.Results())
}

func TestPipeline_Run_ExportError(t *testing.T) {
	src := &mockSource{tables: makeTables()}
	exp := &mockExporter{err: errors.New("disk full")}
	p := pipeline.New(src, exp, slog.Default(), newTestMetrics(), testParams())

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write observations")
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ContextCancelled(t *testing.T) {
	src := &mockSource{tables: makeTables()}
	exp := &mockExporter{}
	p := pipeline.New(src, exp, slog.Default(), newTestMetrics(), testParams())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, exp.observations, "nothing should be exported after cancellation")
}

func TestPipeline_CheckReadiness_BeforeFirstRun(t *testing.T) {
	p := pipeline.New(&mockSource{}, &mockExporter{}, slog.Default(), newTestMetrics(), testParams())

	err := p.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no completed pipeline run")
}

func TestPipeline_Run_Reproducible(t *testing.T) {
	src := &mockSource{tables: makeTables()}
	exp := &mockExporter{}
	p := pipeline.New(src, exp, slog.Default(), newTestMetrics(), testParams())

	require.NoError(t, p.Run(context.Background()))
	firstMonthly := exp.monthly
	firstChl := exp.chl
	firstStations := exp.stations

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, 2, src.loads)

	if diff := cmp.Diff(firstMonthly, exp.monthly); diff != "" {
		t.Fatalf("second run monthly mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(firstChl, exp.chl); diff != "" {
		t.Fatalf("second run chl mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, firstStations, exp.stations)
}
