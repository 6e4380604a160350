package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pelagiclab/sog-dataprep/internal/dataset"
	"github.com/pelagiclab/sog-dataprep/internal/domain"
	"github.com/pelagiclab/sog-dataprep/internal/observability"
)

// Exporter writes the derived tables produced by a run.
type Exporter interface {
	WriteObservations([]domain.Observation) error
	WriteStations([]domain.StationCount) error
	WriteMonthly([]domain.MonthlySummary) error
	WriteChl([]domain.ChlMonthly) error
	WriteReport(report any) error
}

// Pipeline orchestrates the load-classify-aggregate-export run.
type Pipeline struct {
	source   dataset.Source
	exporter Exporter
	logger   *slog.Logger
	metrics  *observability.Metrics
	params   Params

	ready   atomic.Bool
	mu      sync.RWMutex
	results *Results
}

// New creates a Pipeline with the given source, exporter, and observability.
func New(source dataset.Source, exporter Exporter, logger *slog.Logger, metrics *observability.Metrics, params Params) *Pipeline {
	return &Pipeline{
		source:   source,
		exporter: exporter,
		logger:   logger,
		metrics:  metrics,
		params:   params,
	}
}

// CheckReadiness returns nil once at least one run has completed, or an
// error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no completed pipeline run yet")
	}
	return nil
}

// Results returns the outputs of the most recent completed run, or nil
// before the first run finishes.
func (p *Pipeline) Results() *Results {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.results
}

// Run executes one complete run. The transforms are pure, so running
// again over unchanged source data reproduces the same tables.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline run started", "source", p.source.Name())
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	start := time.Now()
	stageSeconds := make(map[string]float64)

	stageStart := time.Now()
	tables, err := p.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load source tables: %w", err)
	}
	p.observeStage("load", stageStart, stageSeconds)

	p.metrics.RowsLoaded.WithLabelValues("ctd_profiles").Add(float64(len(tables.Profiles)))
	p.metrics.RowsLoaded.WithLabelValues("ctd_metadata").Add(float64(len(tables.Metadata)))
	p.metrics.RowsLoaded.WithLabelValues("satellite_chl").Add(float64(len(tables.Satellite)))

	stageStart = time.Now()
	obs, joinStats := domain.JoinCasts(tables.Profiles, tables.Metadata)
	p.observeStage("join", stageStart, stageSeconds)

	stageStart = time.Now()
	classified, classifyStats := domain.ClassifyStations(obs, p.params.Classify)
	p.observeStage("classify", stageStart, stageSeconds)

	stageStart = time.Now()
	monthly, monthlyStats := domain.AggregateMonthly(classified, classifyStats.Primary)
	p.observeStage("ctd_monthly", stageStart, stageSeconds)

	stageStart = time.Now()
	chl, satStats := domain.AggregateChl(tables.Satellite, p.params.Satellite)
	p.observeStage("chl_monthly", stageStart, stageSeconds)

	trend := domain.AnomalyTrend(chl)

	p.recordDrops(joinStats, monthlyStats, satStats)
	p.metrics.GroupsEmitted.WithLabelValues("ctd_monthly").Add(float64(len(monthly)))
	p.metrics.GroupsEmitted.WithLabelValues("chl_monthly").Add(float64(len(chl)))

	if err := ctx.Err(); err != nil {
		return err
	}

	stageStart = time.Now()
	if err := p.exportTables(classified, classifyStats.Counts, monthly, chl); err != nil {
		return err
	}
	p.observeStage("export", stageStart, stageSeconds)

	report := RunReport{
		GeneratedAt:  clock.Now().UTC(),
		Params:       p.params,
		Join:         joinStats,
		Classify:     classifyStats,
		Monthly:      monthlyStats,
		Satellite:    satStats,
		Trend:        trend,
		StageSeconds: stageSeconds,
	}

	if err := p.exporter.WriteReport(report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	p.mu.Lock()
	p.results = &Results{
		Observations: classified,
		Stations:     classifyStats.Counts,
		Monthly:      monthly,
		Chl:          chl,
		Report:       report,
	}
	p.mu.Unlock()
	p.ready.Store(true)

	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.metrics.RunsCompleted.Inc()

	p.logger.Info("pipeline run complete",
		"casts", len(classified),
		"primary_stations", classifyStats.Primary,
		"ctd_groups", len(monthly),
		"chl_months", len(chl),
		"duration", time.Since(start),
	)
	return nil
}

func (p *Pipeline) exportTables(obs []domain.Observation, counts []domain.StationCount, monthly []domain.MonthlySummary, chl []domain.ChlMonthly) error {
	if err := p.exporter.WriteObservations(obs); err != nil {
		return fmt.Errorf("write observations: %w", err)
	}
	if err := p.exporter.WriteStations(counts); err != nil {
		return fmt.Errorf("write station counts: %w", err)
	}
	if err := p.exporter.WriteMonthly(monthly); err != nil {
		return fmt.Errorf("write ctd monthly: %w", err)
	}
	if err := p.exporter.WriteChl(chl); err != nil {
		return fmt.Errorf("write chl timeseries: %w", err)
	}
	return nil
}

// recordDrops mirrors the per-stage exclusion counts into Prometheus.
// The left join retains unmatched profiles, so they count as drops only
// at the aggregation stage.
func (p *Pipeline) recordDrops(join domain.JoinStats, monthly domain.MonthlyStats, sat domain.SatelliteStats) {
	p.metrics.RowsDropped.WithLabelValues("join", "duplicate_key").Add(float64(join.DuplicateKeys))

	p.metrics.RowsDropped.WithLabelValues("ctd_monthly", "no_metadata").Add(float64(monthly.Unmatched))
	p.metrics.RowsDropped.WithLabelValues("ctd_monthly", "not_primary").Add(float64(monthly.NotPrimary - monthly.Unmatched))
	missing := 0
	for _, n := range monthly.MissingValues {
		missing += n
	}
	p.metrics.RowsDropped.WithLabelValues("ctd_monthly", "missing_value").Add(float64(missing))

	p.metrics.RowsDropped.WithLabelValues("chl_monthly", "outside_years").Add(float64(sat.OutsideYears))
	p.metrics.RowsDropped.WithLabelValues("chl_monthly", "sparse_cell").Add(float64(sat.SparseCellRecords))
	p.metrics.RowsDropped.WithLabelValues("chl_monthly", "missing_chl").Add(float64(sat.MissingChl))
}

func (p *Pipeline) observeStage(stage string, start time.Time, seconds map[string]float64) {
	elapsed := time.Since(start).Seconds()
	seconds[stage] = elapsed
	p.metrics.StageDuration.WithLabelValues(stage).Observe(elapsed)
}
