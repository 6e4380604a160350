package pipeline

import (
	"time"

	"github.com/pelagiclab/sog-dataprep/internal/domain"
)

// Params carries the tunable aggregation settings for a run. They are
// recorded in the run report so outputs are self-describing.
type Params struct {
	Classify  domain.ClassifyConfig  `json:"classify"`
	Satellite domain.SatelliteConfig `json:"satellite"`
}

// RunReport summarizes one completed run: what was read, what was
// excluded and why, and what each stage produced. Every row the
// aggregations drop is accounted for here rather than silently lost.
type RunReport struct {
	GeneratedAt time.Time `json:"generated_at"`
	Params      Params    `json:"params"`

	Join      domain.JoinStats      `json:"join"`
	Classify  domain.ClassifyStats  `json:"classify"`
	Monthly   domain.MonthlyStats   `json:"ctd_monthly"`
	Satellite domain.SatelliteStats `json:"satellite"`
	Trend     *domain.Trend         `json:"trend,omitempty"`

	StageSeconds map[string]float64 `json:"stage_seconds"`
}

// Results holds the outputs of the most recent completed run.
type Results struct {
	Observations []domain.Observation
	Stations     []domain.StationCount
	Monthly      []domain.MonthlySummary
	Chl          []domain.ChlMonthly
	Report       RunReport
}
