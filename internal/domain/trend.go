package domain

import "gonum.org/v1/gonum/stat"

// Trend is an ordinary least squares line fit through a time series.
type Trend struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	N         int     `json:"n"`
}

// AnomalyTrend fits an OLS line to the chlorophyll anomaly series against
// the fractional-year axis. Returns nil when fewer than two rows exist,
// since a line through fewer points is undefined or meaningless.
func AnomalyTrend(rows []ChlMonthly) *Trend {
	if len(rows) < 2 {
		return nil
	}

	xs := make([]float64, len(rows))
	ys := make([]float64, len(rows))
	for i, r := range rows {
		xs[i] = r.YearMonth
		ys[i] = r.Anomaly
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	return &Trend{Slope: slope, Intercept: intercept, N: len(rows)}
}
