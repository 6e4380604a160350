package domain

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// SatelliteConfig controls the satellite chlorophyll aggregation.
type SatelliteConfig struct {
	// YearMin and YearMax bound the analysis period, inclusive.
	YearMin int `json:"year_min"`
	YearMax int `json:"year_max"`

	// MinCellObs is the minimum number of non-missing readings a grid
	// cell must have across the whole filtered period to contribute to
	// spatial averages.
	MinCellObs int `json:"min_cell_obs"`
}

// SatelliteStats reports what the satellite aggregation kept and dropped.
type SatelliteStats struct {
	Records      int `json:"records"`
	OutsideYears int `json:"outside_years"`

	// Cells is the number of distinct grid cells seen inside the year
	// range; QualifiedCells is how many met the coverage threshold.
	Cells          int `json:"cells"`
	QualifiedCells int `json:"qualified_cells"`

	// SparseCellRecords counts records dropped because their cell failed
	// the coverage threshold, missing readings included.
	SparseCellRecords int `json:"sparse_cell_records"`

	// MissingChl counts nil readings within qualified cells. These
	// records identify their cell-month but contribute no value.
	MissingChl int `json:"missing_chl"`

	// EmptyMonths counts (year, month) groups whose readings were all
	// missing; such months are omitted from the output.
	EmptyMonths int `json:"empty_months"`

	// Months is how many rows were emitted.
	Months int `json:"months"`
}

type cellKey struct {
	lon, lat float64
}

type monthKey struct {
	year, month int
}

// AggregateChl reduces the satellite grid to one row per month: the spatial
// mean and sample standard deviation of chlorophyll over qualifying cells,
// each row carrying its calendar-month climatology and the anomaly against
// it.
//
// The steps, applied in order over the input:
//
//  1. Keep records with YearMin <= year <= YearMax.
//  2. Count non-missing readings per cell over the whole filtered period
//     and keep only cells with at least MinCellObs of them. The threshold
//     is evaluated once, not per month, so a cell either contributes to
//     every month it has data for or to none.
//  3. Group by (year, month); average the non-missing readings. Months
//     with no readings are omitted. SD is the sample (n-1) standard
//     deviation and is nil when a month has a single reading.
//  4. Climatology for calendar month m is the mean of that month's
//     monthly means across years; anomaly is the monthly mean minus it.
//
// Output rows are sorted by year then month. The input slice is not
// modified.
func AggregateChl(records []SatRecord, cfg SatelliteConfig) ([]ChlMonthly, SatelliteStats) {
	stats := SatelliteStats{Records: len(records)}

	inRange := make([]SatRecord, 0, len(records))
	for _, r := range records {
		if r.Year < cfg.YearMin || r.Year > cfg.YearMax {
			stats.OutsideYears++
			continue
		}
		inRange = append(inRange, r)
	}

	cellObs := map[cellKey]int{}
	for _, r := range inRange {
		key := cellKey{lon: r.Lon, lat: r.Lat}
		if _, seen := cellObs[key]; !seen {
			cellObs[key] = 0
		}
		if r.Chl != nil {
			cellObs[key]++
		}
	}
	stats.Cells = len(cellObs)

	qualified := make(map[cellKey]bool, len(cellObs))
	for key, n := range cellObs {
		if n >= cfg.MinCellObs {
			qualified[key] = true
		}
	}
	stats.QualifiedCells = len(qualified)

	groups := map[monthKey][]float64{}
	emptyGroups := map[monthKey]bool{}
	for _, r := range inRange {
		if !qualified[cellKey{lon: r.Lon, lat: r.Lat}] {
			stats.SparseCellRecords++
			continue
		}
		key := monthKey{year: r.Year, month: r.Month}
		if r.Chl == nil {
			stats.MissingChl++
			if _, exists := groups[key]; !exists {
				emptyGroups[key] = true
			}
			continue
		}
		groups[key] = append(groups[key], *r.Chl)
		delete(emptyGroups, key)
	}
	stats.EmptyMonths = len(emptyGroups)

	keys := make([]monthKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	rows := make([]ChlMonthly, 0, len(keys))
	for _, k := range keys {
		vals := groups[k]
		row := ChlMonthly{
			Year:      k.year,
			Month:     k.month,
			YearMonth: YearMonth(k.year, k.month),
			Mean:      stat.Mean(vals, nil),
			N:         len(vals),
		}
		if len(vals) > 1 {
			sd := stat.StdDev(vals, nil)
			row.SD = &sd
		}
		rows = append(rows, row)
	}
	stats.Months = len(rows)

	applyClimatology(rows)
	return rows, stats
}

// YearMonth converts a calendar (year, month) to the fractional-year axis
// value used for time series plots: year + (month-1)/12.
func YearMonth(year, month int) float64 {
	return float64(year) + float64(month-1)/12
}

// applyClimatology fills Climatology and Anomaly on each row in place.
// Climatology for a calendar month is the unweighted mean of that month's
// monthly means across years, so anomaly + climatology always equals mean.
func applyClimatology(rows []ChlMonthly) {
	byMonth := map[int][]float64{}
	for _, r := range rows {
		byMonth[r.Month] = append(byMonth[r.Month], r.Mean)
	}

	clim := make(map[int]float64, len(byMonth))
	for m, means := range byMonth {
		clim[m] = stat.Mean(means, nil)
	}

	for i := range rows {
		rows[i].Climatology = clim[rows[i].Month]
		rows[i].Anomaly = rows[i].Mean - clim[rows[i].Month]
	}
}
