package domain

import "sort"

// OtherStation is the literal group label for observations outside the
// primary station set.
const OtherStation = "Other"

// ClassifyConfig controls how the primary station set is chosen.
type ClassifyConfig struct {
	// PrimaryCount is how many top-ranked stations keep their own label.
	PrimaryCount int `json:"primary_count"`

	// PrimaryStations pins the primary set explicitly. When non-empty it
	// overrides the frequency ranking entirely.
	PrimaryStations []string `json:"primary_stations,omitempty"`
}

// StationCount is one row of the station frequency ranking.
type StationCount struct {
	Station string `json:"station"`
	Count   int    `json:"count"`
}

// ClassifyStats reports what the classifier did with its input. Nothing is
// dropped at this stage; the counts exist so downstream consumers can see
// how the grouping fell out.
type ClassifyStats struct {
	// Counts is the full ranking, ordered by count descending with ties
	// broken by first appearance in the input.
	Counts []StationCount `json:"counts"`

	// Primary is the resolved primary station set, in ranking order (or
	// the configured order when pinned).
	Primary []string `json:"primary"`

	// OtherCount is how many observations were labeled OtherStation.
	OtherCount int `json:"other_count"`

	// NoMetadata is how many observations had no metadata row and were
	// therefore labeled OtherStation regardless of ranking.
	NoMetadata int `json:"no_metadata"`
}

// ClassifyStations labels every observation with a station group: the
// station's own code when it belongs to the primary set, otherwise the
// literal OtherStation. The primary set is the top PrimaryCount stations by
// observation count unless cfg.PrimaryStations pins it; a PrimaryCount of
// zero or less selects no stations. Ranking ties are broken by first
// appearance in the input, so the result is deterministic.
//
// The classification is total: every input observation appears exactly once
// in the output, in input order. The input slice is not modified.
// Observations with no metadata, or with an empty station code, cannot be
// ranked and are always labeled OtherStation.
func ClassifyStations(obs []Observation, cfg ClassifyConfig) ([]Observation, ClassifyStats) {
	counts := rankStations(obs)

	primary := cfg.PrimaryStations
	if len(primary) == 0 {
		k := cfg.PrimaryCount
		if k < 0 {
			k = 0
		}
		if k > len(counts) {
			k = len(counts)
		}
		primary = make([]string, 0, k)
		for _, c := range counts[:k] {
			primary = append(primary, c.Station)
		}
	}

	primarySet := make(map[string]bool, len(primary))
	for _, s := range primary {
		primarySet[s] = true
	}

	stats := ClassifyStats{Counts: counts, Primary: primary}

	out := make([]Observation, len(obs))
	for i, o := range obs {
		out[i] = o
		switch {
		case o.Meta == nil:
			out[i].StationGroup = OtherStation
			stats.NoMetadata++
			stats.OtherCount++
		case primarySet[o.Meta.Station]:
			out[i].StationGroup = o.Meta.Station
		default:
			out[i].StationGroup = OtherStation
			stats.OtherCount++
		}
	}

	return out, stats
}

// rankStations counts observations per station code and orders the result
// by count descending, ties by first appearance. Observations with no
// metadata or an empty station code are not ranked.
func rankStations(obs []Observation) []StationCount {
	countByStation := map[string]int{}
	var order []string

	for _, o := range obs {
		if o.Meta == nil || o.Meta.Station == "" {
			continue
		}
		if _, seen := countByStation[o.Meta.Station]; !seen {
			order = append(order, o.Meta.Station)
		}
		countByStation[o.Meta.Station]++
	}

	counts := make([]StationCount, 0, len(order))
	for _, s := range order {
		counts = append(counts, StationCount{Station: s, Count: countByStation[s]})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}
