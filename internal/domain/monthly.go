package domain

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// JoinStats reports the outcome of the profile-to-metadata left join.
type JoinStats struct {
	Profiles      int `json:"profiles"`
	MetadataRows  int `json:"metadata_rows"`
	Matched       int `json:"matched"`
	Unmatched     int `json:"unmatched"`
	DuplicateKeys int `json:"duplicate_keys"`
}

// JoinCasts left joins CTD profiles to cast metadata on CTDKey. Every
// profile produces exactly one observation; profiles with no metadata row
// get a nil Meta. Metadata keys are expected to be unique; if a key repeats
// the first row wins and the duplicate is counted in the stats.
func JoinCasts(profiles []CTDProfile, meta []CastMetadata) ([]Observation, JoinStats) {
	stats := JoinStats{Profiles: len(profiles), MetadataRows: len(meta)}

	byKey := make(map[string]*CastMetadata, len(meta))
	for i := range meta {
		if _, exists := byKey[meta[i].CTDKey]; exists {
			stats.DuplicateKeys++
			continue
		}
		byKey[meta[i].CTDKey] = &meta[i]
	}

	obs := make([]Observation, len(profiles))
	for i, p := range profiles {
		obs[i] = Observation{Profile: p, Meta: byKey[p.CTDKey]}
		if obs[i].Meta != nil {
			stats.Matched++
		} else {
			stats.Unmatched++
		}
	}
	return obs, stats
}

// MonthlyStats reports what the CTD monthly aggregation kept and dropped.
type MonthlyStats struct {
	Observations int `json:"observations"`

	// Unmatched observations have no metadata and can never pass the
	// station filter. They are a subset of NotPrimary.
	Unmatched  int `json:"unmatched"`
	NotPrimary int `json:"not_primary"`

	// MissingValues counts nil readings dropped during the wide-to-long
	// reshape, keyed by variable name. Only primary-station rows are
	// counted; a variable with no drops is absent from the map.
	MissingValues map[string]int `json:"missing_values,omitempty"`

	// LongRows is how many non-missing (cast, variable) values entered
	// the group means.
	LongRows int `json:"long_rows"`

	// Groups is how many (year, month, variable) rows were emitted.
	// Groups whose values were all missing are omitted, not zero-filled,
	// so Groups can be smaller than the full year x month x variable grid.
	Groups int `json:"groups"`
}

type monthlyKey struct {
	year, month, varIdx int
}

// AggregateMonthly computes per-month unweighted means of every physical
// variable over observations at the primary stations. The pipeline is:
// filter to primary stations, reshape wide to long via CastVariables, drop
// missing values, then group by (year, month, variable) and take the
// arithmetic mean and count.
//
// Output rows are sorted by year, month, then CastVariables order. The
// input slice is not modified.
func AggregateMonthly(obs []Observation, primary []string) ([]MonthlySummary, MonthlyStats) {
	stats := MonthlyStats{Observations: len(obs), MissingValues: map[string]int{}}

	primarySet := make(map[string]bool, len(primary))
	for _, s := range primary {
		primarySet[s] = true
	}

	groups := map[monthlyKey][]float64{}
	for _, o := range obs {
		if o.Meta == nil {
			stats.Unmatched++
			stats.NotPrimary++
			continue
		}
		if !primarySet[o.Meta.Station] {
			stats.NotPrimary++
			continue
		}

		for vi, v := range CastVariables {
			val := v.Get(o.Profile)
			if val == nil {
				stats.MissingValues[v.Name]++
				continue
			}
			key := monthlyKey{year: o.Meta.Year, month: o.Meta.Month, varIdx: vi}
			groups[key] = append(groups[key], *val)
			stats.LongRows++
		}
	}

	if len(stats.MissingValues) == 0 {
		stats.MissingValues = nil
	}

	keys := make([]monthlyKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		if keys[i].month != keys[j].month {
			return keys[i].month < keys[j].month
		}
		return keys[i].varIdx < keys[j].varIdx
	})

	rows := make([]MonthlySummary, 0, len(keys))
	for _, k := range keys {
		vals := groups[k]
		rows = append(rows, MonthlySummary{
			Year:     k.year,
			Month:    k.month,
			Variable: CastVariables[k.varIdx].Name,
			Mean:     stat.Mean(vals, nil),
			N:        len(vals),
		})
	}
	stats.Groups = len(rows)
	return rows, stats
}
