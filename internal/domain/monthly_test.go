package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

// castAt builds a joined observation at the given station and month with a
// single temperature_i10 reading.
func castAt(station string, year, month int, tempI10 *float64) Observation {
	return Observation{
		Profile: CTDProfile{TemperatureI10: tempI10},
		Meta:    &CastMetadata{Station: station, Year: year, Month: month},
	}
}

func TestJoinCasts(t *testing.T) {
	t.Run("left join matches on key", func(t *testing.T) {
		profiles := []CTDProfile{
			{CTDKey: "ctd-001"},
			{CTDKey: "ctd-002"},
			{CTDKey: "ctd-003"},
		}
		meta := []CastMetadata{
			{CTDKey: "ctd-001", Station: testStationGEO1},
			{CTDKey: "ctd-002", Station: testStationCPF1},
		}

		obs, stats := JoinCasts(profiles, meta)

		require.Len(t, obs, 3)
		require.NotNil(t, obs[0].Meta)
		assert.Equal(t, testStationGEO1, obs[0].Meta.Station)
		require.NotNil(t, obs[1].Meta)
		assert.Equal(t, testStationCPF1, obs[1].Meta.Station)
		assert.Nil(t, obs[2].Meta)

		assert.Equal(t, JoinStats{
			Profiles:     3,
			MetadataRows: 2,
			Matched:      2,
			Unmatched:    1,
		}, stats)
	})

	t.Run("duplicate metadata keys keep first row", func(t *testing.T) {
		profiles := []CTDProfile{{CTDKey: "ctd-001"}}
		meta := []CastMetadata{
			{CTDKey: "ctd-001", Station: testStationGEO1},
			{CTDKey: "ctd-001", Station: testStationCPF1},
		}

		obs, stats := JoinCasts(profiles, meta)

		require.NotNil(t, obs[0].Meta)
		assert.Equal(t, testStationGEO1, obs[0].Meta.Station)
		assert.Equal(t, 1, stats.DuplicateKeys)
	})

	t.Run("empty inputs", func(t *testing.T) {
		obs, stats := JoinCasts(nil, nil)
		assert.Empty(t, obs)
		assert.Equal(t, JoinStats{}, stats)
	})
}

func TestAggregateMonthly(t *testing.T) {
	primary := []string{testStationGEO1, testStationCPF1, testStationCPF2}

	t.Run("mean and count over one group", func(t *testing.T) {
		obs := []Observation{
			castAt(testStationGEO1, 2008, 6, fptr(8.0)),
			castAt(testStationGEO1, 2008, 6, fptr(10.0)),
		}

		rows, stats := AggregateMonthly(obs, primary)

		require.Len(t, rows, 1)
		assert.Equal(t, 2008, rows[0].Year)
		assert.Equal(t, 6, rows[0].Month)
		assert.Equal(t, "temperature_i10", rows[0].Variable)
		assert.InDelta(t, 9.0, rows[0].Mean, 1e-12)
		assert.Equal(t, 2, rows[0].N)
		assert.Equal(t, 1, stats.Groups)
		assert.Equal(t, 2, stats.LongRows)
	})

	t.Run("missing values are excluded, not zeroed", func(t *testing.T) {
		obs := []Observation{
			castAt(testStationGEO1, 2008, 6, fptr(8.0)),
			castAt(testStationGEO1, 2008, 6, nil),
		}

		rows, stats := AggregateMonthly(obs, primary)

		require.Len(t, rows, 1)
		assert.InDelta(t, 8.0, rows[0].Mean, 1e-12)
		assert.Equal(t, 1, rows[0].N)
		assert.Equal(t, 1, stats.MissingValues["temperature_i10"])
	})

	t.Run("all-missing group is omitted", func(t *testing.T) {
		obs := []Observation{castAt(testStationGEO1, 2008, 6, nil)}

		rows, stats := AggregateMonthly(obs, primary)

		assert.Empty(t, rows)
		assert.Equal(t, 0, stats.Groups)
		assert.Len(t, stats.MissingValues, len(CastVariables))
		assert.Equal(t, 1, stats.MissingValues["temperature_i10"])
	})

	t.Run("non-primary stations are filtered out", func(t *testing.T) {
		obs := []Observation{castAt(testStationXYZ9, 2008, 6, fptr(8.0))}

		rows, stats := AggregateMonthly(obs, primary)

		assert.Empty(t, rows)
		assert.Equal(t, 1, stats.NotPrimary)
		assert.Equal(t, 0, stats.Unmatched)
	})

	t.Run("unmatched observations are filtered out", func(t *testing.T) {
		obs := []Observation{{Profile: CTDProfile{TemperatureI10: fptr(8.0)}}}

		rows, stats := AggregateMonthly(obs, primary)

		assert.Empty(t, rows)
		assert.Equal(t, 1, stats.Unmatched)
		assert.Equal(t, 1, stats.NotPrimary)
	})

	t.Run("variables aggregate independently", func(t *testing.T) {
		obs := []Observation{
			{
				Profile: CTDProfile{
					TemperatureI10: fptr(8.0),
					SalinityI50:    fptr(29.5),
				},
				Meta: &CastMetadata{Station: testStationGEO1, Year: 2008, Month: 6},
			},
			{
				Profile: CTDProfile{
					SalinityI50: fptr(30.5),
				},
				Meta: &CastMetadata{Station: testStationGEO1, Year: 2008, Month: 6},
			},
		}

		rows, _ := AggregateMonthly(obs, primary)

		expected := []MonthlySummary{
			{Year: 2008, Month: 6, Variable: "temperature_i10", Mean: 8.0, N: 1},
			{Year: 2008, Month: 6, Variable: "salinity_i50", Mean: 30.0, N: 2},
		}
		if diff := cmp.Diff(expected, rows); diff != "" {
			t.Fatalf("rows mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("output sorted by year, month, variable order", func(t *testing.T) {
		obs := []Observation{
			castAt(testStationCPF1, 2009, 2, fptr(7.0)),
			castAt(testStationGEO1, 2008, 11, fptr(9.0)),
			{
				Profile: CTDProfile{OxygenINet: fptr(5.5)},
				Meta:    &CastMetadata{Station: testStationGEO1, Year: 2008, Month: 11},
			},
			castAt(testStationGEO1, 2008, 3, fptr(8.0)),
		}

		rows, _ := AggregateMonthly(obs, primary)

		expected := []MonthlySummary{
			{Year: 2008, Month: 3, Variable: "temperature_i10", Mean: 8.0, N: 1},
			{Year: 2008, Month: 11, Variable: "temperature_i10", Mean: 9.0, N: 1},
			{Year: 2008, Month: 11, Variable: "oxygen_inet", Mean: 5.5, N: 1},
			{Year: 2009, Month: 2, Variable: "temperature_i10", Mean: 7.0, N: 1},
		}
		if diff := cmp.Diff(expected, rows); diff != "" {
			t.Fatalf("rows mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("input is not modified", func(t *testing.T) {
		obs := []Observation{castAt(testStationGEO1, 2008, 6, fptr(8.0))}

		_, _ = AggregateMonthly(obs, primary)

		require.NotNil(t, obs[0].Profile.TemperatureI10)
		assert.InDelta(t, 8.0, *obs[0].Profile.TemperatureI10, 1e-12)
	})

	t.Run("empty input", func(t *testing.T) {
		rows, stats := AggregateMonthly(nil, primary)
		assert.Empty(t, rows)
		assert.Equal(t, 0, stats.Groups)
	})
}
