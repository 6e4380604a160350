package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnomalyTrend(t *testing.T) {
	t.Run("fits a known line", func(t *testing.T) {
		rows := []ChlMonthly{
			{YearMonth: 2000.0, Anomaly: 1.0},
			{YearMonth: 2001.0, Anomaly: 2.0},
			{YearMonth: 2002.0, Anomaly: 3.0},
		}

		trend := AnomalyTrend(rows)

		require.NotNil(t, trend)
		assert.InDelta(t, 1.0, trend.Slope, 1e-9)
		assert.InDelta(t, -1999.0, trend.Intercept, 1e-9)
		assert.Equal(t, 3, trend.N)
	})

	t.Run("flat series has zero slope", func(t *testing.T) {
		rows := []ChlMonthly{
			{YearMonth: 2000.0, Anomaly: 0.5},
			{YearMonth: 2000.5, Anomaly: 0.5},
			{YearMonth: 2001.0, Anomaly: 0.5},
		}

		trend := AnomalyTrend(rows)

		require.NotNil(t, trend)
		assert.InDelta(t, 0.0, trend.Slope, 1e-9)
	})

	t.Run("nil below two rows", func(t *testing.T) {
		assert.Nil(t, AnomalyTrend(nil))
		assert.Nil(t, AnomalyTrend([]ChlMonthly{{YearMonth: 2000.0, Anomaly: 1.0}}))
	})
}
