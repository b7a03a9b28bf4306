package scorecard

import (
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestComputeTrend(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		previous *int
		want     *TrendResult
	}{
		{"first scorecard has no trend", 70, nil, nil},
		{"large drop is an anomaly", 60, intPtr(72), &TrendResult{Direction: DirectionDown, Change: -12, IsAnomaly: true}},
		{"recovery is not an anomaly", 72, intPtr(60), &TrendResult{Direction: DirectionUp, Change: 12, IsAnomaly: false}},
		{"flat month", 55, intPtr(55), &TrendResult{Direction: DirectionSame, Change: 0, IsAnomaly: false}},
		{"drop exactly at threshold flags", 50, intPtr(60), &TrendResult{Direction: DirectionDown, Change: -10, IsAnomaly: true}},
		{"drop just inside threshold does not", 51, intPtr(60), &TrendResult{Direction: DirectionDown, Change: -9, IsAnomaly: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeTrend(tt.current, tt.previous))
		})
	}
}

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestPreviousScore(t *testing.T) {
	t.Run("empty history", func(t *testing.T) {
		prev, err := PreviousScore(nil)
		require.NoError(t, err)
		assert.Nil(t, prev)
	})

	t.Run("most recent prior record wins", func(t *testing.T) {
		prev, err := PreviousScore([]HistoryPoint{
			{Month: month(2026, time.July), TotalScore: 64},
			{Month: month(2026, time.June), TotalScore: 58},
		})
		require.NoError(t, err)
		require.NotNil(t, prev)
		assert.Equal(t, 64, *prev)
	})

	t.Run("tie for most recent is a hard error", func(t *testing.T) {
		_, err := PreviousScore([]HistoryPoint{
			{Month: month(2026, time.July), TotalScore: 64},
			{Month: month(2026, time.July), TotalScore: 61},
		})
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrAmbiguousHistory))
	})
}
