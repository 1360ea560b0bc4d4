package scoring

import (
	"math"
	"testing"

	"credit-risk-monitor/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestTrack_NoHistory(t *testing.T) {
	tr := Track(64.2, nil)
	assert.Equal(t, 0.0, tr.ScoreChange)
	assert.Equal(t, entity.TrendStable, tr.Direction)
	assert.Equal(t, 0.0, tr.Volatility)
}

func TestTrack_DeadBand(t *testing.T) {
	assert.Equal(t, entity.TrendStable, Track(75, []float64{70}).Direction)
	assert.Equal(t, entity.TrendStable, Track(65, []float64{70}).Direction)
	assert.Equal(t, entity.TrendIncreasing, Track(75.01, []float64{70}).Direction)
	assert.Equal(t, entity.TrendDecreasing, Track(45, []float64{70}).Direction)
}

func TestTrack_ScoreChangeUsesMostRecent(t *testing.T) {
	tr := Track(45, []float64{70, 10, 90})
	assert.Equal(t, -25.0, tr.ScoreChange)
}

func TestTrack_SampleStdDevOverTwo(t *testing.T) {
	tr := Track(60, []float64{50})
	// sample sd of {60, 50} = sqrt(50)
	assert.InDelta(t, math.Sqrt(50), tr.Volatility, 1e-12)
}

func TestTrack_WindowLimitedToTen(t *testing.T) {
	history := []float64{50, 50, 50, 50, 50, 50, 50, 50, 50, 0, 0, 0}
	tr := Track(50, history)
	// only current + nine most recent are considered: all 50
	assert.Equal(t, 0.0, tr.Volatility)
}

func TestTrack_Deterministic(t *testing.T) {
	history := []float64{71.3, 68.9, 70.2, 66.4, 72.8}
	a := Track(69.1, history)
	b := Track(69.1, history)
	assert.Equal(t, a, b)
}
