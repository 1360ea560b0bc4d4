package scoring

import (
	"credit-risk-monitor/internal/entity"

	"gonum.org/v1/gonum/stat"
)

const (
	trendDeadBand    = 5.0
	volatilityWindow = 10
)

// Trend is the score change, direction and rolling volatility of a new score
// relative to the entity's history.
type Trend struct {
	ScoreChange float64
	Direction   entity.TrendDirection
	Volatility  float64
}

// Track compares current against history, the prior overall scores ordered
// most-recent-first. Volatility is the sample standard deviation of the
// newest ten scores including current, or 0 with fewer than two.
func Track(current float64, history []float64) Trend {
	t := Trend{Direction: entity.TrendStable}
	if len(history) > 0 {
		t.ScoreChange = current - history[0]
	}

	switch {
	case t.ScoreChange > trendDeadBand:
		t.Direction = entity.TrendIncreasing
	case t.ScoreChange < -trendDeadBand:
		t.Direction = entity.TrendDecreasing
	}

	window := make([]float64, 0, volatilityWindow)
	window = append(window, current)
	for _, s := range history {
		if len(window) == volatilityWindow {
			break
		}
		window = append(window, s)
	}
	if len(window) >= 2 {
		t.Volatility = stat.StdDev(window, nil)
	}
	return t
}
