package scoring

import (
	"errors"
	"fmt"
	"math"

	"credit-risk-monitor/internal/apperr"
	"credit-risk-monitor/internal/entity"
)

const (
	baseline = 50.0
	minScore = 0.0
	maxScore = 100.0

	weightTolerance = 1e-6
)

// Ladder boundaries. The explanation rules read the same constants so a
// factor is reported exactly when the ladder starts penalising it.
const (
	DebtToEquityLow      = 0.5
	DebtToEquityModerate = 1.0 // above this is high leverage
	DebtToEquityHigh     = 2.0

	CurrentRatioStrong   = 2.0
	CurrentRatioHealthy  = 1.5 // below this is a liquidity concern
	CurrentRatioAdequate = 1.0

	ReturnOnEquityStrong = 0.15
	ReturnOnEquityGood   = 0.10
	ReturnOnEquityWeak   = 0.05 // below this is poor profitability

	RevenueGrowthStrong = 0.10
	RevenueGrowthGood   = 0.05

	VolatilityLow      = 0.2
	VolatilityModerate = 0.3
	VolatilityElevated = 0.4 // above this is market volatility

	BetaDefensive = 0.8
	BetaMarket    = 1.2
	BetaElevated  = 1.5

	MarketCapLarge = 10000.0
	MarketCapMid   = 1000.0
	MarketCapSmall = 100.0

	NegativeSentiment     = -0.3
	HighRiskNewsRiskScore = 0.7

	sentimentWeight     = 30.0
	highRiskNewsPenalty = 10.0
	riskyNewsPenalty    = 5.0
	maxNewsPenalty      = 20.0
)

type rung struct {
	bound  float64
	points float64
}

// ladder applies the points of the first rung the value satisfies, or
// otherwise when none match. lowerIsBetter flips the comparison to <=.
type ladder struct {
	rungs         []rung
	lowerIsBetter bool
	otherwise     float64
}

func (l ladder) apply(v *float64) float64 {
	if v == nil {
		return 0
	}
	for _, r := range l.rungs {
		if l.lowerIsBetter && *v <= r.bound {
			return r.points
		}
		if !l.lowerIsBetter && *v >= r.bound {
			return r.points
		}
	}
	return l.otherwise
}

var (
	debtToEquityLadder = ladder{
		rungs:         []rung{{DebtToEquityLow, 20}, {DebtToEquityModerate, 10}, {DebtToEquityHigh, -10}},
		lowerIsBetter: true,
		otherwise:     -20,
	}
	currentRatioLadder = ladder{
		rungs:     []rung{{CurrentRatioStrong, 15}, {CurrentRatioHealthy, 10}, {CurrentRatioAdequate, 5}},
		otherwise: -15,
	}
	returnOnEquityLadder = ladder{
		rungs:     []rung{{ReturnOnEquityStrong, 15}, {ReturnOnEquityGood, 10}, {ReturnOnEquityWeak, 5}},
		otherwise: -10,
	}
	// flat growth (0 <= g < 0.05) is neutral, contraction is penalised
	revenueGrowthLadder = ladder{
		rungs:     []rung{{RevenueGrowthStrong, 10}, {RevenueGrowthGood, 5}, {0, 0}},
		otherwise: -10,
	}
	volatilityLadder = ladder{
		rungs:         []rung{{VolatilityLow, 20}, {VolatilityModerate, 10}, {VolatilityElevated, 5}},
		lowerIsBetter: true,
		otherwise:     -10,
	}
	betaLadder = ladder{
		rungs:         []rung{{BetaDefensive, 15}, {BetaMarket, 10}, {BetaElevated, 5}},
		lowerIsBetter: true,
		otherwise:     -10,
	}
	marketCapLadder = ladder{
		rungs:     []rung{{MarketCapLarge, 15}, {MarketCapMid, 10}, {MarketCapSmall, 5}},
		otherwise: -5,
	}
)

// Weights of the three sub-scores in the overall score.
type Weights struct {
	Financial float64 `mapstructure:"financial_weight" json:"financial_weight"`
	Market    float64 `mapstructure:"market_weight" json:"market_weight"`
	News      float64 `mapstructure:"news_weight" json:"news_weight"`
}

// DefaultWeights returns 0.4 / 0.3 / 0.3.
func DefaultWeights() Weights {
	return Weights{Financial: 0.4, Market: 0.3, News: 0.3}
}

// Validate checks the weights are non-negative and sum to 1.0.
func (w Weights) Validate() error {
	if w.Financial < 0 || w.Market < 0 || w.News < 0 {
		return &apperr.ComputationError{Op: "validate weights", Err: errors.New("weights must be non-negative")}
	}
	sum := w.Financial + w.Market + w.News
	if math.Abs(sum-1.0) > weightTolerance {
		return &apperr.ComputationError{Op: "validate weights", Err: fmt.Errorf("weights sum to %.6f, expected 1.0", sum)}
	}
	return nil
}

// Result holds the sub-scores and the overall score at full precision.
type Result struct {
	Financial float64 `json:"financial_score"`
	Market    float64 `json:"market_score"`
	News      float64 `json:"news_score"`
	Overall   float64 `json:"overall_score"`
}

// Engine computes composite scores for a fixed weight configuration.
type Engine struct {
	weights Weights
}

// NewEngine validates the weights and returns an Engine.
func NewEngine(w Weights) (*Engine, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Engine{weights: w}, nil
}

// Weights returns the engine's weight configuration.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Score computes the sub-scores and the weighted overall score. A nil
// snapshot scores every financial and market metric as missing.
func (e *Engine) Score(snapshot *entity.FeatureSnapshot, news []entity.NewsSignal) Result {
	r := Result{
		Financial: FinancialScore(snapshot),
		Market:    MarketScore(snapshot),
		News:      NewsScore(news),
	}
	r.Overall = e.weights.Financial*r.Financial + e.weights.Market*r.Market + e.weights.News*r.News
	return r
}

// FinancialScore scores leverage, liquidity, profitability and growth.
func FinancialScore(s *entity.FeatureSnapshot) float64 {
	score := baseline
	if s != nil {
		score += debtToEquityLadder.apply(s.DebtToEquity)
		score += currentRatioLadder.apply(s.CurrentRatio)
		score += returnOnEquityLadder.apply(s.ReturnOnEquity)
		score += revenueGrowthLadder.apply(s.RevenueGrowth)
	}
	return clamp(score)
}

// MarketScore scores price volatility, beta and market capitalisation.
func MarketScore(s *entity.FeatureSnapshot) float64 {
	score := baseline
	if s != nil {
		score += volatilityLadder.apply(s.PriceVolatility)
		score += betaLadder.apply(s.Beta)
		score += marketCapLadder.apply(s.MarketCap)
	}
	return clamp(score)
}

// NewsScore is 50 with no news; otherwise mean sentiment shifts it by up to
// ±30 and risky articles subtract a penalty capped at 20.
func NewsScore(news []entity.NewsSignal) float64 {
	if len(news) == 0 {
		return baseline
	}

	score := baseline + MeanSentiment(news)*sentimentWeight

	penalty := 0.0
	for _, n := range news {
		if n.EventType.IsHighRisk() {
			penalty += highRiskNewsPenalty
		} else if n.RiskScore > HighRiskNewsRiskScore {
			penalty += riskyNewsPenalty
		}
	}
	score -= math.Min(penalty, maxNewsPenalty)

	return clamp(score)
}

func clamp(v float64) float64 {
	return math.Max(minScore, math.Min(maxScore, v))
}
