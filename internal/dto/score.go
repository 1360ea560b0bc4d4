package dto

import (
	"time"

	"credit-risk-monitor/internal/entity"
)

// ScoreExplanationResponse is the narrative of the latest score of a company.
type ScoreExplanationResponse struct {
	Ticker            string                   `json:"ticker"`
	OverallScore      float64                  `json:"overall_score"`
	ScoreChange       float64                  `json:"score_change"`
	TrendDirection    entity.TrendDirection    `json:"trend_direction"`
	Summary           string                   `json:"summary"`
	KeyFactors        []string                 `json:"key_factors"`
	RiskIndicators    []string                 `json:"risk_indicators"`
	FeatureImportance entity.FeatureImportance `json:"feature_importance"`
	CalculatedAt      time.Time                `json:"calculated_at"`
}

// FeatureImportanceItem is one ranked entry of a feature importance listing.
type FeatureImportanceItem struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// FeatureImportanceResponse lists features by descending importance.
type FeatureImportanceResponse struct {
	Ticker       string                  `json:"ticker"`
	Features     []FeatureImportanceItem `json:"features"`
	CalculatedAt time.Time               `json:"calculated_at"`
}

// TrendPoint is one score in a trend series.
type TrendPoint struct {
	OverallScore float64   `json:"overall_score"`
	CalculatedAt time.Time `json:"calculated_at"`
}

// ScoreTrendResponse summarizes the scores of a company over a window.
type ScoreTrendResponse struct {
	Ticker     string                `json:"ticker"`
	Days       int                   `json:"days"`
	Points     []TrendPoint          `json:"points"`
	Change     float64               `json:"change"`
	Direction  entity.TrendDirection `json:"direction"`
	Volatility float64               `json:"volatility"`
	Min        float64               `json:"min"`
	Max        float64               `json:"max"`
	Mean       float64               `json:"mean"`
}
