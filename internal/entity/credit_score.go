package entity

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// TrendDirection is the direction of the latest score change.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// FeatureImportance holds the per-feature contribution proxy of a score.
type FeatureImportance struct {
	DebtToEquity    float64 `json:"debt_to_equity"`
	CurrentRatio    float64 `json:"current_ratio"`
	ReturnOnEquity  float64 `json:"return_on_equity"`
	PriceVolatility float64 `json:"price_volatility"`
	NewsSentiment   float64 `json:"news_sentiment"`
	HighRiskEvents  float64 `json:"high_risk_events"`
}

// CreditScore is an immutable composite score computed for a company.
type CreditScore struct {
	ID                 uint                                  `gorm:"primaryKey" json:"id"`
	CompanyID          uint                                  `gorm:"index;not null" json:"company_id"`
	OverallScore       float64                               `gorm:"not null" json:"overall_score"`
	FinancialScore     float64                               `gorm:"not null" json:"financial_score"`
	MarketScore        float64                               `gorm:"not null" json:"market_score"`
	NewsScore          float64                               `gorm:"not null" json:"news_score"`
	ScoreChange        float64                               `json:"score_change"`
	TrendDirection     TrendDirection                        `gorm:"type:varchar(16)" json:"trend_direction"`
	Volatility         float64                               `json:"volatility"`
	ExplanationSummary string                                `json:"explanation_summary"`
	KeyFactors         pq.StringArray                        `gorm:"type:text[]" json:"key_factors"`
	RiskIndicators     pq.StringArray                        `gorm:"type:text[]" json:"risk_indicators"`
	FeatureImportance  datatypes.JSONType[FeatureImportance] `json:"feature_importance"`
	ModelVersion       string                                `json:"model_version"`
	CalculationMethod  string                                `json:"calculation_method"`
	ConfidenceLevel    float64                               `json:"confidence_level"`
	CalculatedAt       time.Time                             `gorm:"index;not null" json:"calculated_at"`
	ValidUntil         time.Time                             `json:"valid_until"`
}

// TableName specifies the table name for the CreditScore model.
func (CreditScore) TableName() string {
	return "credit_scores"
}
