package entity

import "time"

// FeatureSnapshot is a point-in-time set of financial and market metrics for a
// company. Every metric is optional; a nil metric contributes nothing to the score.
type FeatureSnapshot struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CompanyID       uint      `gorm:"index;not null" json:"company_id"`
	DebtToEquity    *float64  `json:"debt_to_equity,omitempty"`
	CurrentRatio    *float64  `json:"current_ratio,omitempty"`
	QuickRatio      *float64  `json:"quick_ratio,omitempty"`
	ReturnOnEquity  *float64  `json:"return_on_equity,omitempty"`
	ReturnOnAssets  *float64  `json:"return_on_assets,omitempty"`
	RevenueGrowth   *float64  `json:"revenue_growth,omitempty"`
	PriceVolatility *float64  `json:"price_volatility,omitempty"`
	Beta            *float64  `json:"beta,omitempty"`
	MarketCap       *float64  `json:"market_cap,omitempty"` // millions
	StockPrice      *float64  `json:"stock_price,omitempty"`
	PERatio         *float64  `json:"pe_ratio,omitempty"`
	DataSource      string    `json:"data_source"`
	CapturedAt      time.Time `gorm:"index;not null" json:"captured_at"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the FeatureSnapshot model.
func (FeatureSnapshot) TableName() string {
	return "feature_snapshots"
}
