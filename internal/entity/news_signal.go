package entity

import (
	"time"

	"github.com/lib/pq"
)

// EventType classifies a news article.
type EventType string

const (
	EventDefault       EventType = "default"
	EventMerger        EventType = "merger"
	EventRestructuring EventType = "restructuring"
	EventEarnings      EventType = "earnings"
	EventDebt          EventType = "debt"
	EventLegal         EventType = "legal"
	EventManagement    EventType = "management"
)

// IsHighRisk reports whether the event type belongs to the high-risk set.
func (e EventType) IsHighRisk() bool {
	return e == EventDefault || e == EventLegal || e == EventRestructuring
}

// IsMediumRisk reports whether the event type belongs to the medium-risk set.
func (e EventType) IsMediumRisk() bool {
	return e == EventDebt || e == EventManagement
}

// NewsSignal is a classified news article about a company.
type NewsSignal struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	CompanyID       uint           `gorm:"index;not null" json:"company_id"`
	Headline        string         `gorm:"not null" json:"headline"`
	Summary         string         `json:"summary"`
	URL             string         `json:"url"`
	Source          string         `json:"source"`
	PublishedAt     time.Time      `gorm:"index;not null" json:"published_at"`
	SentimentScore  float64        `gorm:"not null" json:"sentiment_score"`
	SentimentLabel  string         `json:"sentiment_label"`
	EventType       EventType      `gorm:"type:varchar(32)" json:"event_type,omitempty"`
	EventConfidence float64        `json:"event_confidence"`
	Keywords        pq.StringArray `gorm:"type:text[]" json:"keywords"`
	RiskScore       float64        `gorm:"not null" json:"risk_score"`
	RiskFactors     pq.StringArray `gorm:"type:text[]" json:"risk_factors"`
	HashIdentifier  string         `gorm:"uniqueIndex;not null" json:"hash_identifier"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the NewsSignal model.
func (NewsSignal) TableName() string {
	return "news_signals"
}

// SentimentLabelFor maps a sentiment score onto positive / negative / neutral.
func SentimentLabelFor(score float64) string {
	switch {
	case score >= 0.05:
		return "positive"
	case score <= -0.05:
		return "negative"
	default:
		return "neutral"
	}
}
