package entity

import (
	"time"

	"gorm.io/datatypes"
)

// AlertType is the kind of event that produced an alert.
type AlertType string

const (
	AlertTypeScoreChange AlertType = "score_change"
	AlertTypeNewsEvent   AlertType = "news_event"
)

// Severity of an alert. Ordered low < medium < high < critical.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the position of s in the severity order, 0 for unknown values.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// AlertContext carries the typed context of an alert.
type AlertContext struct {
	ChangeDirection string   `json:"change_direction,omitempty"`
	ChangeMagnitude float64  `json:"change_magnitude,omitempty"`
	EventType       string   `json:"event_type,omitempty"`
	SentimentScore  *float64 `json:"sentiment_score,omitempty"`
	RiskScore       *float64 `json:"risk_score,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
}

// RelatedEvent links an alert to the news article that triggered it.
type RelatedEvent struct {
	Headline    string    `json:"headline"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

// Alert is a notification derived from a score change or a news event.
type Alert struct {
	ID               uint                               `gorm:"primaryKey" json:"id"`
	CompanyID        uint                               `gorm:"index;not null" json:"company_id"`
	Company          *Company                           `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	AlertType        AlertType                          `gorm:"type:varchar(32);not null" json:"alert_type"`
	Severity         Severity                           `gorm:"type:varchar(16);not null" json:"severity"`
	Title            string                             `gorm:"not null" json:"title"`
	Message          string                             `gorm:"not null" json:"message"`
	ScoreChange      *float64                           `json:"score_change,omitempty"`
	PreviousScore    *float64                           `json:"previous_score,omitempty"`
	CurrentScore     *float64                           `json:"current_score,omitempty"`
	ChangePercentage *float64                           `json:"change_percentage,omitempty"`
	TriggerValue     float64                            `json:"trigger_value"`
	ThresholdValue   float64                            `json:"threshold_value"`
	IsRead           bool                               `gorm:"not null;default:false" json:"is_read"`
	IsAcknowledged   bool                               `gorm:"not null;default:false" json:"is_acknowledged"`
	AcknowledgedBy   *string                            `json:"acknowledged_by,omitempty"`
	AcknowledgedAt   *time.Time                         `json:"acknowledged_at,omitempty"`
	Context          datatypes.JSONType[AlertContext]   `json:"context"`
	RelatedEvents    datatypes.JSONType[[]RelatedEvent] `json:"related_events"`
	DedupeKey        string                             `gorm:"-" json:"-"`
	CreatedAt        time.Time                          `gorm:"index;not null" json:"created_at"`
	ExpiresAt        time.Time                          `gorm:"index;not null" json:"expires_at"`
}

// TableName specifies the table name for the Alert model.
func (Alert) TableName() string {
	return "alerts"
}
