package alerting

import (
	"fmt"
	"math"
	"strings"
	"time"

	"credit-risk-monitor/internal/entity"
	"credit-risk-monitor/pkg/utils"

	"gorm.io/datatypes"
)

const (
	DefaultScoreChangeThreshold = 20.0
	DefaultRetention            = 7 * 24 * time.Hour

	newsRiskThreshold        = 0.7
	newsSentimentThreshold   = -0.5
	newsSentimentSevere      = -0.7
	newsSentimentConcerning  = -0.3
	newsHeadlineMessageLimit = 100
)

// Config controls alert emission.
type Config struct {
	ScoreChangeThreshold float64
	Retention            time.Duration
}

// Deriver turns score changes and news signals into alerts. It holds no
// state beyond its configuration.
type Deriver struct {
	cfg Config
}

// NewDeriver creates a Deriver, filling defaults for zero values.
func NewDeriver(cfg Config) *Deriver {
	if cfg.ScoreChangeThreshold <= 0 {
		cfg.ScoreChangeThreshold = DefaultScoreChangeThreshold
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	return &Deriver{cfg: cfg}
}

// Threshold returns the score change emission threshold.
func (d *Deriver) Threshold() float64 {
	return d.cfg.ScoreChangeThreshold
}

// ScoreChangeSeverity classifies the magnitude of a score change.
func ScoreChangeSeverity(absDelta float64) entity.Severity {
	switch {
	case absDelta >= 30:
		return entity.SeverityCritical
	case absDelta >= 20:
		return entity.SeverityHigh
	case absDelta >= 10:
		return entity.SeverityMedium
	default:
		return entity.SeverityLow
	}
}

// ScoreChange returns an alert when |current - previous| reaches the
// threshold, nil otherwise.
func (d *Deriver) ScoreChange(companyID uint, previous, current float64, now time.Time) *entity.Alert {
	delta := current - previous
	magnitude := math.Abs(delta)
	if magnitude < d.cfg.ScoreChangeThreshold {
		return nil
	}

	pct := 0.0
	if previous > 0 {
		pct = delta / previous * 100
	}
	direction := "decrease"
	if delta > 0 {
		direction = "increase"
	}

	return &entity.Alert{
		CompanyID:        companyID,
		AlertType:        entity.AlertTypeScoreChange,
		Severity:         ScoreChangeSeverity(magnitude),
		Title:            "Credit Score Change Alert",
		Message:          fmt.Sprintf("Credit score changed by %+.1f points (%+.1f%%)", delta, pct),
		ScoreChange:      utils.ToPointer(delta),
		PreviousScore:    utils.ToPointer(previous),
		CurrentScore:     utils.ToPointer(current),
		ChangePercentage: utils.ToPointer(pct),
		TriggerValue:     delta,
		ThresholdValue:   d.cfg.ScoreChangeThreshold,
		Context: datatypes.NewJSONType(entity.AlertContext{
			ChangeDirection: direction,
			ChangeMagnitude: magnitude,
		}),
		RelatedEvents: datatypes.NewJSONType([]entity.RelatedEvent{}),
		DedupeKey:     direction,
		CreatedAt:     now,
		ExpiresAt:     now.Add(d.cfg.Retention),
	}
}

// IsHighRiskNews reports whether a signal should raise a news alert.
func IsHighRiskNews(n entity.NewsSignal) bool {
	return n.EventType.IsHighRisk() ||
		n.SentimentScore < newsSentimentThreshold ||
		n.RiskScore > newsRiskThreshold
}

// NewsSeverity classifies a high-risk news signal.
func NewsSeverity(n entity.NewsSignal) entity.Severity {
	switch {
	case n.EventType == entity.EventDefault:
		return entity.SeverityCritical
	case n.EventType == entity.EventLegal || n.EventType == entity.EventRestructuring:
		return entity.SeverityHigh
	case n.SentimentScore < newsSentimentSevere:
		return entity.SeverityHigh
	case n.SentimentScore < newsSentimentConcerning:
		return entity.SeverityMedium
	default:
		return entity.SeverityLow
	}
}

// NewsEvent returns an alert for a high-risk signal, nil otherwise.
func (d *Deriver) NewsEvent(companyID uint, n entity.NewsSignal, now time.Time) *entity.Alert {
	if !IsHighRiskNews(n) {
		return nil
	}

	sentiment := n.SentimentScore
	risk := n.RiskScore
	return &entity.Alert{
		CompanyID:      companyID,
		AlertType:      entity.AlertTypeNewsEvent,
		Severity:       NewsSeverity(n),
		Title:          "High-Risk News Alert: " + eventTitle(n.EventType),
		Message:        fmt.Sprintf("High-risk news detected: %s...", utils.Truncate(n.Headline, newsHeadlineMessageLimit)),
		TriggerValue:   n.RiskScore,
		ThresholdValue: newsRiskThreshold,
		Context: datatypes.NewJSONType(entity.AlertContext{
			EventType:      string(n.EventType),
			SentimentScore: &sentiment,
			RiskScore:      &risk,
			Keywords:       n.Keywords,
		}),
		RelatedEvents: datatypes.NewJSONType([]entity.RelatedEvent{{
			Headline:    n.Headline,
			URL:         n.URL,
			PublishedAt: n.PublishedAt,
		}}),
		DedupeKey: utils.HashIdentifier(strings.ToLower(strings.TrimSpace(n.Headline))),
		CreatedAt: now,
		ExpiresAt: now.Add(d.cfg.Retention),
	}
}

func eventTitle(e entity.EventType) string {
	if e == "" {
		return "Negative Sentiment"
	}
	s := string(e)
	return strings.ToUpper(s[:1]) + s[1:]
}
