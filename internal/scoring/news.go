package scoring

import (
	"math"
	"strings"

	"credit-risk-monitor/internal/entity"

	"gonum.org/v1/gonum/stat"
)

type eventKeywords struct {
	event    entity.EventType
	keywords []string
}

// Checked in order; the first matching group becomes the event type.
var eventCatalog = []eventKeywords{
	{entity.EventDefault, []string{"default", "bankruptcy", "insolvency", "liquidation", "chapter 11"}},
	{entity.EventMerger, []string{"merger", "acquisition", "takeover", "buyout", "consolidation"}},
	{entity.EventRestructuring, []string{"restructuring", "reorganization", "layoffs", "cost cutting"}},
	{entity.EventEarnings, []string{"earnings", "profit", "loss", "quarterly results", "financial results"}},
	{entity.EventDebt, []string{"debt", "bond", "credit rating", "downgrade", "upgrade"}},
	{entity.EventLegal, []string{"lawsuit", "litigation", "regulatory", "investigation", "fine"}},
	{entity.EventManagement, []string{"ceo", "executive", "leadership", "resignation", "appointment"}},
}

// EventClassification is the keyword classifier output for one article.
type EventClassification struct {
	EventType  entity.EventType
	Confidence float64
	Keywords   []string
}

// ClassifyEvent matches text against the event keyword catalog. Each event
// group contributes at most one keyword; confidence is 0.3 per matched group
// capped at 1.0.
func ClassifyEvent(text string) EventClassification {
	lower := strings.ToLower(text)
	var (
		detected []entity.EventType
		found    []string
	)
	for _, group := range eventCatalog {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				detected = append(detected, group.event)
				found = append(found, kw)
				break
			}
		}
	}

	out := EventClassification{
		Confidence: math.Min(1.0, float64(len(found))*0.3),
		Keywords:   found,
	}
	if len(detected) > 0 {
		out.EventType = detected[0]
	}
	return out
}

// NewsRiskScore derives an article's risk score in [0,1] from its sentiment
// and event type.
func NewsRiskScore(sentiment float64, event entity.EventType) float64 {
	risk := 0.0
	if sentiment < NegativeSentiment {
		risk += 0.4
	} else if sentiment < 0 {
		risk += 0.2
	}
	if event.IsHighRisk() {
		risk += 0.4
	} else if event.IsMediumRisk() {
		risk += 0.2
	}
	return math.Min(1.0, risk)
}

// NewsRiskFactors lists the tags explaining NewsRiskScore.
func NewsRiskFactors(sentiment float64, event entity.EventType) []string {
	var factors []string
	if sentiment < NegativeSentiment {
		factors = append(factors, "negative_sentiment")
	} else if sentiment < 0 {
		factors = append(factors, "neutral_to_negative_sentiment")
	}
	if event != "" {
		factors = append(factors, string(event)+"_event")
	}
	return factors
}

// MeanSentiment is the arithmetic mean of the signals' sentiment, 0 for none.
func MeanSentiment(news []entity.NewsSignal) float64 {
	if len(news) == 0 {
		return 0
	}
	xs := make([]float64, len(news))
	for i, n := range news {
		xs[i] = n.SentimentScore
	}
	return stat.Mean(xs, nil)
}
