package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"credit-risk-monitor/internal/entity"
)

// Risk indicator tags.
const (
	IndicatorHighLeverage          = "high_leverage"
	IndicatorLiquidityConcerns     = "liquidity_concerns"
	IndicatorPoorProfitability     = "poor_profitability"
	IndicatorMarketVolatility      = "market_volatility"
	IndicatorNegativeNewsSentiment = "negative_news_sentiment"
	IndicatorHighRiskEvents        = "high_risk_events"
)

// Explanation is the human-readable narrative attached to a score.
type Explanation struct {
	KeyFactors        []string
	RiskIndicators    []string
	Summary           string
	FeatureImportance entity.FeatureImportance
}

// Explain derives key factors, risk indicators, a summary and the feature
// importance proxy from the scoring inputs. Factor thresholds are the ladder
// boundaries used by FinancialScore, MarketScore and NewsScore.
func Explain(ticker string, s *entity.FeatureSnapshot, news []entity.NewsSignal, scoreChange float64) Explanation {
	var e Explanation
	indicators := newTagSet()

	if s != nil {
		if s.DebtToEquity != nil && *s.DebtToEquity > DebtToEquityModerate {
			e.KeyFactors = append(e.KeyFactors, fmt.Sprintf("High debt-to-equity ratio (%.2f)", *s.DebtToEquity))
			indicators.add(IndicatorHighLeverage)
		}
		if s.CurrentRatio != nil && *s.CurrentRatio < CurrentRatioHealthy {
			e.KeyFactors = append(e.KeyFactors, fmt.Sprintf("Low current ratio (%.2f)", *s.CurrentRatio))
			indicators.add(IndicatorLiquidityConcerns)
		}
		if s.ReturnOnEquity != nil && *s.ReturnOnEquity < ReturnOnEquityWeak {
			e.KeyFactors = append(e.KeyFactors, fmt.Sprintf("Low return on equity (%.2f%%)", *s.ReturnOnEquity*100))
			indicators.add(IndicatorPoorProfitability)
		}
		if s.PriceVolatility != nil && *s.PriceVolatility > VolatilityElevated {
			e.KeyFactors = append(e.KeyFactors, fmt.Sprintf("High price volatility (%.2f%%)", *s.PriceVolatility*100))
			indicators.add(IndicatorMarketVolatility)
		}
	}

	if len(news) > 0 {
		negative := 0
		highRisk := map[string]struct{}{}
		for _, n := range news {
			if n.SentimentScore < NegativeSentiment {
				negative++
			}
			if n.EventType.IsHighRisk() {
				highRisk[string(n.EventType)] = struct{}{}
			}
		}
		if negative > 0 {
			e.KeyFactors = append(e.KeyFactors, fmt.Sprintf("Negative sentiment in %d recent news articles", negative))
			indicators.add(IndicatorNegativeNewsSentiment)
		}
		if len(highRisk) > 0 {
			types := make([]string, 0, len(highRisk))
			for t := range highRisk {
				types = append(types, t)
			}
			sort.Strings(types)
			e.KeyFactors = append(e.KeyFactors, "High-risk events detected: "+strings.Join(types, ", "))
			indicators.add(IndicatorHighRiskEvents)
		}
	}

	e.RiskIndicators = indicators.list()
	e.Summary = summarize(ticker, scoreChange, e.KeyFactors)
	e.FeatureImportance = featureImportance(s, news)
	return e
}

func summarize(ticker string, scoreChange float64, factors []string) string {
	switch {
	case scoreChange > 0:
		return fmt.Sprintf("%s's credit score improved by %.1f points due to positive financial and market indicators.", ticker, scoreChange)
	case scoreChange < 0:
		if len(factors) == 0 {
			return fmt.Sprintf("%s's credit score decreased by %.1f points due to changes in underlying risk factors.", ticker, -scoreChange)
		}
		top := factors
		if len(top) > 2 {
			top = top[:2]
		}
		return fmt.Sprintf("%s's credit score decreased by %.1f points due to %s.", ticker, -scoreChange, strings.Join(top, ", "))
	default:
		return fmt.Sprintf("%s's credit score remained stable with no significant changes in risk factors.", ticker)
	}
}

// featureImportance is a distance-from-reference proxy, not a statistical
// attribution. Missing inputs contribute 0.
func featureImportance(s *entity.FeatureSnapshot, news []entity.NewsSignal) entity.FeatureImportance {
	var fi entity.FeatureImportance
	if s != nil {
		if s.DebtToEquity != nil {
			fi.DebtToEquity = math.Abs(*s.DebtToEquity-DebtToEquityModerate) * 10
		}
		if s.CurrentRatio != nil {
			fi.CurrentRatio = math.Abs(*s.CurrentRatio-CurrentRatioStrong) * 5
		}
		if s.ReturnOnEquity != nil {
			fi.ReturnOnEquity = math.Abs(*s.ReturnOnEquity-ReturnOnEquityStrong) * 20
		}
		if s.PriceVolatility != nil {
			fi.PriceVolatility = *s.PriceVolatility * 50
		}
	}
	if len(news) > 0 {
		fi.NewsSentiment = math.Abs(MeanSentiment(news)) * 30
		highRisk := 0
		for _, n := range news {
			if n.EventType.IsHighRisk() {
				highRisk++
			}
		}
		fi.HighRiskEvents = float64(highRisk) * 15
	}
	return fi
}

type tagSet struct {
	seen  map[string]struct{}
	order []string
}

func newTagSet() *tagSet {
	return &tagSet{seen: map[string]struct{}{}}
}

func (t *tagSet) add(tag string) {
	if _, ok := t.seen[tag]; ok {
		return
	}
	t.seen[tag] = struct{}{}
	t.order = append(t.order, tag)
}

func (t *tagSet) list() []string {
	return t.order
}
