package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"credit-risk-monitor/internal/apperr"
	"credit-risk-monitor/internal/dto"
	"credit-risk-monitor/internal/entity"
	"credit-risk-monitor/internal/repository"
	"credit-risk-monitor/internal/scoring"
	"credit-risk-monitor/pkg/utils"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ScoreService answers read queries over stored credit scores.
type ScoreService interface {
	Latest(ctx context.Context, ticker string) (*entity.CreditScore, error)
	History(ctx context.Context, ticker string, days int) ([]entity.CreditScore, error)
	Explanation(ctx context.Context, ticker string) (*dto.ScoreExplanationResponse, error)
	FeatureImportance(ctx context.Context, ticker string) (*dto.FeatureImportanceResponse, error)
	Trend(ctx context.Context, ticker string, days int) (*dto.ScoreTrendResponse, error)
	Leaderboard(ctx context.Context, limit int, ascending bool) ([]repository.LeaderboardEntry, error)
}

// NewScoreService creates a new score query service.
func NewScoreService(companies CompanyService, scoreRepo repository.CreditScoreRepository, now func() time.Time) ScoreService {
	if now == nil {
		now = time.Now
	}
	return &scoreService{companies: companies, scoreRepo: scoreRepo, now: now}
}

type scoreService struct {
	companies CompanyService
	scoreRepo repository.CreditScoreRepository
	now       func() time.Time
}

func (s *scoreService) Latest(ctx context.Context, ticker string) (*entity.CreditScore, error) {
	company, err := s.companies.Get(ctx, ticker)
	if err != nil {
		return nil, err
	}
	score, err := s.scoreRepo.FindLatest(ctx, company.ID)
	if err != nil {
		return nil, err
	}
	if score == nil {
		return nil, apperr.NewNotFound("credit score", company.Ticker)
	}
	return score, nil
}

func (s *scoreService) History(ctx context.Context, ticker string, days int) ([]entity.CreditScore, error) {
	company, err := s.companies.Get(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return s.scoreRepo.FindSince(ctx, company.ID, utils.DaysAgo(s.now(), days))
}

func (s *scoreService) Explanation(ctx context.Context, ticker string) (*dto.ScoreExplanationResponse, error) {
	score, err := s.Latest(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return &dto.ScoreExplanationResponse{
		Ticker:            strings.ToUpper(ticker),
		OverallScore:      score.OverallScore,
		ScoreChange:       score.ScoreChange,
		TrendDirection:    score.TrendDirection,
		Summary:           score.ExplanationSummary,
		KeyFactors:        nonNil(score.KeyFactors),
		RiskIndicators:    nonNil(score.RiskIndicators),
		FeatureImportance: score.FeatureImportance.Data(),
		CalculatedAt:      score.CalculatedAt,
	}, nil
}

// FeatureImportance lists the features of the latest score by descending importance.
func (s *scoreService) FeatureImportance(ctx context.Context, ticker string) (*dto.FeatureImportanceResponse, error) {
	score, err := s.Latest(ctx, ticker)
	if err != nil {
		return nil, err
	}
	fi := score.FeatureImportance.Data()
	items := []dto.FeatureImportanceItem{
		{Feature: "debt_to_equity", Importance: fi.DebtToEquity},
		{Feature: "current_ratio", Importance: fi.CurrentRatio},
		{Feature: "return_on_equity", Importance: fi.ReturnOnEquity},
		{Feature: "price_volatility", Importance: fi.PriceVolatility},
		{Feature: "news_sentiment", Importance: fi.NewsSentiment},
		{Feature: "high_risk_events", Importance: fi.HighRiskEvents},
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Importance > items[j].Importance })

	return &dto.FeatureImportanceResponse{Ticker: strings.ToUpper(ticker), Features: items, CalculatedAt: score.CalculatedAt}, nil
}

// Trend summarizes the scores calculated within the last days.
func (s *scoreService) Trend(ctx context.Context, ticker string, days int) (*dto.ScoreTrendResponse, error) {
	scores, err := s.History(ctx, ticker, days)
	if err != nil {
		return nil, err
	}
	resp := &dto.ScoreTrendResponse{Ticker: strings.ToUpper(ticker), Days: days, Points: []dto.TrendPoint{}, Direction: entity.TrendStable}
	if len(scores) == 0 {
		return resp, nil
	}

	values := make([]float64, len(scores))
	for i, sc := range scores {
		values[i] = sc.OverallScore
		resp.Points = append(resp.Points, dto.TrendPoint{OverallScore: sc.OverallScore, CalculatedAt: sc.CalculatedAt})
	}

	// scores are oldest first, Track wants the prior history newest first
	prior := make([]float64, 0, len(values)-1)
	for i := len(values) - 2; i >= 0; i-- {
		prior = append(prior, values[i])
	}
	current := values[len(values)-1]
	resp.Change = current - values[0]
	resp.Direction = scoring.Track(current, []float64{values[0]}).Direction
	resp.Volatility = scoring.Track(current, prior).Volatility
	resp.Min = floats.Min(values)
	resp.Max = floats.Max(values)
	resp.Mean = stat.Mean(values, nil)
	return resp, nil
}

func (s *scoreService) Leaderboard(ctx context.Context, limit int, ascending bool) ([]repository.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.scoreRepo.Leaderboard(ctx, limit, ascending)
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
