package service

import (
	"context"
	"time"

	"credit-risk-monitor/internal/repository"
	"credit-risk-monitor/pkg/logger"
	"credit-risk-monitor/pkg/utils"
)

// RetentionService prunes aged history.
type RetentionService interface {
	Sweep(ctx context.Context) (*repository.RetentionResult, error)
}

// NewRetentionService creates a retention service keeping featureDays of
// snapshots and news and scoreDays of scores.
func NewRetentionService(repo repository.RetentionRepository, log *logger.Logger, featureDays, scoreDays int, now func() time.Time) RetentionService {
	if now == nil {
		now = time.Now
	}
	return &retentionService{repo: repo, logger: log, featureDays: featureDays, scoreDays: scoreDays, now: now}
}

type retentionService struct {
	repo        repository.RetentionRepository
	logger      *logger.Logger
	featureDays int
	scoreDays   int
	now         func() time.Time
}

func (s *retentionService) Sweep(ctx context.Context) (*repository.RetentionResult, error) {
	now := s.now().UTC()
	result, err := s.repo.Sweep(ctx, utils.DaysAgo(now, s.featureDays), utils.DaysAgo(now, s.scoreDays))
	if err != nil {
		s.logger.ErrorContext(ctx, "Retention sweep failed", logger.ErrorField(err))
		return nil, err
	}

	s.logger.InfoContext(ctx, "Retention sweep completed",
		logger.Field("feature_snapshots", result.FeatureSnapshots),
		logger.Field("news_signals", result.NewsSignals),
		logger.Field("credit_scores", result.CreditScores),
	)
	return result, nil
}
