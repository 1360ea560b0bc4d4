package strategy

import (
	"context"
	"fmt"

	"credit-risk-monitor/internal/entity"
	"credit-risk-monitor/internal/service"
	"credit-risk-monitor/pkg/logger"
)

// RefreshAllStrategy refreshes every active company through the runner's
// bounded pool. With ModeFetch it backs the data refresh job, with ModeScore
// the score computation job.
type RefreshAllStrategy struct {
	logger    *logger.Logger
	companies service.CompanyService
	runner    service.RefreshRunner
	mode      service.RefreshMode
	jobType   entity.JobType
}

// NewRefreshAllStrategy creates the data refresh strategy.
func NewRefreshAllStrategy(log *logger.Logger, companies service.CompanyService, runner service.RefreshRunner) *RefreshAllStrategy {
	return &RefreshAllStrategy{logger: log, companies: companies, runner: runner, mode: service.ModeFetch, jobType: entity.JobTypeRefreshAll}
}

// NewScoreAllStrategy creates the score computation strategy.
func NewScoreAllStrategy(log *logger.Logger, companies service.CompanyService, runner service.RefreshRunner) *RefreshAllStrategy {
	return &RefreshAllStrategy{logger: log, companies: companies, runner: runner, mode: service.ModeScore, jobType: entity.JobTypeScoreAll}
}

// GetType returns the job type this strategy handles.
func (s *RefreshAllStrategy) GetType() entity.JobType {
	return s.jobType
}

// Execute runs one batch. It fails only when companies cannot be listed or
// every company failed.
func (s *RefreshAllStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	tickers, err := s.companies.ActiveTickers(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list active companies: %w", err)
	}
	if len(tickers) == 0 {
		s.logger.Info("No active companies to refresh", logger.StringField("job_id", job.ID))
		return toOutput(&service.BatchResult{})
	}

	result := s.runner.RunBatch(ctx, tickers, s.mode)
	s.logger.Info("Batch refresh finished",
		logger.StringField("job_id", job.ID),
		logger.StringField("mode", string(s.mode)),
		logger.IntField("total", result.Total),
		logger.IntField("succeeded", result.Succeeded),
		logger.IntField("failed", result.Failed),
		logger.IntField("skipped", result.Skipped),
	)

	output, err := toOutput(result)
	if err != nil {
		return "", err
	}
	if result.Failed > 0 && result.Succeeded == 0 && result.Skipped == 0 {
		return output, fmt.Errorf("all %d refreshes failed", result.Failed)
	}
	return output, nil
}
