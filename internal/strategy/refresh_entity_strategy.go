package strategy

import (
	"context"
	"errors"

	"credit-risk-monitor/internal/apperr"
	"credit-risk-monitor/internal/dto"
	"credit-risk-monitor/internal/entity"
	"credit-risk-monitor/internal/service"
	"credit-risk-monitor/pkg/logger"
)

// RefreshEntityStrategy runs an ad-hoc refresh of a single company.
type RefreshEntityStrategy struct {
	logger *logger.Logger
	runner service.RefreshRunner
}

// NewRefreshEntityStrategy creates a new instance of RefreshEntityStrategy.
func NewRefreshEntityStrategy(log *logger.Logger, runner service.RefreshRunner) *RefreshEntityStrategy {
	return &RefreshEntityStrategy{logger: log, runner: runner}
}

// GetType returns the job type this strategy handles.
func (s *RefreshEntityStrategy) GetType() entity.JobType {
	return entity.JobTypeRefreshEntity
}

type refreshEntityOutput struct {
	Ticker       string   `json:"ticker"`
	Outcome      string   `json:"outcome"`
	OverallScore *float64 `json:"overall_score,omitempty"`
	Alerts       int      `json:"alerts"`
}

// Execute refreshes job.Subject. When a cycle is already running the request
// is handed to the runner's pending slot instead of failing.
func (s *RefreshEntityStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	res, err := s.runner.RunNow(ctx, job.Subject, service.ModeFetch)
	if errors.Is(err, apperr.ErrRefreshInProgress) {
		outcome := s.runner.Enqueue(ctx, job.Subject, service.ModeFetch)
		s.logger.InfoContext(ctx, "Refresh already in flight, request handed over",
			logger.StringField("ticker", job.Subject),
			logger.StringField("outcome", string(outcome)),
		)
		return toOutput(&dto.RefreshResponse{Ticker: job.Subject, Outcome: string(outcome)})
	}
	if err != nil {
		return "", err
	}

	return toOutput(&refreshEntityOutput{
		Ticker:       res.Ticker,
		Outcome:      "completed",
		OverallScore: &res.Score.OverallScore,
		Alerts:       len(res.Alerts),
	})
}
