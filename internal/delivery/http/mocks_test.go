package http

import (
	"context"

	"credit-risk-monitor/internal/dto"
	"credit-risk-monitor/internal/entity"
	"credit-risk-monitor/internal/repository"
	"credit-risk-monitor/internal/scheduler"
	"credit-risk-monitor/internal/service"

	"github.com/stretchr/testify/mock"
)

type mockCompanyService struct {
	mock.Mock
	service.CompanyService
}

func (m *mockCompanyService) Register(ctx context.Context, ticker string) (*entity.Company, error) {
	args := m.Called(ctx, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Company), args.Error(1)
}

func (m *mockCompanyService) Get(ctx context.Context, ticker string) (*entity.Company, error) {
	args := m.Called(ctx, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Company), args.Error(1)
}

func (m *mockCompanyService) List(ctx context.Context, includeInactive bool) ([]entity.Company, error) {
	args := m.Called(ctx, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Company), args.Error(1)
}

func (m *mockCompanyService) Deactivate(ctx context.Context, ticker string) error {
	return m.Called(ctx, ticker).Error(0)
}

type mockScoreService struct {
	mock.Mock
	service.ScoreService
}

func (m *mockScoreService) Latest(ctx context.Context, ticker string) (*entity.CreditScore, error) {
	args := m.Called(ctx, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CreditScore), args.Error(1)
}

func (m *mockScoreService) Trend(ctx context.Context, ticker string, days int) (*dto.ScoreTrendResponse, error) {
	args := m.Called(ctx, ticker, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ScoreTrendResponse), args.Error(1)
}

func (m *mockScoreService) Leaderboard(ctx context.Context, limit int, ascending bool) ([]repository.LeaderboardEntry, error) {
	args := m.Called(ctx, limit, ascending)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.LeaderboardEntry), args.Error(1)
}

type mockAlertService struct {
	mock.Mock
	service.AlertService
}

func (m *mockAlertService) List(ctx context.Context, filter repository.AlertFilter) ([]entity.Alert, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Alert), args.Error(1)
}

func (m *mockAlertService) Acknowledge(ctx context.Context, id uint, by string) (*entity.Alert, error) {
	args := m.Called(ctx, id, by)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Alert), args.Error(1)
}

type mockNewsService struct {
	mock.Mock
}

func (m *mockNewsService) Recent(ctx context.Context, ticker string, days int, eventType string, limit int) ([]entity.NewsSignal, error) {
	args := m.Called(ctx, ticker, days, eventType, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.NewsSignal), args.Error(1)
}

type mockScheduler struct {
	mock.Mock
	scheduler.SchedulerService
}

func (m *mockScheduler) ScheduleRefresh(ticker string) string {
	return m.Called(ticker).String(0)
}

func (m *mockScheduler) ComputeScore(ctx context.Context, ticker string) (*entity.CreditScore, error) {
	args := m.Called(ctx, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CreditScore), args.Error(1)
}

func (m *mockScheduler) Status() dto.SchedulerStatusResponse {
	return m.Called().Get(0).(dto.SchedulerStatusResponse)
}

func (m *mockScheduler) Pause() {
	m.Called()
}

func (m *mockScheduler) Resume() {
	m.Called()
}

type mockJobRunService struct {
	mock.Mock
}

func (m *mockJobRunService) Recent(ctx context.Context, jobID string, limit int) ([]dto.JobRunResponse, error) {
	args := m.Called(ctx, jobID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.JobRunResponse), args.Error(1)
}

func (m *mockJobRunService) Get(ctx context.Context, runID string) (*dto.JobRunResponse, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.JobRunResponse), args.Error(1)
}
