package strategy

import (
	"context"
	"errors"
	"testing"

	"credit-risk-monitor/internal/apperr"
	"credit-risk-monitor/internal/entity"
	"credit-risk-monitor/internal/repository"
	"credit-risk-monitor/internal/service"
	"credit-risk-monitor/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Enqueue(ctx context.Context, ticker string, mode service.RefreshMode) service.EnqueueOutcome {
	return m.Called(ctx, ticker, mode).Get(0).(service.EnqueueOutcome)
}

func (m *mockRunner) RunNow(ctx context.Context, ticker string, mode service.RefreshMode) (*service.RefreshResult, error) {
	args := m.Called(ctx, ticker, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RefreshResult), args.Error(1)
}

func (m *mockRunner) RunBatch(ctx context.Context, tickers []string, mode service.RefreshMode) *service.BatchResult {
	return m.Called(ctx, tickers, mode).Get(0).(*service.BatchResult)
}

func (m *mockRunner) InFlight(ticker string) bool {
	return m.Called(ticker).Bool(0)
}

func (m *mockRunner) Shutdown() {
	m.Called()
}

type mockCompanies struct {
	mock.Mock
	service.CompanyService
}

func (m *mockCompanies) ActiveTickers(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockAlerts struct {
	mock.Mock
	service.AlertService
}

func (m *mockAlerts) Cleanup(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockRetention struct {
	mock.Mock
}

func (m *mockRetention) Sweep(ctx context.Context) (*repository.RetentionResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.RetentionResult), args.Error(1)
}

func TestRefreshAllStrategy_RunsBatchOverActiveCompanies(t *testing.T) {
	companies := new(mockCompanies)
	runner := new(mockRunner)
	companies.On("ActiveTickers", mock.Anything).Return([]string{"AAPL", "MSFT"}, nil)
	runner.On("RunBatch", mock.Anything, []string{"AAPL", "MSFT"}, service.ModeFetch).
		Return(&service.BatchResult{Total: 2, Succeeded: 1, Failed: 1, Errors: map[string]string{"MSFT": "boom"}})

	s := NewRefreshAllStrategy(logger.NewNop(), companies, runner)
	assert.Equal(t, entity.JobTypeRefreshAll, s.GetType())

	out, err := s.Execute(context.Background(), &entity.Job{ID: "data_refresh"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":2,"succeeded":1,"failed":1,"skipped":0,"errors":{"MSFT":"boom"}}`, out)
	runner.AssertExpectations(t)
}

func TestScoreAllStrategy_FailsWhenEveryCompanyFails(t *testing.T) {
	companies := new(mockCompanies)
	runner := new(mockRunner)
	companies.On("ActiveTickers", mock.Anything).Return([]string{"AAPL"}, nil)
	runner.On("RunBatch", mock.Anything, []string{"AAPL"}, service.ModeScore).
		Return(&service.BatchResult{Total: 1, Failed: 1, Errors: map[string]string{"AAPL": "no snapshot"}})

	s := NewScoreAllStrategy(logger.NewNop(), companies, runner)
	assert.Equal(t, entity.JobTypeScoreAll, s.GetType())

	out, err := s.Execute(context.Background(), &entity.Job{ID: "score_computation"})
	assert.Error(t, err)
	assert.Contains(t, out, "no snapshot")
}

func TestRefreshAllStrategy_NoCompanies(t *testing.T) {
	companies := new(mockCompanies)
	runner := new(mockRunner)
	companies.On("ActiveTickers", mock.Anything).Return([]string{}, nil)

	out, err := NewRefreshAllStrategy(logger.NewNop(), companies, runner).Execute(context.Background(), &entity.Job{ID: "data_refresh"})
	require.NoError(t, err)
	assert.Contains(t, out, `"total":0`)
	runner.AssertNotCalled(t, "RunBatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshEntityStrategy_Completed(t *testing.T) {
	runner := new(mockRunner)
	runner.On("RunNow", mock.Anything, "AAPL", service.ModeFetch).Return(&service.RefreshResult{
		Ticker: "AAPL",
		Score:  &entity.CreditScore{OverallScore: 72.5},
		Alerts: []*entity.Alert{{}},
	}, nil)

	out, err := NewRefreshEntityStrategy(logger.NewNop(), runner).Execute(context.Background(), &entity.Job{Subject: "AAPL"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ticker":"AAPL","outcome":"completed","overall_score":72.5,"alerts":1}`, out)
}

func TestRefreshEntityStrategy_HandsOverWhenBusy(t *testing.T) {
	runner := new(mockRunner)
	runner.On("RunNow", mock.Anything, "AAPL", service.ModeFetch).Return(nil, apperr.ErrRefreshInProgress)
	runner.On("Enqueue", mock.Anything, "AAPL", service.ModeFetch).Return(service.OutcomeQueued)

	out, err := NewRefreshEntityStrategy(logger.NewNop(), runner).Execute(context.Background(), &entity.Job{Subject: "AAPL"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ticker":"AAPL","outcome":"queued"}`, out)
	runner.AssertExpectations(t)
}

func TestRefreshEntityStrategy_PropagatesFailure(t *testing.T) {
	runner := new(mockRunner)
	upstream := &apperr.UpstreamFetchError{Provider: "financial", Entity: "AAPL", Err: errors.New("timeout")}
	runner.On("RunNow", mock.Anything, "AAPL", service.ModeFetch).Return(nil, upstream)

	_, err := NewRefreshEntityStrategy(logger.NewNop(), runner).Execute(context.Background(), &entity.Job{Subject: "AAPL"})
	assert.True(t, apperr.IsUpstream(err))
}

func TestMaintenanceStrategies(t *testing.T) {
	alerts := new(mockAlerts)
	alerts.On("Cleanup", mock.Anything).Return(int64(4), nil)
	out, err := NewAlertCleanupStrategy(alerts).Execute(context.Background(), &entity.Job{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"deleted_alerts":4}`, out)

	retention := new(mockRetention)
	retention.On("Sweep", mock.Anything).Return(&repository.RetentionResult{FeatureSnapshots: 2, NewsSignals: 5}, nil)
	out, err = NewDailyMaintenanceStrategy(retention).Execute(context.Background(), &entity.Job{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"feature_snapshots":2,"news_signals":5,"credit_scores":0}`, out)
}
