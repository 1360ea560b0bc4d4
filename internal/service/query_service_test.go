package service

import (
	"context"
	"testing"
	"time"

	"credit-risk-monitor/internal/apperr"
	"credit-risk-monitor/internal/dto"
	"credit-risk-monitor/internal/entity"
	"credit-risk-monitor/internal/repository"
	"credit-risk-monitor/internal/repository/repotest"
	"credit-risk-monitor/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func fixedNow() time.Time { return t0 }

func newCompanyService(t *testing.T) (CompanyService, *mockFinancialRepo, *gorm.DB) {
	t.Helper()
	db := repotest.NewDB(t)
	financial := new(mockFinancialRepo)
	return NewCompanyService(repository.NewCompanyRepository(db), financial, logger.NewNop()), financial, db
}

func TestCompanyService_RegisterUsesProviderProfile(t *testing.T) {
	svc, financial, _ := newCompanyService(t)
	ctx := context.Background()
	financial.On("FetchProfile", mock.Anything, "ACME").
		Return(&dto.CompanyProfile{Ticker: "ACME", Name: "Acme Corp", Sector: "Industrials"}, nil).Once()

	c, err := svc.Register(ctx, " acme ")
	require.NoError(t, err)
	assert.Equal(t, "ACME", c.Ticker)
	assert.Equal(t, "Acme Corp", c.Name)
	assert.True(t, c.IsActive)

	again, err := svc.Register(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, c.ID, again.ID)
	financial.AssertExpectations(t)
}

func TestCompanyService_RegisterUnknownTicker(t *testing.T) {
	svc, financial, _ := newCompanyService(t)
	financial.On("FetchProfile", mock.Anything, "ZZZZ").Return(nil, apperr.NewNotFound("ticker", "ZZZZ"))

	_, err := svc.Register(context.Background(), "zzzz")
	assert.True(t, apperr.IsNotFound(err))
}

func TestCompanyService_DeactivateAndReactivate(t *testing.T) {
	svc, financial, _ := newCompanyService(t)
	ctx := context.Background()
	financial.On("FetchProfile", mock.Anything, "ACME").Return(&dto.CompanyProfile{Name: "Acme Corp"}, nil).Once()

	_, err := svc.Register(ctx, "ACME")
	require.NoError(t, err)
	_, err = svc.Get(ctx, "acme")
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, "ACME"))
	_, err = svc.Get(ctx, "ACME")
	assert.True(t, apperr.IsNotFound(err), "cache is invalidated on deactivation")

	tickers, err := svc.ActiveTickers(ctx)
	require.NoError(t, err)
	assert.Empty(t, tickers)

	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	c, err := svc.Register(ctx, "ACME")
	require.NoError(t, err)
	assert.True(t, c.IsActive)
	financial.AssertExpectations(t)
}

func seedScores(t *testing.T, db *gorm.DB, companyID uint, values ...float64) {
	t.Helper()
	repo := repository.NewCreditScoreRepository(db)
	for i, v := range values {
		at := t0.Add(-time.Duration(len(values)-i) * time.Hour)
		require.NoError(t, repo.Create(context.Background(), &entity.CreditScore{
			CompanyID:      companyID,
			OverallScore:   v,
			TrendDirection: entity.TrendStable,
			KeyFactors:     []string{"high_leverage"},
			FeatureImportance: datatypes.NewJSONType(entity.FeatureImportance{
				DebtToEquity:   2.0,
				CurrentRatio:   0.5,
				NewsSentiment:  1.2,
				HighRiskEvents: 0,
			}),
			CalculatedAt: at,
		}))
	}
}

func newScoreService(t *testing.T) (ScoreService, *entity.Company, *gorm.DB) {
	t.Helper()
	db := repotest.NewDB(t)
	companyRepo := repository.NewCompanyRepository(db)
	company := &entity.Company{Ticker: "ACME", Name: "Acme Corp", IsActive: true}
	require.NoError(t, companyRepo.Create(context.Background(), company))

	companies := NewCompanyService(companyRepo, new(mockFinancialRepo), logger.NewNop())
	return NewScoreService(companies, repository.NewCreditScoreRepository(db), fixedNow), company, db
}

func TestScoreService_LatestWithoutScore(t *testing.T) {
	svc, _, _ := newScoreService(t)

	_, err := svc.Latest(context.Background(), "ACME")
	assert.True(t, apperr.IsNotFound(err))

	_, err = svc.Latest(context.Background(), "NOPE")
	assert.True(t, apperr.IsNotFound(err))
}

func TestScoreService_ExplanationAndImportance(t *testing.T) {
	svc, company, db := newScoreService(t)
	seedScores(t, db, company.ID, 60, 55)
	ctx := context.Background()

	exp, err := svc.Explanation(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "ACME", exp.Ticker)
	assert.Equal(t, 55.0, exp.OverallScore)
	assert.Equal(t, []string{"high_leverage"}, exp.KeyFactors)
	assert.Equal(t, []string{}, exp.RiskIndicators)

	fi, err := svc.FeatureImportance(ctx, "ACME")
	require.NoError(t, err)
	require.Len(t, fi.Features, 6)
	assert.Equal(t, "debt_to_equity", fi.Features[0].Feature)
	assert.Equal(t, "news_sentiment", fi.Features[1].Feature)
	assert.Equal(t, "current_ratio", fi.Features[2].Feature)
}

func TestScoreService_Trend(t *testing.T) {
	svc, company, db := newScoreService(t)
	seedScores(t, db, company.ID, 60, 50, 40)

	trend, err := svc.Trend(context.Background(), "ACME", 7)
	require.NoError(t, err)
	require.Len(t, trend.Points, 3)
	assert.Equal(t, 60.0, trend.Points[0].OverallScore)
	assert.Equal(t, -20.0, trend.Change)
	assert.Equal(t, entity.TrendDecreasing, trend.Direction)
	assert.Equal(t, 40.0, trend.Min)
	assert.Equal(t, 60.0, trend.Max)
	assert.InDelta(t, 50.0, trend.Mean, 1e-9)
	assert.InDelta(t, 10.0, trend.Volatility, 1e-9)
}

func TestScoreService_TrendWithoutScores(t *testing.T) {
	svc, _, _ := newScoreService(t)

	trend, err := svc.Trend(context.Background(), "ACME", 30)
	require.NoError(t, err)
	assert.Empty(t, trend.Points)
	assert.Equal(t, entity.TrendStable, trend.Direction)
}

func TestAlertService_Lifecycle(t *testing.T) {
	db := repotest.NewDB(t)
	ctx := context.Background()
	companyRepo := repository.NewCompanyRepository(db)
	company := &entity.Company{Ticker: "ACME", Name: "Acme Corp", IsActive: true}
	require.NoError(t, companyRepo.Create(ctx, company))

	alertRepo := repository.NewAlertRepository(db)
	alert := &entity.Alert{
		CompanyID: company.ID,
		AlertType: entity.AlertTypeScoreChange,
		Severity:  entity.SeverityHigh,
		Title:     "Credit Score Change Alert",
		Message:   "Credit score changed by -25.0 points (-35.7%)",
		CreatedAt: t0.Add(-time.Hour),
		ExpiresAt: t0.Add(167 * time.Hour),
	}
	require.NoError(t, alertRepo.Create(ctx, alert))
	expired := &entity.Alert{
		CompanyID: company.ID,
		AlertType: entity.AlertTypeNewsEvent,
		Severity:  entity.SeverityLow,
		Title:     "old",
		Message:   "old",
		CreatedAt: t0.Add(-10 * 24 * time.Hour),
		ExpiresAt: t0.Add(-3 * 24 * time.Hour),
	}
	require.NoError(t, alertRepo.Create(ctx, expired))

	companies := NewCompanyService(companyRepo, new(mockFinancialRepo), logger.NewNop())
	svc := NewAlertService(companies, alertRepo, logger.NewNop(), fixedNow)

	read, err := svc.MarkRead(ctx, alert.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	read, err = svc.MarkRead(ctx, alert.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	acked, err := svc.Acknowledge(ctx, alert.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", *acked.AcknowledgedBy)

	acked, err = svc.Acknowledge(ctx, alert.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "alice", *acked.AcknowledgedBy, "first acknowledger wins")
	assert.Equal(t, entity.SeverityHigh, acked.Severity)

	_, err = svc.MarkRead(ctx, 9999)
	assert.True(t, apperr.IsNotFound(err))

	recent, err := svc.ForCompany(ctx, "acme", 7)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	deleted, err := svc.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Total)
	assert.Equal(t, int64(1), summary.Acknowledged)
}

func TestRetentionService_Sweep(t *testing.T) {
	db := repotest.NewDB(t)
	ctx := context.Background()
	company := &entity.Company{Ticker: "ACME", Name: "Acme Corp", IsActive: true}
	require.NoError(t, repository.NewCompanyRepository(db).Create(ctx, company))
	seedScores(t, db, company.ID, 50)
	require.NoError(t, repository.NewCreditScoreRepository(db).Create(ctx, &entity.CreditScore{
		CompanyID:    company.ID,
		OverallScore: 40,
		CalculatedAt: t0.AddDate(0, 0, -45),
	}))

	svc := NewRetentionService(repository.NewRetentionRepository(db), logger.NewNop(), 90, 30, fixedNow)
	res, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.CreditScores)
	assert.Equal(t, int64(0), res.FeatureSnapshots)
}

func TestJobRunService_Recent(t *testing.T) {
	db := repotest.NewDB(t)
	ctx := context.Background()
	repo := repository.NewJobRunRepository(db)
	run := &entity.JobRun{
		RunID:     "run-1",
		JobID:     "refresh_all",
		JobType:   entity.JobTypeRefreshAll,
		Subject:   "all",
		Status:    entity.StatusCompleted,
		StartedAt: t0,
	}
	run.CompletedAt.Time = t0.Add(time.Minute)
	run.CompletedAt.Valid = true
	require.NoError(t, repo.Create(ctx, run))

	svc := NewJobRunService(repo, logger.NewNop())
	runs, err := svc.Recent(ctx, "refresh_all", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, entity.StatusCompleted, runs[0].Status)
	require.NotNil(t, runs[0].CompletedAt)
	assert.True(t, runs[0].CompletedAt.Equal(t0.Add(time.Minute)))

	_, err = svc.Get(ctx, "missing")
	assert.True(t, apperr.IsNotFound(err))
}
