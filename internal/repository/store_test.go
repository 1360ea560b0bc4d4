package repository

import (
	"context"
	"testing"
	"time"

	"credit-risk-monitor/internal/apperr"
	"credit-risk-monitor/internal/entity"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var t0 = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func seedCompany(t *testing.T, db *gorm.DB, ticker string) *entity.Company {
	t.Helper()
	c := &entity.Company{Ticker: ticker, Name: ticker + " Inc", Sector: "Technology", IsActive: true}
	require.NoError(t, NewCompanyRepository(db).Create(context.Background(), c))
	return c
}

func TestCompanyRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewCompanyRepository(db)
	ctx := context.Background()

	c := &entity.Company{Ticker: "aapl", Name: "Apple Inc", IsActive: true}
	require.NoError(t, repo.Create(ctx, c))
	assert.Equal(t, "AAPL", c.Ticker)

	found, err := repo.FindActiveByTicker(ctx, "aapl")
	require.NoError(t, err)
	assert.Equal(t, c.ID, found.ID)

	found.IsActive = false
	require.NoError(t, repo.Update(ctx, found))

	_, err = repo.FindActiveByTicker(ctx, "AAPL")
	assert.True(t, apperr.IsNotFound(err))

	inactive, err := repo.FindByTicker(ctx, "AAPL")
	require.NoError(t, err)
	assert.False(t, inactive.IsActive)

	active, err := repo.FindActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = repo.FindByTicker(ctx, "MSFT")
	assert.True(t, apperr.IsNotFound(err))
}

func TestFeatureSnapshotRepository_MonotonicCapture(t *testing.T) {
	db := newTestDB(t)
	c := seedCompany(t, db, "ACME")
	repo := NewFeatureSnapshotRepository(db)
	ctx := context.Background()

	latest, err := repo.FindLatest(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	de := 0.8
	require.NoError(t, repo.Create(ctx, &entity.FeatureSnapshot{CompanyID: c.ID, DebtToEquity: &de, CapturedAt: t0}))
	require.NoError(t, repo.Create(ctx, &entity.FeatureSnapshot{CompanyID: c.ID, CapturedAt: t0.Add(time.Hour)}))

	err = repo.Create(ctx, &entity.FeatureSnapshot{CompanyID: c.ID, CapturedAt: t0.Add(-time.Hour)})
	assert.ErrorIs(t, err, ErrSnapshotOutOfOrder)

	latest, err = repo.FindLatest(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.CapturedAt.Equal(t0.Add(time.Hour)))
	assert.Nil(t, latest.DebtToEquity)
}

func TestNewsSignalRepository_IgnoresDuplicates(t *testing.T) {
	db := newTestDB(t)
	c := seedCompany(t, db, "ACME")
	repo := NewNewsSignalRepository(db)
	ctx := context.Background()

	signal := func(hash string, published time.Time) entity.NewsSignal {
		return entity.NewsSignal{
			CompanyID:      c.ID,
			Headline:       "headline " + hash,
			PublishedAt:    published,
			SentimentScore: -0.4,
			EventType:      entity.EventLegal,
			Keywords:       pq.StringArray{"lawsuit"},
			RiskScore:      0.8,
			HashIdentifier: hash,
		}
	}

	inserted, err := repo.CreateIgnoreConflict(ctx, []entity.NewsSignal{signal("a", t0), signal("b", t0.Add(-48*time.Hour))})
	require.NoError(t, err)
	assert.Len(t, inserted, 2)

	inserted, err = repo.CreateIgnoreConflict(ctx, []entity.NewsSignal{signal("a", t0), signal("c", t0.Add(time.Hour))})
	require.NoError(t, err)
	require.Len(t, inserted, 1)
	assert.Equal(t, "c", inserted[0].HashIdentifier)

	recent, err := repo.FindSince(ctx, c.ID, t0.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].HashIdentifier)
	assert.Equal(t, pq.StringArray{"lawsuit"}, recent[0].Keywords)

	legal, err := repo.FindRecent(ctx, c.ID, t0.Add(-72*time.Hour), string(entity.EventLegal), 1)
	require.NoError(t, err)
	assert.Len(t, legal, 1)
}

func TestCreditScoreRepository_HistoryAndLeaderboard(t *testing.T) {
	db := newTestDB(t)
	acme := seedCompany(t, db, "ACME")
	beta := seedCompany(t, db, "BETA")
	repo := NewCreditScoreRepository(db)
	ctx := context.Background()

	latest, err := repo.FindLatest(ctx, acme.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	for i, s := range []float64{60, 65, 70} {
		require.NoError(t, repo.Create(ctx, &entity.CreditScore{
			CompanyID:         acme.ID,
			OverallScore:      s,
			TrendDirection:    entity.TrendStable,
			KeyFactors:        pq.StringArray{},
			FeatureImportance: datatypes.NewJSONType(entity.FeatureImportance{DebtToEquity: 2}),
			CalculatedAt:      t0.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, repo.Create(ctx, &entity.CreditScore{CompanyID: beta.ID, OverallScore: 40, CalculatedAt: t0}))

	history, err := repo.LoadScoreHistory(ctx, acme.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{70, 65}, history)

	latest, err = repo.FindLatest(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, 70.0, latest.OverallScore)
	assert.Equal(t, 2.0, latest.FeatureImportance.Data().DebtToEquity)

	since, err := repo.FindSince(ctx, acme.ID, t0.Add(30*time.Minute))
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.Equal(t, 65.0, since[0].OverallScore)

	board, err := repo.Leaderboard(ctx, 10, false)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "ACME", board[0].Ticker)
	assert.Equal(t, 70.0, board[0].OverallScore)
	assert.Equal(t, "BETA", board[1].Ticker)

	board, err = repo.Leaderboard(ctx, 1, true)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, "BETA", board[0].Ticker)
}

func TestCreditScoreRepository_LeaderboardBreaksTimestampTies(t *testing.T) {
	db := newTestDB(t)
	acme := seedCompany(t, db, "ACME")
	repo := NewCreditScoreRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entity.CreditScore{CompanyID: acme.ID, OverallScore: 40, CalculatedAt: t0}))
	require.NoError(t, repo.Create(ctx, &entity.CreditScore{CompanyID: acme.ID, OverallScore: 45, CalculatedAt: t0}))

	board, err := repo.Leaderboard(ctx, 10, false)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, 45.0, board[0].OverallScore)

	latest, err := repo.FindLatest(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, latest.OverallScore, board[0].OverallScore)
}

func newAlert(companyID uint, sev entity.Severity, created time.Time) *entity.Alert {
	return &entity.Alert{
		CompanyID:      companyID,
		AlertType:      entity.AlertTypeScoreChange,
		Severity:       sev,
		Title:          "Credit Score Decrease",
		Message:        "changed",
		TriggerValue:   -25,
		ThresholdValue: 20,
		Context:        datatypes.NewJSONType(entity.AlertContext{ChangeDirection: "decrease", ChangeMagnitude: 25}),
		RelatedEvents:  datatypes.NewJSONType([]entity.RelatedEvent{}),
		CreatedAt:      created,
		ExpiresAt:      created.Add(7 * 24 * time.Hour),
	}
}

func TestAlertRepository_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	c := seedCompany(t, db, "ACME")
	repo := NewAlertRepository(db)
	ctx := context.Background()

	a := newAlert(c.ID, entity.SeverityHigh, t0)
	require.NoError(t, repo.Create(ctx, a))

	changed, err := repo.MarkRead(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = repo.MarkRead(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = repo.Acknowledge(ctx, a.ID, "alice", t0.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = repo.Acknowledge(ctx, a.ID, "bob", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)

	stored, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsRead)
	assert.True(t, stored.IsAcknowledged)
	assert.Equal(t, "alice", *stored.AcknowledgedBy)
	assert.Equal(t, entity.SeverityHigh, stored.Severity)
	assert.Equal(t, "decrease", stored.Context.Data().ChangeDirection)
	require.NotNil(t, stored.Company)
	assert.Equal(t, "ACME", stored.Company.Ticker)

	_, err = repo.FindByID(ctx, 999)
	assert.True(t, apperr.IsNotFound(err))
}

func TestAlertRepository_ListSummaryAndCleanup(t *testing.T) {
	db := newTestDB(t)
	acme := seedCompany(t, db, "ACME")
	beta := seedCompany(t, db, "BETA")
	repo := NewAlertRepository(db)
	ctx := context.Background()

	old := newAlert(acme.ID, entity.SeverityLow, t0.Add(-10*24*time.Hour))
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, newAlert(acme.ID, entity.SeverityCritical, t0.Add(-time.Hour))))
	news := newAlert(beta.ID, entity.SeverityHigh, t0.Add(-2*time.Hour))
	news.AlertType = entity.AlertTypeNewsEvent
	require.NoError(t, repo.Create(ctx, news))
	_, err := repo.MarkRead(ctx, news.ID)
	require.NoError(t, err)

	all, err := repo.List(ctx, AlertFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, entity.SeverityCritical, all[0].Severity)

	acmeOnly, err := repo.List(ctx, AlertFilter{Ticker: "acme"})
	require.NoError(t, err)
	assert.Len(t, acmeOnly, 2)

	unread, err := repo.List(ctx, AlertFilter{UnreadOnly: true, Severity: entity.SeverityCritical})
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	recent, err := repo.ListByCompany(ctx, acme.ID, t0.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	summary, err := repo.Summary(ctx, t0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.Total)
	assert.Equal(t, int64(2), summary.Unread)
	assert.Equal(t, int64(2), summary.Last24Hours)
	assert.Equal(t, int64(1), summary.BySeverity[entity.SeverityCritical])
	assert.Equal(t, int64(2), summary.ByType[entity.AlertTypeScoreChange])

	deleted, err := repo.DeleteExpired(ctx, t0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.FindByID(ctx, old.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestRetentionRepository_Sweep(t *testing.T) {
	db := newTestDB(t)
	c := seedCompany(t, db, "ACME")
	ctx := context.Background()

	snapshots := NewFeatureSnapshotRepository(db)
	require.NoError(t, snapshots.Create(ctx, &entity.FeatureSnapshot{CompanyID: c.ID, CapturedAt: t0.AddDate(0, 0, -100)}))
	require.NoError(t, snapshots.Create(ctx, &entity.FeatureSnapshot{CompanyID: c.ID, CapturedAt: t0.AddDate(0, 0, -1)}))

	_, err := NewNewsSignalRepository(db).CreateIgnoreConflict(ctx, []entity.NewsSignal{
		{CompanyID: c.ID, Headline: "old", PublishedAt: t0.AddDate(0, 0, -91), HashIdentifier: "old"},
		{CompanyID: c.ID, Headline: "new", PublishedAt: t0.AddDate(0, 0, -2), HashIdentifier: "new"},
	})
	require.NoError(t, err)

	scores := NewCreditScoreRepository(db)
	require.NoError(t, scores.Create(ctx, &entity.CreditScore{CompanyID: c.ID, OverallScore: 50, CalculatedAt: t0.AddDate(0, 0, -31)}))
	require.NoError(t, scores.Create(ctx, &entity.CreditScore{CompanyID: c.ID, OverallScore: 55, CalculatedAt: t0.AddDate(0, 0, -29)}))

	res, err := NewRetentionRepository(db).Sweep(ctx, t0.AddDate(0, 0, -90), t0.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, &RetentionResult{FeatureSnapshots: 1, NewsSignals: 1, CreditScores: 1}, res)

	history, err := scores.LoadScoreHistory(ctx, c.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, []float64{55}, history)
}

func TestRetentionRepository_SweepRollsBackOnFailure(t *testing.T) {
	db := newTestDB(t)
	c := seedCompany(t, db, "ACME")
	ctx := context.Background()

	require.NoError(t, NewFeatureSnapshotRepository(db).Create(ctx, &entity.FeatureSnapshot{CompanyID: c.ID, CapturedAt: t0.AddDate(0, 0, -100)}))
	_, err := NewNewsSignalRepository(db).CreateIgnoreConflict(ctx, []entity.NewsSignal{
		{CompanyID: c.ID, Headline: "old", PublishedAt: t0.AddDate(0, 0, -91), HashIdentifier: "old"},
	})
	require.NoError(t, err)
	require.NoError(t, NewCreditScoreRepository(db).Create(ctx, &entity.CreditScore{CompanyID: c.ID, OverallScore: 50, CalculatedAt: t0.AddDate(0, 0, -31)}))

	// The score delete runs last, so the earlier deletes must be undone.
	require.NoError(t, db.Exec(`CREATE TRIGGER credit_scores_locked BEFORE DELETE ON credit_scores
		BEGIN SELECT RAISE(ABORT, 'credit scores locked'); END`).Error)

	res, err := NewRetentionRepository(db).Sweep(ctx, t0.AddDate(0, 0, -90), t0.AddDate(0, 0, -30))
	require.Error(t, err)
	assert.Nil(t, res)

	var n int64
	require.NoError(t, db.Model(&entity.FeatureSnapshot{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
	require.NoError(t, db.Model(&entity.NewsSignal{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
	require.NoError(t, db.Model(&entity.CreditScore{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestJobRunRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRunRepository(db)
	ctx := context.Background()

	run := &entity.JobRun{RunID: "r-1", JobID: "data_refresh", JobType: entity.JobTypeRefreshAll, Subject: "all", Status: entity.StatusRunning, StartedAt: t0}
	require.NoError(t, repo.Create(ctx, run))
	require.NoError(t, repo.Create(ctx, &entity.JobRun{RunID: "r-2", JobID: "alert_cleanup", JobType: entity.JobTypeAlertCleanup, Status: entity.StatusRunning, StartedAt: t0.Add(time.Minute)}))

	run.Status = entity.StatusCompleted
	run.Output.String, run.Output.Valid = `{"succeeded":3}`, true
	require.NoError(t, repo.Update(ctx, run))

	stored, err := repo.FindByRunID(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, stored.Status)
	assert.Equal(t, `{"succeeded":3}`, stored.Output.String)

	runs, err := repo.FindRecent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r-2", runs[0].RunID)

	runs, err = repo.FindRecent(ctx, "data_refresh", 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
