package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"credit-risk-monitor/internal/apperr"
	"credit-risk-monitor/internal/config"
	"credit-risk-monitor/internal/entity"
	"credit-risk-monitor/internal/metrics"
	"credit-risk-monitor/internal/repository"
	"credit-risk-monitor/internal/repository/repotest"
	"credit-risk-monitor/internal/service"
	"credit-risk-monitor/internal/strategy"
	"credit-risk-monitor/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeStrategy struct {
	typ    entity.JobType
	gate   chan struct{}
	err    error
	output string

	mu   sync.Mutex
	jobs []entity.Job
}

func (f *fakeStrategy) GetType() entity.JobType { return f.typ }

func (f *fakeStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	f.mu.Lock()
	f.jobs = append(f.jobs, *job)
	f.mu.Unlock()
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.output, f.err
}

func (f *fakeStrategy) calls() []entity.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.Job(nil), f.jobs...)
}

type mockRunner struct {
	mock.Mock
	service.RefreshRunner
}

func (m *mockRunner) RunNow(ctx context.Context, ticker string, mode service.RefreshMode) (*service.RefreshResult, error) {
	args := m.Called(ctx, ticker, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RefreshResult), args.Error(1)
}

type fixture struct {
	svc        *schedulerService
	clock      *fakeClock
	runs       repository.JobRunRepository
	runner     *mockRunner
	strategies map[entity.JobType]*fakeStrategy
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock:      &fakeClock{now: t0},
		runs:       repository.NewJobRunRepository(repotest.NewDB(t)),
		runner:     new(mockRunner),
		strategies: make(map[entity.JobType]*fakeStrategy),
	}
	var strategies []strategy.JobExecutionStrategy
	for _, typ := range []entity.JobType{
		entity.JobTypeRefreshAll,
		entity.JobTypeScoreAll,
		entity.JobTypeAlertCleanup,
		entity.JobTypeDailyMaintenance,
		entity.JobTypeRefreshEntity,
	} {
		s := &fakeStrategy{typ: typ, output: `{"ok":true}`}
		f.strategies[typ] = s
		strategies = append(strategies, s)
	}

	f.svc = NewSchedulerService(Params{
		Config: config.Scheduler{
			PollingInterval:      "1h",
			RefreshInterval:      "1800",
			ScoreInterval:        "1h",
			AlertCleanupInterval: "6h",
			MaintenanceTime:      "02:00",
		},
		Logger:     logger.NewNop(),
		RunRepo:    f.runs,
		Runner:     f.runner,
		Strategies: strategies,
		Metrics:    metrics.NewRegistry(),
		Clock:      f.clock,
	}).(*schedulerService)
	return f
}

func (f *fixture) arm() {
	f.svc.mu.Lock()
	f.svc.armLocked()
	f.svc.mu.Unlock()
}

func (f *fixture) tick(d time.Duration) {
	f.clock.Advance(d)
	f.svc.ProcessJobs(context.Background())
	f.svc.runs.Wait()
}

func (f *fixture) count(typ entity.JobType) int {
	return len(f.strategies[typ].calls())
}

func TestScheduler_DefaultJobsFireOnTheirTriggers(t *testing.T) {
	f := newFixture(t)
	f.arm()

	f.tick(0)
	assert.Equal(t, 0, f.count(entity.JobTypeRefreshAll))

	f.tick(30 * time.Minute)
	assert.Equal(t, 1, f.count(entity.JobTypeRefreshAll))
	assert.Equal(t, 0, f.count(entity.JobTypeScoreAll))

	f.tick(30 * time.Minute)
	assert.Equal(t, 2, f.count(entity.JobTypeRefreshAll))
	assert.Equal(t, 1, f.count(entity.JobTypeScoreAll))
	assert.Equal(t, 0, f.count(entity.JobTypeDailyMaintenance))

	// 10:30 -> 02:00 next day
	f.tick(15*time.Hour + 30*time.Minute)
	assert.Equal(t, 1, f.count(entity.JobTypeDailyMaintenance))
	assert.Equal(t, 1, f.count(entity.JobTypeAlertCleanup), "overdue jobs fire once, not once per missed period")
	assert.Equal(t, 3, f.count(entity.JobTypeRefreshAll))
}

func TestScheduler_InFlightJobIsNotDispatchedTwice(t *testing.T) {
	f := newFixture(t)
	gate := make(chan struct{})
	f.strategies[entity.JobTypeRefreshAll].gate = gate
	f.arm()

	f.clock.Advance(30 * time.Minute)
	f.svc.ProcessJobs(context.Background())
	require.Eventually(t, func() bool { return f.count(entity.JobTypeRefreshAll) == 1 }, time.Second, 5*time.Millisecond)

	f.clock.Advance(30 * time.Minute)
	f.svc.ProcessJobs(context.Background())
	assert.Equal(t, 1, f.count(entity.JobTypeRefreshAll))

	status := f.svc.Status()
	for _, j := range status.Jobs {
		if j.ID == JobDataRefresh {
			assert.True(t, j.InFlight)
		}
	}

	close(gate)
	f.svc.runs.Wait()
	f.tick(0)
	assert.Equal(t, 2, f.count(entity.JobTypeRefreshAll))
}

func TestScheduler_JobRunsAreRecorded(t *testing.T) {
	f := newFixture(t)
	f.strategies[entity.JobTypeScoreAll].err = errors.New("all 2 refreshes failed")
	f.arm()

	f.tick(time.Hour)

	runs, err := f.runs.FindRecent(context.Background(), JobDataRefresh, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, entity.StatusCompleted, runs[0].Status)
	assert.Equal(t, `{"ok":true}`, runs[0].Output.String)
	assert.True(t, runs[0].CompletedAt.Valid)

	runs, err = f.runs.FindRecent(context.Background(), JobScoreComputation, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, entity.StatusFailed, runs[0].Status)
	assert.Equal(t, "all 2 refreshes failed", runs[0].ErrorMessage.String)
}

func TestScheduler_ScheduleRefreshRunsOnceAndIsRemoved(t *testing.T) {
	f := newFixture(t)
	f.arm()

	id := f.svc.ScheduleRefresh("aapl")
	assert.Equal(t, "refresh_AAPL", id)
	assert.Equal(t, id, f.svc.ScheduleRefresh("AAPL"), "pending refresh is reused")
	assert.Equal(t, 5, f.svc.Status().JobCount)

	f.tick(0)
	calls := f.strategies[entity.JobTypeRefreshEntity].calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "AAPL", calls[0].Subject)
	assert.Equal(t, 4, f.svc.Status().JobCount)

	f.tick(time.Minute)
	assert.Len(t, f.strategies[entity.JobTypeRefreshEntity].calls(), 1)
}

func TestScheduler_ScheduleRefreshWhileRunningFiresAgain(t *testing.T) {
	f := newFixture(t)
	gate := make(chan struct{})
	f.strategies[entity.JobTypeRefreshEntity].gate = gate

	f.svc.ScheduleRefresh("AAPL")
	f.svc.ProcessJobs(context.Background())
	require.Eventually(t, func() bool { return f.count(entity.JobTypeRefreshEntity) == 1 }, time.Second, 5*time.Millisecond)

	f.svc.ScheduleRefresh("AAPL")
	close(gate)
	f.svc.runs.Wait()

	f.tick(0)
	assert.Equal(t, 2, f.count(entity.JobTypeRefreshEntity))
	f.tick(time.Minute)
	assert.Equal(t, 2, f.count(entity.JobTypeRefreshEntity))
}

func TestScheduler_PauseAndResume(t *testing.T) {
	f := newFixture(t)
	f.arm()

	f.svc.Pause()
	f.tick(30 * time.Minute)
	assert.Equal(t, 0, f.count(entity.JobTypeRefreshAll))
	assert.True(t, f.svc.Status().Paused)

	f.svc.Resume()
	f.tick(0)
	assert.Equal(t, 1, f.count(entity.JobTypeRefreshAll))
}

func TestScheduler_ComputeScore(t *testing.T) {
	f := newFixture(t)
	f.runner.On("RunNow", mock.Anything, "AAPL", service.ModeFetch).Return(&service.RefreshResult{
		Ticker: "AAPL",
		Score:  &entity.CreditScore{OverallScore: 64.2},
	}, nil).Once()
	f.runner.On("RunNow", mock.Anything, "MSFT", service.ModeFetch).Return(nil, apperr.ErrRefreshInProgress).Once()

	score, err := f.svc.ComputeScore(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, 64.2, score.OverallScore)

	_, err = f.svc.ComputeScore(context.Background(), "MSFT")
	assert.ErrorIs(t, err, apperr.ErrRefreshInProgress)

	runs, err := f.runs.FindRecent(context.Background(), "compute_AAPL", 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, entity.StatusCompleted, runs[0].Status)
	assert.Contains(t, runs[0].Output.String, `"overall_score":64.2000`)
}

func TestScheduler_StatusOrdersByNextRun(t *testing.T) {
	f := newFixture(t)
	f.arm()

	status := f.svc.Status()
	require.Equal(t, 4, status.JobCount)
	assert.Equal(t, JobDataRefresh, status.Jobs[0].ID)
	assert.Equal(t, JobScoreComputation, status.Jobs[1].ID)
	assert.Equal(t, JobAlertCleanup, status.Jobs[2].ID)
	assert.Equal(t, JobDailyMaintenance, status.Jobs[3].ID)
	assert.Equal(t, "time_of_day[02:00]", status.Jobs[3].Trigger)
	assert.True(t, status.Jobs[3].NextRunTime.Equal(time.Date(2025, 3, 15, 2, 0, 0, 0, time.UTC)))
}

func TestScheduler_StartAndStop(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		f.svc.Start(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return f.svc.Status().Running }, time.Second, 5*time.Millisecond)

	f.svc.ScheduleRefresh("AAPL")
	require.Eventually(t, func() bool { return f.count(entity.JobTypeRefreshEntity) == 1 }, time.Second, 5*time.Millisecond)

	f.svc.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
	assert.False(t, f.svc.Status().Running)
}
