package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"credit-risk-monitor/internal/config"
	"credit-risk-monitor/internal/dto"
	"credit-risk-monitor/internal/entity"
	"credit-risk-monitor/internal/metrics"
	"credit-risk-monitor/internal/repository"
	"credit-risk-monitor/internal/service"
	"credit-risk-monitor/internal/strategy"
	"credit-risk-monitor/pkg/logger"
	"credit-risk-monitor/pkg/utils"

	"github.com/google/uuid"
)

// SchedulerService defines the interface of the refresh orchestrator.
type SchedulerService interface {
	Start(ctx context.Context)
	Stop()
	ProcessJobs(ctx context.Context)
	ScheduleRefresh(ticker string) string
	ComputeScore(ctx context.Context, ticker string) (*entity.CreditScore, error)
	Status() dto.SchedulerStatusResponse
	Pause()
	Resume()
}

// Params groups the collaborators of the orchestrator.
type Params struct {
	Config     config.Scheduler
	Logger     *logger.Logger
	RunRepo    repository.JobRunRepository
	Runner     service.RefreshRunner
	Strategies []strategy.JobExecutionStrategy
	Metrics    *metrics.Registry
	Clock      Clock
}

// NewSchedulerService creates the orchestrator with the default job table.
// Jobs are armed by Start.
func NewSchedulerService(p Params) SchedulerService {
	if p.Clock == nil {
		p.Clock = NewRealClock()
	}
	if p.Metrics == nil {
		p.Metrics = metrics.NewRegistry()
	}

	strategyMap := make(map[entity.JobType]strategy.JobExecutionStrategy)
	for _, s := range p.Strategies {
		strategyMap[s.GetType()] = s
	}

	jobs := make(map[string]*ScheduledJob)
	for _, j := range defaultJobs(p.Config) {
		jobs[j.ID] = j
	}

	return &schedulerService{
		logger:          p.Logger,
		runRepo:         p.RunRepo,
		runner:          p.Runner,
		strategies:      strategyMap,
		metrics:         p.Metrics,
		clock:           p.Clock,
		pollingInterval: config.MustDuration(p.Config.PollingInterval),
		jobs:            jobs,
		wake:            make(chan struct{}, 1),
	}
}

type schedulerService struct {
	logger          *logger.Logger
	runRepo         repository.JobRunRepository
	runner          service.RefreshRunner
	strategies      map[entity.JobType]strategy.JobExecutionStrategy
	metrics         *metrics.Registry
	clock           Clock
	pollingInterval time.Duration

	mu      sync.Mutex
	jobs    map[string]*ScheduledJob
	running bool
	paused  bool
	cancel  context.CancelFunc
	loop    sync.WaitGroup
	runs    sync.WaitGroup
	wake    chan struct{}
}

// Start arms every job and runs the polling loop until ctx is done or Stop
// is called. Calling Start on a running orchestrator is a no-op.
func (s *schedulerService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.armLocked()
	jobCount := len(s.jobs)
	s.loop.Add(1)
	s.mu.Unlock()

	defer s.loop.Done()
	s.logger.Info("Scheduler service started", logger.IntField("job_count", jobCount), logger.Field("polling_interval", s.pollingInterval))

	ticker := time.NewTicker(s.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			s.logger.Info("Scheduler service stopping")
			return
		case <-ticker.C:
			s.ProcessJobs(ctx)
		case <-s.wake:
			s.ProcessJobs(ctx)
		}
	}
}

// armLocked computes the first fire time of every job not armed yet.
func (s *schedulerService) armLocked() {
	now := s.clock.Now()
	for _, j := range s.jobs {
		if j.NextFire.IsZero() {
			j.NextFire = j.Trigger.Next(now)
		}
	}
}

// Stop cancels the polling loop and in-flight job runs and waits for them.
func (s *schedulerService) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.loop.Wait()
	s.runs.Wait()
}

// ProcessJobs dispatches every due job that is not already running. Periodic
// jobs are re-armed at dispatch; one-shot jobs are removed once they finish.
func (s *schedulerService) ProcessJobs(ctx context.Context) {
	s.mu.Lock()
	if s.paused {
		s.mu.Unlock()
		return
	}

	now := s.clock.Now()
	var due []*ScheduledJob
	for _, j := range s.jobs {
		if !j.due(now) {
			continue
		}
		j.InFlight = true
		j.LastFire = now
		j.NextFire = j.Trigger.Next(now)
		due = append(due, j)
	}
	s.mu.Unlock()

	for _, j := range due {
		job := j.Job
		s.runs.Add(1)
		utils.GoSafe(func() {
			defer s.runs.Done()
			defer s.finish(job.ID)
			_, _ = s.track(ctx, job, func(ctx context.Context) (string, error) {
				return s.dispatch(ctx, &job)
			})
		})
	}
}

func (s *schedulerService) finish(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return
	}
	j.InFlight = false
	if j.Kind == KindOneShot && j.NextFire.IsZero() {
		delete(s.jobs, jobID)
	}
}

func (s *schedulerService) dispatch(ctx context.Context, job *entity.Job) (string, error) {
	st, ok := s.strategies[job.Type]
	if !ok {
		return "", fmt.Errorf("no executor strategy found for job type: %s", job.Type)
	}
	return st.Execute(ctx, job)
}

// track records a JobRun around fn.
func (s *schedulerService) track(ctx context.Context, job entity.Job, fn func(ctx context.Context) (string, error)) (string, error) {
	run := &entity.JobRun{
		RunID:     uuid.NewString(),
		JobID:     job.ID,
		JobType:   job.Type,
		Subject:   job.Subject,
		Status:    entity.StatusRunning,
		StartedAt: s.clock.Now(),
	}
	ctx = logger.WithRunID(ctx, run.RunID)

	if err := s.runRepo.Create(ctx, run); err != nil {
		s.logger.ErrorContext(ctx, "Failed to create job run", logger.ErrorField(err), logger.StringField("job_id", job.ID))
	}

	output, err := fn(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Job execution failed", logger.ErrorField(err), logger.StringField("job_id", job.ID))
		run.Status = entity.StatusFailed
		run.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
	} else {
		s.logger.InfoContext(ctx, "Job executed successfully", logger.StringField("job_id", job.ID))
		run.Status = entity.StatusCompleted
	}
	if output != "" {
		run.Output = sql.NullString{String: output, Valid: true}
	}
	run.CompletedAt.Time = s.clock.Now()
	run.CompletedAt.Valid = true

	// the job context may be cancelled by now, the history row is still written
	if err := s.runRepo.Update(context.WithoutCancel(ctx), run); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update job run", logger.ErrorField(err), logger.StringField("run_id", run.RunID))
	}
	s.metrics.RecordJobRun(string(job.Type), string(run.Status))
	return output, err
}

// ScheduleRefresh registers a one-shot refresh for ticker that fires on the
// next poll and returns its job id. A refresh already pending for ticker is
// reused.
func (s *schedulerService) ScheduleRefresh(ticker string) string {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	id := refreshJobPrefix + ticker

	s.mu.Lock()
	if existing, ok := s.jobs[id]; ok && (existing.InFlight || !existing.NextFire.IsZero()) {
		if existing.InFlight && existing.NextFire.IsZero() {
			// running already, fire once more after it finishes
			existing.NextFire = s.clock.Now()
			existing.Trigger = OneShot(existing.NextFire)
		}
		s.mu.Unlock()
		s.notify()
		return id
	}

	now := s.clock.Now()
	s.jobs[id] = &ScheduledJob{
		Job:      entity.Job{ID: id, Name: "Refresh " + ticker, Type: entity.JobTypeRefreshEntity, Subject: ticker},
		Kind:     KindOneShot,
		Trigger:  OneShot(now),
		NextFire: now,
	}
	s.mu.Unlock()

	s.logger.Info("Ad-hoc refresh scheduled", logger.StringField("ticker", ticker), logger.StringField("job_id", id))
	s.notify()
	return id
}

func (s *schedulerService) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// ComputeScore runs a fetch cycle for ticker synchronously and returns the
// new score. It fails with apperr.ErrRefreshInProgress when a cycle for
// ticker is already running.
func (s *schedulerService) ComputeScore(ctx context.Context, ticker string) (*entity.CreditScore, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	job := entity.Job{ID: "compute_" + ticker, Name: "Compute score " + ticker, Type: entity.JobTypeRefreshEntity, Subject: ticker}

	var result *service.RefreshResult
	_, err := s.track(ctx, job, func(ctx context.Context) (string, error) {
		res, err := s.runner.RunNow(ctx, ticker, service.ModeFetch)
		if err != nil {
			return "", err
		}
		result = res
		return fmt.Sprintf(`{"ticker":%q,"overall_score":%.4f,"alerts":%d}`, res.Ticker, res.Score.OverallScore, len(res.Alerts)), nil
	})
	if err != nil {
		return nil, err
	}
	return result.Score, nil
}

// Status returns a snapshot of the job table ordered by next fire time.
func (s *schedulerService) Status() dto.SchedulerStatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := dto.SchedulerStatusResponse{
		Running:  s.running,
		Paused:   s.paused,
		JobCount: len(s.jobs),
		Jobs:     make([]dto.JobStatusResponse, 0, len(s.jobs)),
	}
	for _, j := range s.jobs {
		item := dto.JobStatusResponse{
			ID:       j.ID,
			Name:     j.Name,
			Type:     j.Type,
			Subject:  j.Subject,
			Kind:     string(j.Kind),
			Trigger:  j.Trigger.String(),
			InFlight: j.InFlight,
		}
		if !j.NextFire.IsZero() {
			item.NextRunTime = utils.ToPointer(j.NextFire)
		}
		if !j.LastFire.IsZero() {
			item.LastRunTime = utils.ToPointer(j.LastFire)
		}
		resp.Jobs = append(resp.Jobs, item)
	}

	sort.Slice(resp.Jobs, func(a, b int) bool {
		na, nb := resp.Jobs[a].NextRunTime, resp.Jobs[b].NextRunTime
		switch {
		case na == nil && nb == nil:
			return resp.Jobs[a].ID < resp.Jobs[b].ID
		case na == nil:
			return false
		case nb == nil:
			return true
		case na.Equal(*nb):
			return resp.Jobs[a].ID < resp.Jobs[b].ID
		default:
			return na.Before(*nb)
		}
	})
	return resp
}

// Pause stops dispatching; overdue jobs fire once on the first poll after Resume.
func (s *schedulerService) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
	s.logger.Info("Scheduler paused")
}

func (s *schedulerService) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
	s.logger.Info("Scheduler resumed")
	s.notify()
}
