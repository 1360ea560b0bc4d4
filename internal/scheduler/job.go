package scheduler

import (
	"time"

	"credit-risk-monitor/internal/config"
	"credit-risk-monitor/internal/entity"
)

// JobKind groups jobs by how they are armed.
type JobKind string

const (
	KindPeriodic    JobKind = "periodic"
	KindMaintenance JobKind = "maintenance"
	KindOneShot     JobKind = "one_shot"
)

// Default job ids.
const (
	JobDataRefresh      = "data_refresh"
	JobScoreComputation = "score_computation"
	JobAlertCleanup     = "alert_cleanup"
	JobDailyMaintenance = "daily_maintenance"

	refreshJobPrefix = "refresh_"
)

// ScheduledJob is an entry of the orchestrator job table.
type ScheduledJob struct {
	entity.Job
	Kind     JobKind
	Trigger  Trigger
	NextFire time.Time
	LastFire time.Time
	InFlight bool
}

func (j *ScheduledJob) due(now time.Time) bool {
	return !j.InFlight && !j.NextFire.IsZero() && !j.NextFire.After(now)
}

// defaultJobs builds the periodic and maintenance jobs from configuration.
// Validate has already checked every value used here.
func defaultJobs(cfg config.Scheduler) []*ScheduledJob {
	hour, minute, _ := config.ParseTimeOfDay(cfg.MaintenanceTime)
	return []*ScheduledJob{
		{
			Job:     entity.Job{ID: JobDataRefresh, Name: "Refresh financial data and news", Type: entity.JobTypeRefreshAll, Subject: "all"},
			Kind:    KindPeriodic,
			Trigger: Interval(config.MustDuration(cfg.RefreshInterval)),
		},
		{
			Job:     entity.Job{ID: JobScoreComputation, Name: "Recompute credit scores", Type: entity.JobTypeScoreAll, Subject: "all"},
			Kind:    KindPeriodic,
			Trigger: Interval(config.MustDuration(cfg.ScoreInterval)),
		},
		{
			Job:     entity.Job{ID: JobAlertCleanup, Name: "Delete expired alerts", Type: entity.JobTypeAlertCleanup, Subject: "all"},
			Kind:    KindMaintenance,
			Trigger: Interval(config.MustDuration(cfg.AlertCleanupInterval)),
		},
		{
			Job:     entity.Job{ID: JobDailyMaintenance, Name: "Prune aged history", Type: entity.JobTypeDailyMaintenance, Subject: "all"},
			Kind:    KindMaintenance,
			Trigger: TimeOfDay(hour, minute),
		},
	}
}
