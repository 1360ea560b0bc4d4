package entity

import (
	"database/sql"
	"time"
)

// JobType identifies which strategy executes a scheduled job.
type JobType string

const (
	JobTypeRefreshAll       JobType = "refresh_all"
	JobTypeScoreAll         JobType = "score_all"
	JobTypeAlertCleanup     JobType = "alert_cleanup"
	JobTypeDailyMaintenance JobType = "daily_maintenance"
	JobTypeRefreshEntity    JobType = "refresh_entity"
)

// JobStatus is the outcome of a job run.
type JobStatus string

const (
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job is what a strategy receives when the orchestrator fires a scheduled job.
type Job struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Type    JobType `json:"type"`
	Subject string  `json:"subject"` // "all" or a ticker
}

// JobRun is the execution history of a single job firing.
type JobRun struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	RunID        string         `gorm:"uniqueIndex;not null" json:"run_id"`
	JobID        string         `gorm:"index;not null" json:"job_id"`
	JobType      JobType        `gorm:"type:varchar(32);not null" json:"job_type"`
	Subject      string         `json:"subject"`
	Status       JobStatus      `gorm:"type:varchar(16);not null" json:"status"`
	StartedAt    time.Time      `gorm:"index;not null" json:"started_at"`
	CompletedAt  sql.NullTime   `json:"completed_at"`
	Output       sql.NullString `json:"output"`
	ErrorMessage sql.NullString `json:"error_message"`
}

// TableName specifies the table name for the JobRun model.
func (JobRun) TableName() string {
	return "job_runs"
}
