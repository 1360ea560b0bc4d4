package dto

import (
	"time"

	"credit-risk-monitor/internal/entity"
)

// JobStatusResponse describes one job of the orchestrator table.
type JobStatusResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        entity.JobType `json:"type"`
	Subject     string         `json:"subject"`
	Kind        string         `json:"kind"`
	Trigger     string         `json:"trigger"`
	NextRunTime *time.Time     `json:"next_run_time"`
	LastRunTime *time.Time     `json:"last_run_time"`
	InFlight    bool           `json:"in_flight"`
}

// SchedulerStatusResponse is the status snapshot of the orchestrator.
type SchedulerStatusResponse struct {
	Running  bool                `json:"running"`
	Paused   bool                `json:"paused"`
	JobCount int                 `json:"job_count"`
	Jobs     []JobStatusResponse `json:"jobs"`
}

// JobRunResponse represents one execution of a job.
type JobRunResponse struct {
	RunID        string           `json:"run_id"`
	JobID        string           `json:"job_id"`
	JobType      entity.JobType   `json:"job_type"`
	Subject      string           `json:"subject"`
	Status       entity.JobStatus `json:"status"`
	StartedAt    time.Time        `json:"started_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	Output       string           `json:"output,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
}
