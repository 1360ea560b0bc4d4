package service

import (
	"context"

	"credit-risk-monitor/internal/dto"
	"credit-risk-monitor/internal/entity"
	"credit-risk-monitor/internal/repository"
	"credit-risk-monitor/pkg/logger"
)

// JobRunService exposes the execution history of scheduled jobs.
type JobRunService interface {
	Recent(ctx context.Context, jobID string, limit int) ([]dto.JobRunResponse, error)
	Get(ctx context.Context, runID string) (*dto.JobRunResponse, error)
}

// NewJobRunService creates a new job run history service.
func NewJobRunService(runRepo repository.JobRunRepository, log *logger.Logger) JobRunService {
	return &jobRunService{runRepo: runRepo, logger: log}
}

type jobRunService struct {
	runRepo repository.JobRunRepository
	logger  *logger.Logger
}

// Recent retrieves the latest runs, optionally for one job.
func (s *jobRunService) Recent(ctx context.Context, jobID string, limit int) ([]dto.JobRunResponse, error) {
	if limit <= 0 {
		limit = 50
	}
	runs, err := s.runRepo.FindRecent(ctx, jobID, limit)
	if err != nil {
		s.logger.Error("Failed to get job runs", logger.ErrorField(err), logger.StringField("job_id", jobID))
		return nil, err
	}

	responses := make([]dto.JobRunResponse, 0, len(runs))
	for i := range runs {
		responses = append(responses, mapToJobRunResponse(&runs[i]))
	}
	return responses, nil
}

// Get retrieves a single run by its run id.
func (s *jobRunService) Get(ctx context.Context, runID string) (*dto.JobRunResponse, error) {
	run, err := s.runRepo.FindByRunID(ctx, runID)
	if err != nil {
		s.logger.Error("Failed to find job run", logger.ErrorField(err), logger.StringField("run_id", runID))
		return nil, err
	}
	resp := mapToJobRunResponse(run)
	return &resp, nil
}

func mapToJobRunResponse(run *entity.JobRun) dto.JobRunResponse {
	resp := dto.JobRunResponse{
		RunID:        run.RunID,
		JobID:        run.JobID,
		JobType:      run.JobType,
		Subject:      run.Subject,
		Status:       run.Status,
		StartedAt:    run.StartedAt,
		Output:       run.Output.String,
		ErrorMessage: run.ErrorMessage.String,
	}
	if run.CompletedAt.Valid {
		completed := run.CompletedAt.Time
		resp.CompletedAt = &completed
	}
	return resp
}
