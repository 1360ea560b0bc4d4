package repository

import (
	"context"
	"errors"

	"credit-risk-monitor/internal/apperr"
	"credit-risk-monitor/internal/entity"

	"gorm.io/gorm"
)

// JobRunRepository defines the interface for job run history data operations.
type JobRunRepository interface {
	Create(ctx context.Context, run *entity.JobRun) error
	Update(ctx context.Context, run *entity.JobRun) error
	FindByRunID(ctx context.Context, runID string) (*entity.JobRun, error)
	FindRecent(ctx context.Context, jobID string, limit int) ([]entity.JobRun, error)
}

// NewJobRunRepository creates a new GORM-based job run repository.
func NewJobRunRepository(db *gorm.DB) JobRunRepository {
	return &jobRunRepository{db: db}
}

type jobRunRepository struct {
	db *gorm.DB
}

// Create creates a new job run record.
func (r *jobRunRepository) Create(ctx context.Context, run *entity.JobRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Update update job run record
func (r *jobRunRepository) Update(ctx context.Context, run *entity.JobRun) error {
	return r.db.WithContext(ctx).Updates(run).Error
}

// FindByRunID retrieves a job run by its run id.
func (r *jobRunRepository) FindByRunID(ctx context.Context, runID string) (*entity.JobRun, error) {
	var run entity.JobRun
	err := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NewNotFound("job run", runID)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// FindRecent retrieves the latest runs, optionally for one job only.
func (r *jobRunRepository) FindRecent(ctx context.Context, jobID string, limit int) ([]entity.JobRun, error) {
	var runs []entity.JobRun
	q := r.db.WithContext(ctx)
	if jobID != "" {
		q = q.Where("job_id = ?", jobID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Order("started_at desc, id desc").Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
