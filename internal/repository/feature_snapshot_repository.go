package repository

import (
	"context"
	"errors"
	"fmt"

	"credit-risk-monitor/internal/entity"

	"gorm.io/gorm"
)

// ErrSnapshotOutOfOrder is returned when a snapshot is older than the latest stored one.
var ErrSnapshotOutOfOrder = errors.New("feature snapshot older than latest stored snapshot")

// FeatureSnapshotRepository defines the interface for feature snapshot data operations.
type FeatureSnapshotRepository interface {
	Create(ctx context.Context, snapshot *entity.FeatureSnapshot) error
	FindLatest(ctx context.Context, companyID uint) (*entity.FeatureSnapshot, error)
}

// NewFeatureSnapshotRepository creates a new GORM-based feature snapshot repository.
func NewFeatureSnapshotRepository(db *gorm.DB) FeatureSnapshotRepository {
	return &featureSnapshotRepository{db: db}
}

type featureSnapshotRepository struct {
	db *gorm.DB
}

// Create appends a snapshot, keeping captured_at monotonic per company.
func (r *featureSnapshotRepository) Create(ctx context.Context, snapshot *entity.FeatureSnapshot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest entity.FeatureSnapshot
		err := tx.Where("company_id = ?", snapshot.CompanyID).Order("captured_at desc").Limit(1).Find(&latest).Error
		if err != nil {
			return err
		}
		if latest.ID != 0 && snapshot.CapturedAt.Before(latest.CapturedAt) {
			return fmt.Errorf("%w: %s < %s", ErrSnapshotOutOfOrder, snapshot.CapturedAt, latest.CapturedAt)
		}
		return tx.Create(snapshot).Error
	})
}

// FindLatest returns the newest snapshot, or nil when the company has none.
func (r *featureSnapshotRepository) FindLatest(ctx context.Context, companyID uint) (*entity.FeatureSnapshot, error) {
	var snapshot entity.FeatureSnapshot
	err := r.db.WithContext(ctx).Where("company_id = ?", companyID).Order("captured_at desc").Limit(1).Find(&snapshot).Error
	if err != nil {
		return nil, err
	}
	if snapshot.ID == 0 {
		return nil, nil
	}
	return &snapshot, nil
}
