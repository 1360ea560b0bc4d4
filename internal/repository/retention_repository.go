package repository

import (
	"context"
	"time"

	"credit-risk-monitor/internal/entity"

	"gorm.io/gorm"
)

// RetentionResult reports how many rows a sweep removed.
type RetentionResult struct {
	FeatureSnapshots int64 `json:"feature_snapshots"`
	NewsSignals      int64 `json:"news_signals"`
	CreditScores     int64 `json:"credit_scores"`
}

// RetentionRepository deletes aged history.
type RetentionRepository interface {
	Sweep(ctx context.Context, featureCutoff, scoreCutoff time.Time) (*RetentionResult, error)
}

// NewRetentionRepository creates a new GORM-based retention repository.
func NewRetentionRepository(db *gorm.DB) RetentionRepository {
	return &retentionRepository{db: db}
}

type retentionRepository struct {
	db *gorm.DB
}

// Sweep deletes snapshots and news older than featureCutoff and scores older
// than scoreCutoff in a single transaction.
func (r *retentionRepository) Sweep(ctx context.Context, featureCutoff, scoreCutoff time.Time) (*RetentionResult, error) {
	result := &RetentionResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("captured_at < ?", featureCutoff).Delete(&entity.FeatureSnapshot{})
		if res.Error != nil {
			return res.Error
		}
		result.FeatureSnapshots = res.RowsAffected

		res = tx.Where("published_at < ?", featureCutoff).Delete(&entity.NewsSignal{})
		if res.Error != nil {
			return res.Error
		}
		result.NewsSignals = res.RowsAffected

		res = tx.Where("calculated_at < ?", scoreCutoff).Delete(&entity.CreditScore{})
		if res.Error != nil {
			return res.Error
		}
		result.CreditScores = res.RowsAffected
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
