package repository

import (
	"context"
	"time"

	"credit-risk-monitor/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NewsSignalRepository defines the interface for news signal data operations.
type NewsSignalRepository interface {
	CreateIgnoreConflict(ctx context.Context, signals []entity.NewsSignal) ([]entity.NewsSignal, error)
	FindSince(ctx context.Context, companyID uint, since time.Time) ([]entity.NewsSignal, error)
	FindRecent(ctx context.Context, companyID uint, since time.Time, eventType string, limit int) ([]entity.NewsSignal, error)
}

// NewNewsSignalRepository creates a new GORM-based news signal repository.
func NewNewsSignalRepository(db *gorm.DB) NewsSignalRepository {
	return &newsSignalRepository{db: db}
}

type newsSignalRepository struct {
	db *gorm.DB
}

// CreateIgnoreConflict inserts signals whose hash_identifier is not stored yet
// and returns only the newly inserted ones.
func (r *newsSignalRepository) CreateIgnoreConflict(ctx context.Context, signals []entity.NewsSignal) ([]entity.NewsSignal, error) {
	var inserted []entity.NewsSignal
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range signals {
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "hash_identifier"}},
				DoNothing: true,
			}).Create(&signals[i])
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				inserted = append(inserted, signals[i])
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

// FindSince returns the company's signals published at or after since, newest first.
func (r *newsSignalRepository) FindSince(ctx context.Context, companyID uint, since time.Time) ([]entity.NewsSignal, error) {
	var signals []entity.NewsSignal
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND published_at >= ?", companyID, since).
		Order("published_at desc").
		Find(&signals).Error
	if err != nil {
		return nil, err
	}
	return signals, nil
}

// FindRecent is FindSince with an optional event type filter and a limit.
func (r *newsSignalRepository) FindRecent(ctx context.Context, companyID uint, since time.Time, eventType string, limit int) ([]entity.NewsSignal, error) {
	var signals []entity.NewsSignal
	q := r.db.WithContext(ctx).Where("company_id = ? AND published_at >= ?", companyID, since)
	if eventType != "" {
		q = q.Where("event_type = ?", eventType)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Order("published_at desc").Find(&signals).Error; err != nil {
		return nil, err
	}
	return signals, nil
}
