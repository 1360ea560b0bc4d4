package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"credit-risk-monitor/internal/apperr"
	"credit-risk-monitor/internal/entity"

	"gorm.io/gorm"
)

// AlertFilter narrows an alert listing. Zero values mean no filter.
type AlertFilter struct {
	Ticker     string
	Severity   entity.Severity
	UnreadOnly bool
	Limit      int
}

// AlertSummary aggregates alert counts.
type AlertSummary struct {
	Total        int64                      `json:"total_alerts"`
	Unread       int64                      `json:"unread_alerts"`
	Last24Hours  int64                      `json:"recent_alerts_24h"`
	BySeverity   map[entity.Severity]int64  `json:"severity_breakdown"`
	ByType       map[entity.AlertType]int64 `json:"type_breakdown"`
	Acknowledged int64                      `json:"acknowledged_alerts"`
}

// AlertRepository defines the interface for alert data operations.
type AlertRepository interface {
	Create(ctx context.Context, alert *entity.Alert) error
	FindByID(ctx context.Context, id uint) (*entity.Alert, error)
	List(ctx context.Context, filter AlertFilter) ([]entity.Alert, error)
	ListByCompany(ctx context.Context, companyID uint, since time.Time) ([]entity.Alert, error)
	MarkRead(ctx context.Context, id uint) (bool, error)
	Acknowledge(ctx context.Context, id uint, by string, at time.Time) (bool, error)
	Summary(ctx context.Context, now time.Time) (*AlertSummary, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// NewAlertRepository creates a new GORM-based alert repository.
func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

type alertRepository struct {
	db *gorm.DB
}

func (r *alertRepository) Create(ctx context.Context, alert *entity.Alert) error {
	return r.db.WithContext(ctx).Omit("Company").Create(alert).Error
}

func (r *alertRepository) FindByID(ctx context.Context, id uint) (*entity.Alert, error) {
	var alert entity.Alert
	err := r.db.WithContext(ctx).Preload("Company").First(&alert, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NewNotFound("alert", strconv.FormatUint(uint64(id), 10))
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

// List returns alerts newest first.
func (r *alertRepository) List(ctx context.Context, filter AlertFilter) ([]entity.Alert, error) {
	q := r.db.WithContext(ctx).Preload("Company")
	if filter.Ticker != "" {
		q = q.Joins("JOIN companies ON companies.id = alerts.company_id").
			Where("companies.ticker = ?", strings.ToUpper(filter.Ticker))
	}
	if filter.Severity != "" {
		q = q.Where("alerts.severity = ?", filter.Severity)
	}
	if filter.UnreadOnly {
		q = q.Where("alerts.is_read = ?", false)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var alerts []entity.Alert
	if err := q.Order("alerts.created_at desc, alerts.id desc").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *alertRepository) ListByCompany(ctx context.Context, companyID uint, since time.Time) ([]entity.Alert, error) {
	var alerts []entity.Alert
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND created_at >= ?", companyID, since).
		Order("created_at desc, id desc").
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

// MarkRead flips is_read and reports whether the row changed.
func (r *alertRepository) MarkRead(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entity.Alert{}).
		Where("id = ? AND is_read = ?", id, false).
		Update("is_read", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Acknowledge sets the acknowledgement only if the alert is not acknowledged yet.
func (r *alertRepository) Acknowledge(ctx context.Context, id uint, by string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entity.Alert{}).
		Where("id = ? AND is_acknowledged = ?", id, false).
		Updates(map[string]interface{}{
			"is_acknowledged": true,
			"acknowledged_by": by,
			"acknowledged_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *alertRepository) Summary(ctx context.Context, now time.Time) (*AlertSummary, error) {
	db := r.db.WithContext(ctx)
	summary := &AlertSummary{
		BySeverity: make(map[entity.Severity]int64),
		ByType:     make(map[entity.AlertType]int64),
	}

	if err := db.Model(&entity.Alert{}).Count(&summary.Total).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Alert{}).Where("is_read = ?", false).Count(&summary.Unread).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Alert{}).Where("is_acknowledged = ?", true).Count(&summary.Acknowledged).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Alert{}).Where("created_at >= ?", now.Add(-24*time.Hour)).Count(&summary.Last24Hours).Error; err != nil {
		return nil, err
	}

	var bySeverity []struct {
		Severity entity.Severity
		Count    int64
	}
	if err := db.Model(&entity.Alert{}).Select("severity, count(*) AS count").Group("severity").Scan(&bySeverity).Error; err != nil {
		return nil, err
	}
	for _, row := range bySeverity {
		summary.BySeverity[row.Severity] = row.Count
	}

	var byType []struct {
		AlertType entity.AlertType
		Count     int64
	}
	if err := db.Model(&entity.Alert{}).Select("alert_type, count(*) AS count").Group("alert_type").Scan(&byType).Error; err != nil {
		return nil, err
	}
	for _, row := range byType {
		summary.ByType[row.AlertType] = row.Count
	}

	return summary, nil
}

// DeleteExpired removes alerts whose expires_at is before now.
func (r *alertRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&entity.Alert{})
	return res.RowsAffected, res.Error
}
