package service

import (
	"context"
	"time"

	"credit-risk-monitor/internal/alerting"
	"credit-risk-monitor/internal/entity"
	"credit-risk-monitor/internal/repository"
	"credit-risk-monitor/pkg/logger"
	"credit-risk-monitor/pkg/utils"
)

// AlertService manages stored alerts and their lifecycle.
type AlertService interface {
	List(ctx context.Context, filter repository.AlertFilter) ([]entity.Alert, error)
	ForCompany(ctx context.Context, ticker string, days int) ([]entity.Alert, error)
	Get(ctx context.Context, id uint) (*entity.Alert, error)
	MarkRead(ctx context.Context, id uint) (*entity.Alert, error)
	Acknowledge(ctx context.Context, id uint, by string) (*entity.Alert, error)
	Summary(ctx context.Context) (*repository.AlertSummary, error)
	Cleanup(ctx context.Context) (int64, error)
}

// NewAlertService creates a new alert service.
func NewAlertService(companies CompanyService, alertRepo repository.AlertRepository, log *logger.Logger, now func() time.Time) AlertService {
	if now == nil {
		now = time.Now
	}
	return &alertService{companies: companies, alertRepo: alertRepo, logger: log, now: now}
}

type alertService struct {
	companies CompanyService
	alertRepo repository.AlertRepository
	logger    *logger.Logger
	now       func() time.Time
}

func (s *alertService) List(ctx context.Context, filter repository.AlertFilter) ([]entity.Alert, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.alertRepo.List(ctx, filter)
}

func (s *alertService) ForCompany(ctx context.Context, ticker string, days int) ([]entity.Alert, error) {
	company, err := s.companies.Get(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return s.alertRepo.ListByCompany(ctx, company.ID, utils.DaysAgo(s.now(), days))
}

func (s *alertService) Get(ctx context.Context, id uint) (*entity.Alert, error) {
	return s.alertRepo.FindByID(ctx, id)
}

// MarkRead is idempotent; an already read alert is returned unchanged.
func (s *alertService) MarkRead(ctx context.Context, id uint) (*entity.Alert, error) {
	alert, err := s.alertRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !alerting.MarkRead(alert) {
		return alert, nil
	}
	if _, err := s.alertRepo.MarkRead(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to mark alert read", logger.ErrorField(err), logger.Field("alert_id", id))
		return nil, err
	}
	return alert, nil
}

// Acknowledge records the first acknowledger only. Later calls return the
// alert as stored.
func (s *alertService) Acknowledge(ctx context.Context, id uint, by string) (*entity.Alert, error) {
	alert, err := s.alertRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	at := s.now().UTC()
	if !alerting.Acknowledge(alert, by, at) {
		return alert, nil
	}

	updated, err := s.alertRepo.Acknowledge(ctx, id, by, at)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to acknowledge alert", logger.ErrorField(err), logger.Field("alert_id", id))
		return nil, err
	}
	if !updated {
		// lost the race to a concurrent acknowledgement
		return s.alertRepo.FindByID(ctx, id)
	}

	s.logger.InfoContext(ctx, "Alert acknowledged", logger.Field("alert_id", id), logger.StringField("acknowledged_by", by))
	return alert, nil
}

func (s *alertService) Summary(ctx context.Context) (*repository.AlertSummary, error) {
	return s.alertRepo.Summary(ctx, s.now().UTC())
}

// Cleanup deletes alerts past their expiry.
func (s *alertService) Cleanup(ctx context.Context) (int64, error) {
	deleted, err := s.alertRepo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete expired alerts", logger.ErrorField(err))
		return 0, err
	}
	if deleted > 0 {
		s.logger.InfoContext(ctx, "Expired alerts deleted", logger.Field("count", deleted))
	}
	return deleted, nil
}
