package strategy

import (
	"context"

	"credit-risk-monitor/internal/entity"
	"credit-risk-monitor/internal/service"
)

// AlertCleanupStrategy deletes expired alerts.
type AlertCleanupStrategy struct {
	alerts service.AlertService
}

// NewAlertCleanupStrategy creates a new instance of AlertCleanupStrategy.
func NewAlertCleanupStrategy(alerts service.AlertService) *AlertCleanupStrategy {
	return &AlertCleanupStrategy{alerts: alerts}
}

// GetType returns the job type this strategy handles.
func (s *AlertCleanupStrategy) GetType() entity.JobType {
	return entity.JobTypeAlertCleanup
}

func (s *AlertCleanupStrategy) Execute(ctx context.Context, _ *entity.Job) (string, error) {
	deleted, err := s.alerts.Cleanup(ctx)
	if err != nil {
		return "", err
	}
	return toOutput(map[string]int64{"deleted_alerts": deleted})
}

// DailyMaintenanceStrategy runs the retention sweep.
type DailyMaintenanceStrategy struct {
	retention service.RetentionService
}

// NewDailyMaintenanceStrategy creates a new instance of DailyMaintenanceStrategy.
func NewDailyMaintenanceStrategy(retention service.RetentionService) *DailyMaintenanceStrategy {
	return &DailyMaintenanceStrategy{retention: retention}
}

// GetType returns the job type this strategy handles.
func (s *DailyMaintenanceStrategy) GetType() entity.JobType {
	return entity.JobTypeDailyMaintenance
}

func (s *DailyMaintenanceStrategy) Execute(ctx context.Context, _ *entity.Job) (string, error) {
	result, err := s.retention.Sweep(ctx)
	if err != nil {
		return "", err
	}
	return toOutput(result)
}
