package strategy

import (
	"context"
	"encoding/json"
	"fmt"

	"credit-risk-monitor/internal/entity"
)

// JobExecutionStrategy defines the interface for different job execution strategies.
type JobExecutionStrategy interface {
	Execute(ctx context.Context, job *entity.Job) (string, error)
	GetType() entity.JobType
}

func toOutput(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job output: %w", err)
	}
	return string(b), nil
}
