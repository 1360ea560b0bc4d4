package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"credit-risk-monitor/internal/dto"
	"credit-risk-monitor/internal/entity"
	"credit-risk-monitor/pkg/common"

	"github.com/redis/go-redis/v9"
)

// StreamRepository publishes events onto Redis streams.
type StreamRepository interface {
	PublishAlert(ctx context.Context, ticker string, alert *entity.Alert) error
	PublishRefreshRequest(ctx context.Context, req dto.RefreshRequest) error
}

// NewStreamRepository creates a Redis stream publisher. A nil client yields a
// publisher that drops every event.
func NewStreamRepository(client *redis.Client, maxLen int64) StreamRepository {
	if client == nil {
		return nopStreamRepository{}
	}
	return &streamRepository{client: client, maxLen: maxLen}
}

type streamRepository struct {
	client *redis.Client
	maxLen int64
}

func (r *streamRepository) PublishAlert(ctx context.Context, ticker string, alert *entity.Alert) error {
	return r.publish(ctx, common.RedisStreamAlertCreated, dto.AlertEvent{
		AlertID:   alert.ID,
		CompanyID: alert.CompanyID,
		Ticker:    ticker,
		AlertType: string(alert.AlertType),
		Severity:  string(alert.Severity),
		Title:     alert.Title,
		Message:   alert.Message,
		CreatedAt: alert.CreatedAt,
	})
}

func (r *streamRepository) PublishRefreshRequest(ctx context.Context, req dto.RefreshRequest) error {
	return r.publish(ctx, common.RedisStreamRefreshRequest, req)
}

func (r *streamRepository) publish(ctx context.Context, stream string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", stream, err)
	}
	return r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{"payload": string(data)},
		MaxLen: r.maxLen, // Limit the stream size
		Approx: true,
	}).Err()
}

type nopStreamRepository struct{}

func (nopStreamRepository) PublishAlert(context.Context, string, *entity.Alert) error {
	return nil
}

func (nopStreamRepository) PublishRefreshRequest(context.Context, dto.RefreshRequest) error {
	return fmt.Errorf("redis is disabled, remote refresh requests are unavailable")
}
