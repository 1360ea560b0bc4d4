package repository

import (
	"context"
	"testing"
	"time"

	"credit-risk-monitor/internal/dto"
	"credit-risk-monitor/internal/entity"
	"credit-risk-monitor/pkg/common"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamRepository_PublishAlert(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewStreamRepository(client, 1000)

	created := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	alert := &entity.Alert{ID: 5, CompanyID: 2, AlertType: entity.AlertTypeScoreChange, Severity: entity.SeverityHigh, Title: "t", Message: "m", CreatedAt: created}

	mock.ExpectXAdd(&redis.XAddArgs{
		Stream: common.RedisStreamAlertCreated,
		Values: map[string]interface{}{"payload": `{"alert_id":5,"company_id":2,"ticker":"ACME","alert_type":"score_change","severity":"high","title":"t","message":"m","created_at":"2025-03-14T09:30:00Z"}`},
		MaxLen: 1000,
		Approx: true,
	}).SetVal("1-0")

	require.NoError(t, repo.PublishAlert(context.Background(), "ACME", alert))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStreamRepository_PublishRefreshRequestError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewStreamRepository(client, 10)

	req := dto.RefreshRequest{Ticker: "ACME", Mode: "fetch", RequestedAt: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)}
	mock.ExpectXAdd(&redis.XAddArgs{
		Stream: common.RedisStreamRefreshRequest,
		Values: map[string]interface{}{"payload": `{"ticker":"ACME","mode":"fetch","requested_at":"2025-03-14T00:00:00Z"}`},
		MaxLen: 10,
		Approx: true,
	}).SetErr(assert.AnError)

	assert.ErrorIs(t, repo.PublishRefreshRequest(context.Background(), req), assert.AnError)
}

func TestStreamRepository_NilClient(t *testing.T) {
	repo := NewStreamRepository(nil, 0)
	assert.NoError(t, repo.PublishAlert(context.Background(), "ACME", &entity.Alert{}))
	assert.Error(t, repo.PublishRefreshRequest(context.Background(), dto.RefreshRequest{}))
}
