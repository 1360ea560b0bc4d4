package alerting

import (
	"testing"
	"time"

	"credit-risk-monitor/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestMarkRead_Idempotent(t *testing.T) {
	a := &entity.Alert{Severity: entity.SeverityHigh}
	assert.True(t, MarkRead(a))
	assert.False(t, MarkRead(a))
	assert.True(t, a.IsRead)
	assert.Equal(t, entity.SeverityHigh, a.Severity)
}

func TestAcknowledge_FirstAcknowledgerWins(t *testing.T) {
	a := &entity.Alert{IsRead: true}
	first := now
	assert.True(t, Acknowledge(a, "alice", first))
	assert.False(t, Acknowledge(a, "bob", first.Add(time.Hour)))

	assert.True(t, a.IsAcknowledged)
	assert.Equal(t, "alice", *a.AcknowledgedBy)
	assert.Equal(t, first, *a.AcknowledgedAt)
}

func TestAcknowledge_UnreadAlert(t *testing.T) {
	a := &entity.Alert{}
	assert.True(t, Acknowledge(a, "ops", now))
	assert.False(t, a.IsRead)
}

func TestIsExpired(t *testing.T) {
	a := &entity.Alert{ExpiresAt: now}
	assert.False(t, IsExpired(a, now))
	assert.True(t, IsExpired(a, now.Add(time.Nanosecond)))
}
