package alerting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"credit-risk-monitor/internal/entity"
	"credit-risk-monitor/pkg/common"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Deduplicator decides whether an alert should be emitted given what was
// emitted for the same company, type and key within the time window. A
// repeat is suppressed unless its severity is strictly higher than the last
// emitted one.
type Deduplicator interface {
	Allow(ctx context.Context, alert *entity.Alert) (bool, error)
}

func dedupeKey(a *entity.Alert) string {
	return fmt.Sprintf(common.RedisKeyAlertDedupe, a.CompanyID, a.AlertType, a.DedupeKey)
}

func escalates(previous string, next entity.Severity) bool {
	return next.Rank() > entity.Severity(previous).Rank()
}

type redisDeduplicator struct {
	client *redis.Client
	window time.Duration
}

// NewRedisDeduplicator remembers the last emitted severity per key in Redis
// with a TTL of window.
func NewRedisDeduplicator(client *redis.Client, window time.Duration) Deduplicator {
	return &redisDeduplicator{client: client, window: window}
}

func (d *redisDeduplicator) Allow(ctx context.Context, alert *entity.Alert) (bool, error) {
	key := dedupeKey(alert)
	last, err := d.client.Get(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}
	if err == nil && !escalates(last, alert.Severity) {
		return false, nil
	}
	if err := d.client.Set(ctx, key, string(alert.Severity), d.window).Err(); err != nil {
		return false, err
	}
	return true, nil
}

type memoryDeduplicator struct {
	cache  *cache.Cache
	window time.Duration
}

// NewMemoryDeduplicator is the in-process variant used when Redis is disabled.
func NewMemoryDeduplicator(window time.Duration) Deduplicator {
	return &memoryDeduplicator{
		cache:  cache.New(window, 10*time.Minute),
		window: window,
	}
}

func (d *memoryDeduplicator) Allow(_ context.Context, alert *entity.Alert) (bool, error) {
	key := dedupeKey(alert)
	if last, ok := d.cache.Get(key); ok && !escalates(last.(string), alert.Severity) {
		return false, nil
	}
	d.cache.Set(key, string(alert.Severity), d.window)
	return true, nil
}
