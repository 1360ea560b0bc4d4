package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"credit-risk-monitor/internal/dto"
	"credit-risk-monitor/internal/service"
	"credit-risk-monitor/pkg/common"
	"credit-risk-monitor/pkg/logger"
	"credit-risk-monitor/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisConsumer turns remote refresh requests read from a Redis stream into
// asynchronous refreshes.
type RedisConsumer struct {
	redisClient *redis.Client
	runner      service.RefreshRunner
	logger      *logger.Logger
	block       time.Duration
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// NewRedisConsumer creates a new RedisConsumer.
func NewRedisConsumer(redisClient *redis.Client, runner service.RefreshRunner, block time.Duration, log *logger.Logger) *RedisConsumer {
	if block <= 0 {
		block = 2 * time.Second
	}
	return &RedisConsumer{
		redisClient: redisClient,
		runner:      runner,
		logger:      log,
		block:       block,
		stopChan:    make(chan struct{}),
	}
}

// EnsureGroup creates the consumer group and the stream when missing.
func (c *RedisConsumer) EnsureGroup(ctx context.Context) error {
	err := c.redisClient.XGroupCreateMkStream(ctx, common.RedisStreamRefreshRequest, common.RedisStreamGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// Start launches the read loop in the background.
func (c *RedisConsumer) Start(ctx context.Context) {
	c.logger.Info("Redis consumer started", logger.StringField("stream", common.RedisStreamRefreshRequest))
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Redis consumer stopping due to context cancellation")
				return
			case <-c.stopChan:
				c.logger.Info("Redis consumer stopping")
				return
			default:
				c.ProcessRefreshRequest(ctx)
			}
		}
	})
}

// ProcessRefreshRequest reads and handles at most one refresh request.
func (c *RedisConsumer) ProcessRefreshRequest(ctx context.Context) {
	streams, err := c.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamRefreshRequest, ">"},
		Count:    1,
		Block:    c.block,
	}).Result()
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, redis.Nil) {
			return
		}
		c.logger.Error("Failed to read from stream", logger.ErrorField(err))
		// Avoid a hot loop while redis is unreachable.
		select {
		case <-ctx.Done():
		case <-c.stopChan:
		case <-time.After(c.block):
		}
		return
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}
	message := streams[0].Messages[0]
	defer c.ack(ctx, message.ID)

	payload, ok := message.Values["payload"].(string)
	if !ok {
		c.logger.Error("Refresh request without payload", logger.StringField("message_id", message.ID))
		return
	}
	var req dto.RefreshRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		c.logger.Error("Failed to unmarshal refresh request", logger.ErrorField(err), logger.StringField("message_id", message.ID))
		return
	}
	mode, err := service.ParseRefreshMode(req.Mode)
	if err != nil || strings.TrimSpace(req.Ticker) == "" {
		c.logger.Warn("Invalid refresh request", logger.StringField("message_id", message.ID), logger.StringField("ticker", req.Ticker), logger.StringField("mode", req.Mode))
		return
	}

	outcome := c.runner.Enqueue(ctx, strings.ToUpper(strings.TrimSpace(req.Ticker)), mode)
	c.logger.Info("Refresh request accepted",
		logger.StringField("ticker", req.Ticker),
		logger.StringField("mode", string(mode)),
		logger.StringField("outcome", string(outcome)))
}

func (c *RedisConsumer) ack(ctx context.Context, id string) {
	if err := c.redisClient.XAck(context.WithoutCancel(ctx), common.RedisStreamRefreshRequest, common.RedisStreamGroup, id).Err(); err != nil {
		c.logger.Error("Failed to acknowledge message", logger.ErrorField(err), logger.StringField("message_id", id))
	}
}

// Stop gracefully shuts down the consumer.
func (c *RedisConsumer) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
	c.wg.Wait()
	c.logger.Info("Redis consumer stopped")
}
