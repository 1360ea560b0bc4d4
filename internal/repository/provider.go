package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"credit-risk-monitor/internal/apperr"
	"credit-risk-monitor/pkg/breaker"
	"credit-risk-monitor/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// providerClient is the shared transport of every upstream connector: a
// request limiter, a circuit breaker and a linear retry policy.
type providerClient struct {
	name           string
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
	breaker        *breaker.Breaker
	maxRetries     int
	retryDelay     time.Duration
}

func newProviderClient(name string, log *logger.Logger, maxRequestPerMinute, maxRetries int, retryDelay time.Duration) *providerClient {
	limit := rate.Inf
	if maxRequestPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(maxRequestPerMinute))
	}
	return &providerClient{
		name: name,
		log:  log,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		requestLimiter: rate.NewLimiter(limit, 1),
		breaker:        breaker.New(name),
		maxRetries:     maxRetries,
		retryDelay:     retryDelay,
	}
}

// fetch performs a GET with retries and returns the body. Exhausted retries
// and open breakers surface as an UpstreamFetchError for entity.
func (c *providerClient) fetch(ctx context.Context, entity, url string, headers map[string]string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(attempt)
			c.log.WarnContext(ctx, "Retrying provider request",
				logger.StringField("provider", c.name),
				logger.IntField("attempt", attempt),
				logger.Field("delay", delay),
				logger.ErrorField(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, &apperr.UpstreamFetchError{Provider: c.name, Entity: entity, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		res, err := c.breaker.Execute(func() (any, error) {
			return c.sendRequest(ctx, url, headers)
		})
		if err == nil {
			return res.([]byte), nil
		}
		lastErr = err
		if breaker.IsOpen(err) || ctx.Err() != nil {
			break
		}
	}
	return nil, &apperr.UpstreamFetchError{Provider: c.name, Entity: entity, Err: lastErr}
}

func (c *providerClient) sendRequest(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	fields := []zap.Field{
		zap.String("provider", c.name),
		zap.String("url", url),
	}

	if err := c.requestLimiter.Wait(ctx); err != nil {
		fields = append(fields, zap.Error(err))
		c.log.ErrorContext(ctx, "Failed to wait for request limit", fields...)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		fields = append(fields, zap.Error(err))
		c.log.ErrorContext(ctx, "Failed to create new http request", fields...)
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, application/rss+xml, text/plain, */*")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		fields = append(fields, zap.Error(err))
		c.log.ErrorContext(ctx, "Failed to send provider request", fields...)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fields = append(fields, zap.Error(err))
		c.log.ErrorContext(ctx, "Failed to read provider response body", fields...)
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		fields = append(fields, zap.Int("status_code", resp.StatusCode))
		c.log.ErrorContext(ctx, "Received non-OK response from provider", fields...)
		return nil, fmt.Errorf("%s returned status %d", c.name, resp.StatusCode)
	}

	return body, nil
}
