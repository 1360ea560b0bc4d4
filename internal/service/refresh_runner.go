package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"credit-risk-monitor/internal/apperr"
	"credit-risk-monitor/internal/metrics"
	"credit-risk-monitor/pkg/logger"
	"credit-risk-monitor/pkg/utils"

	"github.com/google/uuid"
)

// EnqueueOutcome reports what happened to an asynchronous refresh request.
type EnqueueOutcome string

const (
	// OutcomeStarted means a cycle was launched.
	OutcomeStarted EnqueueOutcome = "started"
	// OutcomeQueued means a cycle is running and one follow-up run was queued.
	OutcomeQueued EnqueueOutcome = "queued"
	// OutcomeCoalesced means a follow-up was already queued and absorbed this request.
	OutcomeCoalesced EnqueueOutcome = "coalesced"
)

// BatchResult summarizes a batch refresh.
type BatchResult struct {
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Skipped   int               `json:"skipped"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// RefreshRunner guarantees at most one refresh cycle per company at a time.
type RefreshRunner interface {
	Enqueue(ctx context.Context, ticker string, mode RefreshMode) EnqueueOutcome
	RunNow(ctx context.Context, ticker string, mode RefreshMode) (*RefreshResult, error)
	RunBatch(ctx context.Context, tickers []string, mode RefreshMode) *BatchResult
	InFlight(ticker string) bool
	Shutdown()
}

// NewRefreshRunner creates a runner executing at most maxConcurrent cycles in a batch.
func NewRefreshRunner(refresh RefreshService, log *logger.Logger, m *metrics.Registry, maxConcurrent int, cycleTimeout time.Duration) RefreshRunner {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	rootCtx, cancel := context.WithCancel(context.Background())
	return &refreshRunner{
		refresh:       refresh,
		log:           log,
		metrics:       m,
		maxConcurrent: maxConcurrent,
		cycleTimeout:  cycleTimeout,
		inFlight:      make(map[string]bool),
		pending:       make(map[string]RefreshMode),
		rootCtx:       rootCtx,
		cancel:        cancel,
	}
}

type refreshRunner struct {
	refresh       RefreshService
	log           *logger.Logger
	metrics       *metrics.Registry
	maxConcurrent int
	cycleTimeout  time.Duration

	mu       sync.Mutex
	inFlight map[string]bool
	pending  map[string]RefreshMode

	wg      sync.WaitGroup
	rootCtx context.Context
	cancel  context.CancelFunc
}

func (r *refreshRunner) InFlight(ticker string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight[strings.ToUpper(ticker)]
}

// tryAcquire marks ticker in flight. It reports false when already running.
func (r *refreshRunner) tryAcquire(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight[key] {
		return false
	}
	r.inFlight[key] = true
	return true
}

// release hands the slot to a pending follow-up or clears it.
func (r *refreshRunner) release(key string) {
	r.mu.Lock()
	next, ok := r.pending[key]
	if !ok {
		delete(r.inFlight, key)
		r.mu.Unlock()
		return
	}
	delete(r.pending, key)
	r.mu.Unlock()

	r.startLoop(key, next)
}

// Enqueue starts a background cycle, or keeps a single pending follow-up when
// one is already running. A newer request replaces an older pending one.
func (r *refreshRunner) Enqueue(ctx context.Context, ticker string, mode RefreshMode) EnqueueOutcome {
	key := strings.ToUpper(ticker)

	r.mu.Lock()
	if r.inFlight[key] {
		_, hadPending := r.pending[key]
		r.pending[key] = mode
		r.mu.Unlock()

		outcome := OutcomeQueued
		if hadPending {
			outcome = OutcomeCoalesced
		}
		r.metrics.RecordRefreshRequest(string(outcome))
		r.log.DebugContext(ctx, "Refresh already in flight", logger.StringField("ticker", key), logger.StringField("outcome", string(outcome)))
		return outcome
	}
	r.inFlight[key] = true
	r.mu.Unlock()

	r.metrics.RecordRefreshRequest(string(OutcomeStarted))
	r.startLoop(key, mode)
	return OutcomeStarted
}

func (r *refreshRunner) startLoop(key string, mode RefreshMode) {
	r.wg.Add(1)
	utils.GoSafe(func() {
		defer r.wg.Done()
		completed := false
		defer func() {
			if !completed {
				// panic inside the cycle, GoSafe logs it
				r.mu.Lock()
				delete(r.inFlight, key)
				delete(r.pending, key)
				r.mu.Unlock()
			}
		}()

		_, _ = r.execute(r.rootCtx, key, mode)
		completed = true
		r.release(key)
	})
}

// RunNow runs a cycle synchronously. It fails with ErrRefreshInProgress when
// the company already has a cycle in flight.
func (r *refreshRunner) RunNow(ctx context.Context, ticker string, mode RefreshMode) (*RefreshResult, error) {
	key := strings.ToUpper(ticker)
	if !r.tryAcquire(key) {
		r.metrics.RecordRefreshRequest("rejected")
		return nil, apperr.ErrRefreshInProgress
	}
	defer r.release(key)
	return r.execute(ctx, key, mode)
}

// RunBatch refreshes tickers with a bounded worker pool. Companies already in
// flight are skipped; one company's failure never aborts the batch.
func (r *refreshRunner) RunBatch(ctx context.Context, tickers []string, mode RefreshMode) *BatchResult {
	result := &BatchResult{Total: len(tickers), Errors: make(map[string]string)}
	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		semaphore = make(chan struct{}, r.maxConcurrent)
	)

	for _, ticker := range tickers {
		if !utils.ShouldContinue(ctx, r.log) {
			mu.Lock()
			result.Skipped++
			mu.Unlock()
			continue
		}

		key := strings.ToUpper(ticker)
		wg.Add(1)
		semaphore <- struct{}{}
		utils.GoSafe(func() {
			defer wg.Done()
			defer func() { <-semaphore }()

			if !r.tryAcquire(key) {
				mu.Lock()
				result.Skipped++
				mu.Unlock()
				return
			}
			defer r.release(key)
			_, err := r.executeRecover(ctx, key, mode)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.Errors[key] = err.Error()
				return
			}
			result.Succeeded++
		})
	}

	wg.Wait()
	return result
}

// executeRecover runs a cycle and reports a panic inside it as an error.
func (r *refreshRunner) executeRecover(ctx context.Context, key string, mode RefreshMode) (res *RefreshResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("refresh cycle panicked: %v", p)
			r.log.ErrorContext(ctx, "Refresh cycle panicked",
				logger.StringField("ticker", key),
				logger.StringField("mode", string(mode)),
				logger.Field("panic", p),
				logger.StringField("stack", string(debug.Stack())),
			)
		}
	}()
	return r.execute(ctx, key, mode)
}

func (r *refreshRunner) execute(ctx context.Context, key string, mode RefreshMode) (*RefreshResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cycleTimeout)
	defer cancel()
	ctx = logger.WithRunID(ctx, uuid.NewString())

	start := time.Now()
	res, err := r.refresh.Execute(ctx, key, mode)
	if err != nil {
		r.log.ErrorContext(ctx, "Refresh cycle failed",
			logger.StringField("ticker", key),
			logger.StringField("mode", string(mode)),
			logger.StringField("kind", apperr.Kind(err)),
			logger.ErrorField(err),
		)
		return nil, err
	}

	r.log.InfoContext(ctx, "Refresh cycle completed",
		logger.StringField("ticker", key),
		logger.StringField("mode", string(mode)),
		logger.IntField("alerts", len(res.Alerts)),
		logger.Field("duration", time.Since(start)),
	)
	return res, nil
}

// Shutdown cancels background cycles and waits for them to return.
func (r *refreshRunner) Shutdown() {
	r.cancel()
	r.wg.Wait()
}
