package utils

import (
	"context"
	"runtime/debug"

	"credit-risk-monitor/pkg/logger"

	"go.uber.org/zap"
)

// GoSafe runs fn in a new goroutine and recovers any panic so a failing job
// cannot take the process down. The panic is reported through the global zap
// logger.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				zap.L().Error("Recovered from panic",
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
			}
		}()
		fn()
	}()
}

// ShouldContinue reports whether ctx is still live.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	select {
	case <-ctx.Done():
		log.Warn("Context done, stop processing", logger.ErrorField(ctx.Err()))
		return false
	default:
		return true
	}
}
