package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifiersSeeThroughWrapping(t *testing.T) {
	upstream := &UpstreamFetchError{Provider: "yahoo", Entity: "AAPL", Err: errors.New("timeout")}
	wrapped := fmt.Errorf("refresh AAPL: %w", upstream)

	assert.True(t, IsUpstream(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.ErrorContains(t, wrapped, "timeout")

	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", NewNotFound("company", "XYZ"))))
	assert.True(t, IsInsufficientData(&InsufficientDataError{Entity: "AAPL", Reason: "no snapshot"}))
	assert.True(t, IsComputation(&ComputationError{Op: "weights", Err: errors.New("sum != 1")}))
}

func TestErrRefreshInProgressIsComparable(t *testing.T) {
	err := fmt.Errorf("compute AAPL: %w", ErrRefreshInProgress)
	assert.ErrorIs(t, err, ErrRefreshInProgress)
}

func TestUnwrapReturnsCause(t *testing.T) {
	cause := errors.New("boom")
	assert.Equal(t, cause, errors.Unwrap(&UpstreamFetchError{Err: cause}))
	assert.Equal(t, cause, errors.Unwrap(&ComputationError{Err: cause}))
}

func TestKind(t *testing.T) {
	assert.Equal(t, "", Kind(nil))
	assert.Equal(t, "in_progress", Kind(ErrRefreshInProgress))
	assert.Equal(t, "not_found", Kind(NewNotFound("alert", "1")))
	assert.Equal(t, "upstream", Kind(&UpstreamFetchError{Err: context.DeadlineExceeded}))
	assert.Equal(t, "insufficient_data", Kind(&InsufficientDataError{}))
	assert.Equal(t, "timeout", Kind(fmt.Errorf("cycle: %w", context.DeadlineExceeded)))
	assert.Equal(t, "internal", Kind(errors.New("db down")))
}
