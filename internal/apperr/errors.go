package apperr

import (
	"context"
	"errors"
	"fmt"
)

// ErrRefreshInProgress is returned when a synchronous refresh is requested for
// an entity that already has a refresh in flight.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// NotFoundError reports a missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// NewNotFound creates a NotFoundError.
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// UpstreamFetchError wraps a failure from an external data provider after
// retries are exhausted.
type UpstreamFetchError struct {
	Provider string
	Entity   string
	Err      error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("upstream %s fetch failed for %s: %v", e.Provider, e.Entity, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error {
	return e.Err
}

// InsufficientDataError means no scorable data is available for an entity.
type InsufficientDataError struct {
	Entity string
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: %s", e.Entity, e.Reason)
}

// ComputationError reports an invalid computation, such as bad weights.
type ComputationError struct {
	Op  string
	Err error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation %s failed: %v", e.Op, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsUpstream reports whether err is (or wraps) an UpstreamFetchError.
func IsUpstream(err error) bool {
	var target *UpstreamFetchError
	return errors.As(err, &target)
}

// IsInsufficientData reports whether err is (or wraps) an InsufficientDataError.
func IsInsufficientData(err error) bool {
	var target *InsufficientDataError
	return errors.As(err, &target)
}

// IsComputation reports whether err is (or wraps) a ComputationError.
func IsComputation(err error) bool {
	var target *ComputationError
	return errors.As(err, &target)
}

// Kind returns a short stable label for err, used in metrics and job outputs.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRefreshInProgress):
		return "in_progress"
	case IsNotFound(err):
		return "not_found"
	case IsUpstream(err):
		return "upstream"
	case IsInsufficientData(err):
		return "insufficient_data"
	case IsComputation(err):
		return "computation"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "internal"
	}
}
