package scheduler

import "time"

// Clock is the time source of the orchestrator.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

// NewRealClock returns the wall clock in UTC.
func NewRealClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}
