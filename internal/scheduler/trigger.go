package scheduler

import (
	"fmt"
	"time"

	"credit-risk-monitor/pkg/utils"

	"github.com/robfig/cron/v3"
)

// TriggerKind enumerates the supported firing policies.
type TriggerKind string

const (
	TriggerInterval  TriggerKind = "interval"
	TriggerTimeOfDay TriggerKind = "time_of_day"
	TriggerOneShot   TriggerKind = "one_shot"
)

// Trigger computes when a job fires next. It satisfies cron.Schedule; a zero
// time from Next means the trigger will not fire again.
type Trigger struct {
	Kind   TriggerKind
	Every  time.Duration
	Hour   int
	Minute int
	At     time.Time

	every cron.Schedule
}

var _ cron.Schedule = Trigger{}

// Interval fires every d, d rounded down to whole seconds (minimum one).
func Interval(d time.Duration) Trigger {
	return Trigger{Kind: TriggerInterval, Every: d, every: cron.Every(d)}
}

// TimeOfDay fires daily at hour:minute in the location of the time passed to Next.
func TimeOfDay(hour, minute int) Trigger {
	return Trigger{Kind: TriggerTimeOfDay, Hour: hour, Minute: minute}
}

// OneShot fires once at at.
func OneShot(at time.Time) Trigger {
	return Trigger{Kind: TriggerOneShot, At: at}
}

// Next returns the next activation strictly after after. A one-shot trigger
// returns At while it has not passed, the zero time afterwards.
func (t Trigger) Next(after time.Time) time.Time {
	switch t.Kind {
	case TriggerInterval:
		return t.every.Next(after)
	case TriggerTimeOfDay:
		return utils.NextTimeOfDay(after, t.Hour, t.Minute)
	case TriggerOneShot:
		if after.Before(t.At) {
			return t.At
		}
		return time.Time{}
	default:
		return time.Time{}
	}
}

// String describes the trigger for status listings.
func (t Trigger) String() string {
	switch t.Kind {
	case TriggerInterval:
		return fmt.Sprintf("interval[%s]", t.Every)
	case TriggerTimeOfDay:
		return fmt.Sprintf("time_of_day[%02d:%02d]", t.Hour, t.Minute)
	case TriggerOneShot:
		return fmt.Sprintf("one_shot[%s]", t.At.Format(time.RFC3339))
	default:
		return string(t.Kind)
	}
}
