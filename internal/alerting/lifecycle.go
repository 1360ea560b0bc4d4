package alerting

import (
	"time"

	"credit-risk-monitor/internal/entity"
)

// MarkRead flags the alert as read. It reports whether anything changed.
func MarkRead(a *entity.Alert) bool {
	if a.IsRead {
		return false
	}
	a.IsRead = true
	return true
}

// Acknowledge records the first acknowledgement of an alert. Later calls are
// no-ops so the original acknowledger and time are kept. It reports whether
// anything changed.
func Acknowledge(a *entity.Alert, by string, at time.Time) bool {
	if a.IsAcknowledged {
		return false
	}
	a.IsAcknowledged = true
	a.AcknowledgedBy = &by
	a.AcknowledgedAt = &at
	return true
}

// IsExpired reports whether the alert is past its expiry.
func IsExpired(a *entity.Alert, now time.Time) bool {
	return now.After(a.ExpiresAt)
}
