package dto

import "time"

// AlertEvent is the payload published on the alert stream for every persisted alert.
type AlertEvent struct {
	AlertID   uint      `json:"alert_id"`
	CompanyID uint      `json:"company_id"`
	Ticker    string    `json:"ticker"`
	AlertType string    `json:"alert_type"`
	Severity  string    `json:"severity"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// RefreshRequest is the payload of a remote refresh request.
type RefreshRequest struct {
	Ticker      string    `json:"ticker"`
	Mode        string    `json:"mode"`
	RequestedAt time.Time `json:"requested_at"`
}
