package dto

// RegisterCompanyRequest is the body of a company registration.
type RegisterCompanyRequest struct {
	Ticker string `json:"ticker"`
}

// AcknowledgeAlertRequest is the body of an alert acknowledgement.
type AcknowledgeAlertRequest struct {
	AcknowledgedBy string `json:"acknowledged_by"`
}

// RefreshResponse reports the outcome of a refresh request.
type RefreshResponse struct {
	Ticker  string `json:"ticker"`
	Outcome string `json:"outcome"`
}
