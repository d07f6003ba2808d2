package models

import "time"

// CallbackStatus enumerates the one-way transitions of a callback request.
type CallbackStatus string

const (
	CallbackPending  CallbackStatus = "pending"
	CallbackAccepted CallbackStatus = "accepted"
	CallbackDeclined CallbackStatus = "declined"
	CallbackExpired  CallbackStatus = "expired"
)

// CallbackRequest is one participant's offer to reconnect with another.
type CallbackRequest struct {
	ID          string         `json:"id"`
	RequesterID string         `json:"requester_id"`
	TargetID    string         `json:"target_id"`
	CreatedAt   time.Time      `json:"created_at"`
	Status      CallbackStatus `json:"status"`

	// Prior-call context, kept for display only.
	PriorCallAt      *time.Time `json:"prior_call_at,omitempty"`
	PriorCallCountry string     `json:"prior_call_country,omitempty"`
}
