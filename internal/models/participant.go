package models

import "time"

// CallStatus describes whether a participant is currently paired.
type CallStatus string

const (
	CallStatusIdle   CallStatus = "idle"
	CallStatusInCall CallStatus = "in_call"
)

// Participant represents one connected anonymous user.
type Participant struct {
	ID          string     `json:"id"`
	Age         *int       `json:"age,omitempty"`
	Country     string     `json:"country,omitempty"`
	Connected   bool       `json:"connected"`
	CallStatus  CallStatus `json:"call_status"`
	PartnerID   string     `json:"partner_id,omitempty"`
	AudioLevel  float64    `json:"audio_level"`
	Muted       bool       `json:"muted"`
	ConnectedAt time.Time  `json:"connected_at"`
}

// ParticipantSummary is the partner view shared on match.
type ParticipantSummary struct {
	ID      string `json:"id"`
	Age     *int   `json:"age,omitempty"`
	Country string `json:"country,omitempty"`
}

// Summary projects the attributes a partner is allowed to see.
func (p *Participant) Summary() ParticipantSummary {
	return ParticipantSummary{ID: p.ID, Age: p.Age, Country: p.Country}
}

// CallFilters constrains candidate selection during matching.
// A bound with no value on either side imposes no constraint.
type CallFilters struct {
	MinAge    *int     `json:"min_age,omitempty"`
	MaxAge    *int     `json:"max_age,omitempty"`
	Countries []string `json:"countries,omitempty"`
}
