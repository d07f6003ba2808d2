package models

import "time"

// CallSession represents one active or historical pairing.
// Participant order carries no meaning.
type CallSession struct {
	ID           string        `json:"id"`
	Participant1 string        `json:"participant1"`
	Participant2 string        `json:"participant2"`
	StartedAt    time.Time     `json:"started_at"`
	EndedAt      *time.Time    `json:"ended_at,omitempty"`
	Active       bool          `json:"active"`
	Messages     []ChatMessage `json:"messages"`
}

// Involves reports whether the participant belongs to this session.
func (s *CallSession) Involves(participantID string) bool {
	return s.Participant1 == participantID || s.Participant2 == participantID
}

// Partner returns the other participant, or "" when the id is not a member.
func (s *CallSession) Partner(participantID string) string {
	switch participantID {
	case s.Participant1:
		return s.Participant2
	case s.Participant2:
		return s.Participant1
	}
	return ""
}

// ChatMessage is one entry in a session's ordered chat log.
type ChatMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
