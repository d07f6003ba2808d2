// Package session owns call-session lifecycle and the per-session chat log.
package session

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"voicechat-service/internal/common/clock"
	"voicechat-service/internal/models"
)

// Registry tracks active and recently-ended call sessions.
type Registry struct {
	sessions  map[string]*models.CallSession
	byUser    map[string]string // participant id -> active session id
	total     int
	retention time.Duration
	clock     clock.Clock
	log       *zap.Logger
}

// New builds an empty session registry. Ended sessions are retained for the
// given window before garbage collection.
func New(retention time.Duration, clk clock.Clock, log *zap.Logger) *Registry {
	return &Registry{
		sessions:  make(map[string]*models.CallSession),
		byUser:    make(map[string]string),
		retention: retention,
		clock:     clk,
		log:       log,
	}
}

// Create opens a session for two distinct participants. The caller is
// responsible for flipping both participants' call state.
func (r *Registry) Create(p1, p2 string) *models.CallSession {
	if p1 == p2 {
		return nil
	}
	s := &models.CallSession{
		ID:           uuid.New().String(),
		Participant1: p1,
		Participant2: p2,
		StartedAt:    r.clock.Now(),
		Active:       true,
		Messages:     []models.ChatMessage{},
	}
	r.sessions[s.ID] = s
	r.byUser[p1] = s.ID
	r.byUser[p2] = s.ID
	r.total++
	r.log.Info("session created",
		zap.String("session_id", s.ID),
		zap.String("participant1", p1),
		zap.String("participant2", p2))
	return s
}

// Get returns a session by id, or nil.
func (r *Registry) Get(id string) *models.CallSession {
	return r.sessions[id]
}

// GetByParticipant returns the participant's active session, or nil.
func (r *Registry) GetByParticipant(participantID string) *models.CallSession {
	id, ok := r.byUser[participantID]
	if !ok {
		return nil
	}
	s := r.sessions[id]
	if s == nil || !s.Active {
		// Stale index entry, reconcile on access.
		delete(r.byUser, participantID)
		return nil
	}
	return s
}

// End marks the session inactive and stamps the end time. It does not notify
// the partner; that belongs to the caller's teardown flow.
func (r *Registry) End(id string) *models.CallSession {
	s, ok := r.sessions[id]
	if !ok || !s.Active {
		return nil
	}
	now := r.clock.Now()
	s.Active = false
	s.EndedAt = &now
	delete(r.byUser, s.Participant1)
	delete(r.byUser, s.Participant2)
	r.log.Info("session ended", zap.String("session_id", id))
	return s
}

// AppendMessage adds screened content to the session log. Missing or ended
// sessions yield nil.
func (r *Registry) AppendMessage(sessionID, senderID, content string) *models.ChatMessage {
	s, ok := r.sessions[sessionID]
	if !ok || !s.Active {
		return nil
	}
	msg := models.ChatMessage{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: r.clock.Now(),
	}
	s.Messages = append(s.Messages, msg)
	return &msg
}

// PartnerOf returns the other participant of the session, or "".
func (r *Registry) PartnerOf(sessionID, participantID string) string {
	s, ok := r.sessions[sessionID]
	if !ok {
		return ""
	}
	return s.Partner(participantID)
}

// ListActive returns all active sessions.
func (r *Registry) ListActive() []*models.CallSession {
	out := make([]*models.CallSession, 0)
	for _, s := range r.sessions {
		if s.Active {
			out = append(out, s)
		}
	}
	return out
}

// ActiveCount reports the number of active sessions.
func (r *Registry) ActiveCount() int {
	n := 0
	for _, s := range r.sessions {
		if s.Active {
			n++
		}
	}
	return n
}

// TotalCount reports how many sessions were ever created.
func (r *Registry) TotalCount() int {
	return r.total
}

// GarbageCollect purges sessions that ended longer than the retention window
// ago, together with their chat logs.
func (r *Registry) GarbageCollect() int {
	cutoff := r.clock.Now().Add(-r.retention)
	purged := 0
	for id, s := range r.sessions {
		if s.Active || s.EndedAt == nil {
			continue
		}
		if s.EndedAt.Before(cutoff) {
			delete(r.sessions, id)
			purged++
		}
	}
	if purged > 0 {
		r.log.Debug("sessions purged", zap.Int("count", purged))
	}
	return purged
}
