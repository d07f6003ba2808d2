// Package match implements filter-constrained random pairing over the
// waiting pool.
package match

import (
	"go.uber.org/zap"

	"voicechat-service/internal/models"
	"voicechat-service/internal/registry"
	"voicechat-service/internal/session"
)

// BlockChecker reports whether either participant has blocked the other.
type BlockChecker interface {
	IsBlocked(a, b string) bool
}

// Result is the outcome of one call request.
type Result struct {
	Matched bool
	Session *models.CallSession
	Partner *models.Participant
}

// Matcher pairs waiting participants and opens sessions for them.
type Matcher struct {
	registry *registry.Registry
	sessions *session.Registry
	blocks   BlockChecker
	log      *zap.Logger
}

// New builds a matcher. blocks may be nil when moderation is disabled.
func New(reg *registry.Registry, sessions *session.Registry, blocks BlockChecker, log *zap.Logger) *Matcher {
	return &Matcher{registry: reg, sessions: sessions, blocks: blocks, log: log}
}

// RequestCall enqueues the requester and attempts a match. Absence of a
// candidate yields a waiting result, not an error. On success both sides are
// removed from the pool before the session exists, so a concurrent request
// can never pair either of them again.
func (m *Matcher) RequestCall(requesterID string, filters models.CallFilters) Result {
	requester := m.registry.Get(requesterID)
	if requester == nil || requester.CallStatus == models.CallStatusInCall {
		return Result{}
	}

	m.registry.AddWaiting(requesterID)

	var partner *models.Participant
	for _, id := range m.registry.ListWaiting(filters) {
		if id == requesterID {
			continue
		}
		candidate := m.registry.Get(id)
		if candidate == nil || candidate.CallStatus == models.CallStatusInCall {
			continue
		}
		if m.blocks != nil && m.blocks.IsBlocked(requesterID, id) {
			continue
		}
		partner = candidate
		break
	}
	if partner == nil {
		return Result{}
	}

	m.registry.RemoveWaiting(requesterID)
	m.registry.RemoveWaiting(partner.ID)

	s := m.sessions.Create(requesterID, partner.ID)
	if s == nil {
		return Result{}
	}

	inCall := models.CallStatusInCall
	partnerID := partner.ID
	m.registry.Update(requesterID, registry.Update{CallStatus: &inCall, PartnerID: &partnerID})
	m.registry.Update(partner.ID, registry.Update{CallStatus: &inCall, PartnerID: &requesterID})

	m.log.Info("participants matched",
		zap.String("session_id", s.ID),
		zap.String("requester", requesterID),
		zap.String("partner", partner.ID))

	return Result{Matched: true, Session: s, Partner: partner}
}

// Cancel removes the participant from the waiting pool.
func (m *Matcher) Cancel(participantID string) {
	m.registry.RemoveWaiting(participantID)
}
