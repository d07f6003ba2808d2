// Package registry tracks connected anonymous participants and the waiting
// pool. All access happens on the dispatcher goroutine, so the maps carry no
// locks.
package registry

import (
	"math/rand"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"voicechat-service/internal/common/clock"
	"voicechat-service/internal/models"
)

// Update is a partial merge applied to a participant. Nil fields are left
// untouched.
type Update struct {
	Age        *int
	Country    *string
	CallStatus *models.CallStatus
	PartnerID  *string
	AudioLevel *float64
	Muted      *bool
}

// Registry owns the participant table and waiting-pool membership.
type Registry struct {
	participants map[string]*models.Participant
	waiting      []string
	waitingSet   map[string]struct{}
	clock        clock.Clock
	log          *zap.Logger
}

// New builds an empty registry.
func New(clk clock.Clock, log *zap.Logger) *Registry {
	return &Registry{
		participants: make(map[string]*models.Participant),
		waitingSet:   make(map[string]struct{}),
		clock:        clk,
		log:          log,
	}
}

// Register creates a participant with a fresh identifier. It never fails.
func (r *Registry) Register(age *int, country string) *models.Participant {
	p := &models.Participant{
		ID:          uuid.New().String(),
		Age:         age,
		Country:     country,
		Connected:   true,
		CallStatus:  models.CallStatusIdle,
		ConnectedAt: r.clock.Now(),
	}
	r.participants[p.ID] = p
	r.log.Info("participant registered", zap.String("participant_id", p.ID), zap.String("country", country))
	return p
}

// Get returns the participant, or nil when unknown.
func (r *Registry) Get(id string) *models.Participant {
	return r.participants[id]
}

// Update merges the supplied fields and returns the updated participant, or
// nil when unknown.
func (r *Registry) Update(id string, u Update) *models.Participant {
	p, ok := r.participants[id]
	if !ok {
		return nil
	}
	if u.Age != nil {
		p.Age = u.Age
	}
	if u.Country != nil {
		p.Country = *u.Country
	}
	if u.CallStatus != nil {
		p.CallStatus = *u.CallStatus
	}
	if u.PartnerID != nil {
		p.PartnerID = *u.PartnerID
	}
	if u.AudioLevel != nil {
		p.AudioLevel = *u.AudioLevel
	}
	if u.Muted != nil {
		p.Muted = *u.Muted
	}
	return p
}

// Remove deletes the participant and evicts it from the waiting pool.
func (r *Registry) Remove(id string) *models.Participant {
	p, ok := r.participants[id]
	if !ok {
		return nil
	}
	delete(r.participants, id)
	r.RemoveWaiting(id)
	r.log.Info("participant removed", zap.String("participant_id", id))
	return p
}

// ListConnected returns all known participants.
func (r *Registry) ListConnected() []*models.Participant {
	out := make([]*models.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, p)
	}
	return out
}

// Count reports the number of connected participants.
func (r *Registry) Count() int {
	return len(r.participants)
}

// AddWaiting appends the participant to the waiting pool. Re-adding a
// participant that is already waiting is a no-op.
func (r *Registry) AddWaiting(id string) {
	if _, ok := r.participants[id]; !ok {
		return
	}
	if _, ok := r.waitingSet[id]; ok {
		return
	}
	r.waiting = append(r.waiting, id)
	r.waitingSet[id] = struct{}{}
}

// RemoveWaiting evicts the participant from the pool.
func (r *Registry) RemoveWaiting(id string) {
	if _, ok := r.waitingSet[id]; !ok {
		return
	}
	delete(r.waitingSet, id)
	for i, wid := range r.waiting {
		if wid == id {
			r.waiting = append(r.waiting[:i], r.waiting[i+1:]...)
			break
		}
	}
}

// IsWaiting reports pool membership.
func (r *Registry) IsWaiting(id string) bool {
	_, ok := r.waitingSet[id]
	return ok
}

// ListWaiting returns the waiting participants passing every supplied filter,
// in randomized order. A bound is skipped when the bound or the candidate's
// attribute is absent, so missing attributes make a candidate permissive.
func (r *Registry) ListWaiting(filters models.CallFilters) []string {
	out := make([]string, 0, len(r.waiting))
	for _, id := range r.waiting {
		p, ok := r.participants[id]
		if !ok {
			continue
		}
		if !MatchesFilters(p, filters) {
			continue
		}
		out = append(out, id)
	}
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// MatchesFilters applies the permissive-on-missing filter predicate.
func MatchesFilters(p *models.Participant, filters models.CallFilters) bool {
	if filters.MinAge != nil && p.Age != nil && *p.Age < *filters.MinAge {
		return false
	}
	if filters.MaxAge != nil && p.Age != nil && *p.Age > *filters.MaxAge {
		return false
	}
	if len(filters.Countries) > 0 && p.Country != "" {
		found := false
		for _, c := range filters.Countries {
			if c == p.Country {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
