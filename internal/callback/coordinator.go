// Package callback implements the timed reconnect request protocol between
// former call partners.
package callback

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"voicechat-service/internal/common/clock"
	"voicechat-service/internal/models"
)

// Coordinator owns callback requests and their expiry timers. State mutation
// runs on the dispatcher goroutine; timer callbacks re-enter through the
// injected dispatch function so a firing timer never races a user action.
type Coordinator struct {
	requests  map[string]*models.CallbackRequest
	timers    map[string]clock.Timer
	expiry    time.Duration
	retention time.Duration
	clock     clock.Clock
	dispatch  func(func())
	log       *zap.Logger
}

// New builds a coordinator. dispatch marshals timer callbacks back onto the
// event loop; pass nil to run them inline (tests).
func New(expiry, retention time.Duration, clk clock.Clock, dispatch func(func()), log *zap.Logger) *Coordinator {
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}
	return &Coordinator{
		requests:  make(map[string]*models.CallbackRequest),
		timers:    make(map[string]clock.Timer),
		expiry:    expiry,
		retention: retention,
		clock:     clk,
		dispatch:  dispatch,
		log:       log,
	}
}

// Create registers a pending request and schedules its auto-expiry. It always
// succeeds.
func (c *Coordinator) Create(requesterID, targetID string, priorCallAt *time.Time, priorCallCountry string) *models.CallbackRequest {
	req := &models.CallbackRequest{
		ID:               uuid.New().String(),
		RequesterID:      requesterID,
		TargetID:         targetID,
		CreatedAt:        c.clock.Now(),
		Status:           models.CallbackPending,
		PriorCallAt:      priorCallAt,
		PriorCallCountry: priorCallCountry,
	}
	c.requests[req.ID] = req
	id := req.ID
	c.timers[id] = c.clock.AfterFunc(c.expiry, func() {
		c.dispatch(func() { c.expire(id) })
	})
	c.log.Info("callback requested",
		zap.String("request_id", req.ID),
		zap.String("requester", requesterID),
		zap.String("target", targetID))
	return req
}

// Accept transitions a pending request to accepted and cancels its expiry
// timer. Accepted requests are expected to be replaced by a call session, so
// no purge is scheduled.
func (c *Coordinator) Accept(id string) *models.CallbackRequest {
	req, ok := c.requests[id]
	if !ok || req.Status != models.CallbackPending {
		return nil
	}
	c.stopTimer(id)
	req.Status = models.CallbackAccepted
	return req
}

// Decline transitions a pending request to declined and schedules its purge.
func (c *Coordinator) Decline(id string) *models.CallbackRequest {
	req, ok := c.requests[id]
	if !ok || req.Status != models.CallbackPending {
		return nil
	}
	c.stopTimer(id)
	req.Status = models.CallbackDeclined
	c.schedulePurge(id)
	return req
}

// Cancel purges a pending request immediately, recording no status.
func (c *Coordinator) Cancel(id string) *models.CallbackRequest {
	req, ok := c.requests[id]
	if !ok || req.Status != models.CallbackPending {
		return nil
	}
	c.stopTimer(id)
	delete(c.requests, id)
	return req
}

// Get returns a request by id until it is purged.
func (c *Coordinator) Get(id string) *models.CallbackRequest {
	return c.requests[id]
}

// CheckMutual returns the pending a→b request when a pending b→a request also
// exists, so symmetric interest pairs both sides without an accept click.
func (c *Coordinator) CheckMutual(a, b string) *models.CallbackRequest {
	fromA := c.findPending(a, b)
	if fromA == nil {
		return nil
	}
	if c.findPending(b, a) == nil {
		return nil
	}
	return fromA
}

// PendingSentBy lists pending requests the participant created.
func (c *Coordinator) PendingSentBy(participantID string) []*models.CallbackRequest {
	out := make([]*models.CallbackRequest, 0)
	for _, req := range c.requests {
		if req.Status == models.CallbackPending && req.RequesterID == participantID {
			out = append(out, req)
		}
	}
	return out
}

// PendingReceivedBy lists pending requests aimed at the participant.
func (c *Coordinator) PendingReceivedBy(participantID string) []*models.CallbackRequest {
	out := make([]*models.CallbackRequest, 0)
	for _, req := range c.requests {
		if req.Status == models.CallbackPending && req.TargetID == participantID {
			out = append(out, req)
		}
	}
	return out
}

// RequestsFor lists every retained request involving the participant.
func (c *Coordinator) RequestsFor(participantID string) []*models.CallbackRequest {
	out := make([]*models.CallbackRequest, 0)
	for _, req := range c.requests {
		if req.RequesterID == participantID || req.TargetID == participantID {
			out = append(out, req)
		}
	}
	return out
}

// Sweep is the periodic safety net: it expires overdue pendings whose timer
// was lost and purges resolved requests past the retention window.
func (c *Coordinator) Sweep() {
	now := c.clock.Now()
	for id, req := range c.requests {
		switch req.Status {
		case models.CallbackPending:
			if now.Sub(req.CreatedAt) > c.expiry {
				c.expire(id)
			}
		case models.CallbackDeclined, models.CallbackExpired:
			if now.Sub(req.CreatedAt) > c.expiry+2*c.retention {
				delete(c.requests, id)
			}
		}
	}
}

func (c *Coordinator) expire(id string) {
	req, ok := c.requests[id]
	if !ok || req.Status != models.CallbackPending {
		// Already resolved; a stale timer must not re-finalize it.
		return
	}
	c.stopTimer(id)
	req.Status = models.CallbackExpired
	c.schedulePurge(id)
	c.log.Debug("callback expired", zap.String("request_id", id))
}

func (c *Coordinator) schedulePurge(id string) {
	c.clock.AfterFunc(c.retention, func() {
		c.dispatch(func() {
			req, ok := c.requests[id]
			if !ok || req.Status == models.CallbackPending || req.Status == models.CallbackAccepted {
				return
			}
			delete(c.requests, id)
		})
	})
}

func (c *Coordinator) stopTimer(id string) {
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
}

func (c *Coordinator) findPending(from, to string) *models.CallbackRequest {
	for _, req := range c.requests {
		if req.Status == models.CallbackPending && req.RequesterID == from && req.TargetID == to {
			return req
		}
	}
	return nil
}
