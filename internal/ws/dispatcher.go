package ws

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"voicechat-service/internal/callback"
	"voicechat-service/internal/common/clock"
	"voicechat-service/internal/game"
	"voicechat-service/internal/geo"
	"voicechat-service/internal/match"
	"voicechat-service/internal/models"
	"voicechat-service/internal/moderation"
	"voicechat-service/internal/observability"
	"voicechat-service/internal/registry"
	"voicechat-service/internal/session"
)

// Config carries the dispatcher's timing knobs.
type Config struct {
	CallbackExpiry    time.Duration
	CallbackRetention time.Duration
	SweepInterval     time.Duration
	StatsInterval     time.Duration
}

// Dispatcher is the single-threaded reactor at the heart of the service:
// every inbound event, timer callback, and sweep runs to completion on one
// goroutine, so the core tables need no locks and the pairing and session
// invariants hold trivially.
type Dispatcher struct {
	loop chan func()

	sender     Sender
	registry   *registry.Registry
	sessions   *session.Registry
	matcher    *match.Matcher
	callbacks  *callback.Coordinator
	games      *game.Coordinator
	moderation *moderation.Gateway
	geo        *geo.Resolver

	cfg Config
	log *zap.Logger
}

// New wires the dispatcher. The callback coordinator is created here so its
// timer callbacks re-enter through the loop.
func New(cfg Config, sender Sender, reg *registry.Registry, sessions *session.Registry, matcher *match.Matcher, games *game.Coordinator, mod *moderation.Gateway, geoResolver *geo.Resolver, clk clock.Clock, log *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		loop:       make(chan func(), 256),
		sender:     sender,
		registry:   reg,
		sessions:   sessions,
		matcher:    matcher,
		games:      games,
		moderation: mod,
		geo:        geoResolver,
		cfg:        cfg,
		log:        log,
	}
	d.callbacks = callback.New(cfg.CallbackExpiry, cfg.CallbackRetention, clk, d.Do, log)
	return d
}

// Callbacks exposes the coordinator for wiring and tests.
func (d *Dispatcher) Callbacks() *callback.Coordinator {
	return d.callbacks
}

// Do posts a closure onto the event loop.
func (d *Dispatcher) Do(fn func()) {
	d.loop <- fn
}

// Dispatch posts one inbound client event onto the loop.
func (d *Dispatcher) Dispatch(client *Client, event models.Event) {
	d.Do(func() { d.handle(client, event) })
}

// Run processes the loop until the context is cancelled. Periodic stats
// broadcasts and garbage-collection sweeps share the same goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	stats := time.NewTicker(d.cfg.StatsInterval)
	defer stats.Stop()
	sweep := time.NewTicker(d.cfg.SweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-d.loop:
			fn()
		case <-stats.C:
			d.broadcastStats()
		case <-sweep.C:
			d.sweepTables()
		}
	}
}

func (d *Dispatcher) handle(client *Client, event models.Event) {
	if event.Type == models.EventConnect {
		d.handleConnect(client, event.Payload)
		return
	}
	// Every other event requires an established identity.
	if client.participantID == "" {
		return
	}

	switch event.Type {
	case models.EventCallRequest:
		d.handleCallRequest(client, event.Payload)
	case models.EventCallEnd:
		d.handleCallEnd(client)
	case models.EventWebRTCOffer, models.EventWebRTCAnswer, models.EventWebRTCCandidate:
		d.relaySignal(client, event)
	case models.EventChatMessage:
		d.handleChatMessage(client, event.Payload)
	case models.EventChatHistory:
		d.handleChatHistory(client, event.Payload)
	case models.EventAudioLevel:
		d.handleAudioLevel(client, event.Payload)
	case models.EventAudioMute:
		d.handleAudioMute(client, event.Payload)
	case models.EventUserReport:
		d.handleUserReport(client, event.Payload)
	case models.EventCallbackRequest:
		d.handleCallbackRequest(client, event.Payload)
	case models.EventCallbackAccept:
		d.handleCallbackAccept(client, event.Payload)
	case models.EventCallbackDecline:
		d.handleCallbackDecline(client, event.Payload)
	case models.EventCallbackCancel:
		d.handleCallbackCancel(client, event.Payload)
	case models.EventGameInvite:
		d.handleGameInvite(client, event.Payload)
	case models.EventGameAccept:
		d.handleGameAccept(client, event.Payload)
	case models.EventGameDecline:
		d.handleGameDecline(client, event.Payload)
	case models.EventGameSetWord:
		d.handleGameSetWord(client, event.Payload)
	case models.EventGameGuess:
		d.handleGameGuess(client, event.Payload)
	case models.EventGameEnd:
		d.handleGameEnd(client, event.Payload)
	case models.EventGameRematch:
		d.handleGameRematch(client, event.Payload)
	case models.EventGameRematchAck:
		d.handleGameRematchAccept(client, event.Payload)
	default:
		d.log.Debug("unknown event type", zap.String("type", event.Type))
	}
}

func (d *Dispatcher) handleConnect(client *Client, raw json.RawMessage) {
	if client.participantID != "" {
		return
	}
	var payload models.ConnectPayload
	if raw != nil {
		_ = json.Unmarshal(raw, &payload)
	}

	p := d.registry.Register(payload.Age, payload.Country)
	client.participantID = p.ID
	d.sender.Attach(p.ID, client)

	d.sender.Send(p.ID, models.NewEvent(models.EventConnected, models.ConnectedPayload{
		Participant: p.Summary(),
	}))

	// Country resolution is asynchronous and must never block matching.
	if p.Country == "" && d.geo != nil {
		id := p.ID
		d.geo.Lookup(context.Background(), client.ip, func(country string) {
			d.Do(func() {
				d.registry.Update(id, registry.Update{Country: &country})
			})
		})
	}
}

func (d *Dispatcher) disconnect(client *Client) {
	id := client.participantID
	if id == "" {
		return
	}
	if s := d.sessions.GetByParticipant(id); s != nil {
		d.endCall(s, id)
	}
	d.registry.Remove(id)
	d.sender.Detach(id)
}

func (d *Dispatcher) handleCallRequest(client *Client, raw json.RawMessage) {
	var payload models.CallRequestPayload
	if raw != nil {
		_ = json.Unmarshal(raw, &payload)
	}

	res := d.matcher.RequestCall(client.participantID, models.CallFilters{
		MinAge:    payload.MinAge,
		MaxAge:    payload.MaxAge,
		Countries: payload.Countries,
	})
	if !res.Matched {
		d.sender.Send(client.participantID, models.NewEvent(models.EventCallWaiting, nil))
		return
	}

	observability.IncMatch()
	observability.IncActiveCall()
	d.notifyMatched(res.Session, client.participantID)
}

func (d *Dispatcher) handleCallEnd(client *Client) {
	s := d.sessions.GetByParticipant(client.participantID)
	if s == nil {
		return
	}
	d.endCall(s, client.participantID)
}

// notifyMatched tells both sides the session is established. The initiator is
// the side that opens the media offer.
func (d *Dispatcher) notifyMatched(s *models.CallSession, initiatorID string) {
	for _, id := range []string{s.Participant1, s.Participant2} {
		partner := d.registry.Get(s.Partner(id))
		if partner == nil {
			continue
		}
		d.sender.Send(id, models.NewEvent(models.EventCallMatched, models.CallMatchedPayload{
			SessionID:   s.ID,
			Partner:     partner.Summary(),
			InitiatorID: initiatorID,
		}))
	}
}

// endCall tears a session down: games are cascaded first, both participants
// go back to idle, and the non-ending side is informed.
func (d *Dispatcher) endCall(s *models.CallSession, enderID string) {
	ended := d.sessions.End(s.ID)
	if ended == nil {
		return
	}
	observability.DecActiveCall()

	for _, g := range d.games.SessionCleanup(s.ID) {
		observability.IncGameFinished("")
		d.notifyGameEnded(g)
	}

	idle := models.CallStatusIdle
	noPartner := ""
	for _, id := range []string{s.Participant1, s.Participant2} {
		d.registry.Update(id, registry.Update{CallStatus: &idle, PartnerID: &noPartner})
	}

	if partnerID := s.Partner(enderID); partnerID != "" {
		d.sender.Send(partnerID, models.NewEvent(models.EventCallEnded, models.CallEndedPayload{
			SessionID: s.ID,
		}))
	}
}

func (d *Dispatcher) handleChatMessage(client *Client, raw json.RawMessage) {
	var payload models.ChatMessagePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	s := d.sessions.Get(payload.SessionID)
	if s == nil || !s.Active || !s.Involves(client.participantID) {
		return
	}

	if ok, reason := d.moderation.Screen(client.participantID, payload.Content); !ok {
		d.sender.Send(client.participantID, models.NewEvent(models.EventChatBlocked, models.ChatBlockedPayload{
			SessionID: s.ID,
			Reason:    reason,
		}))
		return
	}

	msg := d.sessions.AppendMessage(s.ID, client.participantID, payload.Content)
	if msg == nil {
		return
	}
	event := models.NewEvent(models.EventChatMessage, msg)
	d.sender.Send(s.Participant1, event)
	d.sender.Send(s.Participant2, event)
}

func (d *Dispatcher) handleChatHistory(client *Client, raw json.RawMessage) {
	var payload models.ChatHistoryPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	s := d.sessions.Get(payload.SessionID)
	if s == nil || !s.Involves(client.participantID) {
		return
	}
	d.sender.Send(client.participantID, models.NewEvent(models.EventChatHistory, models.ChatHistoryPayload{
		SessionID: s.ID,
		Messages:  s.Messages,
	}))
}

func (d *Dispatcher) handleAudioLevel(client *Client, raw json.RawMessage) {
	var payload models.AudioLevelPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	d.registry.Update(client.participantID, registry.Update{AudioLevel: &payload.Level})
}

func (d *Dispatcher) handleAudioMute(client *Client, raw json.RawMessage) {
	var payload models.AudioMutePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	d.registry.Update(client.participantID, registry.Update{Muted: &payload.Muted})
}

// handleUserReport records a report and ends the reporter's current call with
// the reported partner, if any. The pair is never matched again.
func (d *Dispatcher) handleUserReport(client *Client, raw json.RawMessage) {
	var payload models.ReportPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.TargetID == "" {
		return
	}
	d.moderation.Report(client.participantID, payload.TargetID, payload.Reason)

	if s := d.sessions.GetByParticipant(client.participantID); s != nil && s.Involves(payload.TargetID) {
		d.endCall(s, client.participantID)
	}
}

// startCall opens a session outside the matcher path (callback reconnects).
// Both sides must be registered, idle, and connected.
func (d *Dispatcher) startCall(initiatorID, partnerID string) *models.CallSession {
	a := d.registry.Get(initiatorID)
	b := d.registry.Get(partnerID)
	if a == nil || b == nil {
		return nil
	}
	if a.CallStatus == models.CallStatusInCall || b.CallStatus == models.CallStatusInCall {
		return nil
	}
	if !d.sender.IsConnected(initiatorID) || !d.sender.IsConnected(partnerID) {
		return nil
	}

	d.registry.RemoveWaiting(initiatorID)
	d.registry.RemoveWaiting(partnerID)

	s := d.sessions.Create(initiatorID, partnerID)
	if s == nil {
		return nil
	}
	inCall := models.CallStatusInCall
	d.registry.Update(initiatorID, registry.Update{CallStatus: &inCall, PartnerID: &partnerID})
	d.registry.Update(partnerID, registry.Update{CallStatus: &inCall, PartnerID: &initiatorID})

	observability.IncActiveCall()
	d.notifyMatched(s, initiatorID)
	return s
}

// Snapshot reads the stats counters through the loop, so HTTP reads observe
// a consistent view.
func (d *Dispatcher) Snapshot() models.StatsPayload {
	ch := make(chan models.StatsPayload, 1)
	d.Do(func() {
		ch <- models.StatsPayload{
			OnlineUsers:   d.registry.Count(),
			ActiveCalls:   d.sessions.ActiveCount(),
			TotalSessions: d.sessions.TotalCount(),
		}
	})
	return <-ch
}

func (d *Dispatcher) broadcastStats() {
	d.sender.Broadcast(models.NewEvent(models.EventStatsUpdate, models.StatsPayload{
		OnlineUsers:   d.registry.Count(),
		ActiveCalls:   d.sessions.ActiveCount(),
		TotalSessions: d.sessions.TotalCount(),
	}))
}

func (d *Dispatcher) sweepTables() {
	d.sessions.GarbageCollect()
	d.games.GarbageCollect()
	d.callbacks.Sweep()
}
