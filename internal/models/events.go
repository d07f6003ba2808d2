package models

import (
	"encoding/json"
	"time"
)

// Event is the wire envelope for every message on the client channel.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound event types.
const (
	EventConnect         = "connect"
	EventCallRequest     = "call:request"
	EventCallEnd         = "call:end"
	EventWebRTCOffer     = "webrtc:offer"
	EventWebRTCAnswer    = "webrtc:answer"
	EventWebRTCCandidate = "webrtc:ice-candidate"
	EventChatMessage     = "chat:message"
	EventChatHistory     = "chat:history"
	EventAudioLevel      = "audio:level"
	EventAudioMute       = "audio:mute"
	EventCallbackRequest = "callback:request"
	EventCallbackAccept  = "callback:accept"
	EventCallbackDecline = "callback:decline"
	EventCallbackCancel  = "callback:cancel"
	EventGameInvite      = "game:invite"
	EventGameAccept      = "game:accept"
	EventGameDecline     = "game:decline"
	EventGameSetWord     = "game:set-word"
	EventGameGuess       = "game:guess"
	EventGameEnd         = "game:end"
	EventGameRematch     = "game:rematch"
	EventGameRematchAck  = "game:rematch-accept"
	EventUserReport      = "user:report"
)

// Outbound event types.
const (
	EventConnected         = "connected"
	EventCallMatched       = "call:matched"
	EventCallWaiting       = "call:waiting"
	EventCallEnded         = "call:ended"
	EventChatBlocked       = "chat:blocked"
	EventCallbackRequested = "callback:requested"
	EventCallbackSent      = "callback:request:sent"
	EventCallbackAccepted  = "callback:request:accepted"
	EventCallbackDeclined  = "callback:request:declined"
	EventCallbackCancelled = "callback:request:cancelled"
	EventCallbackMutual    = "callback:mutual"
	EventGameInvited       = "game:invited"
	EventGameInviteSent    = "game:invite-sent"
	EventGameDeclined      = "game:declined"
	EventGameStarted       = "game:started"
	EventGameWordSet       = "game:word-set"
	EventGameGuessResult   = "game:guess-result"
	EventGameEnded         = "game:ended"
	EventGameRematchSent   = "game:rematch-invited"
	EventGameError         = "game:error"
	EventStatsUpdate       = "stats:update"
)

// ConnectPayload registers a participant.
type ConnectPayload struct {
	Age     *int   `json:"age,omitempty"`
	Country string `json:"country,omitempty"`
}

// ConnectedPayload replies with the assigned identity.
type ConnectedPayload struct {
	Participant ParticipantSummary `json:"participant"`
}

// CallRequestPayload carries the requester's match filters.
type CallRequestPayload struct {
	MinAge    *int     `json:"min_age,omitempty"`
	MaxAge    *int     `json:"max_age,omitempty"`
	Countries []string `json:"countries,omitempty"`
}

// CallMatchedPayload notifies both sides of an established session.
// InitiatorID designates which side opens the media offer.
type CallMatchedPayload struct {
	SessionID   string             `json:"session_id"`
	Partner     ParticipantSummary `json:"partner"`
	InitiatorID string             `json:"initiator_id"`
}

// CallEndedPayload informs the partner of teardown.
type CallEndedPayload struct {
	SessionID string `json:"session_id"`
}

// SignalPayload is an opaque WebRTC signaling message routed by To.
type SignalPayload struct {
	To     string          `json:"to"`
	From   string          `json:"from,omitempty"`
	Signal json.RawMessage `json:"signal"`
}

// ChatMessagePayload posts text into a session.
type ChatMessagePayload struct {
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
}

// ChatBlockedPayload is returned to the sender only.
type ChatBlockedPayload struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

// ChatHistoryPayload requests or replays a session log.
type ChatHistoryPayload struct {
	SessionID string        `json:"session_id"`
	Messages  []ChatMessage `json:"messages,omitempty"`
}

// AudioLevelPayload updates the speaker level.
type AudioLevelPayload struct {
	Level float64 `json:"level"`
}

// AudioMutePayload updates the mute flag.
type AudioMutePayload struct {
	Muted bool `json:"muted"`
}

// CallbackRequestPayload asks a former partner to reconnect.
type CallbackRequestPayload struct {
	TargetID         string     `json:"target_id"`
	PriorCallAt      *time.Time `json:"prior_call_at,omitempty"`
	PriorCallCountry string     `json:"prior_call_country,omitempty"`
}

// CallbackActionPayload drives accept/decline/cancel by request id.
type CallbackActionPayload struct {
	RequestID string `json:"request_id"`
}

// CallbackEventPayload carries a request on outbound callback events.
type CallbackEventPayload struct {
	Request CallbackRequest `json:"request"`
}

// GameInvitePayload starts the invite lifecycle for a session.
type GameInvitePayload struct {
	SessionID string `json:"session_id"`
}

// GameInviteActionPayload accepts or declines an invite.
type GameInviteActionPayload struct {
	InviteID string `json:"invite_id"`
}

// GameInviteEventPayload carries an invite on outbound events.
type GameInviteEventPayload struct {
	Invite GameInvite `json:"invite"`
}

// GameStartedPayload carries each player's view of the fresh game.
type GameStartedPayload struct {
	Game GameView `json:"game"`
}

// SetWordPayload supplies the secret word and optional category hint.
type SetWordPayload struct {
	GameID   string `json:"game_id"`
	Word     string `json:"word"`
	Category string `json:"category,omitempty"`
}

// GuessPayload submits a single letter or a full word.
type GuessPayload struct {
	GameID string `json:"game_id"`
	Guess  string `json:"guess"`
}

// GameIDPayload names a game for end/rematch actions.
type GameIDPayload struct {
	GameID   string `json:"game_id"`
	SetterID string `json:"setter_id,omitempty"`
}

// RematchActionPayload accepts a rematch proposal.
type RematchActionPayload struct {
	RematchID string `json:"rematch_id"`
}

// RematchEventPayload carries a rematch proposal on outbound events.
type RematchEventPayload struct {
	Rematch RematchInvite `json:"rematch"`
}

// GameEndedPayload announces a finished game with the revealed word.
type GameEndedPayload struct {
	GameID string   `json:"game_id"`
	Winner GameRole `json:"winner,omitempty"`
	Word   string   `json:"word"`
}

// GameErrorPayload surfaces a rejected game action.
type GameErrorPayload struct {
	GameID string `json:"game_id,omitempty"`
	Reason string `json:"reason"`
}

// ReportPayload flags another participant for moderation.
type ReportPayload struct {
	TargetID string `json:"target_id"`
	Reason   string `json:"reason"`
}

// StatsPayload is the periodic broadcast snapshot.
type StatsPayload struct {
	OnlineUsers   int `json:"online_users"`
	ActiveCalls   int `json:"active_calls"`
	TotalSessions int `json:"total_sessions"`
}

// NewEvent marshals a payload into the wire envelope.
func NewEvent(eventType string, payload any) Event {
	if payload == nil {
		return Event{Type: eventType}
	}
	raw, _ := json.Marshal(payload)
	return Event{Type: eventType, Payload: raw}
}
