package ws

import (
	"sync"

	"go.uber.org/zap"

	"voicechat-service/internal/models"
)

// Sender delivers events to connected participants. The dispatcher depends on
// this interface so tests can substitute a recording fake.
type Sender interface {
	Attach(participantID string, client *Client)
	Detach(participantID string)
	Send(participantID string, event models.Event) bool
	Broadcast(event models.Event)
	IsConnected(participantID string) bool
}

// Hub maintains the participant-keyed connection table.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		log:     log,
	}
}

// Attach binds a registered participant to its connection.
func (h *Hub) Attach(participantID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[participantID] = client
}

// Detach removes the participant's connection.
func (h *Hub) Detach(participantID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, participantID)
}

// IsConnected reports whether the participant has a live connection.
func (h *Hub) IsConnected(participantID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[participantID]
	return ok
}

// Send writes one event to the participant's channel. It reports false when
// the participant is not connected or the write failed; a failed connection
// is closed and evicted.
func (h *Hub) Send(participantID string, event models.Event) bool {
	h.mu.RLock()
	client := h.clients[participantID]
	h.mu.RUnlock()

	if client == nil || client.conn == nil {
		return false
	}
	if err := client.conn.WriteJSON(event); err != nil {
		h.log.Warn("websocket write error",
			zap.String("participant_id", participantID),
			zap.Error(err))
		client.conn.Close()
		h.Detach(participantID)
		return false
	}
	return true
}

// Broadcast writes one event to every connected participant.
func (h *Hub) Broadcast(event models.Event) {
	h.mu.RLock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.Send(id, event)
	}
}

// Count reports the number of attached connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
