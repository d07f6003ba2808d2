package ws

import (
	"encoding/json"

	"go.uber.org/zap"

	"voicechat-service/internal/models"
	"voicechat-service/internal/observability"
)

// relaySignal forwards an opaque WebRTC signaling message to the participant
// named in its `to` field. The payload is never interpreted. A recipient that
// is gone means a silent drop: no queue, no retry.
func (d *Dispatcher) relaySignal(client *Client, event models.Event) {
	var payload models.SignalPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil || payload.To == "" {
		return
	}
	payload.From = client.participantID

	if d.registry.Get(payload.To) == nil {
		observability.IncSignalDropped()
		return
	}

	if !d.sender.Send(payload.To, models.NewEvent(event.Type, payload)) {
		observability.IncSignalDropped()
		d.log.Debug("signal dropped, recipient gone",
			zap.String("type", event.Type),
			zap.String("to", payload.To))
		return
	}
	observability.IncSignalRelayed(event.Type)
}
