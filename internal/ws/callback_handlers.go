package ws

import (
	"encoding/json"

	"voicechat-service/internal/models"
	"voicechat-service/internal/observability"
)

func (d *Dispatcher) handleCallbackRequest(client *Client, raw json.RawMessage) {
	var payload models.CallbackRequestPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.TargetID == "" {
		return
	}
	if payload.TargetID == client.participantID {
		return
	}

	req := d.callbacks.Create(client.participantID, payload.TargetID, payload.PriorCallAt, payload.PriorCallCountry)
	observability.IncCallbackRequest(string(models.CallbackPending))

	d.sender.Send(client.participantID, models.NewEvent(models.EventCallbackSent, models.CallbackEventPayload{Request: *req}))
	d.sender.Send(payload.TargetID, models.NewEvent(models.EventCallbackRequested, models.CallbackEventPayload{Request: *req}))

	// Symmetric interest pairs both sides without an accept click.
	if mutual := d.callbacks.CheckMutual(client.participantID, payload.TargetID); mutual != nil {
		d.resolveMutual(mutual)
	}
}

// resolveMutual accepts both pending requests of a mutual pair and starts the
// reconnect call directly.
func (d *Dispatcher) resolveMutual(fromA *models.CallbackRequest) {
	a, b := fromA.RequesterID, fromA.TargetID
	accepted := d.callbacks.Accept(fromA.ID)
	if accepted == nil {
		return
	}
	for _, pending := range d.callbacks.PendingSentBy(b) {
		if pending.TargetID == a {
			d.callbacks.Accept(pending.ID)
		}
	}
	observability.IncCallbackRequest(string(models.CallbackAccepted))

	event := models.NewEvent(models.EventCallbackMutual, models.CallbackEventPayload{Request: *accepted})
	d.sender.Send(a, event)
	d.sender.Send(b, event)

	d.startCall(a, b)
}

func (d *Dispatcher) handleCallbackAccept(client *Client, raw json.RawMessage) {
	var payload models.CallbackActionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	req := d.callbacks.Get(payload.RequestID)
	if req == nil || req.TargetID != client.participantID {
		return
	}
	accepted := d.callbacks.Accept(payload.RequestID)
	if accepted == nil {
		// Expired or already resolved; stale clicks degrade to no-ops.
		return
	}
	observability.IncCallbackRequest(string(models.CallbackAccepted))

	event := models.NewEvent(models.EventCallbackAccepted, models.CallbackEventPayload{Request: *accepted})
	d.sender.Send(accepted.RequesterID, event)
	d.sender.Send(accepted.TargetID, event)

	d.startCall(accepted.RequesterID, accepted.TargetID)
}

func (d *Dispatcher) handleCallbackDecline(client *Client, raw json.RawMessage) {
	var payload models.CallbackActionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	req := d.callbacks.Get(payload.RequestID)
	if req == nil || req.TargetID != client.participantID {
		return
	}
	declined := d.callbacks.Decline(payload.RequestID)
	if declined == nil {
		return
	}
	observability.IncCallbackRequest(string(models.CallbackDeclined))
	d.sender.Send(declined.RequesterID, models.NewEvent(models.EventCallbackDeclined, models.CallbackEventPayload{Request: *declined}))
}

func (d *Dispatcher) handleCallbackCancel(client *Client, raw json.RawMessage) {
	var payload models.CallbackActionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	req := d.callbacks.Get(payload.RequestID)
	if req == nil || req.RequesterID != client.participantID {
		return
	}
	cancelled := d.callbacks.Cancel(payload.RequestID)
	if cancelled == nil {
		return
	}
	d.sender.Send(cancelled.TargetID, models.NewEvent(models.EventCallbackCancelled, models.CallbackEventPayload{Request: *cancelled}))
}
