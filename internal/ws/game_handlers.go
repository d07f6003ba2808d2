package ws

import (
	"encoding/json"

	"voicechat-service/internal/models"
	"voicechat-service/internal/observability"
)

func (d *Dispatcher) handleGameInvite(client *Client, raw json.RawMessage) {
	var payload models.GameInvitePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	s := d.sessions.Get(payload.SessionID)
	if s == nil || !s.Active || !s.Involves(client.participantID) {
		return
	}

	inv, err := d.games.Invite(s.ID, client.participantID, s.Partner(client.participantID))
	if err != nil {
		d.gameError(client.participantID, "", err.Error())
		return
	}
	d.sender.Send(inv.FromID, models.NewEvent(models.EventGameInviteSent, models.GameInviteEventPayload{Invite: *inv}))
	d.sender.Send(inv.ToID, models.NewEvent(models.EventGameInvited, models.GameInviteEventPayload{Invite: *inv}))
}

func (d *Dispatcher) handleGameAccept(client *Client, raw json.RawMessage) {
	var payload models.GameInviteActionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	inv := d.games.GetInvite(payload.InviteID)
	if inv == nil {
		return
	}
	s := d.sessions.Get(inv.SessionID)
	if s == nil || !s.Active {
		return
	}

	g, err := d.games.AcceptInvite(payload.InviteID, client.participantID)
	if err != nil {
		d.gameError(client.participantID, "", err.Error())
		return
	}
	observability.IncGameStarted()
	d.notifyGameStarted(g)
}

func (d *Dispatcher) handleGameDecline(client *Client, raw json.RawMessage) {
	var payload models.GameInviteActionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	inv, err := d.games.DeclineInvite(payload.InviteID, client.participantID)
	if err != nil {
		return
	}
	d.sender.Send(inv.FromID, models.NewEvent(models.EventGameDeclined, models.GameInviteEventPayload{Invite: *inv}))
}

func (d *Dispatcher) handleGameSetWord(client *Client, raw json.RawMessage) {
	var payload models.SetWordPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	g, err := d.games.SetWord(payload.GameID, client.participantID, payload.Word, payload.Category)
	if err != nil {
		d.gameError(client.participantID, payload.GameID, err.Error())
		return
	}
	for _, id := range []string{g.SetterID, g.GuesserID} {
		d.sender.Send(id, models.NewEvent(models.EventGameWordSet, models.GameStartedPayload{
			Game: d.games.View(g, id),
		}))
	}
}

func (d *Dispatcher) handleGameGuess(client *Client, raw json.RawMessage) {
	var payload models.GuessPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	res, err := d.games.Guess(payload.GameID, client.participantID, payload.Guess)
	if err != nil {
		d.gameError(client.participantID, payload.GameID, err.Error())
		return
	}

	g := d.games.Get(payload.GameID)
	event := models.NewEvent(models.EventGameGuessResult, res)
	d.sender.Send(g.SetterID, event)
	d.sender.Send(g.GuesserID, event)

	if res.IsGameOver {
		observability.IncGameFinished(string(res.Winner))
		d.notifyGameEnded(g)
	}
}

func (d *Dispatcher) handleGameEnd(client *Client, raw json.RawMessage) {
	var payload models.GameIDPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	g := d.games.Get(payload.GameID)
	if g == nil || g.RoleOf(client.participantID) == "" {
		return
	}
	if d.games.EndGame(payload.GameID) == nil {
		return
	}
	observability.IncGameFinished("")
	d.notifyGameEnded(g)
}

func (d *Dispatcher) handleGameRematch(client *Client, raw json.RawMessage) {
	var payload models.GameIDPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	rm, err := d.games.Rematch(payload.GameID, client.participantID, payload.SetterID)
	if err != nil {
		d.gameError(client.participantID, payload.GameID, err.Error())
		return
	}
	d.sender.Send(rm.ToID, models.NewEvent(models.EventGameRematchSent, models.RematchEventPayload{Rematch: *rm}))
}

func (d *Dispatcher) handleGameRematchAccept(client *Client, raw json.RawMessage) {
	var payload models.RematchActionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	rm := d.games.GetRematch(payload.RematchID)
	if rm == nil {
		return
	}
	s := d.sessions.Get(rm.SessionID)
	if s == nil || !s.Active {
		return
	}

	g, err := d.games.AcceptRematch(payload.RematchID, client.participantID)
	if err != nil {
		d.gameError(client.participantID, "", err.Error())
		return
	}
	observability.IncGameStarted()
	d.notifyGameStarted(g)
}

func (d *Dispatcher) notifyGameStarted(g *models.HangmanGame) {
	for _, id := range []string{g.SetterID, g.GuesserID} {
		d.sender.Send(id, models.NewEvent(models.EventGameStarted, models.GameStartedPayload{
			Game: d.games.View(g, id),
		}))
	}
}

func (d *Dispatcher) notifyGameEnded(g *models.HangmanGame) {
	event := models.NewEvent(models.EventGameEnded, models.GameEndedPayload{
		GameID: g.ID,
		Winner: g.Winner,
		Word:   g.Word,
	})
	d.sender.Send(g.SetterID, event)
	d.sender.Send(g.GuesserID, event)
}

func (d *Dispatcher) gameError(participantID, gameID, reason string) {
	d.sender.Send(participantID, models.NewEvent(models.EventGameError, models.GameErrorPayload{
		GameID: gameID,
		Reason: reason,
	}))
}
