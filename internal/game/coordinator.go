// Package game coordinates the per-session hangman mini-game: the invite
// lifecycle and the turn-based word-guessing state machine.
package game

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"voicechat-service/internal/common/clock"
	"voicechat-service/internal/models"
)

// Coordinator owns invites, rematch proposals, and game instances. All
// mutation happens on the dispatcher goroutine.
type Coordinator struct {
	games     map[string]*models.HangmanGame
	invites   map[string]*models.GameInvite    // invite id -> invite
	bySession map[string]string                // session id -> pending invite id
	rematches map[string]*models.RematchInvite // rematch id -> proposal
	retention time.Duration
	clock     clock.Clock
	log       *zap.Logger
}

// New builds an empty coordinator. Finished games are retained for the given
// window before garbage collection.
func New(retention time.Duration, clk clock.Clock, log *zap.Logger) *Coordinator {
	return &Coordinator{
		games:     make(map[string]*models.HangmanGame),
		invites:   make(map[string]*models.GameInvite),
		bySession: make(map[string]string),
		rematches: make(map[string]*models.RematchInvite),
		retention: retention,
		clock:     clk,
		log:       log,
	}
}

// Invite opens the invite lifecycle for a session. At most one invite may be
// pending per session: re-inviting from the same side returns the existing
// invite, a cross invite is rejected.
func (c *Coordinator) Invite(sessionID, fromID, toID string) (*models.GameInvite, error) {
	if id, ok := c.bySession[sessionID]; ok {
		existing := c.invites[id]
		if existing != nil && existing.FromID == fromID {
			return existing, nil
		}
		return nil, ErrInvitePending
	}
	inv := &models.GameInvite{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		FromID:    fromID,
		ToID:      toID,
		CreatedAt: c.clock.Now(),
	}
	c.invites[inv.ID] = inv
	c.bySession[sessionID] = inv.ID
	return inv, nil
}

// AcceptInvite spawns a game. The inviter becomes the setter.
func (c *Coordinator) AcceptInvite(inviteID, accepterID string) (*models.HangmanGame, error) {
	inv, ok := c.invites[inviteID]
	if !ok {
		return nil, ErrInviteNotFound
	}
	if inv.ToID != accepterID {
		return nil, ErrNotParticipant
	}
	c.dropInvite(inv)
	return c.startGame(inv.SessionID, inv.FromID, inv.ToID), nil
}

// DeclineInvite discards a pending invite.
func (c *Coordinator) DeclineInvite(inviteID, declinerID string) (*models.GameInvite, error) {
	inv, ok := c.invites[inviteID]
	if !ok {
		return nil, ErrInviteNotFound
	}
	if inv.ToID != declinerID {
		return nil, ErrNotParticipant
	}
	c.dropInvite(inv)
	return inv, nil
}

// Get returns a game by id, or nil.
func (c *Coordinator) Get(gameID string) *models.HangmanGame {
	return c.games[gameID]
}

// SetWord stores the secret and advances the game to guessing. Rejected words
// leave the state untouched.
func (c *Coordinator) SetWord(gameID, setterID, rawWord, category string) (*models.HangmanGame, error) {
	g, ok := c.games[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	if g.State != models.GameStateWordSetting {
		return nil, ErrInvalidState
	}
	if g.SetterID != setterID {
		return nil, ErrWrongRole
	}
	word := NormalizeWord(rawWord)
	if word == "" {
		return nil, ErrInvalidWord
	}
	g.Word = word
	g.MaskedWord = initialMask(word)
	g.Category = category
	g.State = models.GameStateGuessing
	c.log.Info("word set", zap.String("game_id", gameID), zap.Int("length", len(word)))
	return g, nil
}

// Guess applies a single-letter or full-word guess from the guesser.
func (c *Coordinator) Guess(gameID, guesserID, rawGuess string) (*models.GuessResult, error) {
	g, ok := c.games[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	if g.State != models.GameStateGuessing {
		return nil, ErrInvalidState
	}
	if g.GuesserID != guesserID {
		return nil, ErrWrongRole
	}

	var res models.GuessResult
	if letter := normalizeLetter(rawGuess); letter != "" {
		res = applyLetterGuess(g, letter)
	} else if word := NormalizeWord(rawGuess); word != "" {
		res = applyWordGuess(g, word)
	} else {
		return nil, ErrInvalidGuess
	}

	if g.State == models.GameStateFinished {
		now := c.clock.Now()
		g.FinishedAt = &now
		c.log.Info("game finished",
			zap.String("game_id", gameID),
			zap.String("winner", string(g.Winner)))
	}
	return &res, nil
}

// EndGame forces a game to finished from any non-finished state with no
// winner recorded. Used for explicit quit and session teardown.
func (c *Coordinator) EndGame(gameID string) *models.HangmanGame {
	g, ok := c.games[gameID]
	if !ok || g.State == models.GameStateFinished {
		return nil
	}
	g.State = models.GameStateFinished
	g.Winner = ""
	now := c.clock.Now()
	g.FinishedAt = &now
	return g
}

// Rematch proposes a fresh game on a finished one. setterID names who sets
// the next word; empty defaults to the previous guesser so roles swap.
func (c *Coordinator) Rematch(gameID, fromID, setterID string) (*models.RematchInvite, error) {
	g, ok := c.games[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	if g.State != models.GameStateFinished {
		return nil, ErrInvalidState
	}
	if g.RoleOf(fromID) == "" {
		return nil, ErrNotParticipant
	}
	if setterID == "" {
		setterID = g.GuesserID
	}
	if setterID != g.SetterID && setterID != g.GuesserID {
		return nil, ErrNotParticipant
	}
	toID := g.SetterID
	if fromID == g.SetterID {
		toID = g.GuesserID
	}
	rm := &models.RematchInvite{
		ID:         uuid.New().String(),
		SessionID:  g.SessionID,
		PrevGameID: g.ID,
		FromID:     fromID,
		ToID:       toID,
		SetterID:   setterID,
		CreatedAt:  c.clock.Now(),
	}
	c.rematches[rm.ID] = rm
	return rm, nil
}

// AcceptRematch creates the brand-new game instance the proposal described.
func (c *Coordinator) AcceptRematch(rematchID, accepterID string) (*models.HangmanGame, error) {
	rm, ok := c.rematches[rematchID]
	if !ok {
		return nil, ErrRematchNotFound
	}
	if rm.ToID != accepterID {
		return nil, ErrNotParticipant
	}
	delete(c.rematches, rematchID)
	guesserID := rm.FromID
	if guesserID == rm.SetterID {
		guesserID = rm.ToID
	}
	return c.startGame(rm.SessionID, rm.SetterID, guesserID), nil
}

// GetInvite returns an invite by id, or nil.
func (c *Coordinator) GetInvite(inviteID string) *models.GameInvite {
	return c.invites[inviteID]
}

// GetRematch returns a rematch proposal by id, or nil.
func (c *Coordinator) GetRematch(rematchID string) *models.RematchInvite {
	return c.rematches[rematchID]
}

// PendingInvite returns the session's pending invite, or nil.
func (c *Coordinator) PendingInvite(sessionID string) *models.GameInvite {
	if id, ok := c.bySession[sessionID]; ok {
		return c.invites[id]
	}
	return nil
}

// ActiveGame returns the session's non-finished game, or nil.
func (c *Coordinator) ActiveGame(sessionID string) *models.HangmanGame {
	for _, g := range c.games {
		if g.SessionID == sessionID && g.State != models.GameStateFinished {
			return g
		}
	}
	return nil
}

// SessionCleanup cascades a call-session end: non-finished games are forced
// to finished with no winner, pending invites and rematch proposals are
// purged. A mini-game never outlives its call.
func (c *Coordinator) SessionCleanup(sessionID string) []*models.HangmanGame {
	ended := make([]*models.HangmanGame, 0)
	for id, g := range c.games {
		if g.SessionID != sessionID {
			continue
		}
		if forced := c.EndGame(id); forced != nil {
			ended = append(ended, forced)
		}
	}
	if id, ok := c.bySession[sessionID]; ok {
		delete(c.invites, id)
		delete(c.bySession, sessionID)
	}
	for id, rm := range c.rematches {
		if rm.SessionID == sessionID {
			delete(c.rematches, id)
		}
	}
	return ended
}

// View projects a game for one viewer. The secret word is withheld from the
// guesser until the game is finished; the setter always sees it.
func (c *Coordinator) View(g *models.HangmanGame, viewerID string) models.GameView {
	view := models.GameView{
		ID:             g.ID,
		SessionID:      g.SessionID,
		Role:           g.RoleOf(viewerID),
		MaskedWord:     g.MaskedWord,
		Category:       g.Category,
		GuessedLetters: g.GuessedLetters,
		WrongGuesses:   g.WrongGuesses,
		MaxAttempts:    g.MaxAttempts,
		AttemptsLeft:   g.AttemptsLeft,
		State:          g.State,
		Winner:         g.Winner,
	}
	if view.Role == models.RoleSetter || g.State == models.GameStateFinished {
		view.Word = g.Word
	}
	return view
}

// GarbageCollect purges games finished longer than the retention window ago.
func (c *Coordinator) GarbageCollect() int {
	cutoff := c.clock.Now().Add(-c.retention)
	purged := 0
	for id, g := range c.games {
		if g.State != models.GameStateFinished || g.FinishedAt == nil {
			continue
		}
		if g.FinishedAt.Before(cutoff) {
			delete(c.games, id)
			purged++
		}
	}
	return purged
}

func (c *Coordinator) startGame(sessionID, setterID, guesserID string) *models.HangmanGame {
	g := &models.HangmanGame{
		ID:             uuid.New().String(),
		SessionID:      sessionID,
		SetterID:       setterID,
		GuesserID:      guesserID,
		GuessedLetters: []string{},
		WrongGuesses:   []string{},
		MaxAttempts:    MaxAttempts,
		AttemptsLeft:   MaxAttempts,
		State:          models.GameStateWordSetting,
		StartedAt:      c.clock.Now(),
	}
	c.games[g.ID] = g
	c.log.Info("game started",
		zap.String("game_id", g.ID),
		zap.String("session_id", sessionID),
		zap.String("setter", setterID))
	return g
}

func (c *Coordinator) dropInvite(inv *models.GameInvite) {
	delete(c.invites, inv.ID)
	if c.bySession[inv.SessionID] == inv.ID {
		delete(c.bySession, inv.SessionID)
	}
}
