package game

import "errors"

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrInviteNotFound  = errors.New("invite not found")
	ErrRematchNotFound = errors.New("rematch invite not found")
	ErrInvitePending   = errors.New("an invite is already pending for this session")
	ErrNotParticipant  = errors.New("participant does not belong to this game")
	ErrWrongRole       = errors.New("action not allowed for this role")
	ErrInvalidState    = errors.New("game is not in the required state")
	ErrInvalidWord     = errors.New("word must be 3-15 letters")
	ErrInvalidGuess    = errors.New("guess must be a letter or a word")
)
