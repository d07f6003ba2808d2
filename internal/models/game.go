package models

import "time"

// GameState tracks the forward-only hangman lifecycle.
type GameState string

const (
	GameStateWordSetting GameState = "word_setting"
	GameStateGuessing    GameState = "guessing"
	GameStateFinished    GameState = "finished"
)

// GameRole names the two fixed roles of one game instance.
type GameRole string

const (
	RoleSetter  GameRole = "setter"
	RoleGuesser GameRole = "guesser"
)

// HangmanGame is a turn-based word-guessing game bound to one call session.
type HangmanGame struct {
	ID             string     `json:"id"`
	SessionID      string     `json:"session_id"`
	SetterID       string     `json:"setter_id"`
	GuesserID      string     `json:"guesser_id"`
	Word           string     `json:"-"`
	MaskedWord     string     `json:"masked_word"`
	Category       string     `json:"category,omitempty"`
	GuessedLetters []string   `json:"guessed_letters"`
	WrongGuesses   []string   `json:"wrong_guesses"`
	MaxAttempts    int        `json:"max_attempts"`
	AttemptsLeft   int        `json:"attempts_left"`
	State          GameState  `json:"state"`
	Winner         GameRole   `json:"winner,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// RoleOf returns the participant's role, or "" for non-members.
func (g *HangmanGame) RoleOf(participantID string) GameRole {
	switch participantID {
	case g.SetterID:
		return RoleSetter
	case g.GuesserID:
		return RoleGuesser
	}
	return ""
}

// GameView is the role-dependent projection of a game. The secret word is
// included only for the setter, or for anyone once the game is finished.
type GameView struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	Role           GameRole  `json:"role"`
	Word           string    `json:"word,omitempty"`
	MaskedWord     string    `json:"masked_word"`
	Category       string    `json:"category,omitempty"`
	GuessedLetters []string  `json:"guessed_letters"`
	WrongGuesses   []string  `json:"wrong_guesses"`
	MaxAttempts    int       `json:"max_attempts"`
	AttemptsLeft   int       `json:"attempts_left"`
	State          GameState `json:"state"`
	Winner         GameRole  `json:"winner,omitempty"`
}

// GameInvite exists only between invite-sent and accept/decline/purge.
type GameInvite struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	FromID    string    `json:"from_id"`
	ToID      string    `json:"to_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RematchInvite proposes a fresh game on a finished one, naming the next setter.
type RematchInvite struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	PrevGameID string    `json:"prev_game_id"`
	FromID     string    `json:"from_id"`
	ToID       string    `json:"to_id"`
	SetterID   string    `json:"setter_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// GuessResult echoes the outcome of a single guess to both players.
type GuessResult struct {
	GameID       string    `json:"game_id"`
	Guess        string    `json:"guess"`
	IsWordGuess  bool      `json:"is_word_guess"`
	IsCorrect    bool      `json:"is_correct"`
	MaskedWord   string    `json:"masked_word"`
	WrongGuesses []string  `json:"wrong_guesses"`
	AttemptsLeft int       `json:"attempts_left"`
	IsGameOver   bool      `json:"is_game_over"`
	Winner       GameRole  `json:"winner,omitempty"`
	Word         string    `json:"word,omitempty"`
	State        GameState `json:"state"`
}
