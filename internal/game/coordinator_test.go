package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voicechat-service/internal/common/clock"
	"voicechat-service/internal/models"
)

const (
	sessionID = "session-1"
	setter    = "alice"
	guesser   = "bob"
)

func newFixture() (*Coordinator, *clock.Fake) {
	clk := clock.NewFake(time.Now())
	return New(time.Hour, clk, zap.NewNop()), clk
}

func startedGame(t *testing.T, coord *Coordinator) *models.HangmanGame {
	t.Helper()
	inv, err := coord.Invite(sessionID, setter, guesser)
	require.NoError(t, err)
	g, err := coord.AcceptInvite(inv.ID, guesser)
	require.NoError(t, err)
	return g
}

func guessingGame(t *testing.T, coord *Coordinator, word string) *models.HangmanGame {
	t.Helper()
	g := startedGame(t, coord)
	_, err := coord.SetWord(g.ID, setter, word, "")
	require.NoError(t, err)
	return g
}

func TestInviteIdempotentPerSession(t *testing.T) {
	coord, _ := newFixture()

	inv, err := coord.Invite(sessionID, setter, guesser)
	require.NoError(t, err)

	again, err := coord.Invite(sessionID, setter, guesser)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, again.ID)

	// A cross invite while one is pending is rejected, not duplicated.
	_, err = coord.Invite(sessionID, guesser, setter)
	assert.ErrorIs(t, err, ErrInvitePending)
}

func TestAcceptInviteSpawnsGameWithInviterAsSetter(t *testing.T) {
	coord, _ := newFixture()
	g := startedGame(t, coord)

	assert.Equal(t, setter, g.SetterID)
	assert.Equal(t, guesser, g.GuesserID)
	assert.Equal(t, models.GameStateWordSetting, g.State)
	assert.Equal(t, MaxAttempts, g.AttemptsLeft)
	assert.Nil(t, coord.PendingInvite(sessionID))
}

func TestAcceptInviteOnlyByTarget(t *testing.T) {
	coord, _ := newFixture()
	inv, err := coord.Invite(sessionID, setter, guesser)
	require.NoError(t, err)

	_, err = coord.AcceptInvite(inv.ID, setter)
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = coord.AcceptInvite("missing", guesser)
	assert.ErrorIs(t, err, ErrInviteNotFound)
}

func TestDeclineInvitePurges(t *testing.T) {
	coord, _ := newFixture()
	inv, err := coord.Invite(sessionID, setter, guesser)
	require.NoError(t, err)

	_, err = coord.DeclineInvite(inv.ID, guesser)
	require.NoError(t, err)
	assert.Nil(t, coord.GetInvite(inv.ID))
	assert.Nil(t, coord.PendingInvite(sessionID))
}

func TestSetWordValidation(t *testing.T) {
	coord, _ := newFixture()
	g := startedGame(t, coord)

	// Too short after stripping non-letters.
	_, err := coord.SetWord(g.ID, setter, "a-1", "")
	assert.ErrorIs(t, err, ErrInvalidWord)
	assert.Equal(t, models.GameStateWordSetting, g.State)

	_, err = coord.SetWord(g.ID, setter, "abcdefghijklmnop", "")
	assert.ErrorIs(t, err, ErrInvalidWord)

	_, err = coord.SetWord(g.ID, guesser, "elephant", "")
	assert.ErrorIs(t, err, ErrWrongRole)

	updated, err := coord.SetWord(g.ID, setter, "  ele-phant ", "animals")
	require.NoError(t, err)
	assert.Equal(t, "ELEPHANT", updated.Word)
	assert.Equal(t, "________", updated.MaskedWord)
	assert.Equal(t, "animals", updated.Category)
	assert.Equal(t, models.GameStateGuessing, updated.State)

	// Word, once set, is immutable for this instance.
	_, err = coord.SetWord(g.ID, setter, "other", "")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestHangmanRoundTrip(t *testing.T) {
	coord, _ := newFixture()
	g := guessingGame(t, coord, "ELEPHANT")

	res, err := coord.Guess(g.ID, guesser, "E")
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
	assert.Equal(t, "E_E_____", res.MaskedWord)
	assert.Equal(t, MaxAttempts, res.AttemptsLeft)

	res, err = coord.Guess(g.ID, guesser, "L")
	require.NoError(t, err)
	assert.Equal(t, "ELE_____", res.MaskedWord)

	res, err = coord.Guess(g.ID, guesser, "P")
	require.NoError(t, err)
	assert.Equal(t, "ELEP____", res.MaskedWord)

	res, err = coord.Guess(g.ID, guesser, "Z")
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)
	assert.Equal(t, []string{"Z"}, res.WrongGuesses)
	assert.Equal(t, 5, res.AttemptsLeft)
	assert.False(t, res.IsGameOver)
}

func TestRepeatedLetterIsNoOp(t *testing.T) {
	coord, _ := newFixture()
	g := guessingGame(t, coord, "ELEPHANT")

	first, err := coord.Guess(g.ID, guesser, "Z")
	require.NoError(t, err)
	require.Equal(t, 5, first.AttemptsLeft)

	again, err := coord.Guess(g.ID, guesser, "Z")
	require.NoError(t, err)
	assert.False(t, again.IsCorrect)
	assert.False(t, again.IsGameOver)
	assert.Equal(t, 5, again.AttemptsLeft)
	assert.Equal(t, []string{"Z"}, again.WrongGuesses)
}

func TestLossBoundarySixWrongLetters(t *testing.T) {
	coord, _ := newFixture()
	g := guessingGame(t, coord, "ELEPHANT")

	wrong := []string{"Q", "W", "R", "Y", "U", "I"}
	var res *models.GuessResult
	var err error
	for _, letter := range wrong {
		res, err = coord.Guess(g.ID, guesser, letter)
		require.NoError(t, err)
	}

	assert.Equal(t, 0, res.AttemptsLeft)
	assert.True(t, res.IsGameOver)
	assert.Equal(t, models.RoleSetter, res.Winner)
	assert.Equal(t, "ELEPHANT", res.Word)
	assert.Equal(t, models.GameStateFinished, g.State)

	// No further guesses accepted.
	_, err = coord.Guess(g.ID, guesser, "E")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestFullWordGuessPenalty(t *testing.T) {
	coord, _ := newFixture()
	g := guessingGame(t, coord, "ELEPHANT")

	res, err := coord.Guess(g.ID, guesser, "RHINO")
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)
	assert.Equal(t, 4, res.AttemptsLeft)
	assert.False(t, res.IsGameOver)
}

func TestFullWordGuessPenaltyFloorsAtZero(t *testing.T) {
	coord, _ := newFixture()
	g := guessingGame(t, coord, "ELEPHANT")

	for _, letter := range []string{"Q", "W", "R", "Y", "U"} {
		_, err := coord.Guess(g.ID, guesser, letter)
		require.NoError(t, err)
	}
	res, err := coord.Guess(g.ID, guesser, "RHINO")
	require.NoError(t, err)
	assert.Equal(t, 0, res.AttemptsLeft)
	assert.True(t, res.IsGameOver)
	assert.Equal(t, models.RoleSetter, res.Winner)
}

func TestFullWordGuessWins(t *testing.T) {
	coord, _ := newFixture()
	g := guessingGame(t, coord, "ELEPHANT")

	res, err := coord.Guess(g.ID, guesser, "elephant")
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
	assert.True(t, res.IsGameOver)
	assert.Equal(t, models.RoleGuesser, res.Winner)
	assert.Equal(t, "ELEPHANT", res.MaskedWord)
}

func TestLetterWinRevealsWord(t *testing.T) {
	coord, _ := newFixture()
	g := guessingGame(t, coord, "ADA")

	_, err := coord.Guess(g.ID, guesser, "A")
	require.NoError(t, err)
	res, err := coord.Guess(g.ID, guesser, "D")
	require.NoError(t, err)
	assert.True(t, res.IsGameOver)
	assert.Equal(t, models.RoleGuesser, res.Winner)
	assert.Equal(t, "ADA", res.Word)
}

func TestEndGameQuitSemantics(t *testing.T) {
	coord, _ := newFixture()
	g := guessingGame(t, coord, "ELEPHANT")

	forced := coord.EndGame(g.ID)
	require.NotNil(t, forced)
	assert.Equal(t, models.GameStateFinished, forced.State)
	assert.Equal(t, models.GameRole(""), forced.Winner)

	// Idempotent on finished games.
	assert.Nil(t, coord.EndGame(g.ID))
}

func TestSessionCleanupCascade(t *testing.T) {
	coord, _ := newFixture()
	g := guessingGame(t, coord, "ELEPHANT")
	_, err := coord.Invite("other-session", "x", "y")
	require.NoError(t, err)

	ended := coord.SessionCleanup(sessionID)
	require.Len(t, ended, 1)
	assert.Equal(t, g.ID, ended[0].ID)
	assert.Equal(t, models.GameStateFinished, g.State)
	assert.Equal(t, models.GameRole(""), g.Winner)

	// Other sessions untouched.
	assert.NotNil(t, coord.PendingInvite("other-session"))
}

func TestSessionCleanupPurgesPendingInvite(t *testing.T) {
	coord, _ := newFixture()
	inv, err := coord.Invite(sessionID, setter, guesser)
	require.NoError(t, err)

	coord.SessionCleanup(sessionID)
	assert.Nil(t, coord.GetInvite(inv.ID))
	assert.Nil(t, coord.PendingInvite(sessionID))
}

func TestViewWithholdsWordFromGuesser(t *testing.T) {
	coord, _ := newFixture()
	g := guessingGame(t, coord, "ELEPHANT")

	guesserView := coord.View(g, guesser)
	assert.Equal(t, models.RoleGuesser, guesserView.Role)
	assert.Empty(t, guesserView.Word)
	assert.Equal(t, "________", guesserView.MaskedWord)

	setterView := coord.View(g, setter)
	assert.Equal(t, models.RoleSetter, setterView.Role)
	assert.Equal(t, "ELEPHANT", setterView.Word)

	coord.EndGame(g.ID)
	finishedView := coord.View(g, guesser)
	assert.Equal(t, "ELEPHANT", finishedView.Word)
}

func TestRematchSwapsRolesByDefault(t *testing.T) {
	coord, _ := newFixture()
	g := guessingGame(t, coord, "ELEPHANT")

	_, err := coord.Rematch(g.ID, setter, "")
	assert.ErrorIs(t, err, ErrInvalidState)

	coord.EndGame(g.ID)
	rm, err := coord.Rematch(g.ID, setter, "")
	require.NoError(t, err)
	assert.Equal(t, guesser, rm.SetterID)
	assert.Equal(t, guesser, rm.ToID)

	next, err := coord.AcceptRematch(rm.ID, guesser)
	require.NoError(t, err)
	assert.NotEqual(t, g.ID, next.ID)
	assert.Equal(t, guesser, next.SetterID)
	assert.Equal(t, setter, next.GuesserID)
	assert.Equal(t, models.GameStateWordSetting, next.State)
}

func TestRematchExplicitSetter(t *testing.T) {
	coord, _ := newFixture()
	g := guessingGame(t, coord, "ELEPHANT")
	coord.EndGame(g.ID)

	rm, err := coord.Rematch(g.ID, guesser, guesser)
	require.NoError(t, err)
	assert.Equal(t, setter, rm.ToID)

	next, err := coord.AcceptRematch(rm.ID, setter)
	require.NoError(t, err)
	assert.Equal(t, guesser, next.SetterID)
	assert.Equal(t, setter, next.GuesserID)
}

func TestGarbageCollectFinishedGames(t *testing.T) {
	coord, clk := newFixture()
	g := guessingGame(t, coord, "ELEPHANT")
	coord.EndGame(g.ID)

	clk.Advance(30 * time.Minute)
	assert.Equal(t, 0, coord.GarbageCollect())

	clk.Advance(31 * time.Minute)
	assert.Equal(t, 1, coord.GarbageCollect())
	assert.Nil(t, coord.Get(g.ID))
}

func TestInvalidGuessRejected(t *testing.T) {
	coord, _ := newFixture()
	g := guessingGame(t, coord, "ELEPHANT")

	_, err := coord.Guess(g.ID, guesser, "42")
	assert.ErrorIs(t, err, ErrInvalidGuess)

	_, err = coord.Guess(g.ID, setter, "E")
	assert.ErrorIs(t, err, ErrWrongRole)

	_, err = coord.Guess("missing", guesser, "E")
	assert.ErrorIs(t, err, ErrGameNotFound)
}
