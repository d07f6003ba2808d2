package game

import (
	"strings"

	"voicechat-service/internal/models"
)

const (
	// MaxAttempts is the fixed wrong-guess budget per game.
	MaxAttempts = 6
	// WordPenalty is the heavier cost of an incorrect full-word guess.
	WordPenalty = 2

	minWordLen = 3
	maxWordLen = 15

	maskRune = '_'
)

// NormalizeWord strips non-letters and uppercases the remainder. The empty
// string signals a word outside the allowed 3–15 letter range.
func NormalizeWord(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	word := b.String()
	if len(word) < minWordLen || len(word) > maxWordLen {
		return ""
	}
	return word
}

// normalizeLetter reduces a guess to one uppercase letter, or "".
func normalizeLetter(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if len(s) != 1 || s[0] < 'A' || s[0] > 'Z' {
		return ""
	}
	return s
}

func initialMask(word string) string {
	return strings.Repeat(string(maskRune), len(word))
}

// revealLetter unmasks every occurrence of letter in the masked rendering.
func revealLetter(word, masked string, letter byte) string {
	out := []byte(masked)
	for i := 0; i < len(word); i++ {
		if word[i] == letter {
			out[i] = letter
		}
	}
	return string(out)
}

func alreadyGuessed(g *models.HangmanGame, letter string) bool {
	for _, l := range g.GuessedLetters {
		if l == letter {
			return true
		}
	}
	return false
}

// applyLetterGuess mutates the game for one single-letter guess and returns
// the result. A repeated letter echoes current state without spending an
// attempt.
func applyLetterGuess(g *models.HangmanGame, letter string) models.GuessResult {
	res := models.GuessResult{
		GameID:      g.ID,
		Guess:       letter,
		IsWordGuess: false,
	}

	if alreadyGuessed(g, letter) {
		res.MaskedWord = g.MaskedWord
		res.WrongGuesses = g.WrongGuesses
		res.AttemptsLeft = g.AttemptsLeft
		res.State = g.State
		return res
	}

	g.GuessedLetters = append(g.GuessedLetters, letter)
	if strings.Contains(g.Word, letter) {
		g.MaskedWord = revealLetter(g.Word, g.MaskedWord, letter[0])
		res.IsCorrect = true
	} else {
		g.WrongGuesses = append(g.WrongGuesses, letter)
		g.AttemptsLeft--
	}

	return finishGuess(g, res)
}

// applyWordGuess mutates the game for one full-word guess. A miss costs
// WordPenalty attempts, floored at zero.
func applyWordGuess(g *models.HangmanGame, guess string) models.GuessResult {
	res := models.GuessResult{
		GameID:      g.ID,
		Guess:       guess,
		IsWordGuess: true,
	}

	if guess == g.Word {
		g.MaskedWord = g.Word
		res.IsCorrect = true
	} else {
		g.AttemptsLeft -= WordPenalty
		if g.AttemptsLeft < 0 {
			g.AttemptsLeft = 0
		}
	}

	return finishGuess(g, res)
}

// finishGuess detects win/loss after any guess and fills the echoed state.
func finishGuess(g *models.HangmanGame, res models.GuessResult) models.GuessResult {
	if !strings.ContainsRune(g.MaskedWord, maskRune) {
		g.State = models.GameStateFinished
		g.Winner = models.RoleGuesser
	} else if g.AttemptsLeft <= 0 {
		g.State = models.GameStateFinished
		g.Winner = models.RoleSetter
	}

	res.MaskedWord = g.MaskedWord
	res.WrongGuesses = g.WrongGuesses
	res.AttemptsLeft = g.AttemptsLeft
	res.State = g.State
	if g.State == models.GameStateFinished {
		res.IsGameOver = true
		res.Winner = g.Winner
		res.Word = g.Word
	}
	return res
}
