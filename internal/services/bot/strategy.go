package bot

import (
	"github.com/mcoot/bullcow/internal/model"
	"github.com/mcoot/bullcow/internal/services/scoring"
)

// Strategy defines how a bot picks its secret and its guesses
type Strategy interface {
	// ChooseSecret selects the code the opponent must crack
	ChooseSecret() string
	// ChooseGuess selects the next guess given the bot's own scored guesses
	ChooseGuess(history []model.GuessResult) string
}

// allCodes holds every valid secret in ascending order
var allCodes = buildCodes()

func buildCodes() []string {
	var codes []string
	for n := 1000; n <= 9999; n++ {
		s := string([]byte{
			byte('0' + n/1000),
			byte('0' + n/100%10),
			byte('0' + n/10%10),
			byte('0' + n%10),
		})
		if scoring.Validate(s) == nil {
			codes = append(codes, s)
		}
	}
	return codes
}

// Codes returns a copy of every valid code
func Codes() []string {
	return append([]string(nil), allCodes...)
}

// Consistent reports whether candidate could be the secret given the history
func Consistent(candidate string, history []model.GuessResult) bool {
	for _, h := range history {
		bulls, cows := scoring.Evaluate(candidate, h.Guess)
		if bulls != h.Bulls || cows != h.Cows {
			return false
		}
	}
	return true
}
