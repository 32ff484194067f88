package bot

import (
	"github.com/mcoot/bullcow/internal/dependencies/random"
	"github.com/mcoot/bullcow/internal/model"
)

// RandomStrategy guesses any valid code it has not tried yet
type RandomStrategy struct {
	random random.Random
}

// NewRandomStrategy creates a new RandomStrategy
func NewRandomStrategy(rnd random.Random) *RandomStrategy {
	return &RandomStrategy{random: rnd}
}

// ChooseSecret returns a random valid code
func (s *RandomStrategy) ChooseSecret() string {
	return allCodes[s.random.Intn(len(allCodes))]
}

// ChooseGuess picks a random code, skipping ones already guessed
func (s *RandomStrategy) ChooseGuess(history []model.GuessResult) string {
	tried := make(map[string]bool, len(history))
	for _, h := range history {
		tried[h.Guess] = true
	}

	var fresh []string
	for _, code := range allCodes {
		if !tried[code] {
			fresh = append(fresh, code)
		}
	}
	if len(fresh) == 0 {
		return allCodes[0]
	}
	return fresh[s.random.Intn(len(fresh))]
}

// ConsistentStrategy only guesses codes that agree with every score so far.
// It cracks any secret in a handful of guesses.
type ConsistentStrategy struct {
	random random.Random
}

// NewConsistentStrategy creates a new ConsistentStrategy
func NewConsistentStrategy(rnd random.Random) *ConsistentStrategy {
	return &ConsistentStrategy{random: rnd}
}

// ChooseSecret returns a random valid code
func (s *ConsistentStrategy) ChooseSecret() string {
	return allCodes[s.random.Intn(len(allCodes))]
}

// ChooseGuess picks a random candidate that is still possible
func (s *ConsistentStrategy) ChooseGuess(history []model.GuessResult) string {
	var candidates []string
	for _, code := range allCodes {
		if Consistent(code, history) {
			candidates = append(candidates, code)
		}
	}
	// An inconsistent history can only come from a bug; fall back to anything
	if len(candidates) == 0 {
		return allCodes[s.random.Intn(len(allCodes))]
	}
	return candidates[s.random.Intn(len(candidates))]
}
