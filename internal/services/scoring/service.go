package scoring

import "errors"

// CodeLength is the number of digits in a secret or guess
const CodeLength = 4

// Validation errors. Messages read as a continuation of "Secret " or "Guess ".
var (
	ErrWrongLength   = errors.New("must be exactly 4 digits")
	ErrNotDigits     = errors.New("must contain only digits")
	ErrLeadingZero   = errors.New("must not start with 0")
	ErrRepeatedDigit = errors.New("must not repeat a digit")
)

// Evaluate scores a guess against a secret.
// Bulls are digits in the right position, cows are digits present elsewhere.
// Both inputs are assumed to have passed Validate.
func Evaluate(secret, guess string) (bulls, cows int) {
	var inSecret [10]bool
	for i := 0; i < len(secret); i++ {
		inSecret[secret[i]-'0'] = true
	}

	for i := 0; i < len(guess) && i < len(secret); i++ {
		switch {
		case guess[i] == secret[i]:
			bulls++
		case inSecret[guess[i]-'0']:
			cows++
		}
	}
	return bulls, cows
}

// IsWinning reports whether a guess cracked the code
func IsWinning(bulls int) bool {
	return bulls == CodeLength
}

// Validate checks the shared shape of secrets and guesses:
// four digits, first digit 1-9, no digit repeated
func Validate(s string) error {
	if len(s) != CodeLength {
		return ErrWrongLength
	}

	var seen [10]bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return ErrNotDigits
		}
		if seen[c-'0'] {
			return ErrRepeatedDigit
		}
		seen[c-'0'] = true
	}

	if s[0] == '0' {
		return ErrLeadingZero
	}
	return nil
}

// ValidateSecret checks a submitted secret
func ValidateSecret(secret string) error {
	return Validate(secret)
}

// ValidateGuess checks a submitted guess
func ValidateGuess(guess string) error {
	return Validate(guess)
}
