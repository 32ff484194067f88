package scoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name          string
		secret        string
		guess         string
		expectedBulls int
		expectedCows  int
	}{
		{"exact match", "1234", "1234", 4, 0},
		{"no overlap", "1234", "5678", 0, 0},
		{"all cows", "1234", "4321", 0, 4},
		{"two bulls two cows", "1234", "1243", 2, 2},
		{"one bull", "1234", "1567", 1, 0},
		{"one cow", "1234", "5167", 0, 1},
		{"mixed", "9876", "9786", 2, 2},
		{"zero digit counted", "1029", "2019", 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bulls, cows := Evaluate(tt.secret, tt.guess)
			assert.Equal(t, tt.expectedBulls, bulls, "bulls")
			assert.Equal(t, tt.expectedCows, cows, "cows")
		})
	}
}

// Exhaustive over every valid code: bulls+cows never exceeds 4 and
// four bulls happen exactly when guess equals secret.
func TestEvaluateBounds(t *testing.T) {
	var codes []string
	for n := 1000; n <= 9999; n++ {
		s := fmt.Sprintf("%d", n)
		if Validate(s) == nil {
			codes = append(codes, s)
		}
	}
	require.Len(t, codes, 4536)

	secrets := []string{"1234", "5678", "9012", "1098", "7531"}
	for _, secret := range secrets {
		for _, guess := range codes {
			bulls, cows := Evaluate(secret, guess)
			if bulls+cows > CodeLength {
				t.Fatalf("Evaluate(%s, %s) = %d+%d exceeds 4", secret, guess, bulls, cows)
			}
			if IsWinning(bulls) != (guess == secret) {
				t.Fatalf("Evaluate(%s, %s) bulls=%d disagrees with equality", secret, guess, bulls)
			}
		}
	}
}

func TestIsWinning(t *testing.T) {
	assert.True(t, IsWinning(4))
	assert.False(t, IsWinning(3))
	assert.False(t, IsWinning(0))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected error
	}{
		{"valid", "1234", nil},
		{"valid with zero inside", "1024", nil},
		{"valid high digits", "9876", nil},
		{"too short", "123", ErrWrongLength},
		{"too long", "12345", ErrWrongLength},
		{"empty", "", ErrWrongLength},
		{"letters", "12a4", ErrNotDigits},
		{"sign", "-123", ErrNotDigits},
		{"leading zero", "0123", ErrLeadingZero},
		{"repeated digit", "1123", ErrRepeatedDigit},
		{"repeated non-adjacent", "1231", ErrRepeatedDigit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input)
			if tt.expected == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestValidateSecretAndGuessShareRules(t *testing.T) {
	for _, input := range []string{"1234", "0123", "1123", "12"} {
		assert.Equal(t, ValidateSecret(input), ValidateGuess(input), input)
	}
}
