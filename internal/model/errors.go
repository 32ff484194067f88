package model

import "errors"

// ErrorCode is the machine-readable code carried by an error event
type ErrorCode string

const (
	CodeInvalidSecret ErrorCode = "INVALID_SECRET"
	CodeInvalidGuess  ErrorCode = "INVALID_GUESS"
	CodeNotYourTurn   ErrorCode = "NOT_YOUR_TURN"
	CodeNoActiveGame  ErrorCode = "NO_ACTIVE_GAME"
	CodeRoomNotFound  ErrorCode = "ROOM_NOT_FOUND"
	CodeRoomFull      ErrorCode = "ROOM_FULL"
	CodeUnknownBot    ErrorCode = "UNKNOWN_BOT"
)

// GameError is a rejection reported to the acting player only
type GameError struct {
	Code    ErrorCode
	Message string
}

// NewGameError creates a GameError
func NewGameError(code ErrorCode, message string) *GameError {
	return &GameError{Code: code, Message: message}
}

// Error implements the error interface
func (e *GameError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Is matches any GameError with the same code
func (e *GameError) Is(target error) bool {
	var t *GameError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Game errors, comparable with errors.Is regardless of message
var (
	ErrInvalidSecret = NewGameError(CodeInvalidSecret, "invalid secret")
	ErrInvalidGuess  = NewGameError(CodeInvalidGuess, "invalid guess")
	ErrNotYourTurn   = NewGameError(CodeNotYourTurn, "not your turn")
	ErrNoActiveGame  = NewGameError(CodeNoActiveGame, "no active game")
	ErrRoomNotFound  = NewGameError(CodeRoomNotFound, "room not found")
	ErrRoomFull      = NewGameError(CodeRoomFull, "room is full")
	ErrUnknownBot    = NewGameError(CodeUnknownBot, "unknown bot strategy")
)

// Internal errors that never reach a client as an error event
var (
	ErrMissingPlayerID = errors.New("player id is required")
	ErrNotInRoom       = errors.New("player is not in this room")
	ErrAlreadyInRoom   = errors.New("player is already in this room")
	ErrCodeExhausted   = errors.New("could not allocate a unique room code")

	// Storage errors
	ErrMatchNotFound = errors.New("match not found")
)
