package model

import "time"

// RoomID uniquely identifies a room
type RoomID string

// RoomCode is the short, shareable code used to join a room
type RoomCode string

// RoomState represents the lifecycle state of a room
type RoomState string

const (
	RoomStateWaitingForPlayers RoomState = "waiting_for_players"
	RoomStateWaitingForSecrets RoomState = "waiting_for_secrets"
	RoomStatePlayer1Turn       RoomState = "player_1_turn"
	RoomStatePlayer2Turn       RoomState = "player_2_turn"
	RoomStateGameOver          RoomState = "game_over"
)

// AllRoomStates lists every room state in lifecycle order
var AllRoomStates = []RoomState{
	RoomStateWaitingForPlayers,
	RoomStateWaitingForSecrets,
	RoomStatePlayer1Turn,
	RoomStatePlayer2Turn,
	RoomStateGameOver,
}

// IsActiveGameplay reports whether disconnects in this state get a grace period
func (s RoomState) IsActiveGameplay() bool {
	switch s {
	case RoomStateWaitingForSecrets, RoomStatePlayer1Turn, RoomStatePlayer2Turn:
		return true
	default:
		return false
	}
}

// Slot identifies one of the two seats in a room
type Slot int

const (
	SlotHome Slot = 0 // seated at creation, always moves first
	SlotAway Slot = 1
)

// Other returns the opposite slot
func (s Slot) Other() Slot {
	if s == SlotHome {
		return SlotAway
	}
	return SlotHome
}

// TurnState returns the room state in which this slot is to move
func (s Slot) TurnState() RoomState {
	if s == SlotHome {
		return RoomStatePlayer1Turn
	}
	return RoomStatePlayer2Turn
}

// Label returns the human-facing name of the slot
func (s Slot) Label() string {
	if s == SlotHome {
		return "Player 1"
	}
	return "Player 2"
}

// GuessResult is one scored guess
type GuessResult struct {
	Guess string `json:"guess"`
	Bulls int    `json:"bulls"`
	Cows  int    `json:"cows"`
	Round int    `json:"round"`
}

// Result is the recorded outcome of a finished game
type Result struct {
	Draw    bool
	Winner  Slot // meaningless when Draw is set
	Reason  string
	Forfeit bool // the loser left instead of being out-guessed
}

// MatchID uniquely identifies an archived match
type MatchID string

// MatchSummary is the archived record of a finished game
type MatchSummary struct {
	ID          MatchID
	RoomID      RoomID
	HomeID      PlayerID
	AwayID      PlayerID
	HomeGuesses int
	AwayGuesses int
	WinnerID    PlayerID // empty on a draw
	Draw        bool
	Forfeit     bool
	Reason      string
	Rounds      int
	FinishedAt  time.Time
}

// Involves reports whether the player took part in the match
func (m *MatchSummary) Involves(id PlayerID) bool {
	return m.HomeID == id || m.AwayID == id
}

// OpponentOf returns the other participant
func (m *MatchSummary) OpponentOf(id PlayerID) PlayerID {
	if m.HomeID == id {
		return m.AwayID
	}
	return m.HomeID
}
