package model

// EventType identifies an outbound event
type EventType string

const (
	// Matchmaking events
	EventQueueWaiting EventType = "queue_waiting"
	EventRoomCreated  EventType = "room_created"
	EventMatchFound   EventType = "match_found"

	// Game events
	EventOpponentReady   EventType = "opponent_ready"
	EventGameStart       EventType = "game_start"
	EventGuessResult     EventType = "guess_result"
	EventOpponentGuessed EventType = "opponent_guessed"
	EventTurnChange      EventType = "turn_change"
	EventGameOver        EventType = "game_over"
	EventRematchPending  EventType = "rematch_pending"

	// Connection events
	EventOpponentReconnecting EventType = "opponent_reconnecting"
	EventOpponentReconnected  EventType = "opponent_reconnected"
	EventOpponentDisconnected EventType = "opponent_disconnected"

	EventError EventType = "error"
)

// Event is a single outbound message to one player
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// NewEvent creates an event with the given payload
func NewEvent(t EventType, payload any) Event {
	return Event{Type: t, Payload: payload}
}

// ErrorEvent converts a GameError into an error event
func ErrorEvent(err *GameError) Event {
	return NewEvent(EventError, ErrorPayload{Code: err.Code, Message: err.Message})
}

// Outcome frames a game result from one player's perspective
type Outcome string

const (
	OutcomeYou      Outcome = "you"
	OutcomeOpponent Outcome = "opponent"
	OutcomeDraw     Outcome = "draw"
)

// Requester frames who asked for a rematch
type Requester string

const (
	RequestedByYou      Requester = "you"
	RequestedByOpponent Requester = "opponent"
)

// QueueWaitingPayload is sent when a player is parked in the queue
type QueueWaitingPayload struct {
	Position int `json:"position"`
}

// RoomCreatedPayload carries the code to share with an opponent
type RoomCreatedPayload struct {
	RoomID   RoomID   `json:"room_id"`
	RoomCode RoomCode `json:"room_code"`
}

// MatchFoundPayload is sent to both players once a room is full
type MatchFoundPayload struct {
	RoomID     RoomID   `json:"room_id"`
	OpponentID PlayerID `json:"opponent_id"`
}

// TurnPayload is used by game_start and turn_change
type TurnPayload struct {
	YourTurn bool `json:"your_turn"`
	Round    int  `json:"round"`
}

// OpponentGuessedPayload withholds the guessed digits
type OpponentGuessedPayload struct {
	Bulls int `json:"bulls"`
	Cows  int `json:"cows"`
	Round int `json:"round"`
}

// GameOverPayload is the per-player framing of a result
type GameOverPayload struct {
	Winner             Outcome `json:"winner"`
	YourGuessCount     int     `json:"your_guess_count"`
	OpponentGuessCount int     `json:"opponent_guess_count"`
	OpponentSecret     string  `json:"opponent_secret"`
	Reason             string  `json:"reason"`
}

// OpponentReconnectingPayload carries the grace countdown
type OpponentReconnectingPayload struct {
	TimeoutSeconds int `json:"timeout_seconds"`
}

// OpponentDisconnectedPayload is sent when the opponent is gone for good
type OpponentDisconnectedPayload struct {
	Reason string `json:"reason"`
}

// RematchPendingPayload is sent to both players on each rematch request
type RematchPendingPayload struct {
	RequestedBy Requester `json:"requested_by"`
}

// ErrorPayload is the body of an error event
type ErrorPayload struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}
