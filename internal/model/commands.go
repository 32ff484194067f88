package model

import "encoding/json"

// CommandType identifies an inbound command
type CommandType string

const (
	CommandQueueJoin      CommandType = "queue_join"
	CommandQueueLeave     CommandType = "queue_leave"
	CommandRoomCreate     CommandType = "room_create"
	CommandRoomJoin       CommandType = "room_join"
	CommandSecretSubmit   CommandType = "secret_submit"
	CommandGuessSubmit    CommandType = "guess_submit"
	CommandRematchRequest CommandType = "rematch_request"
	CommandBotMatch       CommandType = "bot_match"
)

// Envelope is the wire frame for an inbound command
type Envelope struct {
	Type    CommandType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Decode unmarshals the payload into v. An empty payload leaves v untouched.
func (e Envelope) Decode(v any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(e.Payload, v)
}

// NewEnvelope builds an envelope, encoding the payload
func NewEnvelope(t CommandType, payload any) (Envelope, error) {
	env := Envelope{Type: t}
	if payload == nil {
		return env, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	env.Payload = data
	return env, nil
}

// RoomJoinPayload is the body of room_join
type RoomJoinPayload struct {
	Code string `json:"code"`
}

// SecretSubmitPayload is the body of secret_submit
type SecretSubmitPayload struct {
	Secret string `json:"secret"`
}

// GuessSubmitPayload is the body of guess_submit
type GuessSubmitPayload struct {
	Guess string `json:"guess"`
}

// BotMatchPayload is the body of bot_match. An empty strategy uses the default.
type BotMatchPayload struct {
	Strategy string `json:"strategy,omitempty"`
}
