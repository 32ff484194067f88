package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mcoot/bullcow/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

// PrintEvent outputs one game event. JSON mode prints the raw frame.
func (o *Output) PrintEvent(ev IncomingEvent) {
	if o.format == "json" {
		data, _ := json.Marshal(ev)
		fmt.Println(string(data))
		return
	}
	fmt.Println(describeEvent(ev))
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case Stats:
		o.printStats(v)
	case MatchList:
		o.printMatchList(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status  string `json:"status"`
	Server  string `json:"server,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Stats response type
type Stats struct {
	Rooms            int            `json:"rooms"`
	RoomsByState     map[string]int `json:"rooms_by_state"`
	PlayersInRooms   int            `json:"players_in_rooms"`
	ConnectedPlayers int            `json:"connected_players"`
	QueueLength      int            `json:"queue_length"`
	PendingGrace     int            `json:"pending_grace"`
}

// Match response type
type Match struct {
	ID              string    `json:"id"`
	RoomID          string    `json:"room_id"`
	OpponentID      string    `json:"opponent_id"`
	Result          string    `json:"result"`
	YourGuesses     int       `json:"your_guess_count"`
	OpponentGuesses int       `json:"opponent_guess_count"`
	Rounds          int       `json:"rounds"`
	Forfeit         bool      `json:"forfeit,omitempty"`
	Reason          string    `json:"reason"`
	FinishedAt      time.Time `json:"finished_at"`
}

// MatchList response type
type MatchList struct {
	PlayerID string  `json:"player_id"`
	Matches  []Match `json:"matches"`
}

// IncomingEvent is an event frame as read off the socket
type IncomingEvent struct {
	Type    model.EventType `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	if h.Server != "" {
		fmt.Printf("Server: %s (%s)\n", h.Server, h.Latency)
	}
}

func (o *Output) printStats(s Stats) {
	fmt.Printf("Rooms: %d\n", s.Rooms)
	states := make([]string, 0, len(s.RoomsByState))
	for state := range s.RoomsByState {
		states = append(states, state)
	}
	sort.Strings(states)
	for _, state := range states {
		fmt.Printf("  %s: %d\n", state, s.RoomsByState[state])
	}
	fmt.Printf("Players in rooms: %d\n", s.PlayersInRooms)
	fmt.Printf("Connected players: %d\n", s.ConnectedPlayers)
	fmt.Printf("Queue length: %d\n", s.QueueLength)
	fmt.Printf("Reconnect timers: %d\n", s.PendingGrace)
}

func (o *Output) printMatchList(l MatchList) {
	if len(l.Matches) == 0 {
		fmt.Printf("No matches for %s\n", l.PlayerID)
		return
	}
	fmt.Printf("Matches for %s (%d):\n", l.PlayerID, len(l.Matches))
	for _, m := range l.Matches {
		forfeit := ""
		if m.Forfeit {
			forfeit = " [forfeit]"
		}
		fmt.Printf("  %s  %-4s vs %s  guesses %d-%d%s\n",
			m.FinishedAt.Local().Format(time.DateTime),
			strings.ToUpper(m.Result), m.OpponentID,
			m.YourGuesses, m.OpponentGuesses, forfeit)
	}
}

// describeEvent renders an event as a line of text for the terminal
func describeEvent(ev IncomingEvent) string {
	switch ev.Type {
	case model.EventQueueWaiting:
		var p model.QueueWaitingPayload
		_ = json.Unmarshal(ev.Payload, &p)
		return fmt.Sprintf("Waiting for an opponent (position %d)...", p.Position)

	case model.EventRoomCreated:
		var p model.RoomCreatedPayload
		_ = json.Unmarshal(ev.Payload, &p)
		return fmt.Sprintf("Room created. Share code %s with your opponent.", p.RoomCode)

	case model.EventMatchFound:
		var p model.MatchFoundPayload
		_ = json.Unmarshal(ev.Payload, &p)
		return fmt.Sprintf("Matched with %s. Choose a secret: secret NNNN", p.OpponentID)

	case model.EventOpponentReady:
		return "Opponent has chosen a secret."

	case model.EventGameStart, model.EventTurnChange:
		var p model.TurnPayload
		_ = json.Unmarshal(ev.Payload, &p)
		prefix := ""
		if ev.Type == model.EventGameStart {
			prefix = "Game on! "
		}
		if p.YourTurn {
			return fmt.Sprintf("%sRound %d: your turn. guess NNNN", prefix, p.Round)
		}
		return fmt.Sprintf("%sRound %d: opponent's turn.", prefix, p.Round)

	case model.EventGuessResult:
		var p model.GuessResult
		_ = json.Unmarshal(ev.Payload, &p)
		return fmt.Sprintf("You guessed %s: %d bulls, %d cows", p.Guess, p.Bulls, p.Cows)

	case model.EventOpponentGuessed:
		var p model.OpponentGuessedPayload
		_ = json.Unmarshal(ev.Payload, &p)
		return fmt.Sprintf("Opponent guessed: %d bulls, %d cows", p.Bulls, p.Cows)

	case model.EventGameOver:
		var p model.GameOverPayload
		_ = json.Unmarshal(ev.Payload, &p)
		headline := map[model.Outcome]string{
			model.OutcomeYou:      "You win!",
			model.OutcomeOpponent: "You lose.",
			model.OutcomeDraw:     "Draw.",
		}[p.Winner]
		return fmt.Sprintf("%s %s Guesses %d-%d. Their secret was %s. Type rematch to play again.",
			headline, p.Reason, p.YourGuessCount, p.OpponentGuessCount, p.OpponentSecret)

	case model.EventRematchPending:
		var p model.RematchPendingPayload
		_ = json.Unmarshal(ev.Payload, &p)
		if p.RequestedBy == model.RequestedByYou {
			return "Rematch requested. Waiting for opponent."
		}
		return "Opponent wants a rematch. Type rematch to accept."

	case model.EventOpponentReconnecting:
		var p model.OpponentReconnectingPayload
		_ = json.Unmarshal(ev.Payload, &p)
		return fmt.Sprintf("Opponent disconnected. Waiting %ds for them to return...", p.TimeoutSeconds)

	case model.EventOpponentReconnected:
		return "Opponent reconnected."

	case model.EventOpponentDisconnected:
		var p model.OpponentDisconnectedPayload
		_ = json.Unmarshal(ev.Payload, &p)
		return fmt.Sprintf("Opponent left: %s", p.Reason)

	case model.EventError:
		var p model.ErrorPayload
		_ = json.Unmarshal(ev.Payload, &p)
		return fmt.Sprintf("Error [%s]: %s", p.Code, p.Message)

	default:
		return fmt.Sprintf("%s %s", ev.Type, string(ev.Payload))
	}
}
