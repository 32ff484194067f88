package response

import (
	"time"

	"github.com/mcoot/bullcow/internal/model"
	"github.com/mcoot/bullcow/internal/services/registry"
)

// Match represents one archived match from a player's point of view
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

// Result values
const (
	ResultWin  = "win"
	ResultLoss = "loss"
	ResultDraw = "draw"
)

// MatchFromModel converts a summary to the perspective of the given player
func MatchFromModel(m *model.MatchSummary, playerID model.PlayerID) Match {
	match := Match{
		ID:         string(m.ID),
		RoomID:     string(m.RoomID),
		OpponentID: string(m.OpponentOf(playerID)),
		Rounds:     m.Rounds,
		Forfeit:    m.Forfeit,
		Reason:     m.Reason,
		FinishedAt: m.FinishedAt,
	}

	if m.HomeID == playerID {
		match.YourGuesses, match.OpponentGuesses = m.HomeGuesses, m.AwayGuesses
	} else {
		match.YourGuesses, match.OpponentGuesses = m.AwayGuesses, m.HomeGuesses
	}

	switch {
	case m.Draw:
		match.Result = ResultDraw
	case m.WinnerID == playerID:
		match.Result = ResultWin
	default:
		match.Result = ResultLoss
	}
	return match
}

// MatchList is the response for a player's match history
type MatchList struct {
	PlayerID string  `json:"player_id"`
	Matches  []Match `json:"matches"`
}

// MatchListFromModel converts summaries for the given player
func MatchListFromModel(playerID model.PlayerID, summaries []*model.MatchSummary) MatchList {
	matches := make([]Match, 0, len(summaries))
	for _, s := range summaries {
		matches = append(matches, MatchFromModel(s, playerID))
	}
	return MatchList{
		PlayerID: string(playerID),
		Matches:  matches,
	}
}

// Stats is the response for the server stats endpoint
type Stats struct {
	Rooms            int            `json:"rooms"`
	RoomsByState     map[string]int `json:"rooms_by_state"`
	PlayersInRooms   int            `json:"players_in_rooms"`
	ConnectedPlayers int            `json:"connected_players"`
	QueueLength      int            `json:"queue_length"`
	PendingGrace     int            `json:"pending_grace"`
}

// StatsFromRegistry builds the stats response
func StatsFromRegistry(s registry.Stats, queueLength int) Stats {
	byState := make(map[string]int, len(s.RoomsByState))
	for state, n := range s.RoomsByState {
		byState[string(state)] = n
	}
	return Stats{
		Rooms:            s.Rooms,
		RoomsByState:     byState,
		PlayersInRooms:   s.PlayersInRooms,
		ConnectedPlayers: s.ConnectedPlayers,
		QueueLength:      queueLength,
		PendingGrace:     s.PendingGrace,
	}
}

// Health is the response for the health check
type Health struct {
	Status string `json:"status"`
}
