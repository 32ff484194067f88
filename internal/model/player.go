package model

import "time"

// PlayerID is the stable, client-supplied identifier of a player.
// It survives reconnects; connections do not.
type PlayerID string

// Conn is an outbound handle to a player's live connection
type Conn interface {
	// Send queues an event for delivery. It must not block.
	Send(event Event)
	// Close terminates the connection
	Close()
}

// Player is a seated participant in a room
type Player struct {
	ID             PlayerID
	Conn           Conn // nil while disconnected
	Secret         string
	Guesses        []GuessResult
	DisconnectedAt *time.Time
	Left           bool // set once the player has permanently left the room
}

// NewPlayer creates a player seated with a live connection
func NewPlayer(id PlayerID, conn Conn) *Player {
	return &Player{
		ID:      id,
		Conn:    conn,
		Guesses: []GuessResult{},
	}
}

// Send delivers an event if the player currently has a live connection
func (p *Player) Send(event Event) {
	if p == nil || p.Conn == nil {
		return
	}
	p.Conn.Send(event)
}

// HasSecret reports whether the player has submitted a secret
func (p *Player) HasSecret() bool {
	return p.Secret != ""
}

// IsDisconnected reports whether the player is inside a grace period
func (p *Player) IsDisconnected() bool {
	return p.DisconnectedAt != nil
}

// GuessCount returns the number of guesses the player has made
func (p *Player) GuessCount() int {
	return len(p.Guesses)
}

// ResetForRematch clears per-game state while keeping identity and connection
func (p *Player) ResetForRematch() {
	p.Secret = ""
	p.Guesses = []GuessResult{}
}
