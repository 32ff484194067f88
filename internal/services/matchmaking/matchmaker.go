package matchmaking

import (
	"errors"
	"log/slog"

	"github.com/mcoot/bullcow/internal/model"
	"github.com/mcoot/bullcow/internal/services/registry"
)

// entry is one player waiting in the queue
type entry struct {
	id   model.PlayerID
	conn model.Conn
}

// Opponents supplies computer players
type Opponents interface {
	Spawn(strategy string) (model.PlayerID, model.Conn, error)
}

// Matchmaker pairs players from a FIFO queue or by room code.
// It is not safe for concurrent use; all calls must run on the executor.
type Matchmaker struct {
	registry  *registry.Registry
	opponents Opponents
	queue     []entry
	logger    *slog.Logger
}

// New creates a Matchmaker backed by the given registry
func New(registry *registry.Registry, logger *slog.Logger) *Matchmaker {
	return &Matchmaker{
		registry: registry,
		logger:   logger.With(slog.String("component", "matchmaker")),
	}
}

// SetOpponents enables games against computer players
func (m *Matchmaker) SetOpponents(opponents Opponents) {
	m.opponents = opponents
}

// JoinQueue pairs the player with whoever is waiting, or queues them.
// It does nothing if the player is already queued or seated in a room.
func (m *Matchmaker) JoinQueue(id model.PlayerID, conn model.Conn) {
	if m.IsQueued(id) || m.registry.IsSeated(id) {
		return
	}
	m.registry.LeaveRoom(id)

	if len(m.queue) == 0 {
		m.queue = append(m.queue, entry{id: id, conn: conn})
		conn.Send(model.NewEvent(model.EventQueueWaiting, model.QueueWaitingPayload{Position: len(m.queue)}))
		m.logger.Info("player queued", slog.String("player_id", string(id)))
		return
	}

	opponent := m.queue[0]
	m.queue = m.queue[1:]

	room, err := m.registry.CreateRoom(opponent.id, opponent.conn)
	if err != nil {
		m.logger.Error("failed to create room for queued pair",
			slog.String("player_id", string(opponent.id)),
			slog.String("error", err.Error()),
		)
		m.queue = append([]entry{opponent}, m.queue...)
		return
	}
	if err := m.registry.JoinRoom(room.ID(), id, conn); err != nil {
		m.logger.Error("failed to seat queued player",
			slog.String("player_id", string(id)),
			slog.String("room_id", string(room.ID())),
			slog.String("error", err.Error()),
		)
		return
	}

	m.logger.Info("queued players paired",
		slog.String("room_id", string(room.ID())),
		slog.String("home_id", string(opponent.id)),
		slog.String("away_id", string(id)),
	)
}

// LeaveQueue removes the player from the queue if present
func (m *Matchmaker) LeaveQueue(id model.PlayerID) {
	for i, e := range m.queue {
		if e.id == id {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			m.logger.Info("player left queue", slog.String("player_id", string(id)))
			return
		}
	}
}

// IsQueued reports whether the player is waiting in the queue
func (m *Matchmaker) IsQueued(id model.PlayerID) bool {
	for _, e := range m.queue {
		if e.id == id {
			return true
		}
	}
	return false
}

// QueueLength returns the number of waiting players
func (m *Matchmaker) QueueLength() int {
	return len(m.queue)
}

// Rebind points a queued player's entry at a new connection
func (m *Matchmaker) Rebind(id model.PlayerID, conn model.Conn) {
	for i := range m.queue {
		if m.queue[i].id == id {
			m.queue[i].conn = conn
			return
		}
	}
}

// CreateRoom opens a private room and sends its join code to the host
func (m *Matchmaker) CreateRoom(id model.PlayerID, conn model.Conn) {
	if m.registry.IsSeated(id) {
		return
	}
	m.registry.LeaveRoom(id)
	m.LeaveQueue(id)

	room, err := m.registry.CreateRoom(id, conn)
	if err != nil {
		m.logger.Error("failed to create room",
			slog.String("player_id", string(id)),
			slog.String("error", err.Error()),
		)
		return
	}
	conn.Send(model.NewEvent(model.EventRoomCreated, model.RoomCreatedPayload{
		RoomID:   room.ID(),
		RoomCode: room.Code(),
	}))
}

// JoinRoomByCode seats the player in the room with the given code.
// Missing and full rooms are reported to the player as errors.
func (m *Matchmaker) JoinRoomByCode(id model.PlayerID, conn model.Conn, code string) {
	if m.registry.IsSeated(id) {
		return
	}

	room := m.registry.FindByCode(code)
	if room == nil {
		conn.Send(model.ErrorEvent(model.NewGameError(model.CodeRoomNotFound, "Room not found.")))
		return
	}
	if room.IsFull() || room.State() != model.RoomStateWaitingForPlayers {
		conn.Send(model.ErrorEvent(model.NewGameError(model.CodeRoomFull, "Room is full.")))
		return
	}

	m.registry.LeaveRoom(id)
	m.LeaveQueue(id)

	if err := m.registry.JoinRoom(room.ID(), id, conn); err != nil {
		var gameErr *model.GameError
		if errors.As(err, &gameErr) {
			conn.Send(model.ErrorEvent(gameErr))
			return
		}
		m.logger.Error("failed to join room",
			slog.String("player_id", string(id)),
			slog.String("room_id", string(room.ID())),
			slog.String("error", err.Error()),
		)
	}
}

// PlayBot seats the player in a fresh room against a computer opponent.
// The player is home and moves first.
func (m *Matchmaker) PlayBot(id model.PlayerID, conn model.Conn, strategy string) {
	if m.registry.IsSeated(id) {
		return
	}
	if m.opponents == nil {
		m.logger.Warn("bot match requested but no opponents configured", slog.String("player_id", string(id)))
		return
	}

	botID, botConn, err := m.opponents.Spawn(strategy)
	if err != nil {
		var gameErr *model.GameError
		if errors.As(err, &gameErr) {
			conn.Send(model.ErrorEvent(gameErr))
			return
		}
		m.logger.Warn("failed to spawn bot",
			slog.String("player_id", string(id)),
			slog.String("strategy", strategy),
			slog.String("error", err.Error()),
		)
		return
	}

	m.registry.LeaveRoom(id)
	m.LeaveQueue(id)

	room, err := m.registry.CreateRoom(id, conn)
	if err != nil {
		m.logger.Error("failed to create bot room",
			slog.String("player_id", string(id)),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := m.registry.JoinRoom(room.ID(), botID, botConn); err != nil {
		m.logger.Error("failed to seat bot",
			slog.String("room_id", string(room.ID())),
			slog.String("bot_id", string(botID)),
			slog.String("error", err.Error()),
		)
		m.registry.LeaveRoom(id)
		return
	}

	m.logger.Info("bot match started",
		slog.String("room_id", string(room.ID())),
		slog.String("player_id", string(id)),
		slog.String("bot_id", string(botID)),
	)
}
