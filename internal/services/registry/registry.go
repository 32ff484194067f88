package registry

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mcoot/bullcow/internal/dependencies/clock"
	"github.com/mcoot/bullcow/internal/dependencies/random"
	"github.com/mcoot/bullcow/internal/loop"
	"github.com/mcoot/bullcow/internal/model"
	"github.com/mcoot/bullcow/internal/services/game"
)

// RoomCodeAlphabet is the characters used in room codes (avoid confusing chars)
const RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Config holds registry timing and code generation settings
type Config struct {
	// GracePeriod is how long a disconnected player has to reconnect
	GracePeriod time.Duration
	// SweepInterval is how often stale rooms are purged
	SweepInterval time.Duration
	// WaitingRoomTTL is how long a room may wait for a second player
	WaitingRoomTTL time.Duration
	// FinishedRoomTTL is how long a finished room stays open for a rematch
	FinishedRoomTTL time.Duration
	// CodeLength is the length of generated room codes
	CodeLength int
	// CodeAttempts bounds retries when a generated code collides
	CodeAttempts int
}

// DefaultConfig returns the default registry configuration
func DefaultConfig() Config {
	return Config{
		GracePeriod:     15 * time.Second,
		SweepInterval:   60 * time.Second,
		WaitingRoomTTL:  5 * time.Minute,
		FinishedRoomTTL: 2 * time.Minute,
		CodeLength:      6,
		CodeAttempts:    16,
	}
}

// Recorder archives finished matches
type Recorder interface {
	Record(summary model.MatchSummary)
}

// graceTimer tracks one armed reconnect window.
// Its pointer identity tells a live timer from a cancelled one that already fired.
type graceTimer struct {
	timer  clock.Timer
	roomID model.RoomID
}

// Stats is a point-in-time snapshot of the registry
type Stats struct {
	Rooms            int
	RoomsByState     map[model.RoomState]int
	PlayersInRooms   int
	ConnectedPlayers int
	PendingGrace     int
}

// Registry owns every room and the player mappings into them.
// It is not safe for concurrent use; all calls must run on the executor.
type Registry struct {
	config Config

	rooms   map[model.RoomID]*game.Room
	byCode  map[model.RoomCode]model.RoomID
	players map[model.PlayerID]model.RoomID
	conns   map[model.PlayerID]model.Conn
	grace   map[model.PlayerID]*graceTimer

	clock    clock.Clock
	random   random.Random
	executor loop.Executor
	recorder Recorder
	logger   *slog.Logger
}

// New creates a Registry. recorder may be nil.
func New(
	config Config,
	clock clock.Clock,
	random random.Random,
	executor loop.Executor,
	recorder Recorder,
	logger *slog.Logger,
) *Registry {
	return &Registry{
		config:   config,
		rooms:    make(map[model.RoomID]*game.Room),
		byCode:   make(map[model.RoomCode]model.RoomID),
		players:  make(map[model.PlayerID]model.RoomID),
		conns:    make(map[model.PlayerID]model.Conn),
		grace:    make(map[model.PlayerID]*graceTimer),
		clock:    clock,
		random:   random,
		executor: executor,
		recorder: recorder,
		logger:   logger.With(slog.String("component", "registry")),
	}
}

// Config returns the registry configuration
func (r *Registry) Config() Config {
	return r.config
}

// Register binds a live connection to a player. A previous connection for
// the same player is closed, and if the player is seated the room is
// switched to the new connection and its state replayed.
func (r *Registry) Register(id model.PlayerID, conn model.Conn) {
	previous := r.conns[id]
	r.conns[id] = conn
	if previous != nil && previous != conn {
		previous.Close()
		r.logger.Info("connection replaced", slog.String("player_id", string(id)))
	}

	if room := r.RoomFor(id); room != nil {
		room.Reconnect(id, conn)
	}
}

// Conn returns the player's live connection, or nil
func (r *Registry) Conn(id model.PlayerID) model.Conn {
	return r.conns[id]
}

// IsCurrent reports whether conn is the player's live connection
func (r *Registry) IsCurrent(id model.PlayerID, conn model.Conn) bool {
	current, ok := r.conns[id]
	return ok && current == conn
}

// CreateRoom creates a room with a fresh id and join code and seats the host
func (r *Registry) CreateRoom(id model.PlayerID, conn model.Conn) (*game.Room, error) {
	code, err := r.allocateCode()
	if err != nil {
		return nil, err
	}

	roomID := model.RoomID(r.random.UUID())
	room := game.NewRoom(roomID, code, id, conn, r.clock, r.logger)
	room.OnFinish(r.recordFinish)

	r.rooms[roomID] = room
	r.byCode[code] = roomID
	r.players[id] = roomID

	r.logger.Info("room created",
		slog.String("room_id", string(roomID)),
		slog.String("room_code", string(code)),
		slog.String("player_id", string(id)),
	)
	return room, nil
}

func (r *Registry) allocateCode() (model.RoomCode, error) {
	for attempt := 0; attempt < r.config.CodeAttempts; attempt++ {
		code := model.RoomCode(r.random.String(r.config.CodeLength, RoomCodeAlphabet))
		if _, taken := r.byCode[code]; !taken {
			return code, nil
		}
	}
	return "", model.ErrCodeExhausted
}

// FindByCode looks up a room by join code, ignoring case and surrounding space
func (r *Registry) FindByCode(code string) *game.Room {
	normalized := model.RoomCode(strings.ToUpper(strings.TrimSpace(code)))
	roomID, ok := r.byCode[normalized]
	if !ok {
		return nil
	}
	return r.rooms[roomID]
}

// JoinRoom seats a player in an existing room.
// The player mapping is only recorded once the room accepts them.
func (r *Registry) JoinRoom(roomID model.RoomID, id model.PlayerID, conn model.Conn) error {
	room, ok := r.rooms[roomID]
	if !ok {
		return model.ErrRoomNotFound
	}
	if err := room.AddPlayer(id, conn); err != nil {
		return err
	}
	r.players[id] = roomID
	return nil
}

// RoomFor returns the room a player is mapped to, or nil
func (r *Registry) RoomFor(id model.PlayerID) *game.Room {
	roomID, ok := r.players[id]
	if !ok {
		return nil
	}
	return r.rooms[roomID]
}

// IsSeated reports whether the player is in a room that has not finished.
// Players in a finished room are free to queue or create a new room.
func (r *Registry) IsSeated(id model.PlayerID) bool {
	room := r.RoomFor(id)
	return room != nil && room.State() != model.RoomStateGameOver
}

// LeaveRoom permanently removes a player from their room, if any
func (r *Registry) LeaveRoom(id model.PlayerID) {
	room := r.RoomFor(id)
	if room == nil {
		delete(r.players, id)
		return
	}
	r.leave(id, room)
}

// SubmitSecret forwards a secret to the player's room.
// Players without a room are ignored.
func (r *Registry) SubmitSecret(id model.PlayerID, secret string) error {
	room := r.RoomFor(id)
	if room == nil {
		return nil
	}
	return room.SubmitSecret(id, secret)
}

// SubmitGuess forwards a guess to the player's room.
// Players without a room are ignored.
func (r *Registry) SubmitGuess(id model.PlayerID, guess string) error {
	room := r.RoomFor(id)
	if room == nil {
		return nil
	}
	return room.SubmitGuess(id, guess)
}

// RequestRematch forwards a rematch request to the player's room.
// Players without a room are ignored.
func (r *Registry) RequestRematch(id model.PlayerID) error {
	room := r.RoomFor(id)
	if room == nil {
		return nil
	}
	return room.RequestRematch(id)
}

// HandleDisconnect reacts to a lost connection. During active gameplay the
// player gets a grace period to reconnect; otherwise they leave immediately.
// A conn that is no longer the player's live connection is ignored.
func (r *Registry) HandleDisconnect(id model.PlayerID, conn model.Conn) {
	if !r.IsCurrent(id, conn) {
		r.logger.Debug("stale disconnect ignored", slog.String("player_id", string(id)))
		return
	}
	delete(r.conns, id)

	room := r.RoomFor(id)
	if room == nil {
		delete(r.players, id)
		return
	}

	if room.State().IsActiveGameplay() {
		r.startGrace(id, room)
		return
	}
	r.leave(id, room)
}

func (r *Registry) startGrace(id model.PlayerID, room *game.Room) {
	r.cancelGrace(id)
	room.MarkDisconnected(id, r.config.GracePeriod)

	gt := &graceTimer{roomID: room.ID()}
	gt.timer = r.clock.AfterFunc(r.config.GracePeriod, func() {
		r.executor.Post(func() { r.expireGrace(id, gt) })
	})
	r.grace[id] = gt

	r.logger.Info("player disconnected, grace period started",
		slog.String("player_id", string(id)),
		slog.String("room_id", string(room.ID())),
		slog.Duration("grace_period", r.config.GracePeriod),
	)
}

func (r *Registry) cancelGrace(id model.PlayerID) {
	if gt, ok := r.grace[id]; ok {
		gt.timer.Stop()
		delete(r.grace, id)
	}
}

// expireGrace ends the room in the opponent's favour and releases it
func (r *Registry) expireGrace(id model.PlayerID, gt *graceTimer) {
	if r.grace[id] != gt {
		return
	}
	delete(r.grace, id)

	room, ok := r.rooms[gt.roomID]
	if !ok {
		return
	}

	r.logger.Info("grace period expired",
		slog.String("player_id", string(id)),
		slog.String("room_id", string(room.ID())),
	)
	room.HandleTerminalDisconnect(id)
	r.closeRoom(room)
}

// Reconnect resumes a player inside their grace period.
// It returns false when there is nothing to resume.
func (r *Registry) Reconnect(id model.PlayerID, conn model.Conn) bool {
	gt, ok := r.grace[id]
	if !ok {
		return false
	}
	gt.timer.Stop()
	delete(r.grace, id)

	room, ok := r.rooms[gt.roomID]
	if !ok || !room.Reconnect(id, conn) {
		return false
	}
	r.conns[id] = conn

	r.logger.Info("player reconnected",
		slog.String("player_id", string(id)),
		slog.String("room_id", string(room.ID())),
	)
	return true
}

// leave removes one player for good and drops the room once nobody maps to it
func (r *Registry) leave(id model.PlayerID, room *game.Room) {
	r.cancelGrace(id)
	room.HandleTerminalDisconnect(id)
	delete(r.players, id)

	for _, p := range room.Players() {
		if r.players[p.ID] == room.ID() {
			return
		}
	}
	r.removeRoom(room)
}

// closeRoom releases every mapping into the room and drops it
func (r *Registry) closeRoom(room *game.Room) {
	for _, p := range room.Players() {
		if r.players[p.ID] == room.ID() {
			delete(r.players, p.ID)
		}
		if gt, ok := r.grace[p.ID]; ok && gt.roomID == room.ID() {
			gt.timer.Stop()
			delete(r.grace, p.ID)
		}
	}
	r.removeRoom(room)
}

func (r *Registry) removeRoom(room *game.Room) {
	delete(r.rooms, room.ID())
	if r.byCode[room.Code()] == room.ID() {
		delete(r.byCode, room.Code())
	}
	r.logger.Debug("room removed", slog.String("room_id", string(room.ID())))
}

// Sweep purges rooms left waiting or finished for too long and returns how
// many were removed. Age is measured from the room's last state change.
func (r *Registry) Sweep() int {
	now := r.clock.Now()
	removed := 0
	for _, room := range r.rooms {
		age := now.Sub(room.StateChangedAt())
		switch {
		case room.State() == model.RoomStateWaitingForPlayers && age > r.config.WaitingRoomTTL:
		case room.State() == model.RoomStateGameOver && age > r.config.FinishedRoomTTL:
		default:
			continue
		}
		r.closeRoom(room)
		removed++
	}
	if removed > 0 {
		r.logger.Info("swept stale rooms", slog.Int("removed", removed), slog.Int("remaining", len(r.rooms)))
	}
	return removed
}

// Run posts a sweep onto the executor every SweepInterval until ctx is done
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.executor.Post(func() { r.Sweep() })
		case <-ctx.Done():
			return
		}
	}
}

// Stats returns a snapshot of the registry
func (r *Registry) Stats() Stats {
	stats := Stats{
		Rooms:            len(r.rooms),
		RoomsByState:     make(map[model.RoomState]int, len(model.AllRoomStates)),
		PlayersInRooms:   len(r.players),
		ConnectedPlayers: len(r.conns),
		PendingGrace:     len(r.grace),
	}
	for _, state := range model.AllRoomStates {
		stats.RoomsByState[state] = 0
	}
	for _, room := range r.rooms {
		stats.RoomsByState[room.State()]++
	}
	return stats
}

func (r *Registry) recordFinish(summary model.MatchSummary) {
	if r.recorder == nil {
		return
	}
	r.recorder.Record(summary)
}
