package dispatch

import (
	"log/slog"

	"github.com/mcoot/bullcow/internal/model"
	"github.com/mcoot/bullcow/internal/services/matchmaking"
	"github.com/mcoot/bullcow/internal/services/registry"
)

// Dispatcher binds connections to player identities and routes their commands.
// It is not safe for concurrent use; all calls must run on the executor.
type Dispatcher struct {
	registry   *registry.Registry
	matchmaker *matchmaking.Matchmaker
	logger     *slog.Logger
}

// New creates a Dispatcher
func New(registry *registry.Registry, matchmaker *matchmaking.Matchmaker, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry:   registry,
		matchmaker: matchmaker,
		logger:     logger.With(slog.String("component", "dispatcher")),
	}
}

// Connect binds a new connection to a player. A player inside a grace
// period is reconnected to their room; anyone else is registered fresh.
func (d *Dispatcher) Connect(id model.PlayerID, conn model.Conn) error {
	if id == "" {
		return model.ErrMissingPlayerID
	}

	if d.registry.Reconnect(id, conn) {
		return nil
	}

	d.registry.Register(id, conn)
	d.matchmaker.Rebind(id, conn)
	d.logger.Info("player connected", slog.String("player_id", string(id)))
	return nil
}

// Handle routes one inbound command. Commands arriving on a connection that
// has since been replaced are dropped.
func (d *Dispatcher) Handle(id model.PlayerID, conn model.Conn, env model.Envelope) {
	if !d.registry.IsCurrent(id, conn) {
		d.logger.Debug("command from stale connection dropped",
			slog.String("player_id", string(id)),
			slog.String("type", string(env.Type)),
		)
		return
	}

	switch env.Type {
	case model.CommandQueueJoin:
		d.matchmaker.JoinQueue(id, conn)

	case model.CommandQueueLeave:
		d.matchmaker.LeaveQueue(id)

	case model.CommandRoomCreate:
		d.matchmaker.CreateRoom(id, conn)

	case model.CommandBotMatch:
		var payload model.BotMatchPayload
		d.decode(id, env, &payload)
		d.matchmaker.PlayBot(id, conn, payload.Strategy)

	case model.CommandRoomJoin:
		var payload model.RoomJoinPayload
		d.decode(id, env, &payload)
		d.matchmaker.JoinRoomByCode(id, conn, payload.Code)

	case model.CommandSecretSubmit:
		var payload model.SecretSubmitPayload
		d.decode(id, env, &payload)
		d.logResult(id, env.Type, d.registry.SubmitSecret(id, payload.Secret))

	case model.CommandGuessSubmit:
		var payload model.GuessSubmitPayload
		d.decode(id, env, &payload)
		d.logResult(id, env.Type, d.registry.SubmitGuess(id, payload.Guess))

	case model.CommandRematchRequest:
		d.logResult(id, env.Type, d.registry.RequestRematch(id))

	default:
		d.logger.Warn("unknown command type",
			slog.String("player_id", string(id)),
			slog.String("type", string(env.Type)),
		)
	}
}

// decode leaves payload zeroed when the body is malformed so that the
// room's validation reports it to the player
func (d *Dispatcher) decode(id model.PlayerID, env model.Envelope, payload any) {
	if err := env.Decode(payload); err != nil {
		d.logger.Debug("malformed command payload",
			slog.String("player_id", string(id)),
			slog.String("type", string(env.Type)),
			slog.String("error", err.Error()),
		)
	}
}

func (d *Dispatcher) logResult(id model.PlayerID, command model.CommandType, err error) {
	if err == nil {
		return
	}
	d.logger.Debug("command rejected",
		slog.String("player_id", string(id)),
		slog.String("type", string(command)),
		slog.String("error", err.Error()),
	)
}

// Disconnect handles a closed connection
func (d *Dispatcher) Disconnect(id model.PlayerID, conn model.Conn) {
	if !d.registry.IsCurrent(id, conn) {
		return
	}
	d.matchmaker.LeaveQueue(id)
	d.registry.HandleDisconnect(id, conn)
	d.logger.Info("player disconnected", slog.String("player_id", string(id)))
}
