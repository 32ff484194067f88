package bot

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/bullcow/internal/dependencies/clock"
	"github.com/mcoot/bullcow/internal/dependencies/random"
	"github.com/mcoot/bullcow/internal/loop"
	"github.com/mcoot/bullcow/internal/model"
	"github.com/mcoot/bullcow/internal/services/registry"
)

const (
	// PlayerIDAlphabet is the character set for generating bot player IDs
	PlayerIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	// PlayerIDLength is the length of generated bot player IDs
	PlayerIDLength = 16

	StrategyRandom     = "random"
	StrategyConsistent = "consistent"

	// DefaultStrategy is used when a player does not name one
	DefaultStrategy = StrategyConsistent
)

// Service spawns computer opponents. Bots act through the registry like any
// other player, with every action posted back onto the executor.
type Service struct {
	registry   *registry.Registry
	strategies map[string]Strategy
	thinkTime  time.Duration
	clock      clock.Clock
	random     random.Random
	executor   loop.Executor
	logger     *slog.Logger
}

// NewService creates a new bot Service. thinkTime delays each bot action;
// zero makes bots act as soon as the current task finishes.
func NewService(
	reg *registry.Registry,
	strategies map[string]Strategy,
	thinkTime time.Duration,
	clk clock.Clock,
	rnd random.Random,
	executor loop.Executor,
	logger *slog.Logger,
) *Service {
	return &Service{
		registry:   reg,
		strategies: strategies,
		thinkTime:  thinkTime,
		clock:      clk,
		random:     rnd,
		executor:   executor,
		logger:     logger.With(slog.String("component", "bot-service")),
	}
}

// DefaultStrategies returns the built-in strategies keyed by name
func DefaultStrategies(rnd random.Random) map[string]Strategy {
	return map[string]Strategy{
		StrategyRandom:     NewRandomStrategy(rnd),
		StrategyConsistent: NewConsistentStrategy(rnd),
	}
}

// Spawn creates a bot using the named strategy. An empty name selects
// DefaultStrategy.
func (s *Service) Spawn(strategy string) (model.PlayerID, model.Conn, error) {
	if strategy == "" {
		strategy = DefaultStrategy
	}
	st, ok := s.strategies[strategy]
	if !ok {
		return "", nil, model.NewGameError(model.CodeUnknownBot, fmt.Sprintf("Unknown bot strategy %q.", strategy))
	}

	p := &Player{
		id:       model.PlayerID("bot-" + s.random.String(PlayerIDLength, PlayerIDAlphabet)),
		strategy: st,
		service:  s,
	}

	s.logger.Info("bot spawned",
		slog.String("bot_id", string(p.id)),
		slog.String("strategy", strategy),
	)
	return p.id, p, nil
}

// schedule runs fn on the executor after the think time
func (s *Service) schedule(fn func()) {
	if s.thinkTime <= 0 {
		s.executor.Post(fn)
		return
	}
	s.clock.AfterFunc(s.thinkTime, func() { s.executor.Post(fn) })
}

// Player is a bot seated in a room. It implements model.Conn: the room
// delivers events to it and it answers through the registry.
type Player struct {
	id       model.PlayerID
	strategy Strategy
	service  *Service
	history  []model.GuessResult
	retired  bool
}

// ID returns the bot's player id
func (p *Player) ID() model.PlayerID {
	return p.id
}

// Send reacts to an event from the room
func (p *Player) Send(event model.Event) {
	if p.retired {
		return
	}

	switch event.Type {
	case model.EventMatchFound:
		p.history = nil
		secret := p.strategy.ChooseSecret()
		p.act("secret", func() error { return p.service.registry.SubmitSecret(p.id, secret) })

	case model.EventGameStart, model.EventTurnChange:
		if turn, ok := event.Payload.(model.TurnPayload); ok && turn.YourTurn {
			// The guess is chosen when the action runs so the latest result is included
			p.act("guess", func() error {
				return p.service.registry.SubmitGuess(p.id, p.strategy.ChooseGuess(p.history))
			})
		}

	case model.EventGuessResult:
		if result, ok := event.Payload.(model.GuessResult); ok {
			p.history = append(p.history, result)
		}

	case model.EventRematchPending:
		if pending, ok := event.Payload.(model.RematchPendingPayload); ok && pending.RequestedBy == model.RequestedByOpponent {
			p.act("rematch", func() error { return p.service.registry.RequestRematch(p.id) })
		}

	case model.EventOpponentDisconnected:
		p.service.schedule(p.retire)
	}
}

// Close retires the bot
func (p *Player) Close() {
	p.retired = true
}

func (p *Player) act(action string, fn func() error) {
	p.service.schedule(func() {
		if p.retired {
			return
		}
		if err := fn(); err != nil {
			p.service.logger.Warn("bot action rejected",
				slog.String("bot_id", string(p.id)),
				slog.String("action", action),
				slog.String("error", err.Error()),
			)
		}
	})
}

// retire leaves the room once the human has gone
func (p *Player) retire() {
	if p.retired {
		return
	}
	p.retired = true
	p.service.registry.LeaveRoom(p.id)
	p.service.logger.Info("bot retired", slog.String("bot_id", string(p.id)))
}
