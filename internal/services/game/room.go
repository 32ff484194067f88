package game

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/bullcow/internal/dependencies/clock"
	"github.com/mcoot/bullcow/internal/model"
	"github.com/mcoot/bullcow/internal/services/scoring"
)

// Result reasons
const (
	reasonCrackedFirst = "%s cracked the code first."
	reasonFewerGuesses = "%s cracked the code in fewer guesses."
	ReasonDraw         = "Draw! Both players cracked the code in the same number of guesses."
	ReasonOpponentLeft = "Opponent left the game."
)

// Rejection messages
const (
	messageWrongPhase   = "No game is waiting for secrets."
	messageNotYourTurn  = "It is not your turn."
	messageNoRematchYet = "A rematch can only be requested after the game ends."
	messageOpponentGone = "Your opponent left the room."
)

func reason(format string, slot model.Slot) string {
	return fmt.Sprintf(format, slot.Label())
}

// Room is the authoritative state machine for a single duel.
// It is not safe for concurrent use; all calls must be serialized by the caller.
type Room struct {
	id    model.RoomID
	code  model.RoomCode
	state model.RoomState

	home *model.Player
	away *model.Player // nil until a second player joins

	round      int
	turn       model.Slot
	pendingWin *model.Slot
	rematch    map[model.PlayerID]bool
	result     *model.Result

	createdAt      time.Time
	stateChangedAt time.Time

	clock    clock.Clock
	logger   *slog.Logger
	onFinish func(model.MatchSummary)
}

// NewRoom creates a room with the host seated in the home slot
func NewRoom(
	id model.RoomID,
	code model.RoomCode,
	hostID model.PlayerID,
	conn model.Conn,
	clock clock.Clock,
	logger *slog.Logger,
) *Room {
	now := clock.Now()
	return &Room{
		id:             id,
		code:           code,
		state:          model.RoomStateWaitingForPlayers,
		home:           model.NewPlayer(hostID, conn),
		round:          1,
		turn:           model.SlotHome,
		rematch:        make(map[model.PlayerID]bool),
		createdAt:      now,
		stateChangedAt: now,
		clock:          clock,
		logger:         logger.With(slog.String("room_id", string(id))),
	}
}

// OnFinish registers a callback invoked once per finished game
func (r *Room) OnFinish(fn func(model.MatchSummary)) {
	r.onFinish = fn
}

// ID returns the room id
func (r *Room) ID() model.RoomID { return r.id }

// Code returns the join code
func (r *Room) Code() model.RoomCode { return r.code }

// State returns the current lifecycle state
func (r *Room) State() model.RoomState { return r.state }

func (r *Room) Round() int { return r.round }

func (r *Room) Turn() model.Slot { return r.turn }

func (r *Room) CreatedAt() time.Time { return r.createdAt }

// StateChangedAt is when the room last changed state
func (r *Room) StateChangedAt() time.Time { return r.stateChangedAt }

// Result returns the recorded result, or nil while undecided
func (r *Room) Result() *model.Result { return r.result }

// IsFull reports whether both slots have been filled
func (r *Room) IsFull() bool { return r.away != nil }

// RematchRequested reports whether the player has asked for a rematch
func (r *Room) RematchRequested(id model.PlayerID) bool { return r.rematch[id] }

// PendingWin returns the slot owed a win if the opponent fails to catch up
func (r *Room) PendingWin() (model.Slot, bool) {
	if r.pendingWin == nil {
		return 0, false
	}
	return *r.pendingWin, true
}

// Player returns the seated player with the given id, or nil
func (r *Room) Player(id model.PlayerID) *model.Player {
	switch {
	case r.home != nil && r.home.ID == id:
		return r.home
	case r.away != nil && r.away.ID == id:
		return r.away
	default:
		return nil
	}
}

// PlayerAt returns the player in a slot, or nil if empty
func (r *Room) PlayerAt(slot model.Slot) *model.Player {
	if slot == model.SlotHome {
		return r.home
	}
	return r.away
}

// SlotOf returns the slot a player occupies
func (r *Room) SlotOf(id model.PlayerID) (model.Slot, bool) {
	switch {
	case r.home != nil && r.home.ID == id:
		return model.SlotHome, true
	case r.away != nil && r.away.ID == id:
		return model.SlotAway, true
	default:
		return 0, false
	}
}

// Opponent returns the other seated player, or nil
func (r *Room) Opponent(id model.PlayerID) *model.Player {
	slot, ok := r.SlotOf(id)
	if !ok {
		return nil
	}
	return r.PlayerAt(slot.Other())
}

// Players returns the seated players in slot order
func (r *Room) Players() []*model.Player {
	players := []*model.Player{r.home}
	if r.away != nil {
		players = append(players, r.away)
	}
	return players
}

// IsDisconnected reports whether the player is inside a grace period
func (r *Room) IsDisconnected(id model.PlayerID) bool {
	p := r.Player(id)
	return p != nil && p.IsDisconnected()
}

func (r *Room) setState(state model.RoomState) {
	r.state = state
	r.stateChangedAt = r.clock.Now()
}

// reject reports a GameError to the acting player only and returns it
func (r *Room) reject(p *model.Player, code model.ErrorCode, message string) error {
	err := model.NewGameError(code, message)
	p.Send(model.ErrorEvent(err))
	r.logger.Debug("action rejected",
		slog.String("player_id", string(p.ID)),
		slog.String("code", string(code)),
	)
	return err
}

// AddPlayer seats a second player and moves the room to secret submission
func (r *Room) AddPlayer(id model.PlayerID, conn model.Conn) error {
	if r.home.ID == id {
		return model.ErrAlreadyInRoom
	}
	if r.state != model.RoomStateWaitingForPlayers || r.away != nil {
		return model.NewGameError(model.CodeRoomFull, "Room is full.")
	}

	r.away = model.NewPlayer(id, conn)
	r.setState(model.RoomStateWaitingForSecrets)

	r.home.Send(model.NewEvent(model.EventMatchFound, model.MatchFoundPayload{RoomID: r.id, OpponentID: r.away.ID}))
	r.away.Send(model.NewEvent(model.EventMatchFound, model.MatchFoundPayload{RoomID: r.id, OpponentID: r.home.ID}))

	r.logger.Info("match found",
		slog.String("home_id", string(r.home.ID)),
		slog.String("away_id", string(r.away.ID)),
	)
	return nil
}

// SubmitSecret stores a player's secret and starts the game once both are in
func (r *Room) SubmitSecret(id model.PlayerID, secret string) error {
	p := r.Player(id)
	if p == nil {
		return model.ErrNotInRoom
	}
	if r.state != model.RoomStateWaitingForSecrets {
		return r.reject(p, model.CodeNoActiveGame, messageWrongPhase)
	}
	if err := scoring.ValidateSecret(secret); err != nil {
		return r.reject(p, model.CodeInvalidSecret, "Secret "+err.Error()+".")
	}

	p.Secret = secret
	r.Opponent(id).Send(model.NewEvent(model.EventOpponentReady, nil))

	if r.home.HasSecret() && r.away.HasSecret() {
		r.round = 1
		r.turn = model.SlotHome
		r.setState(model.RoomStatePlayer1Turn)

		r.home.Send(model.NewEvent(model.EventGameStart, model.TurnPayload{YourTurn: true, Round: r.round}))
		r.away.Send(model.NewEvent(model.EventGameStart, model.TurnPayload{YourTurn: false, Round: r.round}))

		r.logger.Info("game started")
	}
	return nil
}

// SubmitGuess scores a guess by the player whose turn it is
func (r *Room) SubmitGuess(id model.PlayerID, guess string) error {
	p := r.Player(id)
	if p == nil {
		return model.ErrNotInRoom
	}
	slot, _ := r.SlotOf(id)
	if r.state != slot.TurnState() {
		return r.reject(p, model.CodeNotYourTurn, messageNotYourTurn)
	}
	if err := scoring.ValidateGuess(guess); err != nil {
		return r.reject(p, model.CodeInvalidGuess, "Guess "+err.Error()+".")
	}

	opponent := r.PlayerAt(slot.Other())
	bulls, cows := scoring.Evaluate(opponent.Secret, guess)
	result := model.GuessResult{Guess: guess, Bulls: bulls, Cows: cows, Round: r.round}
	p.Guesses = append(p.Guesses, result)

	p.Send(model.NewEvent(model.EventGuessResult, result))
	opponent.Send(model.NewEvent(model.EventOpponentGuessed, model.OpponentGuessedPayload{
		Bulls: bulls,
		Cows:  cows,
		Round: r.round,
	}))

	if scoring.IsWinning(bulls) {
		r.resolveWin(slot)
	} else {
		r.advanceTurn()
	}
	return nil
}

// resolveWin applies the same-round fairness rule. Home always moves first
// in a round, so only a home win can leave the away player owed a guess.
func (r *Room) resolveWin(winner model.Slot) {
	if r.pendingWin == nil && winner == model.SlotHome {
		pending := winner
		r.pendingWin = &pending
		r.turn = model.SlotAway
		r.setState(model.RoomStatePlayer2Turn)
		r.broadcastTurn(model.EventTurnChange)
		return
	}

	if r.pendingWin != nil && *r.pendingWin != winner {
		homeCount := r.home.GuessCount()
		awayCount := r.away.GuessCount()
		switch {
		case homeCount == awayCount:
			r.endGame(model.Result{Draw: true, Reason: ReasonDraw})
		case homeCount < awayCount:
			r.endGame(model.Result{Winner: model.SlotHome, Reason: reason(reasonFewerGuesses, model.SlotHome)})
		default:
			r.endGame(model.Result{Winner: model.SlotAway, Reason: reason(reasonFewerGuesses, model.SlotAway)})
		}
		return
	}

	r.endGame(model.Result{Winner: winner, Reason: reason(reasonCrackedFirst, winner)})
}

// advanceTurn hands the move to the other slot after a non-winning guess
func (r *Room) advanceTurn() {
	if r.pendingWin != nil && r.turn != *r.pendingWin {
		// The owed guess missed
		winner := *r.pendingWin
		r.endGame(model.Result{Winner: winner, Reason: reason(reasonCrackedFirst, winner)})
		return
	}

	if r.turn == model.SlotHome {
		r.turn = model.SlotAway
	} else {
		r.turn = model.SlotHome
		r.round++
	}
	r.setState(r.turn.TurnState())
	r.broadcastTurn(model.EventTurnChange)
}

func (r *Room) broadcastTurn(eventType model.EventType) {
	r.home.Send(model.NewEvent(eventType, model.TurnPayload{YourTurn: r.turn == model.SlotHome, Round: r.round}))
	r.away.Send(model.NewEvent(eventType, model.TurnPayload{YourTurn: r.turn == model.SlotAway, Round: r.round}))
}

// endGame records the result and reveals each secret to the other player
func (r *Room) endGame(result model.Result) {
	r.result = &result
	r.setState(model.RoomStateGameOver)

	r.home.Send(model.NewEvent(model.EventGameOver, r.gameOverPayload(model.SlotHome)))
	r.away.Send(model.NewEvent(model.EventGameOver, r.gameOverPayload(model.SlotAway)))

	r.logger.Info("game finished",
		slog.Bool("draw", result.Draw),
		slog.String("winner", result.Winner.Label()),
		slog.Int("home_guesses", r.home.GuessCount()),
		slog.Int("away_guesses", r.away.GuessCount()),
	)
	r.finish()
}

func (r *Room) gameOverPayload(slot model.Slot) model.GameOverPayload {
	me := r.PlayerAt(slot)
	them := r.PlayerAt(slot.Other())

	outcome := model.OutcomeOpponent
	switch {
	case r.result.Draw:
		outcome = model.OutcomeDraw
	case r.result.Winner == slot:
		outcome = model.OutcomeYou
	}

	return model.GameOverPayload{
		Winner:             outcome,
		YourGuessCount:     me.GuessCount(),
		OpponentGuessCount: them.GuessCount(),
		OpponentSecret:     them.Secret,
		Reason:             r.result.Reason,
	}
}

// Summary builds the archive record of the current result
func (r *Room) Summary() model.MatchSummary {
	summary := model.MatchSummary{
		RoomID:      r.id,
		HomeID:      r.home.ID,
		HomeGuesses: r.home.GuessCount(),
		Rounds:      r.round,
		FinishedAt:  r.stateChangedAt,
	}
	if r.away != nil {
		summary.AwayID = r.away.ID
		summary.AwayGuesses = r.away.GuessCount()
	}
	if r.result != nil {
		summary.Draw = r.result.Draw
		summary.Forfeit = r.result.Forfeit
		summary.Reason = r.result.Reason
		if !r.result.Draw {
			if winner := r.PlayerAt(r.result.Winner); winner != nil {
				summary.WinnerID = winner.ID
			}
		}
	}
	return summary
}

func (r *Room) finish() {
	if r.onFinish != nil {
		r.onFinish(r.Summary())
	}
}

// RequestRematch records a rematch request and resets the room once both agree
func (r *Room) RequestRematch(id model.PlayerID) error {
	p := r.Player(id)
	if p == nil {
		return model.ErrNotInRoom
	}
	if r.state != model.RoomStateGameOver {
		return r.reject(p, model.CodeNoActiveGame, messageNoRematchYet)
	}
	opponent := r.Opponent(id)
	if opponent == nil || opponent.Left {
		return r.reject(p, model.CodeNoActiveGame, messageOpponentGone)
	}

	r.rematch[id] = true
	opponent.Send(model.NewEvent(model.EventRematchPending, model.RematchPendingPayload{RequestedBy: model.RequestedByOpponent}))
	p.Send(model.NewEvent(model.EventRematchPending, model.RematchPendingPayload{RequestedBy: model.RequestedByYou}))

	if r.rematch[r.home.ID] && r.rematch[r.away.ID] {
		r.resetForRematch()
	}
	return nil
}

func (r *Room) resetForRematch() {
	r.round = 1
	r.turn = model.SlotHome
	r.pendingWin = nil
	r.result = nil
	r.rematch = make(map[model.PlayerID]bool)
	r.home.ResetForRematch()
	r.away.ResetForRematch()
	r.setState(model.RoomStateWaitingForSecrets)

	r.home.Send(model.NewEvent(model.EventMatchFound, model.MatchFoundPayload{RoomID: r.id, OpponentID: r.away.ID}))
	r.away.Send(model.NewEvent(model.EventMatchFound, model.MatchFoundPayload{RoomID: r.id, OpponentID: r.home.ID}))

	r.logger.Info("rematch started")
}

// MarkDisconnected starts a player's grace period and warns the opponent
func (r *Room) MarkDisconnected(id model.PlayerID, grace time.Duration) bool {
	p := r.Player(id)
	if p == nil {
		return false
	}
	now := r.clock.Now()
	p.DisconnectedAt = &now
	p.Conn = nil

	r.Opponent(id).Send(model.NewEvent(model.EventOpponentReconnecting, model.OpponentReconnectingPayload{
		TimeoutSeconds: int(grace / time.Second),
	}))
	return true
}

// Reconnect swaps in a new connection and replays the player's visible state.
// The opponent is only told when the player was inside a grace period.
func (r *Room) Reconnect(id model.PlayerID, conn model.Conn) bool {
	p := r.Player(id)
	if p == nil || p.Left {
		return false
	}
	wasDisconnected := p.IsDisconnected()
	p.Conn = conn
	p.DisconnectedAt = nil

	if wasDisconnected {
		r.Opponent(id).Send(model.NewEvent(model.EventOpponentReconnected, nil))
	}
	r.replay(p)
	return true
}

// replay sends a player everything they need to resume from the current state
func (r *Room) replay(p *model.Player) {
	slot, _ := r.SlotOf(p.ID)
	opponent := r.PlayerAt(slot.Other())

	switch r.state {
	case model.RoomStateWaitingForPlayers:
		p.Send(model.NewEvent(model.EventRoomCreated, model.RoomCreatedPayload{RoomID: r.id, RoomCode: r.code}))

	case model.RoomStateWaitingForSecrets:
		p.Send(model.NewEvent(model.EventMatchFound, model.MatchFoundPayload{RoomID: r.id, OpponentID: opponent.ID}))
		if opponent.HasSecret() {
			p.Send(model.NewEvent(model.EventOpponentReady, nil))
		}

	case model.RoomStatePlayer1Turn, model.RoomStatePlayer2Turn:
		p.Send(model.NewEvent(model.EventGameStart, model.TurnPayload{YourTurn: r.turn == slot, Round: r.round}))
		for _, g := range p.Guesses {
			p.Send(model.NewEvent(model.EventGuessResult, g))
		}
		for _, g := range opponent.Guesses {
			p.Send(model.NewEvent(model.EventOpponentGuessed, model.OpponentGuessedPayload{
				Bulls: g.Bulls,
				Cows:  g.Cows,
				Round: g.Round,
			}))
		}

	case model.RoomStateGameOver:
		if r.result != nil && opponent != nil {
			p.Send(model.NewEvent(model.EventGameOver, r.gameOverPayload(slot)))
		}
	}
}

// HandleTerminalDisconnect removes a player for good. The opponent is told,
// and if no result exists yet the opponent is recorded as the winner.
func (r *Room) HandleTerminalDisconnect(id model.PlayerID) {
	p := r.Player(id)
	if p == nil {
		return
	}
	p.Left = true
	p.Conn = nil
	p.DisconnectedAt = nil

	slot, _ := r.SlotOf(id)
	opponent := r.PlayerAt(slot.Other())
	opponent.Send(model.NewEvent(model.EventOpponentDisconnected, model.OpponentDisconnectedPayload{
		Reason: ReasonOpponentLeft,
	}))

	if r.state == model.RoomStateGameOver {
		return
	}

	if r.result == nil && opponent != nil {
		r.result = &model.Result{
			Winner:  slot.Other(),
			Reason:  ReasonOpponentLeft,
			Forfeit: true,
		}
		r.setState(model.RoomStateGameOver)
		r.logger.Info("game forfeited", slog.String("player_id", string(id)))
		r.finish()
		return
	}
	r.setState(model.RoomStateGameOver)
}
