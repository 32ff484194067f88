package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/bullcow/internal/dependencies/mocks"
	"github.com/mcoot/bullcow/internal/loop"
	"github.com/mcoot/bullcow/internal/model"
	"github.com/mcoot/bullcow/internal/services/game"
	"github.com/mcoot/bullcow/internal/services/matchmaking"
	"github.com/mcoot/bullcow/internal/services/registry"
	"github.com/mcoot/bullcow/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	executor   *loop.Inline
	registry   *registry.Registry
	matchmaker *matchmaking.Matchmaker
	service    *Service
	alice      *testutil.RecordingConn
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.build(0)
}

// build wires a fresh registry and bot service with the given think time
func (s *ServiceSuite) build(thinkTime time.Duration) {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.executor = loop.NewInline()
	s.registry = registry.New(registry.DefaultConfig(), s.clock, s.random, s.executor, nil, testutil.NopLogger())
	s.matchmaker = matchmaking.New(s.registry, testutil.NopLogger())
	s.service = NewService(s.registry, DefaultStrategies(s.random), thinkTime, s.clock, s.random, s.executor, testutil.NopLogger())
	s.matchmaker.SetOpponents(s.service)

	s.alice = testutil.NewRecordingConn()
	s.registry.Register("alice", s.alice)
}

// do runs fn on the executor so bot reactions queue behind it
func (s *ServiceSuite) do(fn func()) {
	s.executor.Post(fn)
}

// startBotMatch seats alice against a consistent bot, whose secret is 1023
func (s *ServiceSuite) startBotMatch() *game.Room {
	s.do(func() { s.matchmaker.PlayBot("alice", s.alice, StrategyConsistent) })
	room := s.registry.RoomFor("alice")
	s.Require().NotNil(room)
	return room
}

func (s *ServiceSuite) submitSecret(secret string) {
	s.do(func() { s.Require().NoError(s.registry.SubmitSecret("alice", secret)) })
}

func (s *ServiceSuite) guess(guess string) {
	s.do(func() { s.Require().NoError(s.registry.SubmitGuess("alice", guess)) })
}

func (s *ServiceSuite) gameOver() model.GameOverPayload {
	over := s.alice.OfType(model.EventGameOver)
	s.Require().Len(over, 1)
	return over[0].Payload.(model.GameOverPayload)
}

func (s *ServiceSuite) TestSpawnDefaultsStrategy() {
	id, conn, err := s.service.Spawn("")

	s.Require().NoError(err)
	s.True(strings.HasPrefix(string(id), "bot-"))
	s.Equal(id, conn.(*Player).ID())
	s.IsType(&ConsistentStrategy{}, conn.(*Player).strategy)
}

func (s *ServiceSuite) TestSpawnUnknownStrategy() {
	_, _, err := s.service.Spawn("genius")

	s.ErrorIs(err, model.ErrUnknownBot)
}

func (s *ServiceSuite) TestBotSubmitsSecretOnMatch() {
	room := s.startBotMatch()

	s.Equal(model.RoomStateWaitingForSecrets, room.State())
	s.Equal("1023", room.Opponent("alice").Secret)
}

func (s *ServiceSuite) TestHumanWinsAfterBotsOwedGuess() {
	s.startBotMatch()
	s.submitSecret("5678")

	s.guess("1023")

	over := s.gameOver()
	s.Equal(model.OutcomeYou, over.Winner)
	s.Equal(1, over.OpponentGuessCount)
}

func (s *ServiceSuite) TestBotWins() {
	s.startBotMatch()
	s.submitSecret("1023")

	s.guess("9876")

	s.Equal(model.OutcomeOpponent, s.gameOver().Winner)
}

func (s *ServiceSuite) TestBotKeepsPlayingUntilCracked() {
	room := s.startBotMatch()
	s.submitSecret("9876")

	// alice never hits, so the game runs until the bot cracks 9876
	misses := []string{"4567", "4568", "4569", "4578", "4579", "4589", "4675", "4685", "4695", "4785"}
	for _, g := range misses {
		if room.State() == model.RoomStateGameOver {
			break
		}
		s.guess(g)
	}

	s.Equal(model.RoomStateGameOver, room.State())
	s.Equal(model.OutcomeOpponent, s.gameOver().Winner)
	s.Equal(6, s.gameOver().OpponentGuessCount)
}

func (s *ServiceSuite) TestBotAcceptsRematch() {
	room := s.startBotMatch()
	s.submitSecret("5678")
	s.guess("1023")

	s.do(func() { s.Require().NoError(s.registry.RequestRematch("alice")) })

	s.Equal(model.RoomStateWaitingForSecrets, room.State())
	s.Len(s.alice.OfType(model.EventMatchFound), 2)
	s.True(room.Opponent("alice").HasSecret())
}

func (s *ServiceSuite) TestBotRetiresWhenHumanLeaves() {
	room := s.startBotMatch()
	botID := room.Opponent("alice").ID
	s.submitSecret("5678")
	s.guess("1023")

	s.do(func() { s.registry.LeaveRoom("alice") })

	s.Nil(s.registry.RoomFor(botID))
	s.Equal(0, s.registry.Stats().Rooms)
}

func (s *ServiceSuite) TestBotWaitsOutGracePeriod() {
	room := s.startBotMatch()
	botID := room.Opponent("alice").ID
	s.submitSecret("5678")

	s.do(func() { s.registry.HandleDisconnect("alice", s.alice) })
	s.Same(room, s.registry.RoomFor(botID))

	s.clock.Advance(registry.DefaultConfig().GracePeriod)

	s.Nil(s.registry.RoomFor(botID))
	s.Equal(0, s.registry.Stats().Rooms)
	s.Equal(0, s.registry.Stats().PlayersInRooms)
}

func (s *ServiceSuite) TestThinkTimeDelaysActions() {
	s.build(2 * time.Second)
	room := s.startBotMatch()

	s.False(room.Opponent("alice").HasSecret())

	s.clock.Advance(2 * time.Second)

	s.True(room.Opponent("alice").HasSecret())
}

func (s *ServiceSuite) TestRetiredBotIgnoresEvents() {
	_, conn, err := s.service.Spawn(StrategyRandom)
	s.Require().NoError(err)
	conn.Close()

	conn.Send(model.NewEvent(model.EventMatchFound, model.MatchFoundPayload{RoomID: "room-1", OpponentID: "alice"}))

	s.Equal(0, s.clock.PendingTimers())
	s.Nil(s.registry.RoomFor(conn.(*Player).ID()))
}
