package factory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/bullcow/internal/model"
	"github.com/mcoot/bullcow/internal/testutil"
)

type IntegrationSuite struct {
	suite.Suite
	app   *TestApp
	ctx   context.Context
	alice *testutil.RecordingConn
	bob   *testutil.RecordingConn
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()

	s.alice = testutil.NewRecordingConn()
	s.bob = testutil.NewRecordingConn()
	s.Require().NoError(s.app.Dispatcher.Connect("alice", s.alice))
	s.Require().NoError(s.app.Dispatcher.Connect("bob", s.bob))
}

func (s *IntegrationSuite) send(id model.PlayerID, conn model.Conn, t model.CommandType, payload any) {
	env, err := model.NewEnvelope(t, payload)
	s.Require().NoError(err)
	s.app.Executor.Post(func() { s.app.Dispatcher.Handle(id, conn, env) })
}

func (s *IntegrationSuite) guess(id model.PlayerID, conn model.Conn, guess string) {
	s.send(id, conn, model.CommandGuessSubmit, model.GuessSubmitPayload{Guess: guess})
}

// pair queues alice then bob, and sets secrets 1234 and 5678
func (s *IntegrationSuite) pair() {
	s.app.MockRandom.QueueUUID("room-1")
	s.send("alice", s.alice, model.CommandQueueJoin, nil)
	s.send("bob", s.bob, model.CommandQueueJoin, nil)
	s.send("alice", s.alice, model.CommandSecretSubmit, model.SecretSubmitPayload{Secret: "1234"})
	s.send("bob", s.bob, model.CommandSecretSubmit, model.SecretSubmitPayload{Secret: "5678"})
}

func (s *IntegrationSuite) gameOver(conn *testutil.RecordingConn) model.GameOverPayload {
	over := conn.OfType(model.EventGameOver)
	s.Require().Len(over, 1)
	return over[0].Payload.(model.GameOverPayload)
}

// Test: both players crack the code in the same round
func (s *IntegrationSuite) TestSameRoundCrackIsDraw() {
	s.pair()

	s.Equal([]model.Event{
		model.NewEvent(model.EventQueueWaiting, model.QueueWaitingPayload{Position: 1}),
		model.NewEvent(model.EventMatchFound, model.MatchFoundPayload{RoomID: "room-1", OpponentID: "bob"}),
		model.NewEvent(model.EventOpponentReady, nil),
		model.NewEvent(model.EventGameStart, model.TurnPayload{YourTurn: true, Round: 1}),
	}, s.alice.Events())

	s.guess("alice", s.alice, "1243")
	s.guess("bob", s.bob, "1243")
	s.guess("alice", s.alice, "5678") // pending win, bob is owed a guess
	s.Empty(s.alice.OfType(model.EventGameOver))
	s.guess("bob", s.bob, "1234")

	aliceOver := s.gameOver(s.alice)
	s.Equal(model.OutcomeDraw, aliceOver.Winner)
	s.Equal(2, aliceOver.YourGuessCount)
	s.Equal(2, aliceOver.OpponentGuessCount)
	s.Equal("5678", aliceOver.OpponentSecret)
	s.Equal(model.OutcomeDraw, s.gameOver(s.bob).Winner)
}

// Test: the first mover wins when the owed guess misses
func (s *IntegrationSuite) TestFirstMoverWinsAfterOwedGuess() {
	s.pair()

	s.guess("alice", s.alice, "9876")
	s.guess("bob", s.bob, "9876")
	s.guess("alice", s.alice, "5687")
	s.guess("bob", s.bob, "9875")
	s.guess("alice", s.alice, "5678")
	s.guess("bob", s.bob, "4321")

	aliceOver := s.gameOver(s.alice)
	s.Equal(model.OutcomeYou, aliceOver.Winner)
	s.Equal(3, aliceOver.YourGuessCount)
	s.Equal("5678", aliceOver.OpponentSecret)

	bobOver := s.gameOver(s.bob)
	s.Equal(model.OutcomeOpponent, bobOver.Winner)
	s.Equal("1234", bobOver.OpponentSecret)
}

// Test: finished matches land in history for both players
func (s *IntegrationSuite) TestFinishedMatchIsArchived() {
	s.pair()
	s.guess("alice", s.alice, "9876")
	s.guess("bob", s.bob, "1234")

	s.app.History.Flush()

	for _, id := range []model.PlayerID{"alice", "bob"} {
		matches, err := s.app.History.ForPlayer(s.ctx, id, 0)
		s.Require().NoError(err)
		s.Require().Len(matches, 1)
		s.Equal(model.RoomID("room-1"), matches[0].RoomID)
		s.Equal(model.PlayerID("bob"), matches[0].WinnerID)
		s.NotEmpty(matches[0].ID)
	}
}

// Test: rematch keeps seats and starts a fresh secret phase
func (s *IntegrationSuite) TestRematch() {
	s.pair()
	s.guess("alice", s.alice, "9876")
	s.guess("bob", s.bob, "1234")
	s.alice.Reset()
	s.bob.Reset()

	s.send("bob", s.bob, model.CommandRematchRequest, nil)
	s.send("alice", s.alice, model.CommandRematchRequest, nil)

	room := s.app.Registry.RoomFor("alice")
	s.Require().NotNil(room)
	s.Equal(model.RoomStateWaitingForSecrets, room.State())

	s.send("alice", s.alice, model.CommandSecretSubmit, model.SecretSubmitPayload{Secret: "2345"})
	s.send("bob", s.bob, model.CommandSecretSubmit, model.SecretSubmitPayload{Secret: "6789"})
	s.Equal(model.RoomStatePlayer1Turn, room.State())
}

// Test: a dropped player reconnects within the grace period
func (s *IntegrationSuite) TestGraceReconnect() {
	s.pair()
	s.guess("alice", s.alice, "9876")

	s.app.Dispatcher.Disconnect("bob", s.bob)
	s.Equal(model.NewEvent(model.EventOpponentReconnecting, model.OpponentReconnectingPayload{TimeoutSeconds: 15}), s.alice.Last())

	s.app.MockClock.Advance(10 * time.Second)
	fresh := testutil.NewRecordingConn()
	s.Require().NoError(s.app.Dispatcher.Connect("bob", fresh))

	s.Equal(model.EventOpponentReconnected, s.alice.Last().Type)
	s.Equal(model.NewEvent(model.EventGameStart, model.TurnPayload{YourTurn: true, Round: 1}), fresh.Events()[0])

	// The old timer no longer fires
	s.app.MockClock.Advance(time.Minute)
	s.NotNil(s.app.Registry.RoomFor("alice"))
	s.Equal(model.RoomStatePlayer2Turn, s.app.Registry.RoomFor("bob").State())
}

// Test: grace expiry forfeits the game and frees the survivor
func (s *IntegrationSuite) TestGraceExpiry() {
	s.pair()
	s.app.Dispatcher.Disconnect("bob", s.bob)

	s.app.MockClock.Advance(15 * time.Second)

	s.Equal(model.EventOpponentDisconnected, s.alice.Last().Type)
	s.Nil(s.app.Registry.RoomFor("alice"))
	s.Nil(s.app.Registry.RoomFor("bob"))

	s.app.History.Flush()
	matches, err := s.app.History.ForPlayer(s.ctx, "alice", 0)
	s.Require().NoError(err)
	s.Require().Len(matches, 1)
	s.True(matches[0].Forfeit)
	s.Equal(model.PlayerID("alice"), matches[0].WinnerID)
}

// Test: private rooms are joined by code and abandoned ones are swept
func (s *IntegrationSuite) TestRoomCodeAndSweep() {
	s.app.MockRandom.QueueString("ABC234", "XYZ789")

	s.send("alice", s.alice, model.CommandRoomCreate, nil)
	s.send("bob", s.bob, model.CommandRoomJoin, model.RoomJoinPayload{Code: "abc234"})
	s.Len(s.bob.OfType(model.EventMatchFound), 1)

	carol := testutil.NewRecordingConn()
	s.Require().NoError(s.app.Dispatcher.Connect("carol", carol))
	s.send("carol", carol, model.CommandRoomCreate, nil)
	s.Equal(3, s.app.Registry.Stats().PlayersInRooms)

	s.app.MockClock.Advance(s.app.Registry.Config().WaitingRoomTTL + time.Second)
	s.Equal(1, s.app.Registry.Sweep())

	s.Nil(s.app.Registry.RoomFor("carol"))
	s.NotNil(s.app.Registry.RoomFor("alice"))
}

// Test: a bot opponent plays through a full game and retires when its human leaves
func (s *IntegrationSuite) TestBotMatch() {
	s.send("alice", s.alice, model.CommandBotMatch, model.BotMatchPayload{Strategy: "consistent"})

	room := s.app.Registry.RoomFor("alice")
	s.Require().NotNil(room)
	botID := room.Opponent("alice").ID
	s.True(room.Opponent("alice").HasSecret())

	// MockRandom answers 0, so the bot keeps the lowest valid code
	s.send("alice", s.alice, model.CommandSecretSubmit, model.SecretSubmitPayload{Secret: "5678"})
	s.guess("alice", s.alice, "1023")

	over := s.gameOver(s.alice)
	s.Equal(model.OutcomeYou, over.Winner)
	s.Equal("1023", over.OpponentSecret)

	s.send("alice", s.alice, model.CommandQueueJoin, nil)
	s.Nil(s.app.Registry.RoomFor(botID))
	s.Equal(0, s.app.Registry.Stats().Rooms)

	s.app.History.Flush()
	matches, err := s.app.History.ForPlayer(s.ctx, botID, 0)
	s.Require().NoError(err)
	s.Require().Len(matches, 1)
	s.Equal(model.PlayerID("alice"), matches[0].WinnerID)
}
