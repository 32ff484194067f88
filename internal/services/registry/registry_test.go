package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/bullcow/internal/dependencies/mocks"
	"github.com/mcoot/bullcow/internal/loop"
	"github.com/mcoot/bullcow/internal/model"
	"github.com/mcoot/bullcow/internal/services/game"
	"github.com/mcoot/bullcow/internal/testutil"
)

type recordingRecorder struct {
	summaries []model.MatchSummary
}

func (r *recordingRecorder) Record(summary model.MatchSummary) {
	r.summaries = append(r.summaries, summary)
}

type RegistrySuite struct {
	suite.Suite
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	recorder *recordingRecorder
	registry *Registry
	alice    *testutil.RecordingConn
	bob      *testutil.RecordingConn
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.recorder = &recordingRecorder{}
	s.registry = New(DefaultConfig(), s.clock, s.random, loop.NewInline(), s.recorder, testutil.NopLogger())
	s.alice = testutil.NewRecordingConn()
	s.bob = testutil.NewRecordingConn()
	s.registry.Register("alice", s.alice)
	s.registry.Register("bob", s.bob)
}

// pair seats alice and bob in a room without starting a game
func (s *RegistrySuite) pair() *game.Room {
	room, err := s.registry.CreateRoom("alice", s.alice)
	s.Require().NoError(err)
	s.Require().NoError(s.registry.JoinRoom(room.ID(), "bob", s.bob))
	return room
}

// play pairs alice and bob and starts a game with secrets 1234 and 5678
func (s *RegistrySuite) play() *game.Room {
	room := s.pair()
	s.Require().NoError(s.registry.SubmitSecret("alice", "1234"))
	s.Require().NoError(s.registry.SubmitSecret("bob", "5678"))
	s.alice.Reset()
	s.bob.Reset()
	return room
}

// Room creation tests

func (s *RegistrySuite) TestCreateRoom() {
	s.random.QueueUUID("room-1")
	s.random.QueueString("ABC234")

	room, err := s.registry.CreateRoom("alice", s.alice)
	s.Require().NoError(err)

	s.Equal(model.RoomID("room-1"), room.ID())
	s.Equal(model.RoomCode("ABC234"), room.Code())
	s.Equal(model.RoomStateWaitingForPlayers, room.State())
	s.Same(room, s.registry.RoomFor("alice"))
	s.True(s.registry.IsSeated("alice"))
}

func (s *RegistrySuite) TestCreateRoomRetriesCodeCollision() {
	s.random.QueueString("AAAAAA", "AAAAAA", "BBBBBB")

	first, err := s.registry.CreateRoom("alice", s.alice)
	s.Require().NoError(err)
	second, err := s.registry.CreateRoom("bob", s.bob)
	s.Require().NoError(err)

	s.Equal(model.RoomCode("AAAAAA"), first.Code())
	s.Equal(model.RoomCode("BBBBBB"), second.Code())
}

func (s *RegistrySuite) TestCreateRoomGivesUpAfterAttempts() {
	codes := make([]string, DefaultConfig().CodeAttempts+1)
	for i := range codes {
		codes[i] = "AAAAAA"
	}
	s.random.QueueString(codes...)

	_, err := s.registry.CreateRoom("alice", s.alice)
	s.Require().NoError(err)

	_, err = s.registry.CreateRoom("bob", s.bob)
	s.ErrorIs(err, model.ErrCodeExhausted)
	s.Nil(s.registry.RoomFor("bob"))
}

func (s *RegistrySuite) TestFindByCodeIgnoresCase() {
	s.random.QueueString("ABC234")
	room, err := s.registry.CreateRoom("alice", s.alice)
	s.Require().NoError(err)

	s.Same(room, s.registry.FindByCode(" abc234 "))
	s.Nil(s.registry.FindByCode("ZZZZZZ"))
}

// Joining tests

func (s *RegistrySuite) TestJoinRoomRecordsMapping() {
	room := s.pair()

	s.Same(room, s.registry.RoomFor("bob"))
	s.Equal(model.RoomStateWaitingForSecrets, room.State())
}

func (s *RegistrySuite) TestJoinFullRoomLeavesNoMapping() {
	room := s.pair()

	err := s.registry.JoinRoom(room.ID(), "carol", testutil.NewRecordingConn())
	s.ErrorIs(err, model.ErrRoomFull)
	s.Nil(s.registry.RoomFor("carol"))
}

func (s *RegistrySuite) TestJoinUnknownRoom() {
	err := s.registry.JoinRoom("missing", "bob", s.bob)
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *RegistrySuite) TestCommandsWithoutRoomAreIgnored() {
	s.NoError(s.registry.SubmitSecret("alice", "1234"))
	s.NoError(s.registry.SubmitGuess("alice", "1234"))
	s.NoError(s.registry.RequestRematch("alice"))
	s.Empty(s.alice.Events())
}

func (s *RegistrySuite) TestCommandsForwardToRoom() {
	room := s.play()

	s.Require().NoError(s.registry.SubmitGuess("alice", "9876"))

	s.Equal(model.RoomStatePlayer2Turn, room.State())
	s.Len(s.alice.OfType(model.EventGuessResult), 1)
	s.Len(s.bob.OfType(model.EventOpponentGuessed), 1)
}

// Connection tests

func (s *RegistrySuite) TestRegisterReplacesConnection() {
	fresh := testutil.NewRecordingConn()
	s.registry.Register("alice", fresh)

	s.True(s.alice.Closed())
	s.False(s.registry.IsCurrent("alice", s.alice))
	s.True(s.registry.IsCurrent("alice", fresh))
}

func (s *RegistrySuite) TestRegisterWhileSeatedReplaysState() {
	room := s.play()

	fresh := testutil.NewRecordingConn()
	s.registry.Register("bob", fresh)

	s.Equal([]model.EventType{model.EventGameStart}, fresh.Types())
	s.Empty(s.alice.Events())

	s.Require().NoError(s.registry.SubmitGuess("alice", "9876"))
	s.Len(fresh.OfType(model.EventOpponentGuessed), 1)
	s.Empty(s.bob.Events())
	s.Equal(model.RoomStatePlayer2Turn, room.State())
}

func (s *RegistrySuite) TestStaleDisconnectIgnored() {
	room := s.play()
	fresh := testutil.NewRecordingConn()
	s.registry.Register("bob", fresh)

	s.registry.HandleDisconnect("bob", s.bob)

	s.False(room.IsDisconnected("bob"))
	s.Equal(0, s.registry.Stats().PendingGrace)
	s.True(s.registry.IsCurrent("bob", fresh))
}

// Grace period tests

func (s *RegistrySuite) TestDisconnectDuringGameStartsGrace() {
	room := s.play()

	s.registry.HandleDisconnect("bob", s.bob)

	s.True(room.IsDisconnected("bob"))
	s.Equal(1, s.registry.Stats().PendingGrace)
	s.Nil(s.registry.Conn("bob"))
	s.Equal([]model.Event{
		model.NewEvent(model.EventOpponentReconnecting, model.OpponentReconnectingPayload{TimeoutSeconds: 15}),
	}, s.alice.Events())
}

func (s *RegistrySuite) TestReconnectWithinGraceRestoresGame() {
	room := s.play()
	s.Require().NoError(s.registry.SubmitGuess("alice", "9876"))
	s.registry.HandleDisconnect("bob", s.bob)
	s.clock.Advance(10 * time.Second)
	s.alice.Reset()

	fresh := testutil.NewRecordingConn()
	s.True(s.registry.Reconnect("bob", fresh))

	s.Equal(model.RoomStatePlayer2Turn, room.State())
	s.False(room.IsDisconnected("bob"))
	s.Equal(0, s.registry.Stats().PendingGrace)
	s.Equal(0, s.clock.PendingTimers())
	s.True(s.registry.IsCurrent("bob", fresh))
	s.Equal([]model.EventType{model.EventOpponentReconnected}, s.alice.Types())
	s.Equal([]model.EventType{model.EventGameStart, model.EventOpponentGuessed}, fresh.Types())

	// The cancelled timer never ends the game
	s.clock.Advance(time.Minute)
	s.Equal(model.RoomStatePlayer2Turn, room.State())
}

func (s *RegistrySuite) TestGraceExpiryForfeitsToOpponent() {
	room := s.play()
	s.registry.HandleDisconnect("bob", s.bob)
	s.alice.Reset()

	s.clock.Advance(15 * time.Second)

	s.Equal(model.RoomStateGameOver, room.State())
	s.Equal(model.SlotHome, room.Result().Winner)
	s.Equal([]model.EventType{model.EventOpponentDisconnected}, s.alice.Types())

	s.Nil(s.registry.RoomFor("alice"))
	s.Nil(s.registry.RoomFor("bob"))
	s.Equal(0, s.registry.Stats().Rooms)
	s.Nil(s.registry.FindByCode(string(room.Code())))

	s.Require().Len(s.recorder.summaries, 1)
	s.True(s.recorder.summaries[0].Forfeit)
	s.Equal(model.PlayerID("alice"), s.recorder.summaries[0].WinnerID)
}

func (s *RegistrySuite) TestReconnectAfterExpiryFails() {
	s.play()
	s.registry.HandleDisconnect("bob", s.bob)
	s.clock.Advance(15 * time.Second)

	s.False(s.registry.Reconnect("bob", testutil.NewRecordingConn()))
}

func (s *RegistrySuite) TestBothDisconnectedFirstExpiryClosesRoom() {
	room := s.play()
	s.registry.HandleDisconnect("alice", s.alice)
	s.clock.Advance(5 * time.Second)
	s.registry.HandleDisconnect("bob", s.bob)

	s.clock.Advance(10 * time.Second)

	s.Equal(model.SlotAway, room.Result().Winner)
	s.Equal(0, s.registry.Stats().Rooms)
	s.Equal(0, s.registry.Stats().PendingGrace)
	s.Equal(0, s.clock.PendingTimers())
	s.Len(s.recorder.summaries, 1)
}

func (s *RegistrySuite) TestReconnectWithoutGrace() {
	s.play()
	s.False(s.registry.Reconnect("alice", testutil.NewRecordingConn()))
}

// Immediate cleanup tests

func (s *RegistrySuite) TestDisconnectWhileWaitingRemovesRoom() {
	room, err := s.registry.CreateRoom("alice", s.alice)
	s.Require().NoError(err)

	s.registry.HandleDisconnect("alice", s.alice)

	s.Nil(s.registry.RoomFor("alice"))
	s.Nil(s.registry.FindByCode(string(room.Code())))
	s.Equal(0, s.registry.Stats().Rooms)
	s.Empty(s.recorder.summaries)
}

func (s *RegistrySuite) TestDisconnectAfterGameOverLeavesImmediately() {
	room := s.play()
	s.Require().NoError(s.registry.SubmitGuess("alice", "9876"))
	s.Require().NoError(s.registry.SubmitGuess("bob", "1234"))
	s.Require().Equal(model.RoomStateGameOver, room.State())
	s.alice.Reset()

	s.registry.HandleDisconnect("bob", s.bob)

	s.Equal(0, s.registry.Stats().PendingGrace)
	s.Equal([]model.EventType{model.EventOpponentDisconnected}, s.alice.Types())
	s.Nil(s.registry.RoomFor("bob"))
	s.Same(room, s.registry.RoomFor("alice"))

	s.registry.LeaveRoom("alice")
	s.Equal(0, s.registry.Stats().Rooms)
}

func (s *RegistrySuite) TestFinishedRoomDoesNotCountAsSeated() {
	s.play()
	s.Require().NoError(s.registry.SubmitGuess("alice", "9876"))
	s.Require().NoError(s.registry.SubmitGuess("bob", "1234"))

	s.False(s.registry.IsSeated("alice"))
	s.NotNil(s.registry.RoomFor("alice"))
	s.Len(s.recorder.summaries, 1)
}

// Sweep tests

func (s *RegistrySuite) TestSweepRemovesStaleWaitingRooms() {
	_, err := s.registry.CreateRoom("alice", s.alice)
	s.Require().NoError(err)

	s.clock.Advance(4 * time.Minute)
	s.Equal(0, s.registry.Sweep())

	s.clock.Advance(2 * time.Minute)
	s.Equal(1, s.registry.Sweep())
	s.Nil(s.registry.RoomFor("alice"))
}

func (s *RegistrySuite) TestSweepRemovesFinishedRoomsAfterShorterTTL() {
	room := s.play()
	s.clock.Advance(10 * time.Minute)
	s.Require().NoError(s.registry.SubmitGuess("alice", "9876"))
	s.Require().NoError(s.registry.SubmitGuess("bob", "1234"))
	s.Require().Equal(model.RoomStateGameOver, room.State())

	s.clock.Advance(time.Minute)
	s.Equal(0, s.registry.Sweep())

	s.clock.Advance(90 * time.Second)
	s.Equal(1, s.registry.Sweep())
	s.Nil(s.registry.RoomFor("alice"))
	s.Nil(s.registry.RoomFor("bob"))
}

func (s *RegistrySuite) TestSweepLeavesActiveGames() {
	s.play()
	s.clock.Advance(time.Hour)

	s.Equal(0, s.registry.Sweep())
	s.Equal(1, s.registry.Stats().Rooms)
}

func (s *RegistrySuite) TestStats() {
	s.play()
	_, err := s.registry.CreateRoom("carol", testutil.NewRecordingConn())
	s.Require().NoError(err)
	s.registry.HandleDisconnect("bob", s.bob)

	stats := s.registry.Stats()
	s.Equal(2, stats.Rooms)
	s.Equal(1, stats.RoomsByState[model.RoomStatePlayer1Turn])
	s.Equal(1, stats.RoomsByState[model.RoomStateWaitingForPlayers])
	s.Equal(0, stats.RoomsByState[model.RoomStateGameOver])
	s.Equal(3, stats.PlayersInRooms)
	s.Equal(1, stats.ConnectedPlayers)
	s.Equal(1, stats.PendingGrace)
}
