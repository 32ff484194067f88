package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/bullcow/internal/dependencies/random"
	"github.com/mcoot/bullcow/internal/model"
	"github.com/mcoot/bullcow/internal/storage"
)

const (
	// DefaultLimit is the number of matches returned when no limit is given
	DefaultLimit = 20
	// MaxLimit caps how many matches a single query may return
	MaxLimit = 100

	saveTimeout = 5 * time.Second
)

// Service archives finished matches and serves a player's match history
type Service struct {
	storage storage.Storage
	random  random.Random
	logger  *slog.Logger
	pending sync.WaitGroup
}

// NewService creates a history service
func NewService(storage storage.Storage, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		random:  random,
		logger:  logger.With(slog.String("component", "history")),
	}
}

// Record assigns the match an id and saves it in the background so that
// a slow store never stalls the event loop. Errors are logged.
func (s *Service) Record(summary model.MatchSummary) {
	if summary.ID == "" {
		summary.ID = model.MatchID(s.random.UUID())
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()

		if err := s.storage.SaveMatch(ctx, &summary); err != nil {
			s.logger.Error("failed to archive match",
				slog.String("match_id", string(summary.ID)),
				slog.String("room_id", string(summary.RoomID)),
				slog.String("error", err.Error()),
			)
			return
		}
		s.logger.Debug("match archived", slog.String("match_id", string(summary.ID)))
	}()
}

// Flush waits for all outstanding saves
func (s *Service) Flush() {
	s.pending.Wait()
}

// ForPlayer returns the player's most recent matches, newest first.
// A non-positive limit uses DefaultLimit and limits above MaxLimit are capped.
func (s *Service) ForPlayer(ctx context.Context, playerID model.PlayerID, limit int) ([]*model.MatchSummary, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return s.storage.ListMatchesForPlayer(ctx, playerID, limit)
}

// Get returns one archived match
func (s *Service) Get(ctx context.Context, id model.MatchID) (*model.MatchSummary, error) {
	return s.storage.GetMatch(ctx, id)
}
