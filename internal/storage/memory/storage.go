package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/bullcow/internal/model"
	"github.com/mcoot/bullcow/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	matches       map[model.MatchID]*model.MatchSummary
	playerMatches map[model.PlayerID][]model.MatchID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		matches:       make(map[model.MatchID]*model.MatchSummary),
		playerMatches: make(map[model.PlayerID][]model.MatchID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Match operations

func (s *Storage) SaveMatch(ctx context.Context, match *model.MatchSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *match
	if _, exists := s.matches[match.ID]; !exists {
		for _, id := range []model.PlayerID{match.HomeID, match.AwayID} {
			if id != "" {
				s.playerMatches[id] = append(s.playerMatches[id], match.ID)
			}
		}
	}
	s.matches[match.ID] = &stored
	return nil
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.MatchSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match, ok := s.matches[id]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	out := *match
	return &out, nil
}

func (s *Storage) ListMatchesForPlayer(ctx context.Context, playerID model.PlayerID, limit int) ([]*model.MatchSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.playerMatches[playerID]
	matches := make([]*model.MatchSummary, 0, len(ids))
	for _, id := range ids {
		match := *s.matches[id]
		matches = append(matches, &match)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].FinishedAt.After(matches[j].FinishedAt)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
