package storage

import (
	"context"

	"github.com/mcoot/bullcow/internal/model"
)

// Storage defines the interface for match history persistence.
// Live room state is never stored.
type Storage interface {
	// SaveMatch archives a finished match
	SaveMatch(ctx context.Context, match *model.MatchSummary) error

	// GetMatch returns model.ErrMatchNotFound if the match is unknown or expired
	GetMatch(ctx context.Context, id model.MatchID) (*model.MatchSummary, error)

	// ListMatchesForPlayer returns the player's matches, newest first
	ListMatchesForPlayer(ctx context.Context, playerID model.PlayerID, limit int) ([]*model.MatchSummary, error)
}
