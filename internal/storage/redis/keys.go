package redis

import (
	"fmt"

	"github.com/mcoot/bullcow/internal/model"
)

// Key prefix for all bullcow data
const keyPrefix = "bullcow"

// matchKey returns the Redis key for a MatchSummary
func matchKey(id model.MatchID) string {
	return fmt.Sprintf("%s:match:%s", keyPrefix, id)
}

// playerMatchesIndexKey returns the Redis key for the ZSET of a player's
// match ids, scored by finish time
func playerMatchesIndexKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:idx:player_matches:%s", keyPrefix, playerID)
}
