package redis

import (
	"fmt"

	"github.com/mcoot/killergame/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "killer"

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%d", keyPrefix, id)
}

// playersIndexKey returns the Redis key for the SET of all known player ids
func playersIndexKey() string {
	return fmt.Sprintf("%s:idx:players", keyPrefix)
}

// targetIndexKey returns the Redis key for the target -> killer index
func targetIndexKey(target model.PlayerID) string {
	return fmt.Sprintf("%s:idx:target:%d", keyPrefix, target)
}
