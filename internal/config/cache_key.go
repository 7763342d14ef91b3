package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// LeaderboardKey returns the cache key for one leaderboard page.
func (r *CacheKeyStruct) LeaderboardKey(categoryID, rng string, limit, offset int) string {
	return fmt.Sprintf("leaderboard:%s:%s:%d:%d", categoryID, rng, limit, offset)
}

// LeaderboardPattern returns the glob matching every cached leaderboard
// page for a category (used for invalidation after a submission).
func (r *CacheKeyStruct) LeaderboardPattern(categoryID string) string {
	return fmt.Sprintf("leaderboard:%s:*", categoryID)
}

// LeaderboardGlobalPattern matches cached pages that span all categories.
func (r *CacheKeyStruct) LeaderboardGlobalPattern() string {
	return "leaderboard:all:*"
}

// OAuthStateKey returns the key guarding a pending Google OAuth state nonce.
func (r *CacheKeyStruct) OAuthStateKey(state string) string {
	return fmt.Sprintf("oauth:state:%s", state)
}

var CacheKey = NewCacheKeyStruct()
