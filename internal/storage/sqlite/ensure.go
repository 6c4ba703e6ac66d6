package sqlite

import "github.com/felixgeelhaar/promptcraft/internal/leaderboard"

// Ensure SQLite stores implement the storage interfaces.
var _ leaderboard.Store = (*LeaderboardStore)(nil)
