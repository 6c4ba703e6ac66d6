package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/felixgeelhaar/promptcraft/internal/leaderboard"
)

// LeaderboardStore implements leaderboard.Store using PostgreSQL.
type LeaderboardStore struct {
	db *DB
}

// NewLeaderboardStore creates a new Postgres-backed leaderboard store.
func NewLeaderboardStore(db *DB) *LeaderboardStore {
	return &LeaderboardStore{db: db}
}

// List returns every entry in insertion order.
func (s *LeaderboardStore) List(ctx context.Context) ([]leaderboard.Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT username, total_xp, level, completed_chapters, completed_at, submitted_at
		FROM leaderboard_entries
		ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (leaderboard.Entry, error) {
		var e leaderboard.Entry
		err := row.Scan(&e.Username, &e.TotalXP, &e.Level, &e.CompletedChapters, &e.CompletedAt, &e.SubmittedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan leaderboard rows: %w", err)
	}
	return entries, nil
}

// Upsert inserts the entry or replaces a strictly lower one in one statement.
func (s *LeaderboardStore) Upsert(ctx context.Context, e leaderboard.Entry) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO leaderboard_entries (username_key, username, total_xp, level,
			completed_chapters, completed_at, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (username_key) DO UPDATE SET
			username = EXCLUDED.username, total_xp = EXCLUDED.total_xp,
			level = EXCLUDED.level, completed_chapters = EXCLUDED.completed_chapters,
			completed_at = EXCLUDED.completed_at, submitted_at = EXCLUDED.submitted_at
		WHERE EXCLUDED.total_xp > leaderboard_entries.total_xp`,
		e.Key(), e.Username, e.TotalXP, e.Level,
		e.CompletedChapters, e.CompletedAt, e.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert leaderboard entry: %w", err)
	}
	return nil
}

var _ leaderboard.Store = (*LeaderboardStore)(nil)
