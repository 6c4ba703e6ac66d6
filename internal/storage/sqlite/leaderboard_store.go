package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/leaderboard"
)

// LeaderboardStore implements leaderboard.Store backed by SQLite. The
// upsert-if-better rule runs in a single statement, so concurrent
// submissions cannot lose updates.
type LeaderboardStore struct {
	db *DB
}

// NewLeaderboardStore creates a new SQLite-backed leaderboard store.
func NewLeaderboardStore(db *DB) *LeaderboardStore {
	return &LeaderboardStore{db: db}
}

// List returns every entry in insertion order.
func (s *LeaderboardStore) List(ctx context.Context) ([]leaderboard.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, total_xp, level, completed_chapters, completed_at, submitted_at
		FROM leaderboard_entries
		ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []leaderboard.Entry{}
	for rows.Next() {
		var e leaderboard.Entry
		var completedAt sql.NullTime
		if err := rows.Scan(&e.Username, &e.TotalXP, &e.Level, &e.CompletedChapters, &completedAt, &e.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		if completedAt.Valid {
			t := completedAt.Time
			e.CompletedAt = &t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Upsert inserts the entry or replaces a strictly lower one.
func (s *LeaderboardStore) Upsert(ctx context.Context, e leaderboard.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leaderboard_entries (username_key, username, total_xp, level,
			completed_chapters, completed_at, submitted_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM leaderboard_entries))
		ON CONFLICT(username_key) DO UPDATE SET
			username=excluded.username, total_xp=excluded.total_xp,
			level=excluded.level, completed_chapters=excluded.completed_chapters,
			completed_at=excluded.completed_at, submitted_at=excluded.submitted_at
		WHERE excluded.total_xp > leaderboard_entries.total_xp`,
		e.Key(), e.Username, e.TotalXP, e.Level,
		e.CompletedChapters, nullTime(e.CompletedAt), e.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert leaderboard entry: %w", err)
	}
	return nil
}

// nullTime converts a *time.Time to sql.NullTime for nullable columns.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
