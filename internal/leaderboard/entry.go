package leaderboard

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxEntries is the number of entries returned by Top.
const MaxEntries = 100

var (
	// ErrInvalidSubmission is returned when a submission lacks a username or
	// carries a negative total.
	ErrInvalidSubmission = errors.New("username and totalXP are required")
)

// Entry is one learner's best submission. Username is unique
// case-insensitively.
type Entry struct {
	Username          string     `json:"username"`
	TotalXP           int        `json:"totalXP"`
	Level             string     `json:"level"`
	CompletedChapters int        `json:"completedChapters"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
	SubmittedAt       time.Time  `json:"submittedAt"`
}

// Key returns the case-insensitive identity of the entry.
func (e Entry) Key() string {
	return Key(e.Username)
}

// Key normalizes a username for lookups.
func Key(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// RankedEntry is an entry with its 1-based position.
type RankedEntry struct {
	Entry
	Rank int `json:"rank"`
}

// Submission is a learner's request to appear on the leaderboard.
type Submission struct {
	Username          string     `json:"username"`
	TotalXP           int        `json:"totalXP"`
	Level             string     `json:"level,omitempty"`
	CompletedChapters int        `json:"completedChapters"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
}

// Store persists leaderboard entries.
//
// List returns every entry in insertion order. Upsert inserts the entry when
// its username is absent and replaces the stored one only when the new
// TotalXP is strictly greater; replacements keep the original insertion
// position.
type Store interface {
	List(ctx context.Context) ([]Entry, error)
	Upsert(ctx context.Context, e Entry) error
}
