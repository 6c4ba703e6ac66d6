package leaderboard

import (
	"context"
	"errors"
	"log/slog"

	"github.com/felixgeelhaar/promptcraft/internal/storage/local"
)

const fileRecordID = "leaderboard"

// FileStore keeps the whole board in a single JSON file and rewrites it on
// every submission.
//
// Upsert is a read-modify-write with no lock held across requests: two
// concurrent submissions can race and one update may be lost. Use the sqlite
// or postgres store when that matters.
type FileStore struct {
	store  *local.Store
	logger *slog.Logger
}

// NewFileStore creates a store writing <dir>/leaderboard.json.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	store, err := local.NewStore(dir)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{store: store, logger: logger}, nil
}

// List reads the board. A missing or unreadable file reads as empty.
func (f *FileStore) List(_ context.Context) ([]Entry, error) {
	var entries []Entry
	if err := f.store.Load("", fileRecordID, &entries); err != nil {
		if !errors.Is(err, local.ErrNotFound) {
			f.logger.Warn("leaderboard file unreadable, treating as empty", "error", err)
		}
		return []Entry{}, nil
	}
	return entries, nil
}

// Upsert applies the upsert-if-better rule and rewrites the file.
func (f *FileStore) Upsert(ctx context.Context, e Entry) error {
	entries, err := f.List(ctx)
	if err != nil {
		return err
	}

	key := e.Key()
	found := false
	for i := range entries {
		if entries[i].Key() != key {
			continue
		}
		found = true
		if e.TotalXP > entries[i].TotalXP {
			entries[i] = e
		}
		break
	}
	if !found {
		entries = append(entries, e)
	}

	return f.store.Save("", fileRecordID, entries)
}
