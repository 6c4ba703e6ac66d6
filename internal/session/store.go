package session

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/storage/local"
)

const collectionSessions = "sessions"

var (
	ErrNotFound = errors.New("session not found")
)

// Store keeps one attempt session per exercise, keyed by exercise ID
type Store struct {
	store  *local.Store
	logger *slog.Logger
}

// NewStore creates a new session store
func NewStore(basePath string, logger *slog.Logger) (*Store, error) {
	store, err := local.NewStore(basePath)
	if err != nil {
		return nil, fmt.Errorf("create local store: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{store: store, logger: logger}, nil
}

// Save persists a session
func (s *Store) Save(session *Session) error {
	if err := s.store.Save(collectionSessions, session.ExerciseID, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get retrieves the stored session for an exercise
func (s *Store) Get(exerciseID string) (*Session, error) {
	var session Session
	if err := s.store.Load(collectionSessions, exerciseID, &session); err != nil {
		if errors.Is(err, local.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// Open returns the exercise's current session. A missing, unreadable, or
// passed session is replaced by a fresh one, which is not saved until the
// caller does so.
func (s *Store) Open(exerciseID string, now time.Time) *Session {
	session, err := s.Get(exerciseID)
	switch {
	case errors.Is(err, ErrNotFound):
		return NewSession(exerciseID, now)
	case err != nil:
		s.logger.Warn("session unreadable, starting fresh", "exercise", exerciseID, "error", err)
		return NewSession(exerciseID, now)
	case session.Status() == StatusPassed:
		return NewSession(exerciseID, now)
	}
	return session
}

// Delete removes the session for an exercise
func (s *Store) Delete(exerciseID string) error {
	if err := s.store.Delete(collectionSessions, exerciseID); err != nil {
		if errors.Is(err, local.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// List returns the exercise IDs that have a stored session
func (s *Store) List() ([]string, error) {
	return s.store.List(collectionSessions)
}

// Clear removes every stored session
func (s *Store) Clear() error {
	ids, err := s.List()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.Delete(id); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}
