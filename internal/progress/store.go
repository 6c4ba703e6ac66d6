package progress

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/felixgeelhaar/promptcraft/internal/storage/local"
)

const (
	collectionProgress = "progress"
	currentProgressID  = "current"
)

// Store persists the learner's single progress record. Read failures
// degrade to "no progress" so a damaged file never blocks the CLI.
type Store struct {
	store  *local.Store
	logger *slog.Logger
}

// NewStore creates a progress store rooted at basePath
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

// Load returns the stored progress, or domain.ErrNoProgress when there is
// none or it cannot be read.
func (s *Store) Load() (*domain.UserProgress, error) {
	var p domain.UserProgress
	if err := s.store.Load(collectionProgress, currentProgressID, &p); err != nil {
		if !errors.Is(err, local.ErrNotFound) {
			s.logger.Warn("progress unreadable, starting fresh", "error", err)
		}
		return nil, domain.ErrNoProgress
	}

	if p.CompletedExercises == nil {
		p.CompletedExercises = make(map[string]domain.ExerciseResult)
	}
	if p.CompletedChapters == nil {
		p.CompletedChapters = []string{}
	}
	if p.Badges == nil {
		p.Badges = []domain.Badge{}
	}
	return &p, nil
}

// Save writes the progress record
func (s *Store) Save(p *domain.UserProgress) error {
	if err := s.store.Save(collectionProgress, currentProgressID, p); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// Reset deletes the progress record
func (s *Store) Reset() error {
	if err := s.store.Delete(collectionProgress, currentProgressID); err != nil && !errors.Is(err, local.ErrNotFound) {
		return fmt.Errorf("reset progress: %w", err)
	}
	return nil
}
