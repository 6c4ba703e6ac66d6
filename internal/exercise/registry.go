package exercise

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Registry provides access to chapters and exercises
type Registry struct {
	loader    *Loader
	mu        sync.RWMutex
	chapters  []domain.Chapter
	chapterIx map[string]int
	exercises map[string]*domain.Exercise
	loaded    bool
}

// NewRegistry creates a new curriculum registry
func NewRegistry(loader *Loader) *Registry {
	return &Registry{
		loader:    loader,
		chapterIx: make(map[string]int),
		exercises: make(map[string]*domain.Exercise),
	}
}

// Load loads the curriculum into memory. Exercise IDs must be unique across
// chapters.
func (r *Registry) Load() error {
	chapters, err := r.loader.LoadAll()
	if err != nil {
		return fmt.Errorf("load curriculum: %w", err)
	}

	chapterIx := make(map[string]int, len(chapters))
	exercises := make(map[string]*domain.Exercise)
	for i := range chapters {
		ch := &chapters[i]
		if _, dup := chapterIx[ch.ID]; dup {
			return fmt.Errorf("duplicate chapter id: %s", ch.ID)
		}
		chapterIx[ch.ID] = i
		for j := range ch.Exercises {
			ex := &ch.Exercises[j]
			if _, dup := exercises[ex.ID]; dup {
				return fmt.Errorf("duplicate exercise id: %s", ex.ID)
			}
			exercises[ex.ID] = ex
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.chapters = chapters
	r.chapterIx = chapterIx
	r.exercises = exercises
	r.loaded = true
	return nil
}

// Reload reloads the curriculum (useful for development)
func (r *Registry) Reload() error {
	r.mu.Lock()
	r.loaded = false
	r.mu.Unlock()
	return r.Load()
}

// Chapters returns all chapters in curriculum order
func (r *Registry) Chapters() []domain.Chapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Chapter, len(r.chapters))
	copy(out, r.chapters)
	return out
}

// GetChapter returns a chapter by ID along with its index
func (r *Registry) GetChapter(id string) (*domain.Chapter, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.chapterIx[id]
	if !ok {
		return nil, -1, fmt.Errorf("%w: %s", domain.ErrChapterNotFound, id)
	}
	return &r.chapters[i], i, nil
}

// GetExercise returns an exercise by ID
func (r *Registry) GetExercise(id string) (*domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ex, ok := r.exercises[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrExerciseNotFound, id)
	}
	return ex, nil
}

// ChapterOf returns the chapter containing an exercise
func (r *Registry) ChapterOf(exerciseID string) (*domain.Chapter, int, error) {
	ex, err := r.GetExercise(exerciseID)
	if err != nil {
		return nil, -1, err
	}
	return r.GetChapter(ex.ChapterID)
}

// GetNextExercise returns the exercise after the given one, crossing into the
// next chapter. Returns nil when the given exercise is the last one.
func (r *Registry) GetNextExercise(currentID string) (*domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	found := false
	for i := range r.chapters {
		for j := range r.chapters[i].Exercises {
			ex := &r.chapters[i].Exercises[j]
			if found {
				return ex, nil
			}
			if ex.ID == currentID {
				found = true
			}
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", domain.ErrExerciseNotFound, currentID)
	}
	return nil, nil
}

// SearchResult is a fuzzy match against an exercise
type SearchResult struct {
	Exercise *domain.Exercise
	Distance int
}

// Search fuzzy-matches a query against exercise IDs, titles and descriptions.
// Results are ordered best match first.
func (r *Registry) Search(query string) []SearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []SearchResult
	for i := range r.chapters {
		for j := range r.chapters[i].Exercises {
			ex := &r.chapters[i].Exercises[j]
			targets := []string{ex.ID, ex.Title, ex.Description}
			ranks := fuzzy.RankFindFold(query, targets)
			if len(ranks) == 0 {
				continue
			}
			sort.Sort(ranks)
			results = append(results, SearchResult{Exercise: ex, Distance: ranks[0].Distance})
		}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Distance < results[b].Distance
	})
	return results
}

// Stats returns statistics about the loaded curriculum
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{
		ChapterCount:  len(r.chapters),
		ExerciseCount: len(r.exercises),
		ByDifficulty:  make(map[string]int),
		TotalXP:       domain.TotalPossibleXP(r.chapters),
	}
	for _, ch := range r.chapters {
		stats.ByDifficulty[string(ch.Difficulty)] += len(ch.Exercises)
	}
	return stats
}

// RegistryStats holds statistics about the registry
type RegistryStats struct {
	ChapterCount  int
	ExerciseCount int
	ByDifficulty  map[string]int
	TotalXP       int
}
