package exercise_test

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/felixgeelhaar/promptcraft/internal/exercise"
)

func setupRegistry(t *testing.T) *exercise.Registry {
	t.Helper()

	registry := exercise.NewRegistry(exercise.NewLoader())
	if err := registry.Load(); err != nil {
		t.Fatalf("Failed to load curriculum: %v", err)
	}
	return registry
}

func TestRegistry_Load(t *testing.T) {
	registry := setupRegistry(t)

	stats := registry.Stats()
	if stats.ChapterCount != 9 {
		t.Errorf("ChapterCount = %d, want 9", stats.ChapterCount)
	}
	if stats.ExerciseCount != 19 {
		t.Errorf("ExerciseCount = %d, want 19", stats.ExerciseCount)
	}
	// 17 exercises at 100, 2 capstones at 150, 8 bonuses of 50, one of 100
	if stats.TotalXP != 2500 {
		t.Errorf("TotalXP = %d, want 2500", stats.TotalXP)
	}
}

func TestRegistry_GetExercise(t *testing.T) {
	registry := setupRegistry(t)

	ex, err := registry.GetExercise("ex9_1")
	if err != nil {
		t.Fatalf("GetExercise() error = %v", err)
	}
	if ex.XPReward != 150 {
		t.Errorf("XPReward = %d, want 150", ex.XPReward)
	}
	if ex.TestInputs["TAX_CODE"] == "" {
		t.Error("expected TAX_CODE test input")
	}

	_, err = registry.GetExercise("nope")
	if !errors.Is(err, domain.ErrExerciseNotFound) {
		t.Errorf("GetExercise(nope) error = %v, want ErrExerciseNotFound", err)
	}
}

func TestRegistry_ChapterOf(t *testing.T) {
	registry := setupRegistry(t)

	ch, idx, err := registry.ChapterOf("ex5_2")
	if err != nil {
		t.Fatalf("ChapterOf() error = %v", err)
	}
	if ch.ID != "ch5" || idx != 4 {
		t.Errorf("ChapterOf(ex5_2) = %s at %d, want ch5 at 4", ch.ID, idx)
	}

	if _, _, err := registry.GetChapter("ch42"); !errors.Is(err, domain.ErrChapterNotFound) {
		t.Errorf("GetChapter(ch42) error = %v, want ErrChapterNotFound", err)
	}
}

func TestRegistry_GetNextExercise(t *testing.T) {
	registry := setupRegistry(t)

	next, err := registry.GetNextExercise("ex1_2")
	if err != nil {
		t.Fatalf("GetNextExercise() error = %v", err)
	}
	if next == nil || next.ID != "ex2_1" {
		t.Errorf("GetNextExercise(ex1_2) = %v, want ex2_1", next)
	}

	last, err := registry.GetNextExercise("ex9_2")
	if err != nil {
		t.Fatalf("GetNextExercise(last) error = %v", err)
	}
	if last != nil {
		t.Errorf("GetNextExercise(ex9_2) = %v, want nil", last.ID)
	}

	if _, err := registry.GetNextExercise("missing"); err == nil {
		t.Error("expected error for unknown exercise")
	}
}

func TestRegistry_Search(t *testing.T) {
	registry := setupRegistry(t)

	results := registry.Search("haiku")
	if len(results) == 0 {
		t.Fatal("Search(haiku) returned no results")
	}

	found := false
	for _, r := range results {
		if r.Exercise.ID == "ex5_2" {
			found = true
		}
	}
	if !found {
		t.Error("expected ex5_2 in haiku results")
	}

	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Fatal("results not ordered by distance")
		}
	}

	if got := registry.Search("   "); got != nil {
		t.Errorf("Search(blank) = %v, want nil", got)
	}
}

func TestRegistry_ChaptersIsCopy(t *testing.T) {
	registry := setupRegistry(t)

	chapters := registry.Chapters()
	chapters[0].Title = "mutated"

	again := registry.Chapters()
	if again[0].Title == "mutated" {
		t.Error("Chapters() should return a copy")
	}
}
