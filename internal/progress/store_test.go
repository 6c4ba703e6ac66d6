package progress

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
)

func TestStore_LoadMissing(t *testing.T) {
	store, err := NewStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if _, err := store.Load(); !errors.Is(err, domain.ErrNoProgress) {
		t.Errorf("Load() error = %v, want ErrNoProgress", err)
	}
}

func TestStore_SaveLoad(t *testing.T) {
	store, _ := NewStore(t.TempDir(), nil)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	p, err := domain.NewUserProgress("ada", now)
	if err != nil {
		t.Fatal(err)
	}
	p.RecordResult(domain.ExerciseResult{ExerciseID: "ex1_1", Passed: true, XPEarned: 85, Attempts: 2, CompletedAt: now})

	if err := store.Save(p); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Username != "ada" || loaded.TotalXP != 85 {
		t.Errorf("loaded = %+v", loaded)
	}
	if !loaded.IsPassed("ex1_1") {
		t.Error("ex1_1 should be passed after reload")
	}
	if !loaded.StartedAt.Equal(now) {
		t.Errorf("StartedAt = %v, want %v", loaded.StartedAt, now)
	}
}

func TestStore_CorruptDegradesToNoProgress(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewStore(dir, nil)

	os.MkdirAll(filepath.Join(dir, "progress"), 0755)
	os.WriteFile(filepath.Join(dir, "progress", "current.json"), []byte("{broken"), 0644)

	if _, err := store.Load(); !errors.Is(err, domain.ErrNoProgress) {
		t.Errorf("Load() error = %v, want ErrNoProgress", err)
	}
}

func TestStore_LoadNormalizesNilCollections(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewStore(dir, nil)

	os.MkdirAll(filepath.Join(dir, "progress"), 0755)
	os.WriteFile(filepath.Join(dir, "progress", "current.json"), []byte(`{"username":"ada","totalXP":0}`), 0644)

	p, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.CompletedExercises == nil || p.CompletedChapters == nil || p.Badges == nil {
		t.Errorf("nil collections after load: %+v", p)
	}
	// Must be safe to record into
	p.RecordResult(domain.ExerciseResult{ExerciseID: "ex1_1", Passed: true, XPEarned: 10})
}

func TestStore_Reset(t *testing.T) {
	store, _ := NewStore(t.TempDir(), nil)

	p, _ := domain.NewUserProgress("ada", time.Now())
	store.Save(p)

	if err := store.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, domain.ErrNoProgress) {
		t.Errorf("Load() after Reset error = %v", err)
	}
	if err := store.Reset(); err != nil {
		t.Errorf("second Reset() error = %v", err)
	}
}
