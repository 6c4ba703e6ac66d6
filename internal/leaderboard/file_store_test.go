package leaderboard

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, nil)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	completed := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	store.Upsert(ctx, Entry{Username: "Ada", TotalXP: 500, CompletedChapters: 9, CompletedAt: &completed})
	store.Upsert(ctx, Entry{Username: "grace", TotalXP: 200})
	store.Upsert(ctx, Entry{Username: "ADA", TotalXP: 400})

	if _, err := os.Stat(filepath.Join(dir, "leaderboard.json")); err != nil {
		t.Fatalf("leaderboard.json not written: %v", err)
	}

	reopened, _ := NewFileStore(dir, nil)
	entries, err := reopened.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].TotalXP != 500 || entries[0].CompletedAt == nil || !entries[0].CompletedAt.Equal(completed) {
		t.Errorf("entries[0] = %+v", entries[0])
	}
}

func TestFileStore_CorruptFileReadsEmpty(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "leaderboard.json"), []byte("not json"), 0644)

	store, _ := NewFileStore(dir, nil)
	entries, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d, want 0", len(entries))
	}

	// The next write replaces the unreadable file
	if err := store.Upsert(context.Background(), Entry{Username: "ada", TotalXP: 10}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	entries, _ = store.List(context.Background())
	if len(entries) != 1 {
		t.Errorf("len(entries) = %d, want 1", len(entries))
	}
}

func TestFileStore_WithService(t *testing.T) {
	store, _ := NewFileStore(t.TempDir(), nil)
	svc := newTestService(store)
	ctx := context.Background()

	svc.Submit(ctx, Submission{Username: "first", TotalXP: 300})
	rank, err := svc.Submit(ctx, Submission{Username: "second", TotalXP: 300})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if rank != 2 {
		t.Errorf("tie rank = %d, want 2 (first inserted wins)", rank)
	}

	top, _ := svc.Top(ctx)
	if top[0].Username != "first" || top[1].Username != "second" {
		t.Errorf("Top() order = %s, %s", top[0].Username, top[1].Username)
	}
}
