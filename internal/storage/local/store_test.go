package local

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
)

type record struct {
	Username string         `json:"username"`
	TotalXP  int            `json:"totalXP"`
	Results  map[string]int `json:"results"`
}

func TestNewStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "client", "nested")

	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if store.BasePath() != dir {
		t.Errorf("BasePath() = %q, want %q", store.BasePath(), dir)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected directory, got file")
	}
}

func TestStore_SaveLoad(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	original := record{Username: "ada", TotalXP: 185, Results: map[string]int{"ex1_1": 100, "ex1_2": 85}}
	if err := store.Save("progress", "current", original); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var loaded record
	if err := store.Load("progress", "current", &loaded); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Username != "ada" || loaded.TotalXP != 185 || loaded.Results["ex1_2"] != 85 {
		t.Errorf("Load() = %+v, want %+v", loaded, original)
	}
}

func TestStore_EmptyCollection(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewStore(dir)

	if err := store.Save("", "leaderboard", []string{"a"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "leaderboard.json")); err != nil {
		t.Errorf("expected leaderboard.json at store root: %v", err)
	}
}

func TestStore_Save_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewStore(dir)

	for i := 0; i < 3; i++ {
		if err := store.Save("progress", "current", record{TotalXP: i}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	entries, err := os.ReadDir(filepath.Join(dir, "progress"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "current.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory contents = %v, want [current.json]", names)
	}

	var loaded record
	store.Load("progress", "current", &loaded)
	if loaded.TotalXP != 2 {
		t.Errorf("TotalXP = %d, want 2 (last write wins)", loaded.TotalXP)
	}
}

func TestStore_Load_NotFound(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	var r record
	if err := store.Load("progress", "missing", &r); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestStore_Load_Corrupt(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewStore(dir)

	os.MkdirAll(filepath.Join(dir, "progress"), 0755)
	os.WriteFile(filepath.Join(dir, "progress", "current.json"), []byte("{not json"), 0644)

	var r record
	err := store.Load("progress", "current", &r)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want decode error", err)
	}
}

func TestStore_InvalidID(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	for _, id := range []string{"", "..", "../escape", `a\b`} {
		if err := store.Save("progress", id, record{}); !errors.Is(err, ErrInvalidID) {
			t.Errorf("Save(%q) error = %v, want ErrInvalidID", id, err)
		}
		if store.Exists("progress", id) {
			t.Errorf("Exists(%q) = true", id)
		}
	}
}

func TestStore_DeleteAndExists(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	store.Save("sessions", "ex1_1", record{})
	if !store.Exists("sessions", "ex1_1") {
		t.Fatal("Exists() = false after Save")
	}

	if err := store.Delete("sessions", "ex1_1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if store.Exists("sessions", "ex1_1") {
		t.Error("Exists() = true after Delete")
	}
	if err := store.Delete("sessions", "ex1_1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestStore_List(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewStore(dir)

	store.Save("sessions", "ex1_1", record{})
	store.Save("sessions", "ex2_3", record{})
	os.WriteFile(filepath.Join(dir, "sessions", "notes.txt"), []byte("x"), 0644)

	ids, err := store.List("sessions")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "ex1_1" || ids[1] != "ex2_3" {
		t.Errorf("List() = %v, want [ex1_1 ex2_3]", ids)
	}

	empty, err := store.List("nothing-here")
	if err != nil || len(empty) != 0 {
		t.Errorf("List(missing) = %v, %v; want empty, nil", empty, err)
	}
}

func TestStore_Concurrency(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			store.Save("progress", "current", record{TotalXP: n})
		}(i)
		go func() {
			defer wg.Done()
			var r record
			store.Load("progress", "current", &r)
		}()
	}
	wg.Wait()

	var r record
	if err := store.Load("progress", "current", &r); err != nil {
		t.Errorf("Load() after concurrent writes error = %v", err)
	}
}
