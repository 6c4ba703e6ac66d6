//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/felixgeelhaar/promptcraft/internal/leaderboard"
	"github.com/felixgeelhaar/promptcraft/internal/storage/postgres"
)

// setupPostgres starts a Postgres container and returns a migrated DB.
func setupPostgres(t *testing.T) *postgres.DB {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "promptcraft",
				"POSTGRES_PASSWORD": "promptcraft",
				"POSTGRES_DB":       "promptcraft",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://promptcraft:promptcraft@%s:%s/promptcraft?sslmode=disable", host, port.Port())
	db, err := postgres.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestIntegration_Migrate_Idempotent(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	version, err := db.Version(ctx)
	if err != nil || version != 1 {
		t.Errorf("Version() = %d, %v; want 1", version, err)
	}
}

func TestIntegration_LeaderboardStore_UpsertIfBetter(t *testing.T) {
	store := postgres.NewLeaderboardStore(setupPostgres(t))
	svc := leaderboard.NewService(store, nil)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, leaderboard.Submission{Username: "Ada", TotalXP: 500}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := svc.Submit(ctx, leaderboard.Submission{Username: "grace", TotalXP: 800}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	rank, err := svc.Submit(ctx, leaderboard.Submission{Username: "ADA", TotalXP: 100})
	if err != nil {
		t.Fatalf("Submit(lower) error = %v", err)
	}
	if rank != 2 {
		t.Errorf("rank after lower submission = %d, want 2", rank)
	}

	rank, err = svc.Submit(ctx, leaderboard.Submission{Username: "ada", TotalXP: 900})
	if err != nil {
		t.Fatalf("Submit(higher) error = %v", err)
	}
	if rank != 1 {
		t.Errorf("rank after higher submission = %d, want 1", rank)
	}

	top, err := svc.Top(ctx)
	if err != nil {
		t.Fatalf("Top() error = %v", err)
	}
	if len(top) != 2 || top[0].Username != "ada" || top[0].TotalXP != 900 {
		t.Errorf("Top() = %+v", top)
	}
}

func TestIntegration_LeaderboardStore_ConcurrentSubmissions(t *testing.T) {
	store := postgres.NewLeaderboardStore(setupPostgres(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 25; i++ {
		wg.Add(1)
		go func(xp int) {
			defer wg.Done()
			if err := store.Upsert(ctx, leaderboard.Entry{Username: "racer", TotalXP: xp, SubmittedAt: time.Now()}); err != nil {
				t.Errorf("Upsert() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 || entries[0].TotalXP != 25 {
		t.Errorf("entries = %+v, want single entry with 25 XP", entries)
	}
}
