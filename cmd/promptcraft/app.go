package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/promptcraft/internal/client"
	"github.com/felixgeelhaar/promptcraft/internal/config"
	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/felixgeelhaar/promptcraft/internal/exercise"
	"github.com/felixgeelhaar/promptcraft/internal/progress"
	"github.com/felixgeelhaar/promptcraft/internal/runner"
	"github.com/felixgeelhaar/promptcraft/internal/session"
)

// app holds the CLI's wired dependencies
type app struct {
	dir      string
	cfg      *config.LocalConfig
	logger   *slog.Logger
	client   *client.Client
	catalog  *exercise.Registry
	progress *progress.Store
	keys     *progress.KeyStore
	sessions *session.Store
}

func newApp() (*app, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	dir, err := config.EnsurePromptcraftDir()
	if err != nil {
		return nil, fmt.Errorf("setup promptcraft directory: %w", err)
	}

	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	loader, _ := exercise.NewLoaderFrom("./curriculum", filepath.Join(dir, "curriculum"))
	catalog := exercise.NewRegistry(loader)
	if err := catalog.Load(); err != nil {
		return nil, fmt.Errorf("load curriculum: %w", err)
	}

	clientDir := filepath.Join(dir, "client")
	progressStore, err := progress.NewStore(clientDir, logger)
	if err != nil {
		return nil, err
	}
	keys, err := progress.NewKeyStore(clientDir, logger)
	if err != nil {
		return nil, err
	}
	sessions, err := session.NewStore(clientDir, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		dir:      dir,
		cfg:      cfg,
		logger:   logger,
		client:   client.New(cfg.DaemonURL()),
		catalog:  catalog,
		progress: progressStore,
		keys:     keys,
		sessions: sessions,
	}, nil
}

func (a *app) runner() *runner.Service {
	return runner.NewService(a.catalog, a.client, a.progress, a.sessions,
		runner.WithKeys(a.keys),
		runner.WithLogger(a.logger),
	)
}

// loadProgress returns the learner's progress or a hint to run init
func (a *app) loadProgress() (*domain.UserProgress, error) {
	p, err := a.progress.Load()
	if errors.Is(err, domain.ErrNoProgress) {
		return nil, fmt.Errorf("no learner profile yet (run 'promptcraft init <username>' first)")
	}
	return p, err
}

// explain turns daemon errors into remediation messages
func explain(err error) error {
	switch {
	case errors.Is(err, client.ErrNoAPIKey):
		return fmt.Errorf("no API key available; add one with 'promptcraft key set anthropic <key>' or 'promptcraft key set groq <key>'")
	case errors.Is(err, client.ErrDaemonUnavailable):
		return fmt.Errorf("daemon not running (run 'promptcraft start' first)")
	case errors.Is(err, runner.ErrChapterLocked):
		return fmt.Errorf("%w: finish every exercise in the previous chapter first", err)
	default:
		return err
	}
}
