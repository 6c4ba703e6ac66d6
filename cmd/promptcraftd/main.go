package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/config"
	"github.com/felixgeelhaar/promptcraft/internal/daemon"
	"github.com/felixgeelhaar/promptcraft/internal/exercise"
	"github.com/felixgeelhaar/promptcraft/internal/leaderboard"
	"github.com/felixgeelhaar/promptcraft/internal/llm"
	"github.com/felixgeelhaar/promptcraft/internal/storage/postgres"
	"github.com/felixgeelhaar/promptcraft/internal/storage/sqlite"
)

const (
	pidFileName = "promptcraftd.pid"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	// Ensure ~/.promptcraft directory exists
	dir, err := config.EnsurePromptcraftDir()
	if err != nil {
		return fmt.Errorf("ensure promptcraft dir: %w", err)
	}

	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logLevel := parseLogLevel(cfg.Daemon.LogLevel)
	logFile, err := setupLogging(dir, logLevel)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	pidPath := filepath.Join(dir, pidFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	ctx := context.Background()

	registry := exercise.NewRegistry(curriculumLoader(dir))
	if err := registry.Load(); err != nil {
		return fmt.Errorf("load curriculum: %w", err)
	}

	store, closeStore, err := openLeaderboardStore(ctx, cfg, dir)
	if err != nil {
		return fmt.Errorf("open leaderboard: %w", err)
	}
	defer closeStore()

	proxy := llm.NewProxy(
		llm.NewDefaultRegistry(providerConfig(cfg, llm.ProviderAnthropic), providerConfig(cfg, llm.ProviderGroq)),
		llm.WithMaxTokens(cfg.LLM.MaxTokens),
		llm.WithTemperature(cfg.LLM.Temperature),
		llm.WithLogger(slog.Default()),
	)

	server, err := daemon.NewServer(daemon.ServerConfig{
		Config:      cfg,
		Proxy:       proxy,
		Leaderboard: leaderboard.NewService(store, slog.Default()),
		Catalog:     registry,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	stats := registry.Stats()
	slog.Info("daemon starting",
		"addr", server.Addr(),
		"version", version,
		"chapters", stats.ChapterCount,
		"exercises", stats.ExerciseCount,
		"leaderboard", cfg.Leaderboard.Backend,
		"rate_limit", cfg.RateLimit.Enabled,
	)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		slog.Info("received signal, shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		close(done)
	}()

	if err := server.Start(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	slog.Info("daemon stopped")
	return nil
}

// curriculumLoader prefers ./curriculum, then <dir>/curriculum, and falls
// back to the built-in curriculum.
func curriculumLoader(dir string) *exercise.Loader {
	loader, path := exercise.NewLoaderFrom("./curriculum", filepath.Join(dir, "curriculum"))
	if path != "" {
		slog.Info("using curriculum directory", "path", path)
	}
	return loader
}

// openLeaderboardStore opens the configured leaderboard backend. The returned
// func releases it.
func openLeaderboardStore(ctx context.Context, cfg *config.LocalConfig, dir string) (leaderboard.Store, func(), error) {
	switch cfg.Leaderboard.Backend {
	case config.BackendSQLite:
		path := cfg.LeaderboardPath(dir)
		db, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return sqlite.NewLeaderboardStore(db), func() { db.Close() }, nil

	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Leaderboard.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return postgres.NewLeaderboardStore(db), db.Close, nil

	default:
		store, err := leaderboard.NewFileStore(cfg.LeaderboardPath(dir), slog.Default())
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

func providerConfig(cfg *config.LocalConfig, name string) llm.ProviderConfig {
	p := cfg.Provider(name)
	return llm.ProviderConfig{
		APIKey:  p.APIKey,
		Model:   p.Model,
		BaseURL: p.BaseURL,
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setupLogging(dir string, level slog.Level) (*os.File, error) {
	logPath := filepath.Join(dir, "logs", "promptcraftd.log")

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	// JSON to the log file, text to stderr for foreground mode
	multiHandler := &multiHandler{
		handlers: []slog.Handler{
			slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level}),
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
		},
	}

	slog.SetDefault(slog.New(multiHandler))

	return logFile, nil
}

func writePIDFile(path string) error {
	pid := os.Getpid()
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", pid)), 0644)
}

// multiHandler logs to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
