package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads variables from .env files (default ./.env) without
// overriding variables already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overrides cfg with environment variables:
//
//	ANTHROPIC_API_KEY, GROQ_API_KEY  server-side provider keys
//	PROMPTCRAFT_PORT, PROMPTCRAFT_BIND, PROMPTCRAFT_LOG_LEVEL
//	PROMPTCRAFT_URL                  daemon URL used by the CLI
//	PROMPTCRAFT_RATE_LIMIT           enable/disable proxy rate limiting
//	LEADERBOARD_BACKEND, LEADERBOARD_PATH, DATABASE_URL
func ApplyEnv(cfg *LocalConfig) {
	if cfg.LLM.Providers == nil {
		cfg.LLM.Providers = make(map[string]*ProviderConfig)
	}
	for name, env := range map[string]string{"anthropic": "ANTHROPIC_API_KEY", "groq": "GROQ_API_KEY"} {
		key := getEnv(env, "")
		if key == "" {
			continue
		}
		if _, ok := cfg.LLM.Providers[name]; !ok {
			cfg.LLM.Providers[name] = &ProviderConfig{}
		}
		cfg.LLM.Providers[name].APIKey = key
	}

	cfg.Daemon.Port = getEnvInt("PROMPTCRAFT_PORT", cfg.Daemon.Port)
	cfg.Daemon.Bind = getEnv("PROMPTCRAFT_BIND", cfg.Daemon.Bind)
	cfg.Daemon.LogLevel = strings.ToLower(getEnv("PROMPTCRAFT_LOG_LEVEL", cfg.Daemon.LogLevel))
	cfg.Client.DaemonURL = getEnv("PROMPTCRAFT_URL", cfg.Client.DaemonURL)
	cfg.RateLimit.Enabled = getEnvBool("PROMPTCRAFT_RATE_LIMIT", cfg.RateLimit.Enabled)

	cfg.Leaderboard.Backend = strings.ToLower(getEnv("LEADERBOARD_BACKEND", cfg.Leaderboard.Backend))
	cfg.Leaderboard.Path = getEnv("LEADERBOARD_PATH", cfg.Leaderboard.Path)
	cfg.Leaderboard.DSN = getEnv("DATABASE_URL", cfg.Leaderboard.DSN)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
