package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Leaderboard backends.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// LocalConfig holds configuration for the daemon and the CLI
type LocalConfig struct {
	Daemon      DaemonConfig      `yaml:"daemon"`
	LLM         LLMConfig         `yaml:"llm"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Client      ClientConfig      `yaml:"client"`
}

// DaemonConfig holds daemon server settings
type DaemonConfig struct {
	Port     int    `yaml:"port"`
	Bind     string `yaml:"bind"`
	LogLevel string `yaml:"log_level"`
}

// LLMConfig holds LLM provider settings
type LLMConfig struct {
	MaxTokens   int                        `yaml:"max_tokens"`
	Temperature float64                    `yaml:"temperature"`
	Providers   map[string]*ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds settings for a single LLM provider
type ProviderConfig struct {
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url,omitempty"`
	APIKey  string `yaml:"-"` // Loaded from secrets.yaml or the environment
}

// LeaderboardConfig selects the leaderboard store
type LeaderboardConfig struct {
	Backend string `yaml:"backend"`        // file, sqlite, postgres
	Path    string `yaml:"path,omitempty"` // directory for file, database file for sqlite
	DSN     string `yaml:"-"`              // postgres connection string, from DATABASE_URL
}

// RateLimitConfig limits proxy calls per client IP. X-Forwarded-For and
// X-Real-IP are only honored on requests arriving from a TrustedProxies
// address.
type RateLimitConfig struct {
	Enabled        bool     `yaml:"enabled"`
	PerSecond      int      `yaml:"per_second"`
	Burst          int      `yaml:"burst"`
	TrustedProxies []string `yaml:"trusted_proxies,omitempty"`
}

// ClientConfig holds CLI settings
type ClientConfig struct {
	DaemonURL string `yaml:"daemon_url,omitempty"`
}

// SecretsConfig holds API keys and credentials loaded from secrets.yaml
type SecretsConfig struct {
	Providers   map[string]ProviderSecret `yaml:"providers"`
	Leaderboard struct {
		DSN string `yaml:"dsn,omitempty"`
	} `yaml:"leaderboard,omitempty"`
}

// ProviderSecret is one provider's server-side key
type ProviderSecret struct {
	APIKey string `yaml:"api_key"`
}

// PromptcraftDir returns the state directory: $PROMPTCRAFT_HOME, or
// ~/.promptcraft.
func PromptcraftDir() (string, error) {
	if dir := os.Getenv("PROMPTCRAFT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".promptcraft"), nil
}

// EnsurePromptcraftDir creates the state directory and its subdirectories
func EnsurePromptcraftDir() (string, error) {
	dir, err := PromptcraftDir()
	if err != nil {
		return "", err
	}

	for _, subdir := range []string{"", "logs", "client", "data"} {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}

	return dir, nil
}

// DefaultLocalConfig returns sensible defaults for local mode
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		Daemon: DaemonConfig{
			Port:     7433,
			Bind:     "127.0.0.1",
			LogLevel: "info",
		},
		LLM: LLMConfig{
			MaxTokens:   1024,
			Temperature: 0,
			Providers: map[string]*ProviderConfig{
				"anthropic": {
					Model: "claude-haiku-4-5",
				},
				"groq": {
					Model:   "llama-3.3-70b-versatile",
					BaseURL: "https://api.groq.com/openai/v1",
				},
			},
		},
		Leaderboard: LeaderboardConfig{
			Backend: BackendFile,
		},
		RateLimit: RateLimitConfig{
			Enabled:   true,
			PerSecond: 2,
			Burst:     10,
		},
	}
}

// LoadLocalConfig loads configuration from <dir>/config.yaml and secrets.yaml,
// then applies environment overrides.
func LoadLocalConfig() (*LocalConfig, error) {
	dir, err := PromptcraftDir()
	if err != nil {
		return nil, err
	}

	cfg := DefaultLocalConfig()

	configPath := filepath.Join(dir, "config.yaml")
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := loadSecrets(dir, cfg); err != nil {
		return nil, fmt.Errorf("load secrets: %w", err)
	}

	ApplyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadSecrets loads API keys and the leaderboard DSN from secrets.yaml
func loadSecrets(dir string, cfg *LocalConfig) error {
	secrets, err := readSecrets(dir)
	if err != nil {
		return err
	}

	for name, secret := range secrets.Providers {
		if provider, ok := cfg.LLM.Providers[name]; ok {
			provider.APIKey = secret.APIKey
		}
	}
	if secrets.Leaderboard.DSN != "" {
		cfg.Leaderboard.DSN = secrets.Leaderboard.DSN
	}

	return nil
}

func readSecrets(dir string) (*SecretsConfig, error) {
	secrets := &SecretsConfig{Providers: map[string]ProviderSecret{}}

	data, err := os.ReadFile(filepath.Join(dir, "secrets.yaml"))
	if os.IsNotExist(err) {
		return secrets, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read secrets: %w", err)
	}

	if err := yaml.Unmarshal(data, secrets); err != nil {
		return nil, fmt.Errorf("parse secrets: %w", err)
	}
	if secrets.Providers == nil {
		secrets.Providers = map[string]ProviderSecret{}
	}
	return secrets, nil
}

// Validate checks settings that would otherwise fail at startup
func (c *LocalConfig) Validate() error {
	if c.Daemon.Port <= 0 || c.Daemon.Port > 65535 {
		return fmt.Errorf("daemon.port %d out of range", c.Daemon.Port)
	}
	switch c.Leaderboard.Backend {
	case BackendFile, BackendSQLite:
	case BackendPostgres:
		if c.Leaderboard.DSN == "" {
			return fmt.Errorf("leaderboard backend postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown leaderboard backend %q", c.Leaderboard.Backend)
	}
	if c.RateLimit.Enabled && (c.RateLimit.PerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate_limit.per_second and rate_limit.burst must be positive")
	}
	return nil
}

// Addr returns the daemon listen address
func (c *LocalConfig) Addr() string {
	return net.JoinHostPort(c.Daemon.Bind, strconv.Itoa(c.Daemon.Port))
}

// DaemonURL returns the URL the CLI uses to reach the daemon
func (c *LocalConfig) DaemonURL() string {
	if c.Client.DaemonURL != "" {
		return c.Client.DaemonURL
	}
	return "http://" + c.Addr()
}

// Provider returns the named provider settings, or an empty config
func (c *LocalConfig) Provider(name string) ProviderConfig {
	if p, ok := c.LLM.Providers[name]; ok && p != nil {
		return *p
	}
	return ProviderConfig{}
}

// LeaderboardPath returns the configured leaderboard path, defaulting to
// <dir>/data for the file backend and <dir>/data/leaderboard.db for sqlite.
func (c *LocalConfig) LeaderboardPath(dir string) string {
	if c.Leaderboard.Path != "" {
		return c.Leaderboard.Path
	}
	if c.Leaderboard.Backend == BackendSQLite {
		return filepath.Join(dir, "data", "leaderboard.db")
	}
	return filepath.Join(dir, "data")
}

// SaveLocalConfig saves configuration to <dir>/config.yaml
func SaveLocalConfig(cfg *LocalConfig) error {
	dir, err := EnsurePromptcraftDir()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// SaveSecrets merges server-side API keys into <dir>/secrets.yaml. An empty
// key removes that provider's entry.
func SaveSecrets(keys map[string]string) error {
	dir, err := EnsurePromptcraftDir()
	if err != nil {
		return err
	}

	secrets, err := readSecrets(dir)
	if err != nil {
		return err
	}
	for name, key := range keys {
		if key == "" {
			delete(secrets.Providers, name)
			continue
		}
		secrets.Providers[name] = ProviderSecret{APIKey: key}
	}

	data, err := yaml.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("marshal secrets: %w", err)
	}

	// Owner read/write only
	if err := os.WriteFile(filepath.Join(dir, "secrets.yaml"), data, 0600); err != nil {
		return fmt.Errorf("write secrets: %w", err)
	}

	return nil
}
