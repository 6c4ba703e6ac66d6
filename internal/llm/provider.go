package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
)

// Provider names accepted in proxy requests.
const (
	ProviderAnthropic = "anthropic"
	ProviderGroq      = "groq"
)

// Generation defaults shared by every provider.
const (
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.0
)

var (
	ErrPromptRequired   = errors.New("prompt is required")
	ErrUnknownProvider  = errors.New("unknown provider")
	ErrNoAPIKey         = errors.New("no API key configured")
	ErrProviderNotFound = errors.New("provider not found")
)

// Provider generates a single completion from an LLM API.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Model returns the model identifier used for requests
	Model() string

	// Generate performs one completion request. Implementations do not retry.
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// Request is the normalized prompt sent to a provider.
type Request struct {
	Prompt      string
	System      string
	Prefill     string
	MaxTokens   int
	Temperature float64
}

// Response is a provider's completion. When the request carried a prefill,
// Text starts with it.
type Response struct {
	Text     string
	Model    string
	Provider string
}

// ProviderConfig holds the settings needed to build a provider for one call.
// HTTPClient is shared across builds so connections are reused; providers
// create their own when it is nil.
type ProviderConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Factory builds a provider for a resolved API key.
type Factory func(cfg ProviderConfig) (Provider, error)

// Registry maps provider names to factories and their configured defaults.
type Registry struct {
	mu         sync.RWMutex
	factories  map[string]Factory
	defaults   map[string]ProviderConfig
	httpClient *http.Client
}

// NewRegistry creates a new provider registry. Every provider it builds
// shares one HTTP client.
func NewRegistry() *Registry {
	return &Registry{
		factories:  make(map[string]Factory),
		defaults:   make(map[string]ProviderConfig),
		httpClient: newLLMHTTPClient(),
	}
}

// NewDefaultRegistry registers the Anthropic and Groq providers with the
// given per-provider defaults (model, base URL, server key).
func NewDefaultRegistry(anthropicCfg, groqCfg ProviderConfig) *Registry {
	r := NewRegistry()
	r.Register(ProviderAnthropic, NewAnthropicFactory(), anthropicCfg)
	r.Register(ProviderGroq, NewGroqFactory(), groqCfg)
	return r
}

// Register adds a provider factory and its defaults to the registry
func (r *Registry) Register(name string, f Factory, defaults ProviderConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
	r.defaults[name] = defaults
}

// Has reports whether a provider is registered
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// ServerKey returns the server-side API key configured for a provider
func (r *Registry) ServerKey(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaults[name].APIKey
}

// Build creates a provider using apiKey over the registered defaults.
func (r *Registry) Build(name, apiKey string) (Provider, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	cfg := r.defaults[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	cfg.APIKey = apiKey
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = r.httpClient
	}
	return f(cfg)
}

// List returns all registered provider names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
