package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// NoAPIKeyMessage tells the learner how to fix a missing key.
const NoAPIKeyMessage = "No API key configured. Add an Anthropic or Groq key with `promptcraft key set <provider> <key>`, or set ANTHROPIC_API_KEY / GROQ_API_KEY on the server."

// GenerateRequest is the proxy's normalized request.
type GenerateRequest struct {
	Prompt       string `json:"prompt"`
	SystemPrompt string `json:"systemPrompt,omitempty"`
	Prefill      string `json:"prefill,omitempty"`
	APIKey       string `json:"apiKey,omitempty"`
	Provider     string `json:"provider,omitempty"`
}

// GenerateResult is the proxy's normalized response.
type GenerateResult struct {
	Text     string `json:"text"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
}

// Proxy forwards prompts to the resolved provider exactly once.
type Proxy struct {
	registry    *Registry
	resolver    *Resolver
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

// ProxyOption configures a Proxy.
type ProxyOption func(*Proxy)

// WithMaxTokens overrides the completion token limit.
func WithMaxTokens(n int) ProxyOption {
	return func(p *Proxy) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) ProxyOption {
	return func(p *Proxy) { p.temperature = t }
}

// WithLogger sets the proxy logger.
func WithLogger(l *slog.Logger) ProxyOption {
	return func(p *Proxy) { p.logger = l }
}

// NewProxy creates a proxy over a provider registry.
func NewProxy(registry *Registry, opts ...ProxyOption) *Proxy {
	p := &Proxy{
		registry:    registry,
		resolver:    NewResolver(registry),
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Generate validates, resolves, and performs one provider call. The context
// is the only cancellation; nothing is retried.
func (p *Proxy) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrPromptRequired
	}

	res, err := p.resolver.Resolve(req.Provider, req.APIKey)
	if err != nil {
		return nil, err
	}

	provider, err := p.registry.Build(res.Provider, res.APIKey)
	if err != nil {
		return nil, fmt.Errorf("build provider %s: %w", res.Provider, err)
	}

	start := time.Now()
	resp, err := provider.Generate(ctx, &Request{
		Prompt:      req.Prompt,
		System:      req.SystemPrompt,
		Prefill:     req.Prefill,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	})
	if err != nil {
		p.logger.Warn("provider call failed", "provider", res.Provider, "model", provider.Model(), "error", err)
		return nil, err
	}

	p.logger.Debug("provider call complete",
		"provider", resp.Provider,
		"model", resp.Model,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &GenerateResult{Text: resp.Text, Model: resp.Model, Provider: resp.Provider}, nil
}

// Providers returns the registered provider names.
func (p *Proxy) Providers() []string {
	return p.registry.List()
}
