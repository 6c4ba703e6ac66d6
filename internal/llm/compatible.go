package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Groq defaults for the OpenAI-compatible provider.
const (
	DefaultGroqModel   = "llama-3.3-70b-versatile"
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
)

// CompatibleProvider calls an OpenAI-compatible chat completions API. These
// APIs have no assistant prefill, so it is emulated: the system context asks
// the model to begin with the prefill, and the prefill is prepended when the
// output does not already start with it.
type CompatibleProvider struct {
	llm   llms.Model
	name  string
	model string
}

// NewCompatibleProvider creates a provider reporting itself as name.
func NewCompatibleProvider(name string, cfg ProviderConfig) (*CompatibleProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(httpClientFor(cfg)),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", name, err)
	}
	return &CompatibleProvider{llm: llm, name: name, model: cfg.Model}, nil
}

// NewGroqFactory returns a Factory building Groq providers.
func NewGroqFactory() Factory {
	return func(cfg ProviderConfig) (Provider, error) {
		if cfg.Model == "" {
			cfg.Model = DefaultGroqModel
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = DefaultGroqBaseURL
		}
		return NewCompatibleProvider(ProviderGroq, cfg)
	}
}

func (p *CompatibleProvider) Name() string  { return p.name }
func (p *CompatibleProvider) Model() string { return p.model }

// Generate sends one chat completion request.
func (p *CompatibleProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	system := prefillSystemPrompt(req.System, req.Prefill)

	var messages []llms.MessageContent
	if system != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt))

	resp, err := p.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(req.Temperature),
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("%s chat completion: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s chat completion: empty response", p.name)
	}

	return &Response{
		Text:     applyPrefill(resp.Choices[0].Content, req.Prefill),
		Model:    p.model,
		Provider: p.name,
	}, nil
}

// prefillSystemPrompt appends the prefill instruction to the system context.
func prefillSystemPrompt(system, prefill string) string {
	if prefill == "" {
		return system
	}
	instruction := "Begin your response with exactly: " + prefill
	if system == "" {
		return instruction
	}
	return system + "\n\n" + instruction
}

// applyPrefill prepends prefill unless the text already starts with it.
func applyPrefill(text, prefill string) string {
	if prefill == "" || strings.HasPrefix(text, prefill) {
		return text
	}
	return prefill + text
}
