package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-haiku-4-5"

// AnthropicProvider calls the Anthropic Messages API. Prefill is sent as a
// trailing assistant turn, so the model continues from it. The API rejects
// assistant turns ending in whitespace, so trailing whitespace is trimmed
// from the sent turn. The returned text still starts with the exact prefill;
// a continuation that repeats the trimmed whitespace is not doubled.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicProvider creates a provider for the given key. The SDK's
// built-in retries are disabled.
func NewAnthropicProvider(cfg ProviderConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultAnthropicModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(httpClientFor(cfg)),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := anthropic.NewClient(opts...)
	return &AnthropicProvider{client: &client, model: cfg.Model}, nil
}

// NewAnthropicFactory returns a Factory building AnthropicProviders.
func NewAnthropicFactory() Factory {
	return func(cfg ProviderConfig) (Provider, error) {
		return NewAnthropicProvider(cfg)
	}
}

func (p *AnthropicProvider) Name() string  { return ProviderAnthropic }
func (p *AnthropicProvider) Model() string { return p.model }

// Generate sends one Messages request.
func (p *AnthropicProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	prefill := strings.TrimRight(req.Prefill, " \t\r\n")

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
	}
	if prefill != "" {
		messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(prefill)))
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   int64(maxTokens),
		Messages:    messages,
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}

	model := string(msg.Model)
	if model == "" {
		model = p.model
	}
	return &Response{
		Text:     joinPrefill(req.Prefill, prefill, text.String()),
		Model:    model,
		Provider: ProviderAnthropic,
	}, nil
}

// joinPrefill prepends the exact prefill to a continuation generated after
// its trimmed form, dropping the trimmed whitespace if the model repeated it.
func joinPrefill(prefill, sent, continuation string) string {
	if prefill == "" {
		return continuation
	}
	trimmed := prefill[len(sent):]
	return prefill + strings.TrimPrefix(continuation, trimmed)
}
