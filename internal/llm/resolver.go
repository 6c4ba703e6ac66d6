package llm

import (
	"fmt"
	"strings"
)

// AnthropicKeyPrefix identifies Anthropic API keys.
const AnthropicKeyPrefix = "sk-ant-"

// Resolution is the provider and key chosen for one proxy call.
type Resolution struct {
	Provider string
	APIKey   string
}

// Resolver picks a provider and key for a request.
//
// An explicit provider wins and uses the supplied key or that provider's
// server key. Without one, a supplied key decides: Anthropic-style keys go to
// Anthropic and any other key to Groq. With no supplied key the server's
// Anthropic key is preferred over its Groq key.
type Resolver struct {
	registry *Registry
}

// NewResolver creates a resolver over the registry's server keys.
func NewResolver(registry *Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve returns ErrUnknownProvider for unregistered provider names and
// ErrNoAPIKey when no usable key exists.
func (r *Resolver) Resolve(provider, apiKey string) (Resolution, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	apiKey = strings.TrimSpace(apiKey)

	if provider != "" {
		if !r.registry.Has(provider) {
			return Resolution{}, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
		}
		key := apiKey
		if key == "" {
			key = r.registry.ServerKey(provider)
		}
		if key == "" {
			return Resolution{}, ErrNoAPIKey
		}
		return Resolution{Provider: provider, APIKey: key}, nil
	}

	if apiKey != "" {
		if IsAnthropicKey(apiKey) {
			return Resolution{Provider: ProviderAnthropic, APIKey: apiKey}, nil
		}
		return Resolution{Provider: ProviderGroq, APIKey: apiKey}, nil
	}

	for _, name := range []string{ProviderAnthropic, ProviderGroq} {
		if key := r.registry.ServerKey(name); key != "" {
			return Resolution{Provider: name, APIKey: key}, nil
		}
	}
	return Resolution{}, ErrNoAPIKey
}

// IsAnthropicKey reports whether key looks like an Anthropic API key.
func IsAnthropicKey(key string) bool {
	return strings.HasPrefix(key, AnthropicKeyPrefix)
}
