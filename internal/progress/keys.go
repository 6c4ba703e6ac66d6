package progress

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/felixgeelhaar/promptcraft/internal/llm"
	"github.com/felixgeelhaar/promptcraft/internal/storage/local"
)

const (
	collectionKeys = "keys"
	providerKeysID = "providers"
)

// ErrUnknownProvider is returned for keys of providers the proxy cannot use.
var ErrUnknownProvider = errors.New("unknown provider")

// providerPreference orders providers for Active: Anthropic first.
var providerPreference = []string{llm.ProviderAnthropic, llm.ProviderGroq}

// KeyStore keeps the learner's API keys, one per provider. Keys leave the
// machine only inside proxy requests for their own provider.
type KeyStore struct {
	store  *local.Store
	logger *slog.Logger
}

// NewKeyStore creates a key store rooted at basePath
func NewKeyStore(basePath string, logger *slog.Logger) (*KeyStore, error) {
	store, err := local.NewStore(basePath)
	if err != nil {
		return nil, fmt.Errorf("create local store: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KeyStore{store: store, logger: logger}, nil
}

// All returns every stored key by provider. Unreadable storage reads as
// empty.
func (k *KeyStore) All() map[string]string {
	keys := map[string]string{}
	if err := k.store.Load(collectionKeys, providerKeysID, &keys); err != nil {
		if !errors.Is(err, local.ErrNotFound) {
			k.logger.Warn("key store unreadable, ignoring stored keys", "error", err)
		}
		return map[string]string{}
	}
	return lo.PickBy(keys, func(_ string, v string) bool { return v != "" })
}

// Get returns the key stored for provider, if any
func (k *KeyStore) Get(provider string) string {
	return k.All()[provider]
}

// Set stores key for provider. An empty key clears it.
func (k *KeyStore) Set(provider, key string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !lo.Contains(providerPreference, provider) {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	keys := k.All()
	key = strings.TrimSpace(key)
	if key == "" {
		delete(keys, provider)
	} else {
		keys[provider] = key
	}

	if err := k.store.Save(collectionKeys, providerKeysID, keys); err != nil {
		return fmt.Errorf("save keys: %w", err)
	}
	return nil
}

// Clear removes the key for provider
func (k *KeyStore) Clear(provider string) error {
	return k.Set(provider, "")
}

// Active returns the provider and key a request should use when none is
// chosen explicitly. Anthropic wins when both keys are set. ok is false
// when no key is stored.
func (k *KeyStore) Active() (provider, key string, ok bool) {
	keys := k.All()
	for _, name := range providerPreference {
		if v := keys[name]; v != "" {
			return name, v, true
		}
	}
	return "", "", false
}

// Providers returns the names keys can be stored for
func Providers() []string {
	return append([]string(nil), providerPreference...)
}
