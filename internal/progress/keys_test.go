package progress

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestKeyStore_SetGetClear(t *testing.T) {
	keys, err := NewKeyStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewKeyStore() error = %v", err)
	}

	if err := keys.Set("groq", " gsk_abc "); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got := keys.Get("groq"); got != "gsk_abc" {
		t.Errorf("Get(groq) = %q, want gsk_abc", got)
	}
	if got := keys.Get("anthropic"); got != "" {
		t.Errorf("Get(anthropic) = %q, want empty", got)
	}

	if err := keys.Clear("groq"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if len(keys.All()) != 0 {
		t.Errorf("All() = %v, want empty", keys.All())
	}
}

func TestKeyStore_UnknownProvider(t *testing.T) {
	keys, _ := NewKeyStore(t.TempDir(), nil)

	if err := keys.Set("openai", "sk-x"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("Set(openai) error = %v, want ErrUnknownProvider", err)
	}
}

func TestKeyStore_ActivePrefersAnthropic(t *testing.T) {
	keys, _ := NewKeyStore(t.TempDir(), nil)

	if _, _, ok := keys.Active(); ok {
		t.Fatal("Active() ok with no keys")
	}

	keys.Set("groq", "gsk_abc")
	provider, key, ok := keys.Active()
	if !ok || provider != "groq" || key != "gsk_abc" {
		t.Errorf("Active() = %s, %s, %v; want groq", provider, key, ok)
	}

	keys.Set("anthropic", "sk-ant-abc")
	provider, key, _ = keys.Active()
	if provider != "anthropic" || key != "sk-ant-abc" {
		t.Errorf("Active() = %s, %s; want anthropic", provider, key)
	}

	// Keys stay segregated per provider
	if keys.Get("groq") != "gsk_abc" {
		t.Error("groq key lost after setting anthropic key")
	}
}

func TestKeyStore_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	keys, _ := NewKeyStore(dir, nil)
	keys.Set("anthropic", "sk-ant-abc")

	info, err := os.Stat(filepath.Join(dir, "keys", "providers.json"))
	if err != nil {
		t.Fatalf("stat key file: %v", err)
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		t.Errorf("key file permissions = %o, want owner-only", perm)
	}
}

func TestKeyStore_CorruptReadsEmpty(t *testing.T) {
	dir := t.TempDir()
	keys, _ := NewKeyStore(dir, nil)

	os.MkdirAll(filepath.Join(dir, "keys"), 0755)
	os.WriteFile(filepath.Join(dir, "keys", "providers.json"), []byte("nope"), 0600)

	if got := keys.All(); len(got) != 0 {
		t.Errorf("All() = %v, want empty", got)
	}
	if err := keys.Set("groq", "gsk_new"); err != nil {
		t.Fatalf("Set() after corrupt file error = %v", err)
	}
	if keys.Get("groq") != "gsk_new" {
		t.Error("Set() did not replace corrupt file")
	}
}
