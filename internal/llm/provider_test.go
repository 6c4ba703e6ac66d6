package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

// mockProvider is a test implementation of Provider
type mockProvider struct {
	name     string
	model    string
	response *Response
	err      error
	calls    int
	lastReq  *Request
}

func (m *mockProvider) Name() string  { return m.name }
func (m *mockProvider) Model() string { return m.model }

func (m *mockProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

// mockFactory records the key and HTTP client each provider was built with.
type mockFactory struct {
	provider *mockProvider
	keys     []string
	clients  []*http.Client
	err      error
}

func (f *mockFactory) build(cfg ProviderConfig) (Provider, error) {
	f.keys = append(f.keys, cfg.APIKey)
	f.clients = append(f.clients, cfg.HTTPClient)
	if f.err != nil {
		return nil, f.err
	}
	return f.provider, nil
}

func TestRegistry_RegisterAndBuild(t *testing.T) {
	r := NewRegistry()
	f := &mockFactory{provider: &mockProvider{name: "test"}}
	r.Register("test", f.build, ProviderConfig{APIKey: "server", Model: "m1"})

	if !r.Has("test") {
		t.Fatal("Has() = false after Register")
	}
	if got := r.ServerKey("test"); got != "server" {
		t.Errorf("ServerKey() = %q, want server", got)
	}

	p, err := r.Build("test", "user-key")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if p.Name() != "test" {
		t.Errorf("Name() = %q", p.Name())
	}
	if len(f.keys) != 1 || f.keys[0] != "user-key" {
		t.Errorf("factory keys = %v, want [user-key]", f.keys)
	}
}

func TestRegistry_Build_SharesHTTPClient(t *testing.T) {
	r := NewRegistry()
	a := &mockFactory{provider: &mockProvider{name: "a"}}
	b := &mockFactory{provider: &mockProvider{name: "b"}}
	r.Register("a", a.build, ProviderConfig{})
	r.Register("b", b.build, ProviderConfig{})

	r.Build("a", "k1")
	r.Build("a", "k2")
	r.Build("b", "k3")

	shared := a.clients[0]
	if shared == nil {
		t.Fatal("factory got a nil HTTP client")
	}
	if a.clients[1] != shared || b.clients[0] != shared {
		t.Error("builds should share one HTTP client")
	}
}

func TestRegistry_Build_KeepsConfiguredHTTPClient(t *testing.T) {
	own := &http.Client{}
	r := NewRegistry()
	f := &mockFactory{provider: &mockProvider{name: "a"}}
	r.Register("a", f.build, ProviderConfig{HTTPClient: own})

	r.Build("a", "k")
	if f.clients[0] != own {
		t.Error("configured HTTP client should be used")
	}
}

func TestRegistry_Build_NotFound(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Build("missing", "k"); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("Build() error = %v, want ErrProviderNotFound", err)
	}
}

func TestRegistry_List(t *testing.T) {
	r := NewDefaultRegistry(ProviderConfig{}, ProviderConfig{})

	got := r.List()
	if len(got) != 2 || got[0] != ProviderAnthropic || got[1] != ProviderGroq {
		t.Errorf("List() = %v, want [anthropic groq]", got)
	}
}

func TestDefaultFactories_RequireKey(t *testing.T) {
	r := NewDefaultRegistry(ProviderConfig{}, ProviderConfig{})

	for _, name := range []string{ProviderAnthropic, ProviderGroq} {
		if _, err := r.Build(name, ""); !errors.Is(err, ErrNoAPIKey) {
			t.Errorf("Build(%s, \"\") error = %v, want ErrNoAPIKey", name, err)
		}
	}
}

func TestDefaultFactories_Models(t *testing.T) {
	r := NewDefaultRegistry(ProviderConfig{}, ProviderConfig{})

	a, err := r.Build(ProviderAnthropic, "sk-ant-x")
	if err != nil {
		t.Fatalf("Build(anthropic) error = %v", err)
	}
	if a.Model() != DefaultAnthropicModel {
		t.Errorf("anthropic Model() = %q, want %q", a.Model(), DefaultAnthropicModel)
	}

	g, err := r.Build(ProviderGroq, "gsk_x")
	if err != nil {
		t.Fatalf("Build(groq) error = %v", err)
	}
	if g.Model() != DefaultGroqModel || g.Name() != ProviderGroq {
		t.Errorf("groq = %s/%s", g.Name(), g.Model())
	}
}
