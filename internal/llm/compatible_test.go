package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type capturedChat struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

func newChatServer(t *testing.T, content string, captured *capturedChat) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer gsk_test" {
			t.Errorf("Authorization = %q", got)
		}
		if captured != nil {
			json.NewDecoder(r.Body).Decode(captured)
		}
		text, _ := json.Marshal(content)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "llama-3.3-70b-versatile",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": %s}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`, text)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGroq(t *testing.T, baseURL string) Provider {
	t.Helper()
	p, err := NewGroqFactory()(ProviderConfig{APIKey: "gsk_test", BaseURL: baseURL})
	if err != nil {
		t.Fatalf("NewGroqFactory() error = %v", err)
	}
	return p
}

func TestCompatibleProvider_Generate(t *testing.T) {
	var captured capturedChat
	srv := newChatServer(t, "Hello there", &captured)
	p := newTestGroq(t, srv.URL)

	resp, err := p.Generate(context.Background(), &Request{Prompt: "Say hello", System: "Be kind"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Text != "Hello there" || resp.Provider != ProviderGroq || resp.Model != DefaultGroqModel {
		t.Errorf("Generate() = %+v", resp)
	}

	if captured.Model != DefaultGroqModel {
		t.Errorf("model = %q", captured.Model)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v", captured.Messages)
	}
	if strings.Contains(string(captured.Messages[0].Content), "Begin your response") {
		t.Error("prefill instruction sent without prefill")
	}
}

func TestCompatibleProvider_PrefillEmulation(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"prepended when missing", "B) Paris", "<answer>B) Paris"},
		{"kept when present", "<answer>B) Paris", "<answer>B) Paris"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured capturedChat
			srv := newChatServer(t, tt.reply, &captured)
			p := newTestGroq(t, srv.URL)

			resp, err := p.Generate(context.Background(), &Request{Prompt: "Capital of France?", Prefill: "<answer>"})
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if resp.Text != tt.want {
				t.Errorf("Text = %q, want %q", resp.Text, tt.want)
			}
			if len(captured.Messages) != 2 {
				t.Fatalf("expected system + user messages, got %d", len(captured.Messages))
			}
			if !strings.Contains(string(captured.Messages[0].Content), "Begin your response with exactly: \\u003canswer\\u003e") &&
				!strings.Contains(string(captured.Messages[0].Content), "Begin your response with exactly: <answer>") {
				t.Errorf("system message = %s", captured.Messages[0].Content)
			}
		})
	}
}

func TestPrefillSystemPrompt(t *testing.T) {
	tests := []struct {
		system, prefill, want string
	}{
		{"", "", ""},
		{"Be brief", "", "Be brief"},
		{"", "[", "Begin your response with exactly: ["},
		{"Be brief", "[", "Be brief\n\nBegin your response with exactly: ["},
	}
	for _, tt := range tests {
		if got := prefillSystemPrompt(tt.system, tt.prefill); got != tt.want {
			t.Errorf("prefillSystemPrompt(%q, %q) = %q, want %q", tt.system, tt.prefill, got, tt.want)
		}
	}
}

func TestApplyPrefill(t *testing.T) {
	if got := applyPrefill("abc", ""); got != "abc" {
		t.Errorf("applyPrefill(no prefill) = %q", got)
	}
	if got := applyPrefill("abc", "x"); got != "xabc" {
		t.Errorf("applyPrefill(missing) = %q", got)
	}
	if got := applyPrefill("xabc", "x"); got != "xabc" {
		t.Errorf("applyPrefill(present) = %q", got)
	}
}
