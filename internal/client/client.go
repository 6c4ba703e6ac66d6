package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/leaderboard"
	"github.com/felixgeelhaar/promptcraft/internal/llm"
)

var (
	// ErrNoAPIKey is returned when the daemon has no key for the request
	ErrNoAPIKey = errors.New("no API key configured")

	// ErrDaemonUnavailable is returned when the daemon cannot be reached
	ErrDaemonUnavailable = errors.New("daemon unavailable")
)

// APIError is a non-2xx daemon response
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("daemon returned %d: %s", e.Status, e.Message)
}

// Client talks to a promptcraft daemon
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the daemon at baseURL. Generation is bounded only
// by the caller's context, so the HTTP client sets no overall timeout.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// BaseURL returns the daemon URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health checks that the daemon is up
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return c.do(ctx, http.MethodGet, "/v1/health", nil, nil)
}

// Status is the daemon's self-report
type Status struct {
	Status        string   `json:"status"`
	Version       string   `json:"version"`
	UptimeSeconds int      `json:"uptime_seconds"`
	LLMProviders  []string `json:"llm_providers"`
	Leaderboard   string   `json:"leaderboard"`
	RateLimit     bool     `json:"rate_limit"`
}

// Status fetches the daemon status
func (c *Client) Status(ctx context.Context) (*Status, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var status Status
	if err := c.do(ctx, http.MethodGet, "/v1/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Generate sends a prompt through the daemon's proxy
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResult, error) {
	var result llm.GenerateResult
	if err := c.do(ctx, http.MethodPost, "/api/claude", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Leaderboard returns the ranked top entries
func (c *Client) Leaderboard(ctx context.Context) ([]leaderboard.RankedEntry, error) {
	var entries []leaderboard.RankedEntry
	if err := c.do(ctx, http.MethodGet, "/api/leaderboard", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Submit posts a leaderboard submission and returns the rank
func (c *Client) Submit(ctx context.Context, sub leaderboard.Submission) (int, error) {
	var resp struct {
		Success bool `json:"success"`
		Rank    int  `json:"rank"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/leaderboard", sub, &resp); err != nil {
		return 0, err
	}
	return resp.Rank, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrDaemonUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(data))
	}

	if resp.StatusCode == http.StatusUnauthorized && body.Error == "NO_API_KEY" {
		return ErrNoAPIKey
	}
	return &APIError{Status: resp.StatusCode, Message: body.Error}
}
