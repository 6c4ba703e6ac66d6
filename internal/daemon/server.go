package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/samber/lo"

	"github.com/felixgeelhaar/promptcraft/internal/config"
	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/felixgeelhaar/promptcraft/internal/leaderboard"
	"github.com/felixgeelhaar/promptcraft/internal/llm"
)

// maxBodyBytes bounds request bodies; prompts are small.
const maxBodyBytes = 1 << 20

// ProxyService forwards prompts to a model provider
type ProxyService interface {
	Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResult, error)
	Providers() []string
}

// LeaderboardService ranks learners
type LeaderboardService interface {
	Top(ctx context.Context) ([]leaderboard.RankedEntry, error)
	Submit(ctx context.Context, sub leaderboard.Submission) (int, error)
}

// Catalog is the read-only curriculum
type Catalog interface {
	Chapters() []domain.Chapter
	GetChapter(id string) (*domain.Chapter, int, error)
}

// Server represents the promptcraft daemon HTTP server
type Server struct {
	cfg     *config.LocalConfig
	server  *http.Server
	router  *http.ServeMux
	limiter ratelimit.RateLimiter
	trusted map[string]bool
	version string
	started time.Time

	// Services
	proxy       ProxyService
	leaderboard LeaderboardService
	catalog     Catalog
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Config      *config.LocalConfig
	Proxy       ProxyService
	Leaderboard LeaderboardService
	Catalog     Catalog
	Version     string
}

// NewServer creates a new daemon server
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Config == nil {
		return nil, errors.New("config is required")
	}
	if cfg.Proxy == nil || cfg.Leaderboard == nil || cfg.Catalog == nil {
		return nil, errors.New("proxy, leaderboard, and catalog are required")
	}

	s := &Server{
		cfg:         cfg.Config,
		router:      http.NewServeMux(),
		version:     cfg.Version,
		started:     time.Now(),
		proxy:       cfg.Proxy,
		leaderboard: cfg.Leaderboard,
		catalog:     cfg.Catalog,
	}

	if rl := cfg.Config.RateLimit; rl.Enabled {
		s.limiter = ratelimit.New(&ratelimit.Config{
			Rate:     rl.PerSecond,
			Burst:    rl.Burst,
			Interval: time.Second,
		})
		s.trusted = lo.SliceToMap(rl.TrustedProxies, func(ip string) (string, bool) {
			return strings.TrimSpace(ip), true
		})
	}

	s.setupRoutes()

	handler := correlationIDMiddleware(recoveryMiddleware(loggingMiddleware(s.router)))
	s.server = &http.Server{
		Addr:              cfg.Config.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health & status
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)

	// LLM proxy
	generate := s.rateLimitMiddleware(http.HandlerFunc(s.handleGenerate))
	s.router.Handle("POST /api/claude", generate)
	s.router.Handle("POST /api/generate", generate)

	// Leaderboard
	s.router.HandleFunc("GET /api/leaderboard", s.handleGetLeaderboard)
	s.router.HandleFunc("POST /api/leaderboard", s.handleSubmitLeaderboard)

	// Curriculum
	s.router.HandleFunc("GET /api/chapters", s.handleListChapters)
	s.router.HandleFunc("GET /api/chapters/{id}", s.handleGetChapter)
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("starting promptcraft daemon",
		"addr", s.server.Addr,
		"llm_providers", s.proxy.Providers(),
		"leaderboard", s.cfg.Leaderboard.Backend,
		"rate_limit", s.limiter != nil,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")

	if s.limiter != nil {
		if err := s.limiter.Close(); err != nil {
			slog.Warn("failed to close rate limiter", "error", err)
		}
	}

	return s.server.Shutdown(ctx)
}

// Handler implementations

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":         "running",
		"version":        s.version,
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"llm_providers":  s.proxy.Providers(),
		"leaderboard":    s.cfg.Leaderboard.Backend,
		"rate_limit":     s.limiter != nil,
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req llm.GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.proxy.Generate(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, llm.ErrPromptRequired), errors.Is(err, llm.ErrUnknownProvider):
			s.jsonError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, llm.ErrNoAPIKey):
			s.jsonResponse(w, http.StatusUnauthorized, map[string]string{
				"error":   "NO_API_KEY",
				"message": llm.NoAPIKeyMessage,
			})
		default:
			slog.Error("generate failed",
				"correlation_id", GetCorrelationID(r.Context()),
				"error", err,
			)
			s.jsonError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.leaderboard.Top(r.Context())
	if err != nil {
		slog.Error("leaderboard read failed", "error", err)
		s.jsonError(w, http.StatusInternalServerError, "Failed to read leaderboard")
		return
	}
	if entries == nil {
		entries = []leaderboard.RankedEntry{}
	}
	s.jsonResponse(w, http.StatusOK, entries)
}

// submitRequest keeps totalXP optional so a missing value is distinguishable
// from zero.
type submitRequest struct {
	Username          string     `json:"username"`
	TotalXP           *int       `json:"totalXP"`
	Level             string     `json:"level"`
	CompletedChapters int        `json:"completedChapters"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
}

func (s *Server) handleSubmitLeaderboard(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TotalXP == nil {
		s.jsonError(w, http.StatusBadRequest, "Username and totalXP are required")
		return
	}

	rank, err := s.leaderboard.Submit(r.Context(), leaderboard.Submission{
		Username:          req.Username,
		TotalXP:           *req.TotalXP,
		Level:             req.Level,
		CompletedChapters: req.CompletedChapters,
		CompletedAt:       req.CompletedAt,
	})
	if err != nil {
		if errors.Is(err, leaderboard.ErrInvalidSubmission) {
			s.jsonError(w, http.StatusBadRequest, "Username and totalXP are required")
			return
		}
		slog.Error("leaderboard submit failed", "error", err)
		s.jsonError(w, http.StatusInternalServerError, "Failed to update leaderboard")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"rank":    rank,
	})
}

func (s *Server) handleListChapters(w http.ResponseWriter, r *http.Request) {
	chapters := s.catalog.Chapters()
	result := make([]ChapterSummary, 0, len(chapters))
	for i := range chapters {
		result = append(result, newChapterSummary(&chapters[i]))
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"chapters": result,
		"total_xp": domain.TotalPossibleXP(chapters),
	})
}

func (s *Server) handleGetChapter(w http.ResponseWriter, r *http.Request) {
	ch, _, err := s.catalog.GetChapter(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrChapterNotFound) {
			s.jsonError(w, http.StatusNotFound, "chapter not found")
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "failed to load chapter")
		return
	}
	s.jsonResponse(w, http.StatusOK, newChapterDetail(ch))
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
