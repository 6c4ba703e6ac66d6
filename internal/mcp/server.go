package mcp

import (
	"context"
	"errors"
	"fmt"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"
	"github.com/samber/lo"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/felixgeelhaar/promptcraft/internal/exercise"
	"github.com/felixgeelhaar/promptcraft/internal/leaderboard"
)

const defaultLeaderboardLimit = 10

// Catalog is the curriculum the tools read from
type Catalog interface {
	Chapters() []domain.Chapter
	GetExercise(id string) (*domain.Exercise, error)
	Search(query string) []exercise.SearchResult
}

// ProgressSource loads the local learner's progress
type ProgressSource interface {
	Load() (*domain.UserProgress, error)
}

// LeaderboardSource reads the ranked leaderboard
type LeaderboardSource interface {
	Leaderboard(ctx context.Context) ([]leaderboard.RankedEntry, error)
}

// Server wraps the MCP server with curriculum, grading, and leaderboard tools
type Server struct {
	mcpServer   *server.Server
	catalog     Catalog
	progress    ProgressSource
	leaderboard LeaderboardSource
}

// Config contains configuration for the MCP server
type Config struct {
	Catalog     Catalog
	Progress    ProgressSource
	Leaderboard LeaderboardSource
	Version     string
}

// NewServer creates a new MCP server
func NewServer(cfg Config) *Server {
	s := &Server{
		catalog:     cfg.Catalog,
		progress:    cfg.Progress,
		leaderboard: cfg.Leaderboard,
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s.mcpServer = server.New(server.Info{
		Name:    "promptcraft",
		Version: version,
	}, server.WithInstructions(`
Promptcraft is an interactive prompt-engineering tutorial.
Learners write prompts for graded exercises organized in chapters that unlock in order.

Available tools:
- list_chapters: List chapters with their exercises and unlock status
- get_exercise: Show an exercise's instructions and starting prompts
- find_exercise: Fuzzy-search exercises by id, title, or description
- grade_response: Check a model response against an exercise's grader
- calculate_xp: Compute the XP reward for a pass
- leaderboard_top: Show the top of the leaderboard

Grading is local and does not change the learner's progress.
`))

	s.registerTools()

	return s
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcpServer.Tool("list_chapters").
		Description("List chapters in order with exercise IDs, XP, and unlock status.").
		Handler(s.handleListChapters)

	s.mcpServer.Tool("get_exercise").
		Description("Get an exercise's instruction, starting prompts, and grading criteria.").
		Handler(s.handleGetExercise)

	s.mcpServer.Tool("find_exercise").
		Description("Fuzzy-search exercises by ID, title, or description.").
		Handler(s.handleFindExercise)

	s.mcpServer.Tool("grade_response").
		Description("Grade a model response against an exercise. Does not record progress.").
		Handler(s.handleGradeResponse)

	s.mcpServer.Tool("calculate_xp").
		Description("Calculate the XP awarded for passing after a number of attempts, with or without a hint.").
		Handler(s.handleCalculateXP)

	s.mcpServer.Tool("leaderboard_top").
		Description("Show the top entries of the leaderboard.").
		Handler(s.handleLeaderboardTop)
}

// Input/Output types for tools

type ListChaptersInput struct{}

type ChapterInfo struct {
	ID         string   `json:"id"`
	Number     int      `json:"number"`
	Title      string   `json:"title"`
	Difficulty string   `json:"difficulty"`
	XPBonus    int      `json:"xp_bonus"`
	Exercises  []string `json:"exercises"`
	Completed  int      `json:"completed"`
	Unlocked   bool     `json:"unlocked"`
}

type ListChaptersOutput struct {
	Chapters []ChapterInfo `json:"chapters"`
	TotalXP  int           `json:"total_xp"`
	EarnedXP int           `json:"earned_xp"`
}

type ExerciseInput struct {
	ExerciseID string `json:"exercise_id" jsonschema:"description=Exercise ID such as ex1_1"`
}

type ExerciseOutput struct {
	ID                  string            `json:"id"`
	ChapterID           string            `json:"chapter_id"`
	Title               string            `json:"title"`
	Instruction         string            `json:"instruction"`
	InitialPrompt       string            `json:"initial_prompt"`
	InitialSystemPrompt string            `json:"initial_system_prompt,omitempty"`
	InitialPrefill      string            `json:"initial_prefill,omitempty"`
	GradingDescription  string            `json:"grading_description"`
	XPReward            int               `json:"xp_reward"`
	TestInputs          map[string]string `json:"test_inputs,omitempty"`
	Passed              bool              `json:"passed"`
}

type FindInput struct {
	Query string `json:"query" jsonschema:"description=Search text, matched fuzzily"`
}

type FindMatch struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Distance int    `json:"distance"`
}

type FindOutput struct {
	Matches []FindMatch `json:"matches"`
}

type GradeInput struct {
	ExerciseID string `json:"exercise_id" jsonschema:"description=Exercise ID such as ex1_1"`
	Response   string `json:"response" jsonschema:"description=Model response text to grade"`
}

type GradeOutput struct {
	Passed             bool   `json:"passed"`
	GradingDescription string `json:"grading_description"`
}

type CalculateXPInput struct {
	Attempts   int    `json:"attempts" jsonschema:"description=Attempts including the passing one (minimum 1)"`
	UsedHint   bool   `json:"used_hint,omitempty" jsonschema:"description=Whether the hint was shown"`
	BaseXP     int    `json:"base_xp,omitempty" jsonschema:"description=Base XP; ignored when exercise_id is set"`
	ExerciseID string `json:"exercise_id,omitempty" jsonschema:"description=Take the base XP from this exercise"`
}

type CalculateXPOutput struct {
	BaseXP int `json:"base_xp"`
	XP     int `json:"xp"`
}

type LeaderboardInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"description=Maximum entries to return (default 10)"`
}

type LeaderboardOutput struct {
	Entries []leaderboard.RankedEntry `json:"entries"`
}

// Tool handlers

func (s *Server) handleListChapters(ctx context.Context, input ListChaptersInput) (ListChaptersOutput, error) {
	chapters := s.catalog.Chapters()
	p := s.loadProgress()

	out := ListChaptersOutput{TotalXP: domain.TotalPossibleXP(chapters)}
	if p != nil {
		out.EarnedXP = p.TotalXP
	}

	for i, status := range domain.ChapterStatuses(chapters, p) {
		ch := &chapters[i]
		out.Chapters = append(out.Chapters, ChapterInfo{
			ID:         ch.ID,
			Number:     ch.Number,
			Title:      ch.Title,
			Difficulty: string(ch.Difficulty),
			XPBonus:    ch.XPBonus,
			Exercises:  ch.ExerciseIDs(),
			Completed:  status.Completed,
			Unlocked:   status.Unlocked,
		})
	}
	return out, nil
}

func (s *Server) handleGetExercise(ctx context.Context, input ExerciseInput) (ExerciseOutput, error) {
	ex, err := s.catalog.GetExercise(input.ExerciseID)
	if err != nil {
		return ExerciseOutput{}, err
	}

	out := ExerciseOutput{
		ID:                  ex.ID,
		ChapterID:           ex.ChapterID,
		Title:               ex.Title,
		Instruction:         ex.Instruction,
		InitialPrompt:       ex.InitialPrompt,
		InitialSystemPrompt: ex.InitialSystemPrompt,
		InitialPrefill:      ex.InitialPrefill,
		GradingDescription:  ex.GradingDescription,
		XPReward:            ex.XPReward,
		TestInputs:          ex.TestInputs,
	}
	if p := s.loadProgress(); p != nil {
		out.Passed = p.IsPassed(ex.ID)
	}
	return out, nil
}

func (s *Server) handleFindExercise(ctx context.Context, input FindInput) (FindOutput, error) {
	results := s.catalog.Search(input.Query)
	return FindOutput{
		Matches: lo.Map(results, func(r exercise.SearchResult, _ int) FindMatch {
			return FindMatch{ID: r.Exercise.ID, Title: r.Exercise.Title, Distance: r.Distance}
		}),
	}, nil
}

func (s *Server) handleGradeResponse(ctx context.Context, input GradeInput) (GradeOutput, error) {
	ex, err := s.catalog.GetExercise(input.ExerciseID)
	if err != nil {
		return GradeOutput{}, err
	}
	return GradeOutput{
		Passed:             ex.Grade(input.Response),
		GradingDescription: ex.GradingDescription,
	}, nil
}

func (s *Server) handleCalculateXP(ctx context.Context, input CalculateXPInput) (CalculateXPOutput, error) {
	base := input.BaseXP
	if input.ExerciseID != "" {
		ex, err := s.catalog.GetExercise(input.ExerciseID)
		if err != nil {
			return CalculateXPOutput{}, err
		}
		base = ex.XPReward
	}
	if base < 0 {
		return CalculateXPOutput{}, fmt.Errorf("base_xp must not be negative")
	}

	return CalculateXPOutput{
		BaseXP: base,
		XP:     domain.CalculateXPForExercise(input.Attempts, input.UsedHint, base),
	}, nil
}

func (s *Server) handleLeaderboardTop(ctx context.Context, input LeaderboardInput) (LeaderboardOutput, error) {
	if s.leaderboard == nil {
		return LeaderboardOutput{}, errors.New("leaderboard is not available")
	}

	entries, err := s.leaderboard.Leaderboard(ctx)
	if err != nil {
		return LeaderboardOutput{}, fmt.Errorf("fetch leaderboard: %w", err)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []leaderboard.RankedEntry{}
	}
	return LeaderboardOutput{Entries: entries}, nil
}

// loadProgress returns nil when there is no progress source or no progress
func (s *Server) loadProgress() *domain.UserProgress {
	if s.progress == nil {
		return nil
	}
	p, err := s.progress.Load()
	if err != nil {
		return nil
	}
	return p
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server over HTTP
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
