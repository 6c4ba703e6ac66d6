package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/felixgeelhaar/promptcraft/internal/llm"
	"github.com/felixgeelhaar/promptcraft/internal/session"
)

// ErrChapterLocked is returned when running an exercise whose chapter has
// not been unlocked yet.
var ErrChapterLocked = errors.New("chapter is locked")

// Generator produces a model response. Both the daemon client and the
// in-process proxy satisfy it.
type Generator interface {
	Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResult, error)
}

// Catalog is the read-only curriculum
type Catalog interface {
	Chapters() []domain.Chapter
	GetExercise(id string) (*domain.Exercise, error)
	ChapterOf(exerciseID string) (*domain.Chapter, int, error)
}

// ProgressStore loads and saves the learner's progress
type ProgressStore interface {
	Load() (*domain.UserProgress, error)
	Save(p *domain.UserProgress) error
}

// SessionStore keeps attempt sessions per exercise
type SessionStore interface {
	Open(exerciseID string, now time.Time) *session.Session
	Save(s *session.Session) error
}

// KeySource supplies the learner's stored provider keys
type KeySource interface {
	Get(provider string) string
	Active() (provider, key string, ok bool)
}

// RunRequest is one attempt at an exercise. Empty prompt fields fall back to
// the exercise's initial templates.
type RunRequest struct {
	ExerciseID   string
	Prompt       string
	SystemPrompt string
	Prefill      string
	Provider     string
	APIKey       string
}

// RunResult reports the outcome of a run. FirstPass is set on the run that
// earned the session's reward; CurriculumComplete on the run that finished
// the last chapter. XPGained is how much the exercise result raised TotalXP,
// not counting a chapter bonus; it is below XPAwarded when an earlier result
// is improved on.
type RunResult struct {
	ExerciseID         string
	Response           string
	Model              string
	Provider           string
	Passed             bool
	FirstPass          bool
	Attempts           int
	HintUsed           bool
	XPAwarded          int
	XPGained           int
	Improved           bool
	TotalXP            int
	Badge              *domain.Badge
	CurriculumComplete bool
}

// Service runs exercises: substitute, generate, grade, reward, persist.
type Service struct {
	catalog   Catalog
	generator Generator
	progress  ProgressStore
	sessions  SessionStore
	keys      KeySource
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithKeys sets the stored-key source used when a request carries no key
func WithKeys(k KeySource) Option {
	return func(s *Service) { s.keys = k }
}

// WithLogger sets the service logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new runner service
func NewService(catalog Catalog, generator Generator, progress ProgressStore, sessions SessionStore, opts ...Option) *Service {
	s := &Service{
		catalog:   catalog,
		generator: generator,
		progress:  progress,
		sessions:  sessions,
		logger:    slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one attempt. Generation errors are returned without counting
// as an attempt; a failed grade never touches stored progress.
func (s *Service) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	ex, err := s.catalog.GetExercise(req.ExerciseID)
	if err != nil {
		return nil, err
	}

	p, err := s.progress.Load()
	if err != nil {
		return nil, err
	}

	ch, idx, err := s.catalog.ChapterOf(ex.ID)
	if err != nil {
		return nil, err
	}
	chapters := s.catalog.Chapters()
	if !domain.IsChapterUnlocked(chapters, idx, p) {
		return nil, fmt.Errorf("%w: %s", ErrChapterLocked, ch.ID)
	}

	now := s.now()
	sess := s.sessions.Open(ex.ID, now)

	resp, err := s.generator.Generate(ctx, s.buildRequest(ex, req))
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	now = s.now()
	passed := ex.Grade(resp.Text)
	firstPass := sess.RecordAttempt(passed, now)

	result := &RunResult{
		ExerciseID: ex.ID,
		Response:   resp.Text,
		Model:      resp.Model,
		Provider:   resp.Provider,
		Passed:     passed,
		FirstPass:  firstPass,
		Attempts:   sess.Attempts,
		HintUsed:   sess.HintUsed,
		TotalXP:    p.TotalXP,
	}

	if firstPass {
		s.award(p, ch, chapters, ex, sess, now, result)
	}

	if err := s.sessions.Save(sess); err != nil {
		s.logger.Warn("failed to save session", "exercise", ex.ID, "error", err)
	}

	s.logger.Debug("exercise run",
		"exercise", ex.ID,
		"passed", passed,
		"attempts", sess.Attempts,
		"xp", result.XPAwarded,
	)
	return result, nil
}

func (s *Service) award(p *domain.UserProgress, ch *domain.Chapter, chapters []domain.Chapter, ex *domain.Exercise, sess *session.Session, now time.Time, result *RunResult) {
	xp := domain.CalculateXPForExercise(sess.Attempts, sess.HintUsed, ex.XPReward)
	result.XPAwarded = xp
	before := p.TotalXP
	result.Improved = p.RecordResult(domain.ExerciseResult{
		ExerciseID:  ex.ID,
		Passed:      true,
		XPEarned:    xp,
		Attempts:    sess.Attempts,
		UsedHint:    sess.HintUsed,
		CompletedAt: now,
		TimeTaken:   sess.Elapsed(now),
	})
	result.XPGained = p.TotalXP - before

	if completed, total := domain.ChapterProgress(ch, p); total > 0 && completed == total {
		if p.CompleteChapter(ch, now) {
			badge := p.Badges[len(p.Badges)-1]
			result.Badge = &badge
		}
	}

	allDone := lo.EveryBy(chapters, func(c domain.Chapter) bool {
		return p.IsChapterComplete(c.ID)
	})
	if allDone && p.MarkCompleted(now) {
		result.CurriculumComplete = true
	}

	result.TotalXP = p.TotalXP
	if err := s.progress.Save(p); err != nil {
		s.logger.Warn("failed to save progress", "exercise", ex.ID, "error", err)
	}
}

func (s *Service) buildRequest(ex *domain.Exercise, req RunRequest) llm.GenerateRequest {
	prompt := lo.Ternary(req.Prompt != "", req.Prompt, ex.InitialPrompt)
	system := lo.Ternary(req.SystemPrompt != "", req.SystemPrompt, ex.InitialSystemPrompt)
	prefill := lo.Ternary(req.Prefill != "", req.Prefill, ex.InitialPrefill)

	greq := llm.GenerateRequest{
		Prompt:       Substitute(prompt, ex.TestInputs),
		SystemPrompt: Substitute(system, ex.TestInputs),
		Prefill:      Substitute(prefill, ex.TestInputs),
		Provider:     req.Provider,
		APIKey:       req.APIKey,
	}

	if greq.APIKey == "" && s.keys != nil {
		if greq.Provider != "" {
			greq.APIKey = s.keys.Get(greq.Provider)
		} else if provider, key, ok := s.keys.Active(); ok {
			greq.Provider = provider
			greq.APIKey = key
		}
	}
	return greq
}

// Hint marks the hint as shown for the exercise's current session and
// returns it. The reward for the session's pass is reduced accordingly.
func (s *Service) Hint(exerciseID string) (string, error) {
	ex, err := s.catalog.GetExercise(exerciseID)
	if err != nil {
		return "", err
	}

	now := s.now()
	sess := s.sessions.Open(ex.ID, now)
	sess.UseHint(now)
	if err := s.sessions.Save(sess); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return ex.Hint, nil
}
