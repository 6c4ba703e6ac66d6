package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

// ExerciseResult is the best recorded outcome for one exercise
type ExerciseResult struct {
	ExerciseID  string    `json:"exerciseId"`
	Passed      bool      `json:"passed"`
	XPEarned    int       `json:"xpEarned"`
	Attempts    int       `json:"attempts"`
	UsedHint    bool      `json:"usedHint"`
	CompletedAt time.Time `json:"completedAt"`
	TimeTaken   int       `json:"timeTaken"` // seconds
}

// Badge is awarded once per completed chapter and carries its bonus XP
type Badge struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ChapterID   string    `json:"chapterId"`
	BonusXP     int       `json:"bonusXP"`
	EarnedAt    time.Time `json:"earnedAt"`
}

// UserProgress is a learner's complete state. TotalXP is derived from the
// recorded results and badges after every mutation and never added to
// directly.
type UserProgress struct {
	Username           string                    `json:"username"`
	TotalXP            int                       `json:"totalXP"`
	CompletedExercises map[string]ExerciseResult `json:"completedExercises"`
	CompletedChapters  []string                  `json:"completedChapters"`
	Badges             []Badge                   `json:"badges"`
	StartedAt          time.Time                 `json:"startedAt"`
	CompletedAt        *time.Time                `json:"completedAt,omitempty"`
}

// NewUserProgress starts an empty progress record
func NewUserProgress(username string, now time.Time) (*UserProgress, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidUsername)
	}
	return &UserProgress{
		Username:           username,
		CompletedExercises: make(map[string]ExerciseResult),
		CompletedChapters:  []string{},
		Badges:             []Badge{},
		StartedAt:          now,
	}, nil
}

// Level returns the learner's current tier
func (p *UserProgress) Level() Level {
	return LevelForXP(p.TotalXP)
}

// IsPassed reports whether an exercise has ever been passed
func (p *UserProgress) IsPassed(exerciseID string) bool {
	r, ok := p.CompletedExercises[exerciseID]
	return ok && r.Passed
}

// IsChapterComplete reports whether the chapter bonus has been awarded
func (p *UserProgress) IsChapterComplete(chapterID string) bool {
	return lo.Contains(p.CompletedChapters, chapterID)
}

// RecordResult stores a result if it improves on the stored one. XP only
// ever goes up and a passed exercise stays passed. It returns true when the
// stored state changed.
func (p *UserProgress) RecordResult(r ExerciseResult) bool {
	if p.CompletedExercises == nil {
		p.CompletedExercises = make(map[string]ExerciseResult)
	}

	existing, ok := p.CompletedExercises[r.ExerciseID]
	if ok && r.XPEarned <= existing.XPEarned && (existing.Passed || !r.Passed) {
		return false
	}

	if ok {
		if r.XPEarned < existing.XPEarned {
			r.XPEarned = existing.XPEarned
		}
		r.Passed = r.Passed || existing.Passed
	}
	p.CompletedExercises[r.ExerciseID] = r
	p.recomputeTotal()
	return true
}

// CompleteChapter awards the chapter badge and bonus. It is idempotent: a
// chapter already in CompletedChapters is left untouched and false is
// returned.
func (p *UserProgress) CompleteChapter(ch *Chapter, now time.Time) bool {
	if p.IsChapterComplete(ch.ID) {
		return false
	}

	p.CompletedChapters = append(p.CompletedChapters, ch.ID)
	p.Badges = append(p.Badges, Badge{
		ID:          "badge_" + ch.ID,
		Name:        "Chapter Complete",
		Description: fmt.Sprintf("Completed chapter %d: %s", ch.Number, ch.Title),
		ChapterID:   ch.ID,
		BonusXP:     ch.XPBonus,
		EarnedAt:    now,
	})
	p.recomputeTotal()
	return true
}

// MarkCompleted records the time the whole curriculum was finished. Only the
// first call has an effect.
func (p *UserProgress) MarkCompleted(now time.Time) bool {
	if p.CompletedAt != nil {
		return false
	}
	t := now
	p.CompletedAt = &t
	return true
}

func (p *UserProgress) recomputeTotal() {
	exerciseXP := lo.SumBy(lo.Values(p.CompletedExercises), func(r ExerciseResult) int {
		return r.XPEarned
	})
	bonusXP := lo.SumBy(p.Badges, func(b Badge) int {
		return b.BonusXP
	})
	p.TotalXP = exerciseXP + bonusXP
}
