package session

import (
	"time"

	"github.com/google/uuid"
)

// Status is the derived state of an attempt session
type Status string

const (
	StatusUnattempted Status = "unattempted"
	StatusAttempted   Status = "attempted"
	StatusPassed      Status = "passed"
)

// Session tracks one sitting at an exercise: how many runs returned a
// response and whether the hint was shown. Passed is terminal; the next run
// of the exercise starts a fresh session.
type Session struct {
	ID         string     `json:"id"`
	ExerciseID string     `json:"exerciseId"`
	Attempts   int        `json:"attempts"`
	HintUsed   bool       `json:"hintUsed"`
	StartedAt  time.Time  `json:"startedAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	PassedAt   *time.Time `json:"passedAt,omitempty"`
}

// NewSession starts an unattempted session for an exercise
func NewSession(exerciseID string, now time.Time) *Session {
	return &Session{
		ID:         uuid.New().String(),
		ExerciseID: exerciseID,
		StartedAt:  now,
		UpdatedAt:  now,
	}
}

// Status derives the session state
func (s *Session) Status() Status {
	switch {
	case s.PassedAt != nil:
		return StatusPassed
	case s.Attempts > 0:
		return StatusAttempted
	default:
		return StatusUnattempted
	}
}

// RecordAttempt counts a graded run. It returns true only for the first
// passing run of the session, the one that earns the reward.
func (s *Session) RecordAttempt(passed bool, now time.Time) bool {
	s.Attempts++
	s.UpdatedAt = now
	if !passed || s.PassedAt != nil {
		return false
	}
	t := now
	s.PassedAt = &t
	return true
}

// UseHint marks the hint as shown. It stays set for the rest of the session.
func (s *Session) UseHint(now time.Time) {
	s.HintUsed = true
	s.UpdatedAt = now
}

// Elapsed returns whole seconds since the session started
func (s *Session) Elapsed(now time.Time) int {
	d := now.Sub(s.StartedAt)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}
