package domain

import "errors"

// Curriculum errors
var (
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrChapterNotFound  = errors.New("chapter not found")
)

// Progress errors
var (
	ErrNoProgress      = errors.New("no progress recorded")
	ErrInvalidUsername = errors.New("invalid username")
)
