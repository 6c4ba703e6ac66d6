package domain

import "github.com/felixgeelhaar/promptcraft/internal/grading"

// Exercise is a single graded prompt-writing task
type Exercise struct {
	ID                  string            `json:"id"`
	ChapterID           string            `json:"chapterId"`
	Title               string            `json:"title"`
	Description         string            `json:"description"`
	Instruction         string            `json:"instruction"`
	InitialPrompt       string            `json:"initialPrompt"`
	InitialSystemPrompt string            `json:"initialSystemPrompt,omitempty"`
	InitialPrefill      string            `json:"initialPrefill,omitempty"`
	Hint                string            `json:"hint"`
	Rule                grading.Rule      `json:"rule"`
	GradingDescription  string            `json:"gradingDescription"`
	XPReward            int               `json:"xpReward"`
	HasSystemPrompt     bool              `json:"hasSystemPrompt"`
	HasPrefill          bool              `json:"hasPrefill"`
	TestInputs          map[string]string `json:"testInputs,omitempty"`
}

// Grade reports whether a model response passes this exercise
func (e *Exercise) Grade(text string) bool {
	return grading.Evaluate(e.Rule, text)
}

// Difficulty represents chapter difficulty
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// Chapter is an ordered group of exercises carrying a completion bonus
type Chapter struct {
	ID            string     `json:"id"`
	Number        int        `json:"number"`
	Title         string     `json:"title"`
	Subtitle      string     `json:"subtitle"`
	Description   string     `json:"description"`
	Difficulty    Difficulty `json:"difficulty"`
	XPBonus       int        `json:"xpBonus"`
	LessonContent string     `json:"lessonContent,omitempty"`
	Exercises     []Exercise `json:"exercises"`
}

// ExerciseIDs returns the chapter's exercise IDs in order
func (c *Chapter) ExerciseIDs() []string {
	ids := make([]string, len(c.Exercises))
	for i, ex := range c.Exercises {
		ids[i] = ex.ID
	}
	return ids
}

// MaxXP is the XP available from a chapter: every exercise at full reward plus the bonus
func (c *Chapter) MaxXP() int {
	total := c.XPBonus
	for _, ex := range c.Exercises {
		total += ex.XPReward
	}
	return total
}
