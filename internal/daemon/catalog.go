package daemon

import "github.com/felixgeelhaar/promptcraft/internal/domain"

// ChapterSummary is the catalog listing view of a chapter
type ChapterSummary struct {
	ID            string            `json:"id"`
	Number        int               `json:"number"`
	Title         string            `json:"title"`
	Subtitle      string            `json:"subtitle"`
	Description   string            `json:"description"`
	Difficulty    domain.Difficulty `json:"difficulty"`
	XPBonus       int               `json:"xpBonus"`
	ExerciseCount int               `json:"exerciseCount"`
	MaxXP         int               `json:"maxXP"`
}

// ChapterDetail is a chapter with its exercises, without grading rules or
// hints.
type ChapterDetail struct {
	ChapterSummary
	LessonContent string         `json:"lessonContent,omitempty"`
	Exercises     []ExerciseView `json:"exercises"`
}

// ExerciseView is the public face of an exercise. The grading rule is
// described, never exposed.
type ExerciseView struct {
	ID                  string            `json:"id"`
	Title               string            `json:"title"`
	Description         string            `json:"description"`
	Instruction         string            `json:"instruction"`
	InitialPrompt       string            `json:"initialPrompt"`
	InitialSystemPrompt string            `json:"initialSystemPrompt,omitempty"`
	InitialPrefill      string            `json:"initialPrefill,omitempty"`
	GradingDescription  string            `json:"gradingDescription"`
	XPReward            int               `json:"xpReward"`
	HasSystemPrompt     bool              `json:"hasSystemPrompt"`
	HasPrefill          bool              `json:"hasPrefill"`
	TestInputs          map[string]string `json:"testInputs,omitempty"`
}

func newChapterSummary(ch *domain.Chapter) ChapterSummary {
	return ChapterSummary{
		ID:            ch.ID,
		Number:        ch.Number,
		Title:         ch.Title,
		Subtitle:      ch.Subtitle,
		Description:   ch.Description,
		Difficulty:    ch.Difficulty,
		XPBonus:       ch.XPBonus,
		ExerciseCount: len(ch.Exercises),
		MaxXP:         ch.MaxXP(),
	}
}

func newChapterDetail(ch *domain.Chapter) ChapterDetail {
	exercises := make([]ExerciseView, len(ch.Exercises))
	for i, ex := range ch.Exercises {
		exercises[i] = ExerciseView{
			ID:                  ex.ID,
			Title:               ex.Title,
			Description:         ex.Description,
			Instruction:         ex.Instruction,
			InitialPrompt:       ex.InitialPrompt,
			InitialSystemPrompt: ex.InitialSystemPrompt,
			InitialPrefill:      ex.InitialPrefill,
			GradingDescription:  ex.GradingDescription,
			XPReward:            ex.XPReward,
			HasSystemPrompt:     ex.HasSystemPrompt,
			HasPrefill:          ex.HasPrefill,
			TestInputs:          ex.TestInputs,
		}
	}
	return ChapterDetail{
		ChapterSummary: newChapterSummary(ch),
		LessonContent:  ch.LessonContent,
		Exercises:      exercises,
	}
}
