package domain

// ChapterStatus is the derived view of a chapter for one learner. It is
// computed from progress on every read and never persisted.
type ChapterStatus struct {
	ChapterID string `json:"chapterId"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Unlocked  bool   `json:"unlocked"`
	Complete  bool   `json:"complete"`
}

// ChapterProgress counts the chapter's passed exercises
func ChapterProgress(ch *Chapter, p *UserProgress) (completed, total int) {
	total = len(ch.Exercises)
	if p == nil {
		return 0, total
	}
	for _, ex := range ch.Exercises {
		if p.IsPassed(ex.ID) {
			completed++
		}
	}
	return completed, total
}

// IsChapterUnlocked applies the linear unlock rule: the first chapter is
// always open, every other chapter opens once its predecessor has all of its
// exercises passed. An empty predecessor never unlocks its successor.
func IsChapterUnlocked(chapters []Chapter, index int, p *UserProgress) bool {
	if index <= 0 {
		return index == 0
	}
	if index >= len(chapters) {
		return false
	}
	completed, total := ChapterProgress(&chapters[index-1], p)
	return total > 0 && completed == total
}

// ChapterStatuses derives the status of every chapter, in order
func ChapterStatuses(chapters []Chapter, p *UserProgress) []ChapterStatus {
	statuses := make([]ChapterStatus, len(chapters))
	for i := range chapters {
		completed, total := ChapterProgress(&chapters[i], p)
		statuses[i] = ChapterStatus{
			ChapterID: chapters[i].ID,
			Completed: completed,
			Total:     total,
			Unlocked:  IsChapterUnlocked(chapters, i, p),
			Complete:  total > 0 && completed == total,
		}
	}
	return statuses
}
