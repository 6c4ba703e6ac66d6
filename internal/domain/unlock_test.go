package domain

import "testing"

func TestIsChapterUnlocked(t *testing.T) {
	chapters := []Chapter{
		testChapter("ch1", 50, "ex1_1", "ex1_2"),
		testChapter("ch2", 50, "ex2_1"),
		testChapter("ch3", 50, "ex3_1"),
	}

	p := newTestProgress(t)

	if !IsChapterUnlocked(chapters, 0, p) {
		t.Error("first chapter should always be unlocked")
	}
	if !IsChapterUnlocked(chapters, 0, nil) {
		t.Error("first chapter should be unlocked without progress")
	}
	if IsChapterUnlocked(chapters, 1, p) {
		t.Error("ch2 should be locked with no progress")
	}

	p.RecordResult(ExerciseResult{ExerciseID: "ex1_1", Passed: true, XPEarned: 100})
	if IsChapterUnlocked(chapters, 1, p) {
		t.Error("ch2 should stay locked with 1/2 of ch1 passed")
	}

	p.RecordResult(ExerciseResult{ExerciseID: "ex1_2", Passed: true, XPEarned: 100})
	if !IsChapterUnlocked(chapters, 1, p) {
		t.Error("ch2 should unlock once ch1 is fully passed")
	}
	if IsChapterUnlocked(chapters, 2, p) {
		t.Error("ch3 should stay locked until ch2 is passed")
	}

	if IsChapterUnlocked(chapters, 5, p) || IsChapterUnlocked(chapters, -1, p) {
		t.Error("out-of-range indexes should be locked")
	}
}

func TestIsChapterUnlocked_EmptyPredecessor(t *testing.T) {
	chapters := []Chapter{
		{ID: "empty"},
		testChapter("ch2", 50, "ex2_1"),
	}
	if IsChapterUnlocked(chapters, 1, newTestProgress(t)) {
		t.Error("a chapter after an empty chapter should stay locked")
	}
}

func TestChapterStatuses(t *testing.T) {
	chapters := []Chapter{
		testChapter("ch1", 50, "ex1_1", "ex1_2"),
		testChapter("ch2", 50, "ex2_1"),
	}
	p := newTestProgress(t)
	p.RecordResult(ExerciseResult{ExerciseID: "ex1_1", Passed: true, XPEarned: 100})

	statuses := ChapterStatuses(chapters, p)
	if len(statuses) != 2 {
		t.Fatalf("len(statuses) = %d, want 2", len(statuses))
	}

	ch1 := statuses[0]
	if ch1.Completed != 1 || ch1.Total != 2 || !ch1.Unlocked || ch1.Complete {
		t.Errorf("ch1 status = %+v", ch1)
	}
	ch2 := statuses[1]
	if ch2.Unlocked || ch2.Complete {
		t.Errorf("ch2 status = %+v", ch2)
	}
}

func TestLetterGrade(t *testing.T) {
	tests := []struct {
		xp, total int
		want      string
	}{
		{950, 1000, "A+"},
		{900, 1000, "A+"},
		{850, 1000, "A"},
		{700, 1000, "B"},
		{600, 1000, "C"},
		{599, 1000, "D"},
		{0, 0, "D"},
	}
	for _, tt := range tests {
		if got := LetterGrade(tt.xp, tt.total); got != tt.want {
			t.Errorf("LetterGrade(%d, %d) = %q, want %q", tt.xp, tt.total, got, tt.want)
		}
	}
}

func TestTotalPossibleXP(t *testing.T) {
	chapters := []Chapter{
		testChapter("ch1", 50, "a", "b"),
		testChapter("ch2", 100, "c"),
	}
	if got := TotalPossibleXP(chapters); got != 450 {
		t.Errorf("TotalPossibleXP() = %d, want 450", got)
	}
}
