package domain

// TotalPossibleXP sums the maximum XP of every chapter
func TotalPossibleXP(chapters []Chapter) int {
	total := 0
	for i := range chapters {
		total += chapters[i].MaxXP()
	}
	return total
}

// LetterGrade maps earned XP against the curriculum maximum to a grade
func LetterGrade(xp, totalPossible int) string {
	if totalPossible <= 0 {
		return "D"
	}
	pct := xp * 100 / totalPossible
	switch {
	case pct >= 90:
		return "A+"
	case pct >= 80:
		return "A"
	case pct >= 70:
		return "B"
	case pct >= 60:
		return "C"
	default:
		return "D"
	}
}
