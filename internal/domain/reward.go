package domain

// Reward multipliers, in percent.
const (
	hintPercent         = 70
	firstAttemptPercent = 100
	secondTryPercent    = 85
	laterTryPercent     = 70
)

// CalculateXPForExercise returns the XP earned for passing an exercise.
// A hint costs 30% and is applied first; the attempt multiplier follows
// (1 attempt: full, 2: 85%, 3 or more: 70%). Each step rounds half up, so
// base 100 with a hint on the second attempt yields 70 then 60.
func CalculateXPForExercise(attempts int, usedHint bool, baseXP int) int {
	if baseXP < 0 {
		baseXP = 0
	}
	if attempts < 1 {
		attempts = 1
	}

	xp := baseXP
	if usedHint {
		xp = applyPercent(xp, hintPercent)
	}

	switch attempts {
	case 1:
		xp = applyPercent(xp, firstAttemptPercent)
	case 2:
		xp = applyPercent(xp, secondTryPercent)
	default:
		xp = applyPercent(xp, laterTryPercent)
	}
	return xp
}

// applyPercent scales a non-negative value and rounds half up using integer
// arithmetic. Float math would turn 70*0.85 into 59.49999 and round it down.
func applyPercent(v, pct int) int {
	return (v*pct + 50) / 100
}
