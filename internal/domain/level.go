package domain

import "fmt"

// Level is a rank tier on the XP ladder
type Level struct {
	Name  string `json:"name"`
	MinXP int    `json:"minXP"`
}

// Levels is the rank ladder, ordered by strictly increasing MinXP
var Levels = []Level{
	{Name: "Novice", MinXP: 0},
	{Name: "Apprentice", MinXP: 300},
	{Name: "Practitioner", MinXP: 700},
	{Name: "Expert", MinXP: 1200},
	{Name: "Master", MinXP: 1800},
	{Name: "Grandmaster", MinXP: 2400},
}

func init() {
	if err := validateLadder(Levels); err != nil {
		panic(err)
	}
}

// validateLadder guarantees XPProgress never divides by zero.
func validateLadder(levels []Level) error {
	if len(levels) == 0 {
		return fmt.Errorf("level ladder is empty")
	}
	if levels[0].MinXP != 0 {
		return fmt.Errorf("level ladder must start at 0, got %d", levels[0].MinXP)
	}
	for i := 1; i < len(levels); i++ {
		if levels[i].MinXP <= levels[i-1].MinXP {
			return fmt.Errorf("level %q threshold %d is not above %q threshold %d",
				levels[i].Name, levels[i].MinXP, levels[i-1].Name, levels[i-1].MinXP)
		}
	}
	return nil
}

// LevelForXP returns the highest tier whose threshold is <= xp
func LevelForXP(xp int) Level {
	level := Levels[0]
	for _, l := range Levels {
		if xp < l.MinXP {
			break
		}
		level = l
	}
	return level
}

// NextLevel returns the first tier whose threshold is above xp
func NextLevel(xp int) (Level, bool) {
	for _, l := range Levels {
		if xp < l.MinXP {
			return l, true
		}
	}
	return Level{}, false
}

// XPProgress returns progress from the current tier to the next, as a
// percentage in [0,100]. The top tier always reports 100.
func XPProgress(xp int) int {
	next, ok := NextLevel(xp)
	if !ok {
		return 100
	}
	current := LevelForXP(xp)
	span := next.MinXP - current.MinXP
	progress := xp - current.MinXP
	if progress <= 0 {
		return 0
	}

	pct := (progress*200 + span) / (span * 2)
	if pct > 100 {
		return 100
	}
	return pct
}
