package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/samber/lo"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/felixgeelhaar/promptcraft/internal/leaderboard"
)

// cmdProgress shows XP, level, and badges
func cmdProgress() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	p, err := a.loadProgress()
	if err != nil {
		return err
	}

	level := p.Level()
	fmt.Printf("%s - %s\n", p.Username, level.Name)
	fmt.Println("==================")
	fmt.Printf("XP:        %d\n", p.TotalXP)
	if next, ok := domain.NextLevel(p.TotalXP); ok {
		pct := domain.XPProgress(p.TotalXP)
		fmt.Printf("Next:      %s at %d XP\n", next.Name, next.MinXP)
		fmt.Printf("           %s %d%%\n", renderProgressBar(float64(pct)/100, 20), pct)
	} else {
		fmt.Println("Next:      top level reached")
	}

	passed := lo.CountBy(lo.Values(p.CompletedExercises), func(r domain.ExerciseResult) bool { return r.Passed })
	total := lo.SumBy(a.catalog.Chapters(), func(ch domain.Chapter) int { return len(ch.Exercises) })
	fmt.Printf("Exercises: %d/%d passed\n", passed, total)
	fmt.Printf("Chapters:  %d/%d complete\n", len(p.CompletedChapters), len(a.catalog.Chapters()))

	if len(p.Badges) > 0 {
		fmt.Println("\nBadges")
		fmt.Println("------")
		for _, b := range p.Badges {
			fmt.Printf("🏅 %-28s +%d XP  %s\n", b.Name, b.BonusXP, b.EarnedAt.Local().Format("2006-01-02"))
		}
	}
	return nil
}

// cmdCertificate shows the learner's grade against the curriculum maximum
func cmdCertificate() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	p, err := a.loadProgress()
	if err != nil {
		return err
	}

	possible := domain.TotalPossibleXP(a.catalog.Chapters())
	grade := domain.LetterGrade(p.TotalXP, possible)
	pct := 0
	if possible > 0 {
		pct = p.TotalXP * 100 / possible
	}

	fmt.Println("Certificate of Prompt Engineering")
	fmt.Println("=================================")
	fmt.Printf("Awarded to: %s\n", p.Username)
	fmt.Printf("Level:      %s\n", p.Level().Name)
	fmt.Printf("Score:      %d / %d XP (%d%%)\n", p.TotalXP, possible, pct)
	fmt.Printf("Grade:      %s\n", grade)
	if p.CompletedAt != nil {
		fmt.Printf("Completed:  %s\n", p.CompletedAt.Local().Format("January 2, 2006"))
	} else {
		fmt.Println("Completed:  in progress")
	}
	return nil
}

// cmdSubmit posts the learner's score to the leaderboard
func cmdSubmit() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	p, err := a.loadProgress()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rank, err := a.client.Submit(ctx, leaderboard.Submission{
		Username:          p.Username,
		TotalXP:           p.TotalXP,
		Level:             p.Level().Name,
		CompletedChapters: len(p.CompletedChapters),
		CompletedAt:       p.CompletedAt,
	})
	if err != nil {
		return explain(err)
	}

	fmt.Printf("✓ Submitted %d XP. You are #%d.\n", p.TotalXP, rank)
	return nil
}

// cmdLeaderboard shows the top of the leaderboard
func cmdLeaderboard(args []string) error {
	fs := flag.NewFlagSet("leaderboard", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	limit := fs.Int("limit", 20, "number of entries to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entries, err := a.client.Leaderboard(ctx)
	if err != nil {
		return explain(err)
	}
	if len(entries) == 0 {
		fmt.Println("The leaderboard is empty. Be the first: promptcraft submit")
		return nil
	}

	var me string
	if p, err := a.progress.Load(); err == nil {
		me = leaderboard.Key(p.Username)
	}

	fmt.Println("Leaderboard")
	fmt.Println("===========")
	for _, e := range lo.Slice(entries, 0, *limit) {
		marker := " "
		if e.Key() == me {
			marker = "▸"
		}
		fmt.Printf("%s %3d. %-20s %5d XP  %-13s %d chapters\n", marker, e.Rank, e.Username, e.TotalXP, e.Level, e.CompletedChapters)
	}
	return nil
}

// cmdReset erases local progress and attempt sessions. Stored keys are kept.
func cmdReset(args []string) error {
	if len(args) == 0 || args[0] != "--yes" {
		return fmt.Errorf("this erases all local progress; confirm with 'promptcraft reset --yes'")
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	if err := a.progress.Reset(); err != nil {
		return err
	}
	if err := a.sessions.Clear(); err != nil {
		return err
	}

	fmt.Println("✓ Progress reset. Start again with 'promptcraft init <username>'.")
	return nil
}
