package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/config"
	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/felixgeelhaar/promptcraft/internal/runner"
)

// cmdInit creates a learner profile
func cmdInit(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("username required (e.g., promptcraft init ada)")
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	if existing, err := a.progress.Load(); err == nil {
		fmt.Printf("Profile for %s already exists (%d XP).\n", existing.Username, existing.TotalXP)
		fmt.Println("Run 'promptcraft reset --yes' first to start over.")
		return nil
	}

	if _, err := os.Stat(filepath.Join(a.dir, "config.yaml")); os.IsNotExist(err) {
		if err := config.SaveLocalConfig(config.DefaultLocalConfig()); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Printf("Created %s\n", filepath.Join(a.dir, "config.yaml"))
	}

	p, err := domain.NewUserProgress(strings.Join(args, " "), time.Now().UTC())
	if err != nil {
		return err
	}
	if err := a.progress.Save(p); err != nil {
		return err
	}

	fmt.Printf("Welcome, %s!\n\n", p.Username)
	fmt.Println("Next steps:")
	fmt.Println("  1. promptcraft key set anthropic <key>   # or: key set groq <key>")
	fmt.Println("  2. promptcraft start                     # Start the daemon")
	fmt.Println("  3. promptcraft chapters                  # See the curriculum")
	fmt.Println("  4. promptcraft exercise ex1_1            # Read your first exercise")
	return nil
}

// cmdChapters lists chapters with unlock status and progress
func cmdChapters() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	chapters := a.catalog.Chapters()
	p, _ := a.progress.Load()

	for i, status := range domain.ChapterStatuses(chapters, p) {
		ch := &chapters[i]
		marker := "🔒"
		switch {
		case status.Complete:
			marker = "✓"
		case status.Unlocked:
			marker = "▸"
		}

		fmt.Printf("%s Chapter %d: %s (%s, +%d XP bonus)\n", marker, ch.Number, ch.Title, ch.Difficulty, ch.XPBonus)
		fmt.Printf("   %s %d/%d\n", renderProgressBar(float64(status.Completed)/float64(max(status.Total, 1)), 20), status.Completed, status.Total)
		if status.Unlocked {
			for _, ex := range ch.Exercises {
				check := " "
				if p != nil && p.IsPassed(ex.ID) {
					check = "✓"
				}
				fmt.Printf("   [%s] %-6s %s (%d XP)\n", check, ex.ID, ex.Title, ex.XPReward)
			}
		}
	}

	fmt.Printf("\nTotal available: %d XP\n", domain.TotalPossibleXP(chapters))
	return nil
}

// cmdExercise shows one exercise
func cmdExercise(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("exercise ID required (e.g., promptcraft exercise ex1_1)")
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	ex, err := a.catalog.GetExercise(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Exercise %s: %s\n\n", ex.ID, ex.Title)
	fmt.Printf("%s\n\n", ex.Description)
	fmt.Printf("Instructions:\n%s\n", strings.TrimSpace(ex.Instruction))
	fmt.Printf("\nStarting prompt:\n%s\n", indent(ex.InitialPrompt))
	if ex.InitialSystemPrompt != "" {
		fmt.Printf("\nStarting system prompt:\n%s\n", indent(ex.InitialSystemPrompt))
	}
	if ex.InitialPrefill != "" {
		fmt.Printf("\nStarting prefill:\n%s\n", indent(ex.InitialPrefill))
	}
	if len(ex.TestInputs) > 0 {
		fmt.Println("\nVariables:")
		for name, value := range ex.TestInputs {
			fmt.Printf("  {%s} = %s\n", name, firstLine(value))
		}
	}
	fmt.Printf("\nPassing: %s\n", ex.GradingDescription)
	fmt.Printf("Reward:  %d XP (less with a hint or extra attempts)\n", ex.XPReward)

	if p, err := a.progress.Load(); err == nil {
		if r, ok := p.CompletedExercises[ex.ID]; ok && r.Passed {
			fmt.Printf("\n✓ Passed with %d XP\n", r.XPEarned)
		}
	}
	return nil
}

// cmdFind fuzzy-searches exercises
func cmdFind(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("search query required (e.g., promptcraft find haiku)")
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	results := a.catalog.Search(strings.Join(args, " "))
	if len(results) == 0 {
		fmt.Println("No exercises match.")
		return nil
	}
	for _, r := range results {
		fmt.Printf("  %-6s %s\n", r.Exercise.ID, r.Exercise.Title)
	}
	return nil
}

// cmdHint reveals an exercise's hint
func cmdHint(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("exercise ID required (e.g., promptcraft hint ex1_1)")
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	hint, err := a.runner().Hint(args[0])
	if err != nil {
		return err
	}

	fmt.Println("Hint (passing this session now earns 30% less):")
	fmt.Println(indent(strings.TrimSpace(hint)))
	return nil
}

// runOptions are the flags accepted by run
type runOptions struct {
	prompt   string
	system   string
	prefill  string
	provider string
	key      string
}

func parseRunArgs(args []string, stderr io.Writer) (string, runOptions, error) {
	var opts runOptions

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.prompt, "prompt", "", "user prompt (default: the exercise's starting prompt)")
	fs.StringVar(&opts.system, "system", "", "system prompt")
	fs.StringVar(&opts.prefill, "prefill", "", "assistant prefill")
	fs.StringVar(&opts.provider, "provider", "", "anthropic or groq")
	fs.StringVar(&opts.key, "key", "", "API key for this run only")

	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		return "", opts, fmt.Errorf("exercise ID required (e.g., promptcraft run ex1_1 --prompt \"...\")")
	}
	if err := fs.Parse(args[1:]); err != nil {
		return "", opts, err
	}
	if fs.NArg() > 0 {
		return "", opts, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return args[0], opts, nil
}

// cmdRun sends the learner's prompt, grades the response, and records rewards
func cmdRun(args []string) error {
	exerciseID, opts, err := parseRunArgs(args, os.Stderr)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("Running %s...\n", exerciseID)
	result, err := a.runner().Run(ctx, runner.RunRequest{
		ExerciseID:   exerciseID,
		Prompt:       opts.prompt,
		SystemPrompt: opts.system,
		Prefill:      opts.prefill,
		Provider:     opts.provider,
		APIKey:       opts.key,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("cancelled")
		}
		return explain(err)
	}

	printRunResult(result)
	return nil
}

func printRunResult(r *runner.RunResult) {
	fmt.Printf("\nResponse (%s, %s):\n%s\n\n", r.Provider, r.Model, indent(r.Response))

	if !r.Passed {
		fmt.Printf("✗ Not yet (attempt %d). Adjust your prompt and try again.\n", r.Attempts)
		return
	}

	if !r.FirstPass {
		fmt.Println("✓ Passed again")
		return
	}

	fmt.Printf("✓ Passed in %d attempt(s)", r.Attempts)
	if r.HintUsed {
		fmt.Print(" with a hint")
	}
	fmt.Println()

	switch {
	case r.Improved && r.XPGained < r.XPAwarded:
		fmt.Printf("+%d XP (%d XP for this pass, up from your earlier result)\n", r.XPGained, r.XPAwarded)
	case r.Improved:
		fmt.Printf("+%d XP\n", r.XPGained)
	default:
		fmt.Printf("%d XP (your earlier result was better and is kept)\n", r.XPAwarded)
	}
	if r.Badge != nil {
		fmt.Printf("🏅 Badge earned: %s (+%d XP)\n", r.Badge.Name, r.Badge.BonusXP)
	}
	if r.CurriculumComplete {
		fmt.Println("🎓 Curriculum complete! Run 'promptcraft certificate'.")
	}
	fmt.Printf("Total: %d XP (%s)\n", r.TotalXP, domain.LevelForXP(r.TotalXP).Name)
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}

func firstLine(s string) string {
	line, rest, _ := strings.Cut(strings.TrimSpace(s), "\n")
	if rest != "" {
		return line + " …"
	}
	return line
}
