package main

import (
	"fmt"
	"os"
	"strings"
)

// Version is set at build time via ldflags
var Version = "dev"

const (
	pidFile = "promptcraftd.pid"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	args := os.Args[2:]
	switch os.Args[1] {
	case "init":
		err = cmdInit(args)
	case "start":
		err = cmdStart()
	case "stop":
		err = cmdStop()
	case "status":
		err = cmdStatus()
	case "logs":
		err = cmdLogs()
	case "chapters":
		err = cmdChapters()
	case "exercise":
		err = cmdExercise(args)
	case "find":
		err = cmdFind(args)
	case "hint":
		err = cmdHint(args)
	case "run":
		err = cmdRun(args)
	case "progress":
		err = cmdProgress()
	case "submit":
		err = cmdSubmit()
	case "leaderboard":
		err = cmdLeaderboard(args)
	case "certificate":
		err = cmdCertificate()
	case "key":
		err = cmdKey(args)
	case "reset":
		err = cmdReset(args)
	case "mcp":
		err = cmdMCP()
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("promptcraft %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Promptcraft - Learn Prompt Engineering by Doing

Usage:
  promptcraft <command> [arguments]

Setup Commands:
  init <username>   Start a new learner profile
  key set <provider> <key>
                    Store an API key (anthropic or groq)
  key clear <provider>
                    Remove a stored API key
  key show          Show stored keys (masked)
  key server <provider> [key]
                    Set the daemon's own key

Daemon Commands:
  start             Start the promptcraft daemon
  stop              Stop the promptcraft daemon
  status            Show daemon status
  logs              View daemon logs

Learning Commands:
  chapters          List chapters and your progress
  exercise <id>     Show an exercise
  find <query>      Search exercises
  hint <id>         Show the hint (reduces the reward)
  run <id>          Send your prompt and grade the response
                      --prompt, --system, --prefill, --provider, --key

Progress Commands:
  progress          Show XP, level, and badges
  certificate       Show your grade
  submit            Submit your score to the leaderboard
  leaderboard       Show the leaderboard
  reset --yes       Erase local progress

Integration Commands:
  mcp               Start MCP server on stdio

Other:
  help              Show this help message
  version           Show version information

Examples:
  promptcraft init ada
  promptcraft key set anthropic sk-ant-...
  promptcraft run ex1_1 --prompt "Count from 1 to 3."`)
}

// renderProgressBar creates a visual progress bar
func renderProgressBar(value float64, width int) string {
	filled := int(value * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", empty) + "]"
}
