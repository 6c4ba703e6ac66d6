package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"

	"github.com/felixgeelhaar/promptcraft/internal/config"
	"github.com/felixgeelhaar/promptcraft/internal/progress"
)

// cmdKey manages the learner's stored provider keys
func cmdKey(args []string) error {
	if len(args) < 1 {
		fmt.Println(`Key commands:

  promptcraft key set <provider> [key]   Store a key (reads stdin when key is omitted)
  promptcraft key clear <provider>       Remove a stored key
  promptcraft key show                   Show stored keys (masked)
  promptcraft key server <provider> [key]
                                         Set the daemon's own key (empty clears it)

Providers: ` + strings.Join(progress.Providers(), ", "))
		return nil
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	switch args[0] {
	case "set":
		if len(args) < 2 {
			return fmt.Errorf("provider required (e.g., promptcraft key set anthropic)")
		}
		key := ""
		if len(args) >= 3 {
			key = args[2]
		} else {
			fmt.Printf("Enter %s API key: ", args[1])
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			key = strings.TrimSpace(line)
		}
		if key == "" {
			return fmt.Errorf("key is empty (use 'promptcraft key clear %s' to remove a key)", args[1])
		}
		if err := a.keys.Set(args[1], key); err != nil {
			return err
		}
		fmt.Printf("✓ Saved %s key %s\n", strings.ToLower(args[1]), maskKey(key))
		return nil

	case "clear":
		if len(args) < 2 {
			return fmt.Errorf("provider required (e.g., promptcraft key clear groq)")
		}
		if err := a.keys.Clear(args[1]); err != nil {
			return err
		}
		fmt.Printf("✓ Cleared %s key\n", strings.ToLower(args[1]))
		return nil

	case "show":
		keys := a.keys.All()
		active, _, ok := a.keys.Active()
		for _, name := range progress.Providers() {
			value := "(not set)"
			if k := keys[name]; k != "" {
				value = maskKey(k)
			}
			marker := " "
			if ok && name == active {
				marker = "▸"
			}
			fmt.Printf("%s %-10s %s\n", marker, name, value)
		}
		if !ok {
			fmt.Println("\nNo keys stored; the daemon's own keys are used if it has any.")
		}
		return nil

	case "server":
		if len(args) < 2 {
			return fmt.Errorf("provider required (e.g., promptcraft key server groq gsk_...)")
		}
		provider := strings.ToLower(args[1])
		if !lo.Contains(progress.Providers(), provider) {
			return fmt.Errorf("%w: %q", progress.ErrUnknownProvider, provider)
		}
		key := ""
		if len(args) >= 3 {
			key = strings.TrimSpace(args[2])
		}
		if err := config.SaveSecrets(map[string]string{provider: key}); err != nil {
			return err
		}
		if key == "" {
			fmt.Printf("✓ Removed the daemon's %s key\n", provider)
		} else {
			fmt.Printf("✓ Saved the daemon's %s key %s\n", provider, maskKey(key))
		}
		fmt.Println("Restart the daemon to apply: promptcraft stop && promptcraft start")
		return nil

	default:
		return fmt.Errorf("unknown key command: %s", args[0])
	}
}

// maskKey hides all but the start and end of a key
func maskKey(key string) string {
	if len(key) <= 12 {
		return strings.Repeat("*", len(key))
	}
	return key[:7] + "…" + key[len(key)-4:]
}
