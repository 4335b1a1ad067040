package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/crabigator/crabigator/internal/mirror"
)

type inspectCommand struct {
	Watch   bool `short:"w" long:"watch" description:"re-render every 500ms"`
	Raw     bool `short:"r" long:"raw" description:"print the raw inspect.json"`
	History bool `short:"H" long:"history" description:"also print the session's recorded scrollback history"`
	Args    struct {
		DirFilter string `positional-arg-name:"dir_filter"`
	} `positional-args:"yes"`
}

// Execute implements flags.Commander, run by the parser when "inspect" is
// the active subcommand.
func (cmd *inspectCommand) Execute(args []string) error {
	for {
		paths, err := discoverMirrors(cmd.Args.DirFilter)
		if err != nil {
			return err
		}

		if cmd.Watch {
			fmt.Print("\x1b[2J\x1b[H")
		}

		if len(paths) == 0 {
			fmt.Println("no running crabigator sessions found")
		}
		for _, path := range paths {
			if err := printMirror(path, cmd); err != nil {
				fmt.Fprintf(os.Stderr, "crabigator inspect: %s: %v\n", path, err)
			}
		}

		if !cmd.Watch {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func discoverMirrors(dirFilter string) ([]string, error) {
	paths, err := filepath.Glob("/tmp/crabigator-*/inspect.json")
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	if dirFilter == "" {
		return paths, nil
	}

	filtered := paths[:0]
	for _, p := range paths {
		if strings.Contains(p, dirFilter) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func printMirror(path string, cmd *inspectCommand) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if cmd.Raw {
		fmt.Println(string(data))
		return nil
	}

	var state mirror.State
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}

	fmt.Printf("session %s\n", state.SessionID)
	fmt.Printf("cwd     %s\n", state.Cwd)
	fmt.Printf("file    %s\n", path)

	fmt.Println("\n[Stats]")
	for _, line := range state.Widgets.Stats.Rendered {
		fmt.Println(line)
	}

	fmt.Println("\n[Git]")
	for _, line := range state.Widgets.Git.Rendered {
		fmt.Println(line)
	}

	fmt.Println("\n[Changes]")
	for _, line := range state.Widgets.Changes.Rendered {
		fmt.Println(line)
	}

	if cmd.History {
		historyPath := filepath.Join(state.Capture.Directory, "scrollback.log")
		if history, err := os.ReadFile(historyPath); err == nil {
			fmt.Println("\n[History]")
			fmt.Println(string(history))
		}
	}

	fmt.Println()
	return nil
}
