package utils

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/google/shlex"

	"github.com/crabigator/crabigator/internal/config"
)

// defaultBinary per platform, when no override is configured.
var defaultBinary = map[config.Platform]string{
	config.PlatformClaude: "claude",
	config.PlatformCodex:  "codex",
}

// ResolveAssistantCommand builds the argv to exec for the wrapped assistant:
// an optional override string (shlex-split, so it may carry its own flags)
// falling back to the platform's default binary name, with passthroughArgs
// (e.g. --resume/--continue) appended.
func ResolveAssistantCommand(platform config.Platform, override string, passthroughArgs []string) ([]string, error) {
	override = strings.TrimSpace(override)

	var argv []string
	if override != "" {
		parts, err := shlex.Split(override)
		if err != nil {
			return nil, fmt.Errorf("invalid assistant command %q: %w", override, err)
		}
		if len(parts) == 0 {
			return nil, fmt.Errorf("invalid assistant command %q", override)
		}
		argv = parts
	} else {
		binary, ok := defaultBinary[platform]
		if !ok {
			return nil, fmt.Errorf("no default binary known for platform %q", platform)
		}
		argv = []string{binary}
	}

	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("assistant binary %q not found in PATH: %w", argv[0], err)
	}

	return append(argv, passthroughArgs...), nil
}
