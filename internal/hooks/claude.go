// Package hooks installs the out-of-process callback script the assistant
// CLI invokes on lifecycle events, and idempotently registers it in the
// assistant's own configuration.
package hooks

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"
)

const hookVersion = "1.0.0"

// hookVersionCurrent reports whether an already-installed hook version is
// semantically equal to this build's hookVersion. Falls back to raw string
// equality if either side fails to parse as semver, rather than forcing a
// reinstall loop on an unparsable installed value.
func hookVersionCurrent(installed string) bool {
	current, err := semver.NewVersion(hookVersion)
	if err != nil {
		return installed == hookVersion
	}
	prior, err := semver.NewVersion(installed)
	if err != nil {
		return false
	}
	return prior.Equal(current)
}

// claudeHookScript is the Python sidecar Claude Code invokes. {{VERSION}} is
// substituted at install time.
const claudeHookScript = `#!/usr/bin/env python3
# crabigator-hook-version: {{VERSION}}
import json
import os
import sys
import time
from pathlib import Path


def stats_file():
    session_id = os.environ.get("CRABIGATOR_SESSION_ID")
    if session_id:
        return Path(f"/tmp/crabigator-stats-{session_id}.json")
    import hashlib
    cwd_hash = hashlib.md5(os.getcwd().encode()).hexdigest()[:12]
    return Path(f"/tmp/crabigator-stats-{cwd_hash}.json")


def load(path):
    if path.exists():
        try:
            with open(path) as f:
                return json.load(f)
        except (json.JSONDecodeError, IOError):
            pass
    return {
        "prompts": 0,
        "completions": 0,
        "subagent_messages": 0,
        "compressions": 0,
        "tools": {},
        "tool_timestamps": [],
        "state": "ready",
        "pending_question": False,
        "idle_since": None,
        "last_updated": None,
    }


def save(path, stats):
    stats["last_updated"] = time.time()
    tmp = path.with_suffix(f".{os.getpid()}.tmp")
    try:
        with open(tmp, "w") as f:
            json.dump(stats, f)
        tmp.rename(path)
    except OSError:
        try:
            tmp.unlink(missing_ok=True)
        except Exception:
            pass


def main():
    try:
        data = json.load(sys.stdin)
    except json.JSONDecodeError:
        sys.exit(0)

    event = data.get("hook_event_name", "")
    path = stats_file()
    stats = load(path)

    if event == "PermissionRequest":
        stats["state"] = "permission"
    elif event == "PostToolUse":
        name = data.get("tool_name", "unknown")
        stats["tools"][name] = stats["tools"].get(name, 0) + 1
        stats.setdefault("tool_timestamps", []).append(time.time())
        if name == "AskUserQuestion":
            stats["pending_question"] = True
        stats["state"] = "thinking"
    elif event == "Stop":
        stats["completions"] = stats.get("completions", 0) + 1
        if stats.get("pending_question"):
            stats["state"] = "question"
            stats["pending_question"] = False
        else:
            stats["state"] = "complete"
        stats["idle_since"] = time.time()
    elif event == "SubagentStop":
        stats["subagent_messages"] += 1
    elif event == "PreCompact":
        stats["compressions"] += 1
    elif event == "UserPromptSubmit":
        stats["prompts"] = stats.get("prompts", 0) + 1
        stats["state"] = "thinking"
        stats["pending_question"] = False
        stats["idle_since"] = None

    save(path, stats)
    sys.exit(0)


if __name__ == "__main__":
    main()
`

var claudeHookEvents = []string{
	"PermissionRequest", "PostToolUse", "Stop", "SubagentStop", "PreCompact", "UserPromptSubmit",
}

var claudeEventsWithMatcher = map[string]bool{
	"PermissionRequest": true,
	"PostToolUse":        true,
}

// Meta records what version and content of the hook script were installed.
type Meta struct {
	InstalledVersion string `json:"installed_version"`
	ScriptHash       string `json:"script_hash"`
	InstalledAt      string `json:"installed_at"`
	ScriptPath       string `json:"script_path"`
}

// ClaudeInstaller installs and maintains the Claude Code hook registration.
type ClaudeInstaller struct {
	claudeDir     string
	crabigatorDir string
}

// NewClaudeInstaller roots the installer at ~/.claude.
func NewClaudeInstaller(home string) *ClaudeInstaller {
	claudeDir := filepath.Join(home, ".claude")
	return &ClaudeInstaller{
		claudeDir:     claudeDir,
		crabigatorDir: filepath.Join(claudeDir, "crabigator"),
	}
}

func (c *ClaudeInstaller) metaPath() string     { return filepath.Join(c.crabigatorDir, "hooks-meta.json") }
func (c *ClaudeInstaller) scriptPath() string    { return filepath.Join(c.crabigatorDir, "stats-hook.py") }
func (c *ClaudeInstaller) settingsPath() string  { return filepath.Join(c.claudeDir, "settings.json") }

func renderScript() string {
	out := claudeHookScript
	for {
		idx := indexOfPlaceholder(out)
		if idx < 0 {
			break
		}
		out = out[:idx] + hookVersion + out[idx+len("{{VERSION}}"):]
	}
	return out
}

func indexOfPlaceholder(s string) int {
	const placeholder = "{{VERSION}}"
	for i := 0; i+len(placeholder) <= len(s); i++ {
		if s[i:i+len(placeholder)] == placeholder {
			return i
		}
	}
	return -1
}

func scriptHash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// IsCurrent reports whether the installed version and script hash already
// match what this build would install.
func (c *ClaudeInstaller) IsCurrent() bool {
	data, err := os.ReadFile(c.metaPath())
	if err != nil {
		return false
	}
	if _, err := os.Stat(c.scriptPath()); err != nil {
		return false
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return false
	}
	return hookVersionCurrent(meta.InstalledVersion) && meta.ScriptHash == scriptHash(renderScript())
}

// Install writes the hook script, merges settings.json, and records meta.
// It is safe to call repeatedly; every step is idempotent.
func (c *ClaudeInstaller) Install() error {
	if err := os.MkdirAll(c.crabigatorDir, 0o755); err != nil {
		return fmt.Errorf("create crabigator dir: %w", err)
	}

	content := renderScript()
	if err := atomicWrite(c.scriptPath(), []byte(content), 0o755); err != nil {
		return fmt.Errorf("write hook script: %w", err)
	}

	if err := c.mergeSettings(); err != nil {
		return fmt.Errorf("merge settings.json: %w", err)
	}

	meta := Meta{
		InstalledVersion: hookVersion,
		ScriptHash:       scriptHash(content),
		InstalledAt:      time.Now().UTC().Format(time.RFC3339),
		ScriptPath:       c.scriptPath(),
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(c.metaPath(), metaJSON, 0o644)
}

func atomicWrite(path string, content []byte, mode os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, mode); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// mergeSettings idempotently adds our hook command into settings.json,
// identified solely by its command string, never touching other hooks. It
// refuses to proceed if the existing file is not valid JSON or its hooks
// field is not an object, so it never silently clobbers user configuration.
func (c *ClaudeInstaller) mergeSettings() error {
	settings := map[string]any{}

	path := c.settingsPath()
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &settings); err != nil {
			return fmt.Errorf("%s contains invalid JSON; refusing to overwrite", path)
		}
	}

	rawHooks, ok := settings["hooks"]
	if !ok {
		rawHooks = map[string]any{}
		settings["hooks"] = rawHooks
	}
	hooksObj, ok := rawHooks.(map[string]any)
	if !ok {
		return fmt.Errorf("%s hooks field must be a JSON object", path)
	}

	scriptPath := c.scriptPath()
	ourHook := map[string]any{"type": "command", "command": scriptPath}

	for _, event := range claudeHookEvents {
		arrRaw, ok := hooksObj[event]
		if !ok {
			arrRaw = []any{}
		}
		arr, ok := arrRaw.([]any)
		if !ok {
			return fmt.Errorf("%s hooks.%s must be a JSON array", path, event)
		}

		if claudeEventsWithMatcher[event] {
			arr = mergeMatcherEvent(arr, ourHook, scriptPath)
		} else {
			arr = mergePlainEvent(arr, ourHook, scriptPath)
		}
		hooksObj[event] = arr
	}
	settings["hooks"] = hooksObj

	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(path, out, 0o644)
}

func isOurHook(h any, scriptPath string) bool {
	m, ok := h.(map[string]any)
	if !ok {
		return false
	}
	cmd, _ := m["command"].(string)
	return cmd == scriptPath
}

func hooksArrayHasOurs(hooksVal any, scriptPath string) bool {
	arr, ok := hooksVal.([]any)
	if !ok {
		return false
	}
	for _, h := range arr {
		if isOurHook(h, scriptPath) {
			return true
		}
	}
	return false
}

// mergeMatcherEvent ensures a matcher:"*" entry exists with our hook inside
// its hooks array, and removes any stray copies of our hook elsewhere.
func mergeMatcherEvent(arr []any, ourHook map[string]any, scriptPath string) []any {
	starIdx := -1
	for i, entryRaw := range arr {
		entry, ok := entryRaw.(map[string]any)
		if !ok {
			continue
		}
		if m, _ := entry["matcher"].(string); m == "*" {
			starIdx = i
			break
		}
	}

	if starIdx < 0 {
		arr = append(arr, map[string]any{
			"matcher": "*",
			"hooks":   []any{ourHook},
		})
		starIdx = len(arr) - 1
	} else {
		entry := arr[starIdx].(map[string]any)
		if !hooksArrayHasOurs(entry["hooks"], scriptPath) {
			hooksArr, _ := entry["hooks"].([]any)
			entry["hooks"] = append(hooksArr, ourHook)
			arr[starIdx] = entry
		}
	}

	for i, entryRaw := range arr {
		if i == starIdx {
			continue
		}
		entry, ok := entryRaw.(map[string]any)
		if !ok {
			continue
		}
		hooksArr, ok := entry["hooks"].([]any)
		if !ok {
			continue
		}
		filtered := make([]any, 0, len(hooksArr))
		for _, h := range hooksArr {
			if !isOurHook(h, scriptPath) {
				filtered = append(filtered, h)
			}
		}
		entry["hooks"] = filtered
		arr[i] = entry
	}

	return arr
}

// mergePlainEvent ensures our hook appears in at least one entry's hooks
// array without a matcher requirement.
func mergePlainEvent(arr []any, ourHook map[string]any, scriptPath string) []any {
	for _, entryRaw := range arr {
		entry, ok := entryRaw.(map[string]any)
		if !ok {
			continue
		}
		if hooksArrayHasOurs(entry["hooks"], scriptPath) {
			return arr
		}
	}

	if len(arr) > 0 {
		entry, ok := arr[0].(map[string]any)
		if ok {
			hooksArr, _ := entry["hooks"].([]any)
			entry["hooks"] = append(hooksArr, ourHook)
			arr[0] = entry
			return arr
		}
	}

	return append(arr, map[string]any{"hooks": []any{ourHook}})
}
