package hooks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// codexNotifyScript is the Python sidecar Codex invokes with its JSON event
// payload as argv[1]. {{VERSION}} is substituted at install time.
const codexNotifyScript = `#!/usr/bin/env python3
# crabigator-notify-version: {{VERSION}}
import hashlib
import json
import os
import sys
import time
from pathlib import Path


def stats_file():
    session_id = os.environ.get("CRABIGATOR_SESSION_ID")
    if session_id:
        return Path(f"/tmp/crabigator-stats-{session_id}.json")
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
        "messages": 0,
        "subagent_messages": 0,
        "compressions": 0,
        "tools": {},
        "state": "ready",
        "thread_id": None,
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
    if len(sys.argv) < 2:
        sys.exit(0)
    try:
        data = json.loads(sys.argv[1])
    except json.JSONDecodeError:
        sys.exit(0)

    if data.get("type") != "agent-turn-complete":
        sys.exit(0)

    path = stats_file()
    stats = load(path)
    stats["messages"] += 1
    stats["state"] = "complete"
    if "thread-id" in data:
        stats["thread_id"] = data["thread-id"]

    for msg in data.get("input-messages", []):
        if not isinstance(msg, dict):
            continue
        for call in msg.get("tool_calls", []):
            if isinstance(call, dict):
                name = call.get("function", {}).get("name", "unknown")
                stats["tools"][name] = stats["tools"].get(name, 0) + 1

    save(path, stats)
    sys.exit(0)


if __name__ == "__main__":
    main()
`

// CodexInstaller installs and maintains the Codex CLI notify registration.
type CodexInstaller struct {
	codexDir      string
	crabigatorDir string
}

// NewCodexInstaller roots the installer at ~/.codex.
func NewCodexInstaller(home string) *CodexInstaller {
	codexDir := filepath.Join(home, ".codex")
	return &CodexInstaller{
		codexDir:      codexDir,
		crabigatorDir: filepath.Join(codexDir, "crabigator"),
	}
}

func (c *CodexInstaller) metaPath() string   { return filepath.Join(c.crabigatorDir, "hooks-meta.json") }
func (c *CodexInstaller) scriptPath() string { return filepath.Join(c.crabigatorDir, "notify.py") }
func (c *CodexInstaller) configPath() string { return filepath.Join(c.codexDir, "config.toml") }

func renderCodexScript() string {
	out := codexNotifyScript
	for {
		idx := indexOfPlaceholder(out)
		if idx < 0 {
			break
		}
		out = out[:idx] + hookVersion + out[idx+len("{{VERSION}}"):]
	}
	return out
}

// IsCurrent reports whether the installed meta already matches this build's
// version.
func (c *CodexInstaller) IsCurrent() bool {
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
	return hookVersionCurrent(meta.InstalledVersion)
}

// Install writes the notify script, merges config.toml, and records meta.
func (c *CodexInstaller) Install() error {
	if err := os.MkdirAll(c.crabigatorDir, 0o755); err != nil {
		return fmt.Errorf("create crabigator dir: %w", err)
	}

	content := renderCodexScript()
	if err := atomicWrite(c.scriptPath(), []byte(content), 0o755); err != nil {
		return fmt.Errorf("write notify script: %w", err)
	}

	if err := c.mergeConfig(); err != nil {
		return fmt.Errorf("merge config.toml: %w", err)
	}

	meta := Meta{
		InstalledVersion: hookVersion,
		InstalledAt:      time.Now().UTC().Format(time.RFC3339),
		ScriptPath:       c.scriptPath(),
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(c.metaPath(), metaJSON, 0o644)
}

// mergeConfig sets notify = ["python3", <script_path>] in config.toml,
// preserving every other key. Refuses to proceed on invalid existing TOML.
func (c *CodexInstaller) mergeConfig() error {
	path := c.configPath()
	config := map[string]any{}

	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("%s contains invalid TOML; refusing to overwrite", path)
		}
	}

	config["notify"] = []string{"python3", c.scriptPath()}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return err
	}
	return atomicWrite(path, buf.Bytes(), 0o644)
}
