package hooks

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestClaudeInstallIsIdempotent(t *testing.T) {
	home := t.TempDir()
	installer := NewClaudeInstaller(home)

	if err := installer.Install(); err != nil {
		t.Fatalf("first Install: %v", err)
	}
	if !installer.IsCurrent() {
		t.Fatalf("expected IsCurrent true after install")
	}

	settingsPath := filepath.Join(home, ".claude", "settings.json")
	before, err := os.ReadFile(settingsPath)
	if err != nil {
		t.Fatalf("read settings: %v", err)
	}

	if err := installer.Install(); err != nil {
		t.Fatalf("second Install: %v", err)
	}

	after, err := os.ReadFile(settingsPath)
	if err != nil {
		t.Fatalf("read settings: %v", err)
	}

	var beforeObj, afterObj map[string]any
	if err := json.Unmarshal(before, &beforeObj); err != nil {
		t.Fatalf("unmarshal before: %v", err)
	}
	if err := json.Unmarshal(after, &afterObj); err != nil {
		t.Fatalf("unmarshal after: %v", err)
	}

	for _, event := range claudeHookEvents {
		countHooks := func(obj map[string]any) int {
			hooks := obj["hooks"].(map[string]any)
			arr := hooks[event].([]any)
			n := 0
			for _, entryRaw := range arr {
				entry := entryRaw.(map[string]any)
				if hooksArr, ok := entry["hooks"].([]any); ok {
					for _, h := range hooksArr {
						if isOurHook(h, installer.scriptPath()) {
							n++
						}
					}
				}
			}
			return n
		}
		if got := countHooks(afterObj); got != 1 {
			t.Fatalf("event %s: expected exactly 1 registered hook after reinstall, got %d", event, got)
		}
		_ = countHooks(beforeObj)
	}
}

func TestClaudeInstallPreservesExistingHooks(t *testing.T) {
	home := t.TempDir()
	claudeDir := filepath.Join(home, ".claude")
	if err := os.MkdirAll(claudeDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	existing := `{"hooks":{"Stop":[{"hooks":[{"type":"command","command":"/other/script.sh"}]}]}}`
	if err := os.WriteFile(filepath.Join(claudeDir, "settings.json"), []byte(existing), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	installer := NewClaudeInstaller(home)
	if err := installer.Install(); err != nil {
		t.Fatalf("Install: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(claudeDir, "settings.json"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	hooks := obj["hooks"].(map[string]any)
	stopArr := hooks["Stop"].([]any)
	found := false
	for _, entryRaw := range stopArr {
		entry := entryRaw.(map[string]any)
		hooksArr, _ := entry["hooks"].([]any)
		for _, h := range hooksArr {
			m := h.(map[string]any)
			if m["command"] == "/other/script.sh" {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("expected pre-existing hook to survive merge")
	}
}

func TestClaudeInstallRefusesInvalidJSON(t *testing.T) {
	home := t.TempDir()
	claudeDir := filepath.Join(home, ".claude")
	if err := os.MkdirAll(claudeDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(claudeDir, "settings.json"), []byte("not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	installer := NewClaudeInstaller(home)
	if err := installer.Install(); err == nil {
		t.Fatalf("expected error on invalid existing settings.json")
	}
}
