package hooks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
)

func TestCodexInstallSetsNotifyAndPreservesOtherKeys(t *testing.T) {
	home := t.TempDir()
	codexDir := filepath.Join(home, ".codex")
	if err := os.MkdirAll(codexDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	existing := "model = \"o1\"\n"
	if err := os.WriteFile(filepath.Join(codexDir, "config.toml"), []byte(existing), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	installer := NewCodexInstaller(home)
	if err := installer.Install(); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if !installer.IsCurrent() {
		t.Fatalf("expected IsCurrent true after install")
	}

	data, err := os.ReadFile(filepath.Join(codexDir, "config.toml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var cfg map[string]any
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg["model"] != "o1" {
		t.Fatalf("expected pre-existing model key to survive, got %v", cfg["model"])
	}
	notify, ok := cfg["notify"].([]any)
	if !ok || len(notify) != 2 || notify[0] != "python3" {
		t.Fatalf("unexpected notify value: %v", cfg["notify"])
	}
	if notify[1] != installer.scriptPath() {
		t.Fatalf("expected notify script path %s, got %v", installer.scriptPath(), notify[1])
	}
}

func TestCodexInstallRefusesInvalidTOML(t *testing.T) {
	home := t.TempDir()
	codexDir := filepath.Join(home, ".codex")
	if err := os.MkdirAll(codexDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(codexDir, "config.toml"), []byte("not [ valid toml"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	installer := NewCodexInstaller(home)
	if err := installer.Install(); err == nil {
		t.Fatalf("expected error on invalid existing config.toml")
	}
}
