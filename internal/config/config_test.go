package config

import "testing"

func TestDefaultsPlatformIsClaude(t *testing.T) {
	d := defaults()
	if d.Platform != PlatformClaude {
		t.Fatalf("expected default platform claude, got %s", d.Platform)
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(AppConfig{Platform: PlatformCodex, Debug: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Platform != PlatformCodex {
		t.Fatalf("expected override platform codex, got %s", cfg.Platform)
	}
	if !cfg.Debug {
		t.Fatalf("expected debug override to apply")
	}
	if cfg.CloudURL == "" {
		t.Fatalf("expected default cloud url to survive merge")
	}
}
