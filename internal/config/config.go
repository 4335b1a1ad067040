// Package config loads and persists wrapper configuration: the platform
// choice, logging options, cloud endpoint, and device identity. Values come
// from (in increasing priority) defaults, the config file, and CLI flags.
package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/crabigator/crabigator/internal/logging"
)

// Platform identifies the wrapped assistant CLI.
type Platform string

const (
	PlatformClaude Platform = "claude"
	PlatformCodex  Platform = "codex"
)

// AppConfig is the merged view of defaults, config file, and CLI flags.
type AppConfig struct {
	Platform  Platform `koanf:"platform"`
	LogLevel  string   `koanf:"log_level"`
	LogFile   string   `koanf:"log_file"`
	NoCapture bool     `koanf:"no_capture"`
	Debug     bool     `koanf:"debug"`

	CloudURL      string `koanf:"cloud_url"`
	DeviceID      string `koanf:"device_id"`
	DeviceSecret  string `koanf:"device_secret"`
	CloudDisabled bool   `koanf:"cloud_disabled"`
}

func defaults() AppConfig {
	return AppConfig{
		Platform: PlatformClaude,
		LogLevel: string(logging.LevelInfo),
		CloudURL: "https://drinkcrabigator.com/api",
	}
}

// Dir returns the wrapper's per-user config directory, creating it if
// missing.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".crabigator")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func filePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load merges defaults, the on-disk config file (if present), and explicit
// overrides (non-zero fields in the CLI layer) into one AppConfig.
func Load(overrides AppConfig) (*AppConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, err
	}

	path, err := filePath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	if err := k.Load(structs.Provider(overrides, "koanf"), nil); err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PersistPlatform writes the chosen platform back to the config file, the
// only field the wrapper mutates automatically (on explicit --platform use).
func PersistPlatform(platform Platform) error {
	path, err := filePath()
	if err != nil {
		return err
	}

	k := koanf.New(".")
	if _, statErr := os.Stat(path); statErr == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return err
		}
	}
	if err := k.Set("platform", string(platform)); err != nil {
		return err
	}

	out, err := k.Marshal(yaml.Parser())
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

// LogLevelValue parses the config's LogLevel string into a logging.Level.
func (c *AppConfig) LogLevelValue() logging.Level {
	return logging.Level(c.LogLevel)
}
