package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the default state directory name.
	ConfigDir = ".groupwarden"
	// ConfigFile is the default config file name.
	ConfigFile = "config.json"
)

// ConfigPath returns the path to the config file, honoring
// GROUPWARDEN_CONFIG and GROUPWARDEN_HOME overrides.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("GROUPWARDEN_CONFIG")); explicit != "" {
		return expandHome(explicit)
	}
	home, err := resolveHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

func resolveHomeDir() (string, error) {
	if h := strings.TrimSpace(os.Getenv("GROUPWARDEN_HOME")); h != "" {
		return expandHome(h)
	}
	return os.UserHomeDir()
}

func expandHome(p string) (string, error) {
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}

// Load loads the configuration from file and environment variables.
// Priority: environment > file > defaults. A missing file means defaults;
// an unreadable or malformed file is fatal.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	stateDir := filepath.Dir(path)
	cfg := Default(stateDir)

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := envconfig.Process("GROUPWARDEN", cfg); err != nil {
		return nil, err
	}
	if err := envconfig.Process("GROUPWARDEN_PATHS", &cfg.Paths); err != nil {
		return nil, err
	}
	if err := envconfig.Process("GROUPWARDEN_WHATSAPP", &cfg.WhatsApp); err != nil {
		return nil, err
	}
	if err := envconfig.Process("GROUPWARDEN_AUDIT", &cfg.Audit); err != nil {
		return nil, err
	}

	applyDerived(cfg)
	return cfg, nil
}

// Save writes the config document, creating the state directory if needed.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// applyDerived fills paths that default relative to the state directory.
func applyDerived(cfg *Config) {
	if cfg.Paths.StateDir == "" {
		if home, err := resolveHomeDir(); err == nil {
			cfg.Paths.StateDir = filepath.Join(home, ConfigDir)
		}
	}
	if cfg.Paths.SettingsPath == "" {
		cfg.Paths.SettingsPath = filepath.Join(cfg.Paths.StateDir, "settings.json")
	}
	if cfg.WhatsApp.SessionPath == "" {
		cfg.WhatsApp.SessionPath = filepath.Join(cfg.Paths.StateDir, "whatsapp.db")
	}
	if cfg.WhatsApp.QRPath == "" {
		cfg.WhatsApp.QRPath = filepath.Join(cfg.Paths.StateDir, "whatsapp-qr.png")
	}
}
