// Package config provides runtime configuration types and loading.
package config

import (
	"github.com/groupwarden/groupwarden/internal/audit"
	"github.com/groupwarden/groupwarden/internal/gateway"
)

// Config is the root runtime configuration. Distinct from the moderation
// settings document: this file configures the process, the document holds
// the mutable moderation state.
type Config struct {
	Paths    PathsConfig    `json:"paths"`
	WhatsApp gateway.Config `json:"whatsapp"`
	Audit    audit.Config   `json:"audit"`
	// SuperAdmin seeds the settings document's top authority on first run.
	SuperAdmin string `json:"superAdmin" envconfig:"SUPER_ADMIN"`
}

// PathsConfig groups filesystem locations.
type PathsConfig struct {
	StateDir     string `json:"stateDir" envconfig:"STATE_DIR"`
	SettingsPath string `json:"settingsPath" envconfig:"SETTINGS_PATH"`
}

// Default returns a Config with sensible defaults rooted in stateDir.
func Default(stateDir string) *Config {
	return &Config{
		Paths: PathsConfig{
			StateDir:     stateDir,
			SettingsPath: "", // derived from StateDir when empty
		},
		WhatsApp: gateway.Config{},
		Audit: audit.Config{
			Enabled: false,
			Topic:   "groupwarden.audit",
		},
	}
}
