package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server       ServerConfig       `toml:"server"`
	Database     DatabaseConfig     `toml:"database"`
	Place        PlaceConfig        `toml:"place"`
	Integrations IntegrationsConfig `toml:"integrations"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// PlaceConfig contains shared-canvas tuning knobs.
//
// MaxCells caps width*height at canvas creation. CooldownSeconds is the
// minimum spacing between accepted writes for a non-admin actor.
// ClearHistoryOnReset controls whether a canvas reset also discards the
// commit journal; without it, cooldown state from the previous geometry
// would carry over into the new canvas.
type PlaceConfig struct {
	MaxCells            int  `toml:"max_cells"`
	CooldownSeconds     int  `toml:"cooldown_seconds"`
	ClearHistoryOnReset bool `toml:"clear_history_on_reset"`
}

// Cooldown returns the configured cooldown window as a [time.Duration].
func (p PlaceConfig) Cooldown() time.Duration {
	return time.Duration(p.CooldownSeconds) * time.Second
}

// IntegrationsConfig contains third-party integration credentials.
type IntegrationsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	GitHub  GitHubConfig  `toml:"github"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// GitHubConfig contains GitHub webhook settings.
//
// WebhookSecret is the fallback HMAC secret used when an event has no
// per-event secret configured.
type GitHubConfig struct {
	WebhookSecret string `toml:"webhook_secret"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
