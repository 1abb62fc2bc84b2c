// Package config handles TOML configuration loading with environment
// variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Database    DatabaseConfig    `toml:"database"`
	MediaServer MediaServerConfig `toml:"media_server"`
	Radarr      *ArrConfig        `toml:"radarr"`
	Sonarr      *ArrConfig        `toml:"sonarr"`
	Tautulli    *ServiceConfig    `toml:"tautulli"`
	Overseerr   *ServiceConfig    `toml:"overseerr"`
	Enforcement EnforcementConfig `toml:"enforcement"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// MediaServerConfig points at the Plex or Jellyfin instance whose libraries
// are evaluated and mirrored.
type MediaServerConfig struct {
	Type  string `toml:"type"` // plex or jellyfin
	URL   string `toml:"url"`
	Token string `toml:"token"`
}

// ArrConfig configures one acquisition manager.
type ArrConfig struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
}

// ServiceConfig configures an optional collaborator service.
type ServiceConfig struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
}

type EnforcementConfig struct {
	Schedule string `toml:"schedule"`  // cron expression for the global run
	PageSize int    `toml:"page_size"` // library page size
}

// Load reads and parses the configuration file. Unresolved environment
// variables are collected into a ConfigError rather than silently passed
// through to the services.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))
	if len(missing) > 0 {
		return nil, &ConfigError{Path: path, Missing: missing}
	}

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8480
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data/curatarr.db"
	}
	if cfg.Enforcement.Schedule == "" {
		cfg.Enforcement.Schedule = "0 */12 * * *"
	}
	if cfg.Enforcement.PageSize == 0 {
		cfg.Enforcement.PageSize = 50
	}

	return &cfg, nil
}

// substituteEnvVars replaces ${VAR} references with environment variable
// values. ${VAR:-default} falls back to the default when VAR is unset or
// empty; ${VAR:?message} records the message as a missing-variable error.
// Plain ${VAR} references to unset variables are recorded as missing and
// left unchanged.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) (string, []string) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		expr := match[2 : len(match)-1] // strip ${ and }

		if name, def, ok := strings.Cut(expr, ":-"); ok {
			if value := os.Getenv(name); value != "" {
				return value
			}
			return def
		}

		if name, message, ok := strings.Cut(expr, ":?"); ok {
			if value := os.Getenv(name); value != "" {
				return value
			}
			missing = append(missing, fmt.Sprintf("%s: %s", name, strings.TrimSpace(message)))
			return match
		}

		if value, ok := os.LookupEnv(expr); ok {
			return value
		}
		missing = append(missing, expr)
		return match
	})
	return out, missing
}
