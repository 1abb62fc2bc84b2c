package config

import (
	"fmt"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validMediaServerTypes = map[string]bool{
	"plex": true, "jellyfin": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	// Server validation
	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	// Media server validation
	if !validMediaServerTypes[c.MediaServer.Type] {
		errs = append(errs, fmt.Sprintf("media_server.type: must be plex or jellyfin, got %q", c.MediaServer.Type))
	}
	if c.MediaServer.URL == "" {
		errs = append(errs, "media_server.url: required")
	}
	if c.MediaServer.Token == "" {
		errs = append(errs, "media_server.token: required")
	}

	// At least one acquisition manager required
	if c.Radarr == nil && c.Sonarr == nil {
		errs = append(errs, "at least one of radarr or sonarr must be configured")
	}
	if c.Radarr != nil {
		if c.Radarr.URL == "" {
			errs = append(errs, "radarr.url: required when radarr is configured")
		}
		if c.Radarr.APIKey == "" {
			errs = append(errs, "radarr.api_key: required when radarr is configured")
		}
	}
	if c.Sonarr != nil {
		if c.Sonarr.URL == "" {
			errs = append(errs, "sonarr.url: required when sonarr is configured")
		}
		if c.Sonarr.APIKey == "" {
			errs = append(errs, "sonarr.api_key: required when sonarr is configured")
		}
	}

	if c.Tautulli != nil && c.Tautulli.URL == "" {
		errs = append(errs, "tautulli.url: required when tautulli is configured")
	}
	if c.Overseerr != nil && c.Overseerr.URL == "" {
		errs = append(errs, "overseerr.url: required when overseerr is configured")
	}

	if c.Enforcement.PageSize < 0 {
		errs = append(errs, fmt.Sprintf("enforcement.page_size: must be positive, got %d", c.Enforcement.PageSize))
	}

	return errs
}
