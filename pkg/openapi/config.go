package openapi

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Config holds the document metadata the API publishes about itself.
// ServerURL is the externally visible origin (for example
// https://regwatch.example.com); when empty the spec lists the API base path
// as a relative server.
type Config struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	ServerURL   string `toml:"server_url"`
}

// ConfigEnv maps config fields to environment variable names for override injection.
type ConfigEnv struct {
	Title       string
	Description string
	ServerURL   string
}

// Finalize applies defaults, environment overrides and validation.
func (c *Config) Finalize(env *ConfigEnv) error {
	if c.Title == "" {
		c.Title = "regwatch API"
	}
	if c.Description == "" {
		c.Description = "Regulatory document analysis and retrieval for the energy market."
	}

	if env != nil {
		for _, o := range []struct {
			key    string
			target *string
		}{
			{env.Title, &c.Title},
			{env.Description, &c.Description},
			{env.ServerURL, &c.ServerURL},
		} {
			if o.key == "" {
				continue
			}
			if v := os.Getenv(o.key); v != "" {
				*o.target = v
			}
		}
	}

	if c.ServerURL != "" {
		u, err := url.Parse(c.ServerURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("openapi server_url must be an absolute URL: %q", c.ServerURL)
		}
		c.ServerURL = strings.TrimRight(c.ServerURL, "/")
	}

	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Title != "" {
		c.Title = overlay.Title
	}
	if overlay.Description != "" {
		c.Description = overlay.Description
	}
	if overlay.ServerURL != "" {
		c.ServerURL = overlay.ServerURL
	}
}

// Server returns the server URL for an API mounted at basePath.
func (c *Config) Server(basePath string) string {
	return c.ServerURL + basePath
}
