package config

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/regwatch/pkg/formatting"
	"github.com/JaimeStill/regwatch/pkg/middleware"
	"github.com/JaimeStill/regwatch/pkg/pagination"
)

const (
	EnvAPIBasePath      = "REGWATCH_API_BASE_PATH"
	EnvAPIMaxUploadSize = "REGWATCH_API_MAX_UPLOAD_SIZE"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "REGWATCH_CORS_ENABLED",
	Origins:          "REGWATCH_CORS_ORIGINS",
	AllowedMethods:   "REGWATCH_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "REGWATCH_CORS_ALLOWED_HEADERS",
	AllowCredentials: "REGWATCH_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "REGWATCH_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "REGWATCH_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "REGWATCH_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, upload, CORS, and pagination settings.
// MaxUploadSize is a human-readable size such as "50MB".
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`

	maxUploadBytes int64
}

// MaxUploadSizeBytes returns the parsed upload limit. It is only meaningful
// after Finalize; an unfinalized config parses on demand.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	if c.maxUploadBytes > 0 {
		return c.maxUploadBytes
	}
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 0
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	defaultString(&c.BasePath, "/api")
	defaultString(&c.MaxUploadSize, "50MB")
	envString(&c.BasePath, EnvAPIBasePath)
	envString(&c.MaxUploadSize, EnvAPIMaxUploadSize)

	if !strings.HasPrefix(c.BasePath, "/") || (len(c.BasePath) > 1 && strings.HasSuffix(c.BasePath, "/")) {
		return fmt.Errorf("base_path must start with / and not end with one: %q", c.BasePath)
	}

	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive, got %s", c.MaxUploadSize)
	}
	c.maxUploadBytes = size

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	mergeString(&c.BasePath, overlay.BasePath)
	mergeString(&c.MaxUploadSize, overlay.MaxUploadSize)
	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}
