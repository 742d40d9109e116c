package storage

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"

	"github.com/JaimeStill/regwatch/pkg/formatting"
)

const (
	defaultContainer   = "documents"
	defaultBlockSize   = "4MiB"
	defaultConcurrency = 2
	maxBlockSize       = 4000 << 20
)

// Azure container names: 3-63 lowercase letters, digits and single hyphens,
// starting and ending with a letter or digit.
var containerName = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9]|-[a-z0-9]){2,62}$`)

// Config holds Azure Blob Storage settings. Either ConnectionString or
// ServiceURL must be set; the connection string wins when both are.
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	ServiceURL       string `toml:"service_url"`
	// BlockSize is the staged block size for streamed uploads ("4MiB").
	BlockSize string `toml:"block_size"`
	// Concurrency is the number of blocks uploaded in parallel.
	Concurrency int `toml:"concurrency"`

	blockBytes int64
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ContainerName    string
	ConnectionString string
	ServiceURL       string
	BlockSize        string
	Concurrency      string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		if err := c.loadEnv(env); err != nil {
			return err
		}
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	c.ContainerName = pick(overlay.ContainerName, c.ContainerName)
	c.ConnectionString = pick(overlay.ConnectionString, c.ConnectionString)
	c.ServiceURL = pick(overlay.ServiceURL, c.ServiceURL)
	c.BlockSize = pick(overlay.BlockSize, c.BlockSize)
	if overlay.Concurrency != 0 {
		c.Concurrency = overlay.Concurrency
	}
}

// BlockSizeBytes returns the parsed block size. Valid after Finalize.
func (c *Config) BlockSizeBytes() int64 {
	if c.blockBytes == 0 {
		c.blockBytes, _ = formatting.ParseBytes(c.BlockSize)
	}
	return c.blockBytes
}

func (c *Config) loadDefaults() {
	c.ContainerName = pick(c.ContainerName, defaultContainer)
	c.BlockSize = pick(c.BlockSize, defaultBlockSize)
	if c.Concurrency == 0 {
		c.Concurrency = defaultConcurrency
	}
}

func (c *Config) loadEnv(env *Env) error {
	for name, dst := range map[string]*string{
		env.ContainerName:    &c.ContainerName,
		env.ConnectionString: &c.ConnectionString,
		env.ServiceURL:       &c.ServiceURL,
		env.BlockSize:        &c.BlockSize,
	} {
		if name == "" {
			continue
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	if env.Concurrency != "" {
		if v := os.Getenv(env.Concurrency); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", env.Concurrency, err)
			}
			c.Concurrency = n
		}
	}
	return nil
}

func (c *Config) validate() error {
	if len(c.ContainerName) > 63 || !containerName.MatchString(c.ContainerName) {
		return fmt.Errorf("invalid container_name %q", c.ContainerName)
	}

	if c.ConnectionString == "" {
		if c.ServiceURL == "" {
			return errors.New("connection_string or service_url required")
		}
		u, err := url.Parse(c.ServiceURL)
		if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
			return fmt.Errorf("invalid service_url %q", c.ServiceURL)
		}
	}

	n, err := formatting.ParseBytes(c.BlockSize)
	if err != nil {
		return fmt.Errorf("invalid block_size: %w", err)
	}
	if n < 1 || n > maxBlockSize {
		return fmt.Errorf("block_size must be between 1B and %s", formatting.FormatBytes(maxBlockSize))
	}
	c.blockBytes = n

	if c.Concurrency < 1 {
		return errors.New("concurrency must be positive")
	}
	return nil
}

func pick(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
