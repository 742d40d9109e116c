package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/regwatch/internal/analysis"
	"github.com/JaimeStill/regwatch/pkg/database"
	"github.com/JaimeStill/regwatch/pkg/middleware"
	"github.com/JaimeStill/regwatch/pkg/openapi"
	"github.com/JaimeStill/regwatch/pkg/storage"
	"github.com/JaimeStill/regwatch/pkg/vectorindex"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvRegwatchEnv             = "REGWATCH_ENV"
	EnvRegwatchShutdownTimeout = "REGWATCH_SHUTDOWN_TIMEOUT"
	EnvRegwatchVersion         = "REGWATCH_VERSION"
	EnvRegwatchLogLevel        = "REGWATCH_LOG_LEVEL"
)

var databaseEnv = &database.Env{
	URL:              "REGWATCH_DB_URL",
	Host:             "REGWATCH_DB_HOST",
	Port:             "REGWATCH_DB_PORT",
	Name:             "REGWATCH_DB_NAME",
	User:             "REGWATCH_DB_USER",
	Password:         "REGWATCH_DB_PASSWORD",
	SSLMode:          "REGWATCH_DB_SSL_MODE",
	ApplicationName:  "REGWATCH_DB_APPLICATION_NAME",
	MaxConns:         "REGWATCH_DB_MAX_CONNS",
	MinConns:         "REGWATCH_DB_MIN_CONNS",
	ConnMaxLifetime:  "REGWATCH_DB_CONN_MAX_LIFETIME",
	ConnMaxIdleTime:  "REGWATCH_DB_CONN_MAX_IDLE_TIME",
	ConnTimeout:      "REGWATCH_DB_CONN_TIMEOUT",
	StatementTimeout: "REGWATCH_DB_STATEMENT_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "REGWATCH_STORAGE_CONTAINER_NAME",
	ConnectionString: "REGWATCH_STORAGE_CONNECTION_STRING",
	ServiceURL:       "REGWATCH_STORAGE_SERVICE_URL",
	BlockSize:        "REGWATCH_STORAGE_BLOCK_SIZE",
	Concurrency:      "REGWATCH_STORAGE_CONCURRENCY",
}

var indexEnv = &vectorindex.Env{
	Endpoint:    "REGWATCH_INDEX_ENDPOINT",
	Model:       "REGWATCH_INDEX_MODEL",
	APIKey:      "REGWATCH_INDEX_API_KEY",
	Concurrency: "REGWATCH_INDEX_CONCURRENCY",
	Timeout:     "REGWATCH_INDEX_TIMEOUT",
}

var analysisEnv = &analysis.LimitsEnv{
	SummaryMaxChars: "REGWATCH_ANALYSIS_SUMMARY_MAX_CHARS",
	MaxSubjects:     "REGWATCH_ANALYSIS_MAX_SUBJECTS",
}

var authEnv = &middleware.AuthEnv{
	Enabled:  "REGWATCH_AUTH_ENABLED",
	Issuer:   "REGWATCH_AUTH_ISSUER",
	Audience: "REGWATCH_AUTH_AUDIENCE",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "REGWATCH_OPENAPI_TITLE",
	Description: "REGWATCH_OPENAPI_DESCRIPTION",
	ServerURL:   "REGWATCH_OPENAPI_SERVER_URL",
}

// Config is the root configuration for the regwatch service and CLI.
type Config struct {
	Server          ServerConfig          `toml:"server"`
	Database        database.Config       `toml:"database"`
	Storage         storage.Config        `toml:"storage"`
	API             APIConfig             `toml:"api"`
	LLM             analysis.VertexConfig `toml:"llm"`
	Analysis        analysis.Limits       `toml:"analysis"`
	Workflow        WorkflowConfig        `toml:"workflow"`
	Index           vectorindex.Config    `toml:"index"`
	Auth            middleware.AuthConfig `toml:"auth"`
	OpenAPI         openapi.Config        `toml:"openapi"`
	ShutdownTimeout string                `toml:"shutdown_timeout"`
	Version         string                `toml:"version"`
	LogLevel        string                `toml:"log_level"`
}

// Env returns the REGWATCH_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvRegwatchEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// SlogLevel returns LogLevel as a slog.Level. Unset or invalid values yield info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// LoadDatabase resolves only the database section, for tools such as the
// migrator that need a connection and nothing else.
func LoadDatabase() (*database.Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}

	if err := cfg.Database.Finalize(databaseEnv); err != nil {
		return nil, fmt.Errorf("finalize config: database: %w", err)
	}

	return &cfg.Database, nil
}

func read() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	MergeLLM(&c.LLM, &overlay.LLM)
	c.Analysis.Merge(&overlay.Analysis)
	c.Workflow.Merge(&overlay.Workflow)
	c.Index.Merge(&overlay.Index)
	c.Auth.Merge(&overlay.Auth)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := FinalizeLLM(&c.LLM); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Analysis.Finalize(analysisEnv); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if err := c.Workflow.Finalize(); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	if c.Server.WriteTimeoutDuration() < c.Workflow.StepTimeoutDuration() {
		return fmt.Errorf("server: write_timeout %s is shorter than workflow step_timeout %s", c.Server.WriteTimeout, c.Workflow.StepTimeout)
	}
	if err := c.Index.Finalize(indexEnv); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvRegwatchShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvRegwatchVersion); v != "" {
		c.Version = v
	}
	if v := os.Getenv(EnvRegwatchLogLevel); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvRegwatchEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
