package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/JaimeStill/regwatch/internal/analysis"
)

const (
	EnvLLMProject         = "REGWATCH_LLM_PROJECT"
	EnvLLMLocation        = "REGWATCH_LLM_LOCATION"
	EnvLLMModel           = "REGWATCH_LLM_MODEL"
	EnvLLMTemperature     = "REGWATCH_LLM_TEMPERATURE"
	EnvLLMMaxOutputTokens = "REGWATCH_LLM_MAX_OUTPUT_TOKENS"
	EnvLLMCredentialsFile = "REGWATCH_LLM_CREDENTIALS_FILE"
)

// FinalizeLLM applies the three-phase finalize pattern to the Vertex AI
// generator settings: defaults, environment variable overrides, and validation.
func FinalizeLLM(c *analysis.VertexConfig) error {
	loadLLMDefaults(c)
	if err := loadLLMEnv(c); err != nil {
		return err
	}
	return validateLLM(c)
}

// MergeLLM overwrites non-zero fields from overlay.
func MergeLLM(c, overlay *analysis.VertexConfig) {
	if overlay.Project != "" {
		c.Project = overlay.Project
	}
	if overlay.Location != "" {
		c.Location = overlay.Location
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.Temperature != 0 {
		c.Temperature = overlay.Temperature
	}
	if overlay.MaxOutputTokens != 0 {
		c.MaxOutputTokens = overlay.MaxOutputTokens
	}
	if overlay.CredentialsFile != "" {
		c.CredentialsFile = overlay.CredentialsFile
	}
}

func loadLLMDefaults(c *analysis.VertexConfig) {
	if c.Location == "" {
		c.Location = "us-central1"
	}
	if c.Model == "" {
		c.Model = "gemini-2.0-flash"
	}
	if c.MaxOutputTokens == 0 {
		c.MaxOutputTokens = 8192
	}
}

func loadLLMEnv(c *analysis.VertexConfig) error {
	if v := os.Getenv(EnvLLMProject); v != "" {
		c.Project = v
	}
	if v := os.Getenv(EnvLLMLocation); v != "" {
		c.Location = v
	}
	if v := os.Getenv(EnvLLMModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvLLMTemperature); v != "" {
		t, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvLLMTemperature, err)
		}
		c.Temperature = float32(t)
	}
	if v := os.Getenv(EnvLLMMaxOutputTokens); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvLLMMaxOutputTokens, err)
		}
		c.MaxOutputTokens = int32(n)
	}
	if v := os.Getenv(EnvLLMCredentialsFile); v != "" {
		c.CredentialsFile = v
	}
	return nil
}

func validateLLM(c *analysis.VertexConfig) error {
	if c.Project == "" {
		return fmt.Errorf("project required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", c.Temperature)
	}
	if c.MaxOutputTokens < 1 {
		return fmt.Errorf("max_output_tokens must be positive")
	}
	return nil
}
