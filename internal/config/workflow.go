package config

import (
	"fmt"
	"os"
	"time"
)

const EnvWorkflowStepTimeout = "REGWATCH_WORKFLOW_STEP_TIMEOUT"

// WorkflowConfig tunes the document analysis engine.
type WorkflowConfig struct {
	StepTimeout string `toml:"step_timeout"`
}

// StepTimeoutDuration returns StepTimeout as a time.Duration.
func (c *WorkflowConfig) StepTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.StepTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *WorkflowConfig) Finalize() error {
	if c.StepTimeout == "" {
		c.StepTimeout = "2m"
	}
	if v := os.Getenv(EnvWorkflowStepTimeout); v != "" {
		c.StepTimeout = v
	}

	d, err := time.ParseDuration(c.StepTimeout)
	if err != nil {
		return fmt.Errorf("invalid step_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("step_timeout must be positive")
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *WorkflowConfig) Merge(overlay *WorkflowConfig) {
	if overlay.StepTimeout != "" {
		c.StepTimeout = overlay.StepTimeout
	}
}
