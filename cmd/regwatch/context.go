package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/JaimeStill/regwatch/internal/analysis"
	"github.com/JaimeStill/regwatch/internal/config"
	"github.com/JaimeStill/regwatch/internal/infrastructure"
	"github.com/JaimeStill/regwatch/pkg/database"
)

// commandContext lazily opens the resources a command needs. Nothing is
// started on the lifecycle coordinator: the CLI only reads from the database.
type commandContext struct {
	jsonOutput bool

	once      sync.Once
	cfg       *config.Config
	logger    *slog.Logger
	db        database.System
	generator *analysis.Vertex
	err       error
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			c.err = fmt.Errorf("load config: %w", err)
			return
		}
		c.cfg = cfg
		c.logger = infrastructure.NewLogger(cfg).With("module", "cli")
	})
	return c.cfg, c.err
}

func (c *commandContext) database() (database.System, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if c.db == nil {
		db, err := database.New(&cfg.Database, c.logger)
		if err != nil {
			return nil, err
		}
		c.db = db
	}
	return c.db, nil
}

func (c *commandContext) model(ctx context.Context) (*analysis.Vertex, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if c.generator == nil {
		gen, err := analysis.NewVertex(ctx, cfg.LLM)
		if err != nil {
			return nil, err
		}
		c.generator = gen
	}
	return c.generator, nil
}

func (c *commandContext) close() {
	if c.generator != nil {
		if err := c.generator.Close(); err != nil {
			c.logger.Warn("model client close failed", "error", err)
		}
	}
	if closer, ok := c.db.(interface{ Close() }); ok {
		closer.Close()
	}
}
