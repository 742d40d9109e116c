// Package infrastructure provides core service initialization for application startup.
// It assembles the shared dependencies (logging, database, storage, vector index,
// and the LLM generator) that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/JaimeStill/regwatch/internal/analysis"
	"github.com/JaimeStill/regwatch/internal/config"
	"github.com/JaimeStill/regwatch/pkg/database"
	"github.com/JaimeStill/regwatch/pkg/lifecycle"
	"github.com/JaimeStill/regwatch/pkg/storage"
	"github.com/JaimeStill/regwatch/pkg/vectorindex"
)

// Generator is an LLM text generator that holds a client connection.
type Generator interface {
	analysis.Generator
	Close() error
}

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, database access, file storage, chunk indexing, and generation.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Index     vectorindex.System
	Generator Generator
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := NewLogger(cfg)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	embedder := vectorindex.NewEmbedder(
		&cfg.Index,
		&http.Client{Timeout: cfg.Index.TimeoutDuration()},
	)
	index := vectorindex.New(&cfg.Index, db.Pool(), embedder, logger)

	gen, err := analysis.NewVertex(context.Background(), cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Index:     index,
		Generator: gen,
	}, nil
}

// NewLogger builds the process logger at the configured level.
func NewLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// Database and storage hooks are registered for startup and shutdown coordination;
// the generator client is closed on shutdown.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}

	i.Lifecycle.OnShutdown("llm", func(context.Context) {
		if err := i.Generator.Close(); err != nil {
			i.Logger.Warn("llm client close failed", "error", err)
			return
		}
		i.Logger.Info("llm client closed")
	})

	return nil
}
