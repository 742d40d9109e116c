package api

import (
	"github.com/JaimeStill/regwatch/internal/config"
	"github.com/JaimeStill/regwatch/internal/documents"
	"github.com/JaimeStill/regwatch/internal/prompts"
	"github.com/JaimeStill/regwatch/internal/subjects"
	"github.com/JaimeStill/regwatch/internal/workflow"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents documents.System
	Prompts   prompts.System
	Subjects  subjects.System
	Engine    *workflow.Engine
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	promptsSystem := prompts.New(db, runtime.Logger, runtime.Pagination)
	subjectsSystem := subjects.New(db, runtime.Logger, runtime.Pagination)

	store := documents.NewStore(db, runtime.Pagination)

	engine := NewEngine(
		cfg,
		runtime.Generator,
		promptsSystem,
		store,
		subjectsSystem,
		runtime.Logger,
	)

	docsSystem := documents.New(
		store,
		engine,
		runtime.Storage,
		runtime.Index,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Documents: docsSystem,
		Prompts:   promptsSystem,
		Subjects:  subjectsSystem,
		Engine:    engine,
	}
}
