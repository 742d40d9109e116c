package api

import (
	"log/slog"

	"github.com/JaimeStill/regwatch/internal/analysis"
	"github.com/JaimeStill/regwatch/internal/config"
	"github.com/JaimeStill/regwatch/internal/extraction"
	"github.com/JaimeStill/regwatch/internal/workflow"
)

// NewEngine wires the analysis workflow: text extraction, the model-backed
// analyzer for every classification stage, and the given parent and
// vocabulary sources. The server and the CLI share this wiring.
func NewEngine(
	cfg *config.Config,
	gen analysis.Generator,
	prompts analysis.PromptSource,
	parents workflow.ParentLookup,
	vocabulary workflow.VocabularySource,
	logger *slog.Logger,
) *workflow.Engine {
	analyzer := analysis.New(gen, prompts, cfg.Analysis, logger)

	return workflow.New(
		workflow.Deps{
			Extractor:  extraction.New(logger),
			Summarizer: analyzer,
			Relevance:  analyzer,
			Subjects:   analyzer,
			Theme:      analyzer,
			KeyPoints:  analyzer,
			Parents:    parents,
			Vocabulary: vocabulary,
		},
		workflow.Options{
			StepTimeout: cfg.Workflow.StepTimeoutDuration(),
			MaxSubjects: cfg.Analysis.MaxSubjects,
		},
		logger,
	)
}
