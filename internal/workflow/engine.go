package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultStepTimeout = 2 * time.Minute
	DefaultMaxSubjects = 10
)

// Deps are the collaborators the engine calls into.
type Deps struct {
	Extractor  TextExtractor
	Summarizer Summarizer
	Relevance  RelevanceClassifier
	Subjects   SubjectClassifier
	Theme      ThemeClassifier
	KeyPoints  KeyPointExtractor
	Parents    ParentLookup
	Vocabulary VocabularySource
}

// Options tunes a single engine. Zero values select the defaults.
type Options struct {
	StepTimeout time.Duration
	MaxSubjects int
}

// Engine runs documents through the analysis graph. It holds no per-run
// state and is safe for concurrent use.
type Engine struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
	nodes  map[Step]func(context.Context, *State, Request) error
}

// New creates an engine over deps. Zero options select DefaultStepTimeout
// and DefaultMaxSubjects; a nil logger discards output.
func New(deps Deps, opts Options, logger *slog.Logger) *Engine {
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = DefaultStepTimeout
	}
	if opts.MaxSubjects <= 0 {
		opts.MaxSubjects = DefaultMaxSubjects
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	e := &Engine{
		deps:   deps,
		opts:   opts,
		logger: logger.With("system", "workflow"),
	}

	e.nodes = map[Step]func(context.Context, *State, Request) error{
		StepConvertToText:       e.convertToText,
		StepCheckDocumentType:   e.checkDocumentType,
		StepGetParentContext:    e.getParentContext,
		StepContextualSummarize: e.contextualSummarize,
		StepSummarize:           e.summarize,
		StepCheckRelevance:      e.checkRelevance,
		StepClassifySubjects:    e.classifySubjects,
		StepClassifyTheme:       e.classifyTheme,
		StepExtractKeyPoints:    e.extractKeyPoints,
		StepMarkIrrelevant:      e.markIrrelevant,
		StepCombineResults:      e.combineResults,
	}

	return e
}

// ProcessDocument runs one document through the graph. It always returns a
// populated Result; failures are reported through Status and ErrorMessage.
func (e *Engine) ProcessDocument(ctx context.Context, req Request) Result {
	start := time.Now()
	s := &State{
		Kind:     req.Kind,
		ParentID: req.ParentID,
	}

	e.logger.Info(
		"processing document",
		"kind", req.Kind,
		"filename", req.Filename,
	)

	for step := StepConvertToText; step != StepDone; step = next(step, s) {
		if s.Status == StatusError {
			e.logger.Debug("step skipped", "step", step)
			continue
		}
		e.logger.Debug("step started", "step", step)
		e.run(ctx, step, s, req)
	}

	attrs := []any{
		"kind", req.Kind,
		"filename", req.Filename,
		"status", s.Status,
		"duration", time.Since(start),
	}
	if s.Status == StatusError {
		e.logger.Info("document processing failed", append(attrs, "error", s.ErrorMessage)...)
	} else {
		e.logger.Info("document processed", attrs...)
	}

	return s.result()
}

func (e *Engine) run(ctx context.Context, step Step, s *State, req Request) {
	defer func() {
		if r := recover(); r != nil {
			s.fail(fmt.Errorf("%w: panic in %s: %v", sentinel(step), step, r))
		}
	}()

	node, ok := e.nodes[step]
	if !ok {
		s.fail(fmt.Errorf("%w: no node for step %s", ErrStep, step))
		return
	}

	if err := node(ctx, s, req); err != nil {
		s.fail(fmt.Errorf("%w: %w", sentinel(step), err))
	}
}

// invoke bounds a single collaborator call by the step timeout.
func (e *Engine) invoke(ctx context.Context, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, e.opts.StepTimeout)
	defer cancel()

	err := fn(callCtx)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("timed out after %s: %w", e.opts.StepTimeout, err)
	}
	return err
}

func sentinel(step Step) error {
	switch step {
	case StepConvertToText:
		return ErrExtraction
	case StepGetParentContext:
		return ErrLookup
	case StepSummarize, StepContextualSummarize:
		return ErrSummarization
	case StepCheckRelevance, StepClassifySubjects, StepClassifyTheme, StepExtractKeyPoints:
		return ErrClassification
	default:
		return ErrStep
	}
}
