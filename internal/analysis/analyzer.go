// Package analysis implements the language-model stages of the document
// workflow: summarization, relevance, subjects, theme, and key points.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JaimeStill/regwatch/internal/prompts"
	"github.com/JaimeStill/regwatch/internal/workflow"
	"github.com/JaimeStill/regwatch/pkg/formatting"
)

// PromptSource supplies stage instructions and output contracts.
// prompts.System satisfies it.
type PromptSource interface {
	Instructions(ctx context.Context, stage prompts.Stage) (string, error)
	Spec(ctx context.Context, stage prompts.Stage) (string, error)
}

// Analyzer implements every model-backed workflow collaborator over a
// single Generator.
type Analyzer struct {
	gen     Generator
	prompts PromptSource
	limits  Limits
	logger  *slog.Logger
}

// New creates an Analyzer that reads stage prompts from source and bounds
// each stage's input by limits.
func New(gen Generator, source PromptSource, limits Limits, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		gen:     gen,
		prompts: source,
		limits:  limits,
		logger:  logger.With("system", "analysis"),
	}
}

var (
	_ workflow.Summarizer          = (*Analyzer)(nil)
	_ workflow.RelevanceClassifier = (*Analyzer)(nil)
	_ workflow.SubjectClassifier   = (*Analyzer)(nil)
	_ workflow.ThemeClassifier     = (*Analyzer)(nil)
	_ workflow.KeyPointExtractor   = (*Analyzer)(nil)
)

type section struct {
	title string
	body  string
}

// compose joins the stage instructions, its output contract, and the input
// sections into a single prompt.
func (a *Analyzer) compose(ctx context.Context, stage prompts.Stage, sections ...section) (string, error) {
	instructions, err := a.prompts.Instructions(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("instructions for %s: %w", stage, err)
	}
	spec, err := a.prompts.Spec(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("spec for %s: %w", stage, err)
	}

	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\n")
	b.WriteString(spec)
	for _, s := range sections {
		b.WriteString("\n\n")
		b.WriteString(s.title)
		b.WriteString(":\n")
		b.WriteString(s.body)
	}
	return b.String(), nil
}

func generate[T any](ctx context.Context, a *Analyzer, stage prompts.Stage, sections ...section) (T, error) {
	var zero T

	prompt, err := a.compose(ctx, stage, sections...)
	if err != nil {
		return zero, err
	}

	a.logger.DebugContext(ctx, "generating", "stage", stage, "prompt_chars", len(prompt))

	raw, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return zero, err
	}

	return formatting.Parse[T](raw)
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

// Summarize produces a markdown summary. When parentSummary is non-nil the
// contextual stage is used and the parent summary is included as context.
func (a *Analyzer) Summarize(ctx context.Context, text string, parentSummary *string) (string, error) {
	stage := prompts.StageSummarize
	sections := []section{}
	if parentSummary != nil {
		stage = prompts.StageContextualSummarize
		sections = append(sections, section{"Primary document summary", *parentSummary})
	}
	sections = append(sections, section{"Document", Truncate(text, a.limits.SummaryMaxChars)})

	resp, err := generate[summaryResponse](ctx, a, stage, sections...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Summary), nil
}

// CheckRelevance decides whether text concerns the energy market. Empty
// input is unrelated without a model call.
func (a *Analyzer) CheckRelevance(ctx context.Context, text string) (workflow.Relevance, error) {
	if strings.TrimSpace(text) == "" {
		return workflow.Relevance{Related: false, Confidence: 0, Reason: "empty document"}, nil
	}

	rel, err := generate[workflow.Relevance](
		ctx, a, prompts.StageRelevance,
		section{"Document", Truncate(text, a.limits.RelevanceMaxChars)},
	)
	if err != nil {
		return workflow.Relevance{}, err
	}

	rel.Confidence = min(max(rel.Confidence, 0), 1)
	rel.Reason = strings.TrimSpace(rel.Reason)
	return rel, nil
}

type subjectsResponse struct {
	Subjects []string `json:"subjects"`
}

// ClassifySubjects selects subjects from vocabulary. Labels are matched
// case-insensitively and returned in their canonical spelling.
func (a *Analyzer) ClassifySubjects(ctx context.Context, text string, vocabulary []string) ([]string, error) {
	if len(vocabulary) == 0 || strings.TrimSpace(text) == "" {
		return []string{}, nil
	}

	resp, err := generate[subjectsResponse](
		ctx, a, prompts.StageSubjects,
		section{"Vocabulary", strings.Join(vocabulary, "\n")},
		section{"Document", Truncate(text, a.limits.SubjectsMaxChars)},
	)
	if err != nil {
		return nil, err
	}

	return canonicalize(resp.Subjects, vocabulary, a.limits.MaxSubjects), nil
}

func canonicalize(labels, vocabulary []string, limit int) []string {
	canonical := make(map[string]string, len(vocabulary))
	for _, v := range vocabulary {
		canonical[strings.ToLower(strings.TrimSpace(v))] = v
	}

	out := []string{}
	seen := map[string]bool{}
	for _, l := range labels {
		if limit > 0 && len(out) == limit {
			break
		}
		name, ok := canonical[strings.ToLower(strings.TrimSpace(l))]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

type themeResponse struct {
	Theme string `json:"theme"`
}

// ClassifyTheme returns a short phrase naming the document's central theme.
func (a *Analyzer) ClassifyTheme(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	resp, err := generate[themeResponse](
		ctx, a, prompts.StageTheme,
		section{"Document", Truncate(text, a.limits.ThemeMaxChars)},
	)
	if err != nil {
		return "", err
	}

	return strings.Trim(strings.TrimSpace(resp.Theme), `"'“”‘’`), nil
}

type keyPointsResponse struct {
	KeyPoints workflow.KeyPoints `json:"key_points"`
}

// ExtractKeyPoints returns the document's key topics in the order the
// model listed them.
func (a *Analyzer) ExtractKeyPoints(ctx context.Context, text string) (workflow.KeyPoints, error) {
	if strings.TrimSpace(text) == "" {
		return workflow.KeyPoints{}, nil
	}

	resp, err := generate[keyPointsResponse](
		ctx, a, prompts.StageKeyPoints,
		section{"Document", Truncate(text, a.limits.KeyPointsMaxChars)},
	)
	if err != nil {
		return nil, err
	}

	if resp.KeyPoints == nil {
		return workflow.KeyPoints{}, nil
	}
	return resp.KeyPoints, nil
}
