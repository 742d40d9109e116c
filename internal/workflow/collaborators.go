package workflow

import (
	"context"

	"github.com/google/uuid"
)

// TextExtractor turns raw file bytes into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, filename, contentType string) (string, error)
}

// Summarizer produces a summary, optionally in light of a parent document's summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string, parentSummary *string) (string, error)
}

// RelevanceClassifier judges whether a summary concerns the energy market.
// Blank input yields an unrelated "empty document" verdict, not an error.
type RelevanceClassifier interface {
	CheckRelevance(ctx context.Context, text string) (Relevance, error)
}

// SubjectClassifier picks labels from vocabulary, most relevant first.
// An empty vocabulary yields no labels.
type SubjectClassifier interface {
	ClassifySubjects(ctx context.Context, text string, vocabulary []string) ([]string, error)
}

// ThemeClassifier names the central theme in one short phrase.
type ThemeClassifier interface {
	ClassifyTheme(ctx context.Context, text string) (string, error)
}

// KeyPointExtractor returns the main topics of a text in order.
type KeyPointExtractor interface {
	ExtractKeyPoints(ctx context.Context, text string) (KeyPoints, error)
}

// ParentLookup resolves the summary of a primary document. A missing parent
// yields an error wrapping ErrParentNotFound.
type ParentLookup interface {
	ParentSummary(ctx context.Context, id uuid.UUID) (string, error)
}

// VocabularySource returns the current subject vocabulary.
type VocabularySource interface {
	Vocabulary(ctx context.Context) ([]string, error)
}
