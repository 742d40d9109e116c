package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

func (e *Engine) convertToText(ctx context.Context, s *State, req Request) error {
	var text string
	err := e.invoke(ctx, func(ctx context.Context) error {
		var err error
		text, err = e.deps.Extractor.Extract(ctx, req.Data, req.Filename, req.ContentType)
		return err
	})
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("no text could be extracted")
	}
	s.Text = text
	return nil
}

func (e *Engine) checkDocumentType(_ context.Context, s *State, _ Request) error {
	switch s.Kind {
	case KindPrimary:
		return nil
	case KindSecondary:
		if s.ParentID == nil {
			return errors.New("secondary document requires a parent id")
		}
		return nil
	default:
		return fmt.Errorf("unknown document kind %q", s.Kind)
	}
}

func (e *Engine) getParentContext(ctx context.Context, s *State, _ Request) error {
	if s.ParentID == nil {
		return errors.New("parent id missing")
	}

	var summary string
	err := e.invoke(ctx, func(ctx context.Context) error {
		var err error
		summary, err = e.deps.Parents.ParentSummary(ctx, *s.ParentID)
		return err
	})
	if err != nil {
		return fmt.Errorf("parent %s: %w", s.ParentID, err)
	}

	s.ParentContext = &summary
	return nil
}

func (e *Engine) summarize(ctx context.Context, s *State, _ Request) error {
	return e.summarizeWith(ctx, s, nil)
}

func (e *Engine) contextualSummarize(ctx context.Context, s *State, _ Request) error {
	return e.summarizeWith(ctx, s, s.ParentContext)
}

func (e *Engine) summarizeWith(ctx context.Context, s *State, parent *string) error {
	var summary string
	err := e.invoke(ctx, func(ctx context.Context) error {
		var err error
		summary, err = e.deps.Summarizer.Summarize(ctx, s.Text, parent)
		return err
	})
	if err != nil {
		return err
	}
	// A blank summary is left to the relevance classifier, which reports
	// it as an irrelevant "empty document".
	s.Summary = strings.TrimSpace(summary)
	return nil
}

func (e *Engine) checkRelevance(ctx context.Context, s *State, _ Request) error {
	var rel Relevance
	err := e.invoke(ctx, func(ctx context.Context) error {
		var err error
		rel, err = e.deps.Relevance.CheckRelevance(ctx, s.Summary)
		return err
	})
	if err != nil {
		return fmt.Errorf("relevance: %w", err)
	}

	s.Relevant = rel.Related
	s.RelevanceScore = min(max(rel.Confidence, 0), 1)

	if rel.Related {
		s.Reasons = []string{}
		return nil
	}

	reason := strings.TrimSpace(rel.Reason)
	if reason == "" {
		reason = DefaultIrrelevantReason
	}
	s.Reasons = []string{reason}
	return nil
}

func (e *Engine) classifySubjects(ctx context.Context, s *State, _ Request) error {
	var vocab []string
	err := e.invoke(ctx, func(ctx context.Context) error {
		var err error
		vocab, err = e.deps.Vocabulary.Vocabulary(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("vocabulary: %w", err)
	}

	var labels []string
	err = e.invoke(ctx, func(ctx context.Context) error {
		var err error
		labels, err = e.deps.Subjects.ClassifySubjects(ctx, s.Summary, vocab)
		return err
	})
	if err != nil {
		return fmt.Errorf("subjects: %w", err)
	}

	s.Subjects = filterSubjects(labels, vocab, e.opts.MaxSubjects)
	return nil
}

// filterSubjects keeps labels present in vocab, in classifier order, without
// duplicates, and at most limit entries.
func filterSubjects(labels, vocab []string, limit int) []string {
	known := make(map[string]struct{}, len(vocab))
	for _, v := range vocab {
		known[v] = struct{}{}
	}

	out := make([]string, 0, min(len(labels), limit))
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if len(out) == limit {
			break
		}
		if _, ok := known[l]; !ok {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

func (e *Engine) classifyTheme(ctx context.Context, s *State, _ Request) error {
	var theme string
	err := e.invoke(ctx, func(ctx context.Context) error {
		var err error
		theme, err = e.deps.Theme.ClassifyTheme(ctx, s.Summary)
		return err
	})
	if err != nil {
		return fmt.Errorf("theme: %w", err)
	}
	s.Theme = theme
	return nil
}

func (e *Engine) extractKeyPoints(ctx context.Context, s *State, _ Request) error {
	var points KeyPoints
	err := e.invoke(ctx, func(ctx context.Context) error {
		var err error
		points, err = e.deps.KeyPoints.ExtractKeyPoints(ctx, s.Summary)
		return err
	})
	if err != nil {
		return fmt.Errorf("key points: %w", err)
	}
	s.KeyPoints = points
	return nil
}

func (e *Engine) markIrrelevant(_ context.Context, s *State, _ Request) error {
	s.Subjects = []string{}
	s.Theme = ""
	s.KeyPoints = KeyPoints{}
	return nil
}

func (e *Engine) combineResults(_ context.Context, s *State, _ Request) error {
	if !s.Relevant {
		s.Subjects = []string{}
		s.Theme = ""
		s.KeyPoints = KeyPoints{}
		s.Status = StatusIrrelevant
		return nil
	}

	if s.Subjects == nil {
		s.Subjects = []string{}
	}
	if s.KeyPoints == nil {
		s.KeyPoints = KeyPoints{}
	}
	s.Status = StatusSuccess
	return nil
}
