package analysis

import (
	"fmt"
	"os"
	"strconv"
)

// Limits bounds the amount of text sent to each analysis stage.
type Limits struct {
	SummaryMaxChars   int `toml:"summary_max_chars"`
	RelevanceMaxChars int `toml:"relevance_max_chars"`
	SubjectsMaxChars  int `toml:"subjects_max_chars"`
	ThemeMaxChars     int `toml:"theme_max_chars"`
	KeyPointsMaxChars int `toml:"key_points_max_chars"`
	MaxSubjects       int `toml:"max_subjects"`
}

// LimitsEnv names the environment variables that override Limits.
type LimitsEnv struct {
	SummaryMaxChars string
	MaxSubjects     string
}

// DefaultLimits returns the limits used when nothing is configured.
func DefaultLimits() Limits {
	return Limits{
		SummaryMaxChars:   30000,
		RelevanceMaxChars: 5000,
		SubjectsMaxChars:  8000,
		ThemeMaxChars:     6000,
		KeyPointsMaxChars: 7000,
		MaxSubjects:       10,
	}
}

func (l *Limits) Finalize(env *LimitsEnv) error {
	l.loadDefaults()
	if env != nil {
		if err := l.loadEnv(env); err != nil {
			return err
		}
	}
	return l.validate()
}

func (l *Limits) Merge(overlay *Limits) {
	if overlay.SummaryMaxChars != 0 {
		l.SummaryMaxChars = overlay.SummaryMaxChars
	}
	if overlay.RelevanceMaxChars != 0 {
		l.RelevanceMaxChars = overlay.RelevanceMaxChars
	}
	if overlay.SubjectsMaxChars != 0 {
		l.SubjectsMaxChars = overlay.SubjectsMaxChars
	}
	if overlay.ThemeMaxChars != 0 {
		l.ThemeMaxChars = overlay.ThemeMaxChars
	}
	if overlay.KeyPointsMaxChars != 0 {
		l.KeyPointsMaxChars = overlay.KeyPointsMaxChars
	}
	if overlay.MaxSubjects != 0 {
		l.MaxSubjects = overlay.MaxSubjects
	}
}

func (l *Limits) loadDefaults() {
	d := DefaultLimits()
	if l.SummaryMaxChars == 0 {
		l.SummaryMaxChars = d.SummaryMaxChars
	}
	if l.RelevanceMaxChars == 0 {
		l.RelevanceMaxChars = d.RelevanceMaxChars
	}
	if l.SubjectsMaxChars == 0 {
		l.SubjectsMaxChars = d.SubjectsMaxChars
	}
	if l.ThemeMaxChars == 0 {
		l.ThemeMaxChars = d.ThemeMaxChars
	}
	if l.KeyPointsMaxChars == 0 {
		l.KeyPointsMaxChars = d.KeyPointsMaxChars
	}
	if l.MaxSubjects == 0 {
		l.MaxSubjects = d.MaxSubjects
	}
}

func (l *Limits) loadEnv(env *LimitsEnv) error {
	if env.SummaryMaxChars != "" {
		if v := os.Getenv(env.SummaryMaxChars); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid summary_max_chars: %w", err)
			}
			l.SummaryMaxChars = n
		}
	}
	if env.MaxSubjects != "" {
		if v := os.Getenv(env.MaxSubjects); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid max_subjects: %w", err)
			}
			l.MaxSubjects = n
		}
	}
	return nil
}

func (l *Limits) validate() error {
	checks := []struct {
		name string
		v    int
	}{
		{"summary_max_chars", l.SummaryMaxChars},
		{"relevance_max_chars", l.RelevanceMaxChars},
		{"subjects_max_chars", l.SubjectsMaxChars},
		{"theme_max_chars", l.ThemeMaxChars},
		{"key_points_max_chars", l.KeyPointsMaxChars},
		{"max_subjects", l.MaxSubjects},
	}
	for _, c := range checks {
		if c.v <= 0 {
			return fmt.Errorf("%s must be positive", c.name)
		}
	}
	return nil
}

// Truncate shortens text to at most limit runes, appending "..." when
// anything was cut. A limit of zero or less disables truncation.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
