package prompts

import (
	"encoding/json"
	"slices"
)

// Stage identifies an analysis stage whose instructions can be overridden.
type Stage string

// Analysis stages.
const (
	StageSummarize           Stage = "summarize"
	StageContextualSummarize Stage = "contextual_summarize"
	StageRelevance           Stage = "relevance"
	StageSubjects            Stage = "subjects"
	StageTheme               Stage = "theme"
	StageKeyPoints           Stage = "key_points"
)

var stages = []Stage{
	StageSummarize,
	StageContextualSummarize,
	StageRelevance,
	StageSubjects,
	StageTheme,
	StageKeyPoints,
}

// Stages returns the list of valid analysis stages.
func Stages() []Stage {
	return stages
}

// UnmarshalJSON validates that the decoded string is a known stage value.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseStage(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStage validates a string as a known analysis stage.
func ParseStage(s string) (Stage, error) {
	v := Stage(s)
	if !slices.Contains(stages, v) {
		return "", ErrInvalidStage
	}
	return v, nil
}
