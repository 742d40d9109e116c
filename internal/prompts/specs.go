package prompts

const summarySpec = `Respond with a JSON object matching this exact structure:

{
  "summary": "<markdown summary>"
}

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing around the object
- The summary field holds the complete markdown summary as a single string`

const relevanceSpec = `Respond with a JSON object matching this exact structure:

{
  "is_related": true,
  "confidence": 0.0,
  "reason": "<one sentence>"
}

Field constraints:
- is_related: true when the document concerns the energy market
- confidence: number between 0.0 and 1.0
- reason: the main reason for the decision

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing`

const subjectsSpec = `Respond with a JSON object matching this exact structure:

{
  "subjects": ["<subject1>", "<subject2>"]
}

Field constraints:
- subjects: terms copied exactly from the vocabulary, most relevant first,
  at most ten entries. An empty array is valid when nothing applies.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Never invent terms outside the vocabulary`

const themeSpec = `Respond with a JSON object matching this exact structure:

{
  "theme": "<short phrase>"
}

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- The theme has at most fifteen words`

const keyPointsSpec = `Respond with a JSON object matching this exact structure:

{
  "key_points": {
    "<topic>": "<description>",
    "<topic>": "<description>"
  }
}

Field constraints:
- key_points: three to six entries, ordered from most to least important.
  Topics are short titles and must be unique.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing`

var specs = map[Stage]string{
	StageSummarize:           summarySpec,
	StageContextualSummarize: summarySpec,
	StageRelevance:           relevanceSpec,
	StageSubjects:            subjectsSpec,
	StageTheme:               themeSpec,
	StageKeyPoints:           keyPointsSpec,
}

// Spec returns the fixed output contract for an analysis stage.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
