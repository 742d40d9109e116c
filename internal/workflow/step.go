package workflow

// Step identifies a node of the document graph.
type Step int

const (
	StepConvertToText Step = iota
	StepCheckDocumentType
	StepGetParentContext
	StepContextualSummarize
	StepSummarize
	StepCheckRelevance
	StepClassifySubjects
	StepClassifyTheme
	StepExtractKeyPoints
	StepMarkIrrelevant
	StepCombineResults
	StepDone
)

var stepNames = [...]string{
	StepConvertToText:       "convert_to_text",
	StepCheckDocumentType:   "check_document_type",
	StepGetParentContext:    "get_parent_context",
	StepContextualSummarize: "contextual_summarize",
	StepSummarize:           "summarize",
	StepCheckRelevance:      "check_relevance",
	StepClassifySubjects:    "classify_subjects",
	StepClassifyTheme:       "classify_theme",
	StepExtractKeyPoints:    "extract_key_points",
	StepMarkIrrelevant:      "mark_irrelevant",
	StepCombineResults:      "combine_results",
	StepDone:                "done",
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return "unknown"
	}
	return stepNames[s]
}

// edges holds the unconditional successors. Steps missing from the map
// route through a routing function.
var edges = map[Step]Step{
	StepConvertToText:       StepCheckDocumentType,
	StepGetParentContext:    StepContextualSummarize,
	StepContextualSummarize: StepCheckRelevance,
	StepSummarize:           StepCheckRelevance,
	StepClassifySubjects:    StepClassifyTheme,
	StepClassifyTheme:       StepExtractKeyPoints,
	StepExtractKeyPoints:    StepCombineResults,
	StepMarkIrrelevant:      StepCombineResults,
	StepCombineResults:      StepDone,
}

func next(step Step, s *State) Step {
	switch step {
	case StepCheckDocumentType:
		return routeByKind(s)
	case StepCheckRelevance:
		return routeByRelevance(s)
	}
	if to, ok := edges[step]; ok {
		return to
	}
	return StepDone
}

func routeByKind(s *State) Step {
	if s.Kind == KindSecondary {
		return StepGetParentContext
	}
	return StepSummarize
}

func routeByRelevance(s *State) Step {
	if s.Relevant {
		return StepClassifySubjects
	}
	return StepMarkIrrelevant
}
