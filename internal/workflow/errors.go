package workflow

import "errors"

// Step failure categories. The engine wraps every step error with the
// sentinel for the step that raised it.
var (
	ErrExtraction     = errors.New("text extraction failed")
	ErrSummarization  = errors.New("summarization failed")
	ErrClassification = errors.New("classification failed")
	ErrLookup         = errors.New("parent lookup failed")
	ErrStep           = errors.New("workflow step failed")

	// ErrParentNotFound is returned by a ParentLookup when the parent does not exist.
	ErrParentNotFound = errors.New("parent document not found")
)
