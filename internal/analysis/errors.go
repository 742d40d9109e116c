package analysis

import "errors"

var (
	ErrEmptyResponse = errors.New("model returned no content")
	ErrGeneration    = errors.New("content generation failed")
)
