package documents

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/regwatch/pkg/handlers"
	"github.com/JaimeStill/regwatch/pkg/vectorindex"
)

// Domain errors for document operations.
var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicate    = errors.New("document already exists")
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	ErrInvalidFile  = errors.New("invalid file")
	ErrInvalidForm  = errors.New("invalid form field")
	ErrProcessing   = errors.New("document processing failed")
	ErrPersistence  = errors.New("document persistence failed")
)

// MapHTTPStatus maps document domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidFile), errors.Is(err, ErrInvalidForm), handlers.IsBadRequest(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrProcessing):
		return http.StatusUnprocessableEntity
	case errors.Is(err, vectorindex.ErrIndex), errors.Is(err, ErrPersistence):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
