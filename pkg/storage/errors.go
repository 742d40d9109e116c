package storage

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound = errors.New("stored file not found")
	// ErrInvalidKey covers empty keys and keys with empty, "." or ".."
	// segments.
	ErrInvalidKey = errors.New("invalid storage key")
)

// MapHTTPStatus maps storage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
