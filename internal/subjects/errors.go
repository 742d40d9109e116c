package subjects

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/regwatch/pkg/handlers"
)

var (
	ErrNotFound    = errors.New("subject not found")
	ErrDuplicate   = errors.New("subject already exists")
	ErrInvalidName = errors.New("invalid subject name")
)

// MapHTTPStatus maps subject domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidName), handlers.IsBadRequest(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
