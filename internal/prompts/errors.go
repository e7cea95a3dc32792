package prompts

import (
	"errors"
	"net/http"
)

// Domain errors for prompt operations.
var (
	ErrNotFound             = errors.New("prompt not found")
	ErrDuplicate            = errors.New("prompt name already exists")
	ErrInvalidTier          = errors.New("tier must be primary, secondary, or tertiary")
	ErrNameRequired         = errors.New("prompt name required")
	ErrInstructionsRequired = errors.New("prompt instructions required")
)

// MapHTTPStatus maps prompt domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidTier),
		errors.Is(err, ErrNameRequired),
		errors.Is(err, ErrInstructionsRequired):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
