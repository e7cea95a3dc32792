package validations

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/bluecite/internal/citations"
)

// Domain errors for validation operations.
var (
	ErrNotFound         = errors.New("validation not found")
	ErrReportNotFound   = errors.New("validation report not found")
	ErrDuplicate        = errors.New("validation already exists")
	ErrNotArchived      = errors.New("validation run has no archive")
	ErrNotFlagged       = errors.New("report is not flagged for review")
	ErrReviewerRequired = errors.New("reviewed_by required")
)

// MapHTTPStatus maps validation domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrReportNotFound),
		errors.Is(err, ErrNotArchived):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrNotFlagged):
		return http.StatusConflict
	case errors.Is(err, ErrReviewerRequired),
		errors.Is(err, citations.ErrInvalidBatch),
		errors.Is(err, citations.ErrUnknownType):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
