package inference

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

var (
	// ErrServiceUnavailable marks a transient transport or server failure.
	ErrServiceUnavailable = errors.New("inference service unavailable")
	// ErrMalformedResponse marks output that does not conform to the response schema.
	ErrMalformedResponse = errors.New("malformed inference response")
	// ErrRequestRejected marks a request the service refused outright; retrying will not help.
	ErrRequestRejected = errors.New("inference request rejected")
)

// Retryable reports whether a failed call may succeed on another attempt.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrRequestRejected):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

// classify wraps a transport error with the matching sentinel.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusNotFound, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %w", ErrRequestRejected, err)
	}
	return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
}
