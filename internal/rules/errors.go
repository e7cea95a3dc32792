package rules

import (
	"errors"
	"net/http"
)

var (
	// ErrCorpusLoad is fatal at startup: the rule source is missing, malformed,
	// or contains duplicate ids within a bucket.
	ErrCorpusLoad = errors.New("corpus load failed")
	// ErrCorpusUnavailable indicates retrieval was attempted without a loaded index.
	ErrCorpusUnavailable = errors.New("rule corpus unavailable")
	// ErrRetrievalDegraded marks a retrieval that ran but produced no rules.
	ErrRetrievalDegraded = errors.New("retrieval degraded")
	ErrUnknownBucket     = errors.New("unknown rule bucket")
	ErrRuleNotFound      = errors.New("rule not found")
)

// MapHTTPStatus maps rule errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrRuleNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnknownBucket) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrCorpusUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
