// Package formatting decodes model output and parses human-readable sizes.
package formatting

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when content cannot be parsed as JSON,
// either directly or from a markdown code fence.
var ErrParseFailed = errors.New("failed to parse response")

var jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")

// Parse attempts to unmarshal content as JSON into T, rejecting unknown fields
// and trailing data. If direct parsing fails, it extracts JSON from a markdown
// code fence and retries. Returns ErrParseFailed if both attempts fail.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	firstErr := decodeStrict(content, &result)
	if firstErr == nil {
		return result, nil
	}

	matches := jsonBlockRegex.FindStringSubmatch(content)
	if len(matches) >= 2 {
		var fenced T
		cleaned := strings.TrimSpace(matches[1])
		if err := decodeStrict(cleaned, &fenced); err == nil {
			return fenced, nil
		}
	}

	return result, fmt.Errorf("%w: %w", ErrParseFailed, firstErr)
}

func decodeStrict(content string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(content)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}
