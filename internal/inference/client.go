// Package inference is the boundary to the external language model service.
// Callers hand it an assembled prompt and a response schema and receive the raw
// completion text; decoding that text is the caller's concern.
package inference

import (
	"context"
	"encoding/json"
)

// Request is one completion call.
type Request struct {
	Prompt     string
	SchemaName string
	Schema     json.RawMessage
}

// Client performs completion calls against the inference service.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)

	// CorpusAccess reports whether the service can retrieve from the full rule
	// corpus on its own, independent of the rules embedded in a prompt.
	CorpusAccess() bool

	Model() string
}

// New builds the configured client, wrapped with a rate limiter when one is set.
func New(cfg *Config) (Client, error) {
	c, err := NewOpenAI(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.RequestsPerSecond > 0 {
		return NewLimited(c, cfg.RequestsPerSecond, cfg.Burst), nil
	}
	return c, nil
}
