package rules

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JaimeStill/bluecite/pkg/storage"
)

// Format identifies the encoding of a rule source.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

type document struct {
	Version string  `json:"version" yaml:"version"`
	Rules   []Entry `json:"rules" yaml:"rules"`
}

// FormatFromPath infers the format from a file extension, defaulting to YAML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// ParseFormat validates a configured format name. Empty means infer from the source.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatYAML, FormatJSON:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported corpus format %q", s)
	}
}

// Load reads a rule corpus from a file on disk.
func Load(path string, format Format) (*Corpus, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no corpus path configured", ErrCorpusLoad)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrCorpusLoad, path, err)
	}

	if format == "" {
		format = FormatFromPath(path)
	}

	return Decode(bytes.NewReader(data), format)
}

// LoadBlob reads a rule corpus from blob storage.
func LoadBlob(ctx context.Context, store storage.System, key string, format Format) (*Corpus, error) {
	body, err := store.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: download %s: %w", ErrCorpusLoad, key, err)
	}
	defer body.Close()

	if format == "" {
		format = FormatFromPath(key)
	}

	return Decode(body, format)
}

// Decode parses a rule document. Unknown fields are rejected.
func Decode(r io.Reader, format Format) (*Corpus, error) {
	var doc document

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: decode json: %w", ErrCorpusLoad, err)
		}
	case FormatYAML, "":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("%w: empty source", ErrCorpusLoad)
			}
			return nil, fmt.Errorf("%w: decode yaml: %w", ErrCorpusLoad, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrCorpusLoad, format)
	}

	return NewCorpus(doc.Version, doc.Rules)
}
