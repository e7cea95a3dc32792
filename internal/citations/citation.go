// Package citations defines the parsed citation record handed to the validation
// pipeline by an upstream extractor, and decoding of citation batches.
package citations

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	ErrInvalidBatch = errors.New("invalid citation batch")
	ErrUnknownType  = errors.New("unknown citation type")
)

// Type is the coarse kind of authority a citation refers to.
type Type string

const (
	TypeCase    Type = "case"
	TypeStatute Type = "statute"
	TypeBook    Type = "book"
	TypeArticle Type = "article"
	TypeOther   Type = "other"
)

// ParseType resolves a citation type, treating an empty value as other.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeCase, TypeStatute, TypeBook, TypeArticle, TypeOther:
		return t, nil
	case "":
		return TypeOther, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

func (t *Type) UnmarshalText(data []byte) error {
	parsed, err := ParseType(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Citation is read-only input to the pipeline.
type Citation struct {
	ID              string `json:"id"`
	RawText         string `json:"raw_text"`
	Type            Type   `json:"citation_type"`
	FootnoteNumber  int    `json:"footnote_number"`
	IndexInFootnote int    `json:"citation_index"`
}

// Batch is the request envelope accepted by the CLI and the HTTP API.
type Batch struct {
	Citations []Citation `json:"citations"`
}

// Validate checks that every citation has an id and text and that ids are unique.
func (b Batch) Validate() error {
	if len(b.Citations) == 0 {
		return fmt.Errorf("%w: no citations", ErrInvalidBatch)
	}

	seen := make(map[string]struct{}, len(b.Citations))
	for i, c := range b.Citations {
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("%w: citation %d has no id", ErrInvalidBatch, i)
		}
		if strings.TrimSpace(c.RawText) == "" {
			return fmt.Errorf("%w: citation %s has no raw_text", ErrInvalidBatch, c.ID)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: duplicate citation id %s", ErrInvalidBatch, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

// Decode reads either a Batch envelope or a bare JSON array of citations.
func Decode(r io.Reader) (Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Batch{}, fmt.Errorf("read citations: %w", err)
	}

	var batch Batch
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal(data, &batch.Citations)
	} else {
		err = json.Unmarshal(data, &batch)
	}
	if err != nil {
		return Batch{}, fmt.Errorf("%w: %w", ErrInvalidBatch, err)
	}

	for i := range batch.Citations {
		if batch.Citations[i].Type == "" {
			batch.Citations[i].Type = TypeOther
		}
	}

	if err := batch.Validate(); err != nil {
		return Batch{}, err
	}
	return batch, nil
}

// Load reads a citation batch from a JSON file.
func Load(path string) (Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return Batch{}, fmt.Errorf("open citations: %w", err)
	}
	defer f.Close()

	return Decode(f)
}
