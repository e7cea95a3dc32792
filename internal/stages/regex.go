package stages

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/JaimeStill/bluecite/internal/citations"
	"github.com/JaimeStill/bluecite/internal/rules"
)

//go:embed patterns.yaml
var defaultPatterns []byte

// Confidence reported by the regex stage when a citation matches no known shape.
const regexUnknownConfidence = 0.3

// PatternSpec is the on-disk form of a single pattern.
type PatternSpec struct {
	Name       string           `yaml:"name"`
	Message    string           `yaml:"message"`
	Pattern    string           `yaml:"pattern"`
	Types      []citations.Type `yaml:"types"`
	Confidence float64          `yaml:"confidence"`
	Rule       RuleRef          `yaml:"rule"`
}

type patternFile struct {
	Errors []PatternSpec `yaml:"errors"`
	Shapes []PatternSpec `yaml:"shapes"`
}

type pattern struct {
	PatternSpec
	re *regexp.Regexp
}

func (p pattern) appliesTo(t citations.Type) bool {
	return len(p.Types) == 0 || slices.Contains(p.Types, t)
}

// Patterns is a compiled pattern set.
type Patterns struct {
	errors []pattern
	shapes []pattern
}

// DefaultPatterns compiles the embedded pattern set.
func DefaultPatterns() (*Patterns, error) {
	return DecodePatterns(bytes.NewReader(defaultPatterns))
}

// LoadPatterns compiles a pattern file from disk.
func LoadPatterns(path string) (*Patterns, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open patterns: %w", err)
	}
	defer f.Close()
	return DecodePatterns(f)
}

// DecodePatterns parses and compiles a YAML pattern file.
func DecodePatterns(r io.Reader) (*Patterns, error) {
	var file patternFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode patterns: %w", err)
	}

	errs, err := compile(file.Errors, true)
	if err != nil {
		return nil, err
	}
	shapes, err := compile(file.Shapes, false)
	if err != nil {
		return nil, err
	}

	return &Patterns{errors: errs, shapes: shapes}, nil
}

func compile(specs []PatternSpec, needsRule bool) ([]pattern, error) {
	compiled := make([]pattern, 0, len(specs))
	for _, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("pattern without name")
		}
		if s.Confidence < 0 || s.Confidence > 1 {
			return nil, fmt.Errorf("pattern %s: confidence %v outside [0,1]", s.Name, s.Confidence)
		}
		if needsRule && (s.Rule.ID == "" || !s.Rule.Bucket.Valid()) {
			return nil, fmt.Errorf("pattern %s: rule reference required", s.Name)
		}
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: %w", s.Name, err)
		}
		compiled = append(compiled, pattern{PatternSpec: s, re: re})
	}
	return compiled, nil
}

// RegexStage is the fast first pass. Error patterns report definite defects; shape
// patterns raise confidence that a defect-free citation is well formed.
type RegexStage struct {
	patterns *Patterns
	corpus   *rules.Corpus
}

// NewRegexStage binds patterns to the corpus used to quote the rules they enforce.
func NewRegexStage(patterns *Patterns, corpus *rules.Corpus) *RegexStage {
	return &RegexStage{patterns: patterns, corpus: corpus}
}

func (s *RegexStage) Name() Name {
	return StageRegex
}

// Check runs every applicable pattern. With findings, confidence is that of the
// least certain finding; without, it is the best matching shape's confidence.
func (s *RegexStage) Check(_ context.Context, c citations.Citation) Result {
	start := time.Now()
	text := strings.TrimSpace(rules.Normalize(c.RawText))

	result := Result{
		Stage:  StageRegex,
		Errors: []ValidationError{},
	}

	for _, p := range s.patterns.errors {
		if !p.appliesTo(c.Type) || !p.re.MatchString(text) {
			continue
		}
		result.Errors = append(result.Errors, cite(s.corpus, p.Rule, p.Name, p.Message, p.Confidence))
	}

	if len(result.Errors) > 0 {
		result.IsValid = false
		result.Confidence = minConfidence(result.Errors)
	} else {
		result.IsValid = true
		result.Confidence = regexUnknownConfidence
		for _, p := range s.patterns.shapes {
			if p.appliesTo(c.Type) && p.re.MatchString(text) {
				result.Confidence = max(result.Confidence, p.Confidence)
				result.Notes = append(result.Notes, "matched shape "+p.Name)
			}
		}
	}

	result.ElapsedMS = time.Since(start).Milliseconds()
	return result
}

func minConfidence(errs []ValidationError) float64 {
	lowest := 1.0
	for _, e := range errs {
		lowest = min(lowest, e.Confidence)
	}
	return lowest
}
