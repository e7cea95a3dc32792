package rules

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Tokenizer turns prose into keyword tokens. Implementations must be deterministic
// and safe for concurrent use; the index and the term extractor share one instance.
type Tokenizer interface {
	Tokenize(text string) []string
}

var defaultStopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "been", "but", "by", "for", "from",
	"has", "have", "in", "into", "is", "it", "its", "may", "must", "not", "of", "on",
	"or", "should", "such", "that", "the", "their", "then", "there", "these", "this",
	"those", "to", "was", "were", "when", "where", "which", "while", "with", "within",
}

// WordTokenizer normalizes text to NFKC, lowercases it, splits on anything that is
// not a letter or digit, and drops stopwords and single-letter fragments.
type WordTokenizer struct {
	stopwords map[string]struct{}
}

// NewWordTokenizer builds a tokenizer. With no arguments the default English stopword
// list is used.
func NewWordTokenizer(stopwords ...string) *WordTokenizer {
	if len(stopwords) == 0 {
		stopwords = defaultStopwords
	}
	set := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		set[strings.ToLower(w)] = struct{}{}
	}
	return &WordTokenizer{stopwords: set}
}

// Tokenize returns unique tokens in first-seen order.
func (t *WordTokenizer) Tokenize(text string) []string {
	fields := strings.FieldsFunc(Normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))

	for _, f := range fields {
		f = strings.ToLower(f)
		if _, stop := t.stopwords[f]; stop {
			continue
		}
		if len([]rune(f)) == 1 && !unicode.IsDigit([]rune(f)[0]) {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}

	return tokens
}

// Normalize applies NFKC and collapses runs of whitespace to a single space.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(s), " ")
}
