package stages

import (
	"slices"
	"strings"
	"unicode"

	"github.com/JaimeStill/bluecite/internal/rules"
)

// RuleRef points a deterministic check at the corpus rule it enforces.
type RuleRef struct {
	Bucket rules.Bucket `yaml:"bucket"`
	ID     string       `yaml:"id"`
}

func (r RuleRef) String() string {
	return r.Bucket.String() + "/" + r.ID
}

// MissingRules lists, in first-seen order, the rules enforced by the regex
// error patterns and the structural checks that corpus does not contain.
// Findings bound to a missing rule always fail evidence validation.
func MissingRules(patterns *Patterns, corpus *rules.Corpus) []RuleRef {
	refs := slices.Clone(structuralRules)
	if patterns != nil {
		for _, p := range patterns.errors {
			refs = append(refs, p.Rule)
		}
	}

	missing := []RuleRef{}
	seen := make(map[RuleRef]bool, len(refs))
	for _, ref := range refs {
		if seen[ref] {
			continue
		}
		seen[ref] = true
		if _, err := corpus.Find(ref.Bucket, ref.ID); err != nil {
			missing = append(missing, ref)
		}
	}
	return missing
}

// cite builds a finding bound to ref. The quote is the first sentence of the rule
// as it appears in corpus; when the rule is absent the quote stays empty and the
// finding will fail evidence validation.
func cite(corpus *rules.Corpus, ref RuleRef, errorType, message string, confidence float64) ValidationError {
	e := ValidationError{
		ErrorType:  errorType,
		Message:    message,
		RuleBucket: ref.Bucket,
		RuleID:     ref.ID,
		Confidence: clamp(confidence),
	}

	if corpus == nil {
		return e
	}
	if entry, err := corpus.Find(ref.Bucket, ref.ID); err == nil {
		e.RuleTextQuote = firstSentence(entry.Text)
	}
	return e
}

// firstSentence returns text up to the first period that ends a word of four or
// more letters and is followed by whitespace or the end of text. Short words such
// as "Id." and "Cir." are treated as abbreviations.
func firstSentence(text string) string {
	text = rules.Normalize(text)
	runes := []rune(text)

	for i, r := range runes {
		if r != '.' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}

		letters := 0
		for j := i - 1; j >= 0 && unicode.IsLetter(runes[j]); j-- {
			letters++
		}
		if letters >= 4 {
			return string(runes[:i+1])
		}
	}

	return strings.TrimSpace(text)
}
