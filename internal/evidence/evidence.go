// Package evidence verifies that every finding a stage reports is bound to a
// verbatim quote from a rule that was actually in scope for that stage.
package evidence

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/bluecite/internal/rules"
	"github.com/JaimeStill/bluecite/internal/stages"
)

var typographic = strings.NewReplacer(
	"“", `"`, "”", `"`,
	"‘", "'", "’", "'",
)

// DegradeFactor scales the confidence of an unverified finding and of a stage
// result that carries one.
const DegradeFactor = 0.5

// MinQuoteWords is the shortest quote that verifies as a passage of a longer rule.
// Shorter quotes verify only when they reproduce a rule's whole text.
const MinQuoteWords = 3

// Validator checks rule quotes against a scope of rules. It keeps no state
// between calls and is safe for concurrent use.
type Validator struct{}

// New creates a Validator.
func New() *Validator {
	return &Validator{}
}

type scopedRule struct {
	entry rules.Entry
	text  string
}

// Validate marks every error in result as verified, missing, or mismatched against
// scope. Verified errors get the matching rule's id and bucket back-filled. Errors are
// never removed: any unverified error has its confidence degraded, sets
// EvidenceValidationFailed, and is described in the returned issues, which are also
// attached to the result. Service failure markers are not findings: they stay
// missing but are neither degraded nor counted as evidence failures.
func (v *Validator) Validate(result *stages.Result, scope []rules.Entry) (bool, []string) {
	if result == nil {
		return true, nil
	}

	normalized := make([]scopedRule, len(scope))
	for i, e := range scope {
		normalized[i] = scopedRule{entry: e, text: normalize(e.Text)}
	}

	var issues []string
	for i := range result.Errors {
		e := &result.Errors[i]

		if e.IsServiceFailure() {
			e.EvidenceStatus = stages.EvidenceMissing
			continue
		}

		status, match, issue := check(*e, normalized)
		e.EvidenceStatus = status
		if status == stages.EvidenceVerified {
			e.RuleID = match.ID
			e.RuleBucket = match.Bucket
			continue
		}

		e.Confidence *= DegradeFactor
		issues = append(issues, fmt.Sprintf("error %d (%s): %s", i, e.ErrorType, issue))
	}

	result.EvidenceValidationFailed = len(issues) > 0
	result.EvidenceIssues = issues
	if result.EvidenceValidationFailed {
		result.Confidence *= DegradeFactor
	}

	return !result.EvidenceValidationFailed, issues
}

func check(e stages.ValidationError, scope []scopedRule) (stages.EvidenceStatus, rules.Entry, string) {
	quote := trimQuote(normalize(e.RuleTextQuote))
	if quote == "" {
		return stages.EvidenceMissing, rules.Entry{}, "missing rule_text_quote"
	}

	if e.RuleID != "" {
		for _, r := range scope {
			if r.entry.ID != e.RuleID || (e.RuleBucket.Valid() && r.entry.Bucket != e.RuleBucket) {
				continue
			}
			if contains(r.text, quote) {
				return stages.EvidenceVerified, r.entry, ""
			}
			return stages.EvidenceMismatched, rules.Entry{},
				fmt.Sprintf("quote does not appear in cited rule %s", e.RuleID)
		}
		return stages.EvidenceMismatched, rules.Entry{},
			fmt.Sprintf("cited rule %s was not in scope", e.RuleID)
	}

	for _, r := range scope {
		if contains(r.text, quote) {
			return stages.EvidenceVerified, r.entry, ""
		}
	}

	if len(scope) == 0 {
		return stages.EvidenceMismatched, rules.Entry{}, "quote cannot be verified: no rules in scope"
	}
	return stages.EvidenceMismatched, rules.Entry{}, "quote does not appear in any retrieved rule"
}

// Scope resolves the corpus rules cited by a deterministic stage's errors.
func Scope(corpus *rules.Corpus, result *stages.Result) []rules.Entry {
	if corpus == nil || result == nil {
		return nil
	}

	var scope []rules.Entry
	seen := make(map[string]struct{})
	for _, e := range result.Errors {
		if e.RuleID == "" || !e.RuleBucket.Valid() {
			continue
		}
		key := e.RuleBucket.String() + "/" + e.RuleID
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		if entry, err := corpus.Find(e.RuleBucket, e.RuleID); err == nil {
			scope = append(scope, entry)
		}
	}
	return scope
}

func normalize(s string) string {
	return rules.Normalize(typographic.Replace(s))
}

func contains(text, quote string) bool {
	if len(strings.Fields(quote)) < MinQuoteWords {
		return trimQuote(text) == quote
	}
	return strings.Contains(text, quote)
}

func trimQuote(s string) string {
	s = strings.TrimSpace(s)
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return strings.TrimSpace(strings.Trim(s, "."))
}
