package stages

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/JaimeStill/bluecite/internal/citations"
	"github.com/JaimeStill/bluecite/internal/rules"
)

var (
	ruleBackgroundSignal = RuleRef{Bucket: rules.BucketHouse, ID: "H-1"}
	ruleUnreported       = RuleRef{Bucket: rules.BucketHouse, ID: "H-2"}
	ruleShortForm        = RuleRef{Bucket: rules.BucketHouse, ID: "H-3"}
	ruleTerminal         = RuleRef{Bucket: rules.BucketHouse, ID: "H-4"}
	ruleCaseDate         = RuleRef{Bucket: rules.BucketGeneral, ID: "R10.5"}
	ruleStatuteForm      = RuleRef{Bucket: rules.BucketGeneral, ID: "R12.3"}
	ruleID               = RuleRef{Bucket: rules.BucketGeneral, ID: "R4.1"}
)

var structuralRules = []RuleRef{
	ruleBackgroundSignal,
	ruleUnreported,
	ruleShortForm,
	ruleTerminal,
	ruleCaseDate,
	ruleStatuteForm,
	ruleID,
}

var (
	backgroundSignal = regexp.MustCompile(`(?i)^(?:see\s+generally|see\s+also\s+generally)\b`)
	parenthetical    = regexp.MustCompile(`\(([^()]*)\)`)
	yearOnly         = regexp.MustCompile(`^(?:[A-Z0-9][A-Za-z0-9.']*\s)*(?:[A-Z][a-z]{2,3}\.?\s\d{1,2},\s)?\d{4}$`)
	hasYear          = regexp.MustCompile(`\b(1[6-9]|20)\d{2}\b`)
	databaseCite     = regexp.MustCompile(`\b\d{4}\s+(?:WL|U\.S\. Dist\. LEXIS|LEXIS)\s+\d+`)
	docketNumber     = regexp.MustCompile(`(?i)\bNo(?:s)?\.\s*\d`)
	idForm           = regexp.MustCompile(`^(?i:id)(?:[\s,;:]|$)|(?i)\bibid\b`)
	shortForm        = regexp.MustCompile(`^(?:Id\.|[A-Z][^,]*,\s*supra\b)`)
	supra            = regexp.MustCompile(`\bsupra\b`)
	codeCite         = regexp.MustCompile(`\b(?:U\.S\.C|C\.F\.R)\.`)
)

// topic-only parentheticals restate the subject without explaining relevance
var topicLeads = []string{"discussing", "regarding", "concerning", "about", "addressing", "on"}

// Confidence reported by the rule stage when no check fires, by citation type.
var ruleCleanConfidence = map[citations.Type]float64{
	citations.TypeCase:    0.9,
	citations.TypeStatute: 0.9,
	citations.TypeBook:    0.75,
	citations.TypeArticle: 0.75,
	citations.TypeOther:   0.5,
}

// RuleStage applies deterministic structural checks, each bound to a corpus rule.
type RuleStage struct {
	corpus *rules.Corpus
}

// NewRuleStage creates a RuleStage that quotes rules from corpus.
func NewRuleStage(corpus *rules.Corpus) *RuleStage {
	return &RuleStage{corpus: corpus}
}

func (s *RuleStage) Name() Name {
	return StageRule
}

type structuralCheck func(text string, t citations.Type) (errorType, message string, confidence float64, ref RuleRef, found bool)

var structuralChecks = []structuralCheck{
	checkBackgroundParenthetical,
	checkCaseDate,
	checkUnreportedDocket,
	checkStatuteSection,
	checkIDForm,
	checkSupra,
	checkTerminalPeriod,
}

// Check runs every structural check. With findings, confidence is that of the
// least certain finding, so any uncertain finding escalates.
func (s *RuleStage) Check(_ context.Context, c citations.Citation) Result {
	start := time.Now()
	text := strings.TrimSpace(rules.Normalize(c.RawText))

	result := Result{
		Stage:  StageRule,
		Errors: []ValidationError{},
	}

	for _, check := range structuralChecks {
		errorType, message, confidence, ref, found := check(text, c.Type)
		if found {
			result.Errors = append(result.Errors, cite(s.corpus, ref, errorType, message, confidence))
		}
	}

	if len(result.Errors) > 0 {
		result.IsValid = false
		result.Confidence = minConfidence(result.Errors)
	} else {
		result.IsValid = true
		result.Confidence = ruleCleanConfidence[c.Type]
		if shortForm.MatchString(text) {
			result.Confidence = max(result.Confidence, 0.9)
		}
	}

	result.ElapsedMS = time.Since(start).Milliseconds()
	return result
}

func checkBackgroundParenthetical(text string, _ citations.Type) (string, string, float64, RuleRef, bool) {
	if !backgroundSignal.MatchString(text) {
		return "", "", 0, RuleRef{}, false
	}

	explanatory := explanatoryParentheticals(text)
	if len(explanatory) == 0 {
		return "missing_parenthetical",
			"a see generally citation requires an explanatory parenthetical",
			0.7, ruleBackgroundSignal, true
	}

	for _, p := range explanatory {
		if !isTopicOnly(p) {
			return "", "", 0, RuleRef{}, false
		}
	}

	return "weak_parenthetical",
		"the explanatory parenthetical names a topic without stating the substance of the source",
		0.6, ruleBackgroundSignal, true
}

func checkCaseDate(text string, t citations.Type) (string, string, float64, RuleRef, bool) {
	if t != citations.TypeCase || shortForm.MatchString(text) {
		return "", "", 0, RuleRef{}, false
	}
	for _, m := range parenthetical.FindAllStringSubmatch(text, -1) {
		if hasYear.MatchString(m[1]) {
			return "", "", 0, RuleRef{}, false
		}
	}
	return "missing_date_parenthetical",
		"a case citation must give the year of decision in a parenthetical",
		0.8, ruleCaseDate, true
}

func checkUnreportedDocket(text string, t citations.Type) (string, string, float64, RuleRef, bool) {
	if t != citations.TypeCase || !databaseCite.MatchString(text) || docketNumber.MatchString(text) {
		return "", "", 0, RuleRef{}, false
	}
	return "missing_docket_number",
		"an unreported decision must include its docket number",
		0.8, ruleUnreported, true
}

func checkStatuteSection(text string, t citations.Type) (string, string, float64, RuleRef, bool) {
	if t != citations.TypeStatute || !codeCite.MatchString(text) || strings.Contains(text, "§") {
		return "", "", 0, RuleRef{}, false
	}
	return "missing_section_symbol",
		"a code citation must give the section symbol before the section number",
		0.85, ruleStatuteForm, true
}

func checkIDForm(text string, _ citations.Type) (string, string, float64, RuleRef, bool) {
	if !idForm.MatchString(text) {
		return "", "", 0, RuleRef{}, false
	}
	return "id_form",
		"the short form must be written Id. with a period",
		0.85, ruleID, true
}

func checkSupra(text string, t citations.Type) (string, string, float64, RuleRef, bool) {
	if (t != citations.TypeCase && t != citations.TypeStatute) || !supra.MatchString(text) {
		return "", "", 0, RuleRef{}, false
	}
	return "supra_misuse",
		"supra may not be used for cases, statutes, or regulations",
		0.85, ruleShortForm, true
}

func checkTerminalPeriod(text string, _ citations.Type) (string, string, float64, RuleRef, bool) {
	if text == "" || strings.HasSuffix(text, ".") {
		return "", "", 0, RuleRef{}, false
	}
	return "missing_terminal_period",
		"a citation sentence must end with a period",
		0.9, ruleTerminal, true
}

// explanatoryParentheticals returns parenthetical contents that are not a court
// and date designation.
func explanatoryParentheticals(text string) []string {
	var found []string
	for _, m := range parenthetical.FindAllStringSubmatch(text, -1) {
		inner := strings.TrimSpace(m[1])
		if inner == "" || yearOnly.MatchString(inner) {
			continue
		}
		found = append(found, inner)
	}
	return found
}

func isTopicOnly(p string) bool {
	words := strings.Fields(strings.ToLower(p))
	if len(words) == 0 || len(words) > 3 {
		return false
	}
	for _, lead := range topicLeads {
		if words[0] == lead {
			return true
		}
	}
	return false
}
