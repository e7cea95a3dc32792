package rules

import (
	"regexp"
	"slices"
	"strings"
)

// Feature terms added when a citation shows a structural element. Corpus rules that
// discuss the same element share these words, so structure pulls in the relevant rules.
const (
	termSignal        = "signal"
	termParenthetical = "parenthetical"
	termDocket        = "docket"
	termCourt         = "court"
	termReporter      = "reporter"
	termSection       = "section"
	termYear          = "year"
	termShortForm     = "short"
)

var (
	signalPattern = regexp.MustCompile(
		`(?i)^\s*(see,?\s+e\.g\.,|see\s+also|see\s+generally|but\s+see|but\s+cf\.|see|cf\.|compare|contra|accord|e\.g\.,)`,
	)
	docketPattern = regexp.MustCompile(
		`(?i)\b(?:no\.|nos\.|docket(?:\s+no\.)?|case\s+no\.)\s*(\d[\w:.-]*)`,
	)
	parentheticalPattern = regexp.MustCompile(`\(([^()]*)\)`)
	yearPattern          = regexp.MustCompile(`\b(1[6-9]|20)\d{2}\b`)
	shortFormPattern     = regexp.MustCompile(`(?i)\b(id\.|supra|infra|hereinafter)`)
)

// abbreviation groups map common court, jurisdiction, and reporter abbreviations to
// the feature term they imply.
var abbreviations = []struct {
	pattern *regexp.Regexp
	feature string
	words   []string
}{
	{regexp.MustCompile(`\b\d{1,2}(?:st|nd|rd|th)\s+Cir\.`), termCourt, []string{"circuit"}},
	{regexp.MustCompile(`\bFed\.\s*Cir\.`), termCourt, []string{"circuit", "federal"}},
	{regexp.MustCompile(`\bD\.C\.\s*Cir\.`), termCourt, []string{"circuit"}},
	{regexp.MustCompile(`\b[NSEWC]\.D\.\s*[A-Z][a-z]*\.`), termCourt, []string{"district"}},
	{regexp.MustCompile(`\bD\.\s*[A-Z][a-z]+\.`), termCourt, []string{"district"}},
	{regexp.MustCompile(`\bBankr\.`), termCourt, []string{"bankruptcy"}},
	{regexp.MustCompile(`\bU\.S\.C\.`), termSection, []string{"code", "statute", "statutes"}},
	{regexp.MustCompile(`\bC\.F\.R\.`), termSection, []string{"regulations", "code"}},
	{regexp.MustCompile(`\b\d+\s+U\.S\.\s+\d+`), termReporter, []string{"supreme"}},
	{regexp.MustCompile(`\bS\.\s*Ct\.`), termReporter, []string{"supreme"}},
	{regexp.MustCompile(`\bF\.\s*(?:2d|3d|4th)\b`), termReporter, []string{"federal"}},
	{regexp.MustCompile(`\bF\.\s*Supp\.`), termReporter, []string{"federal", "supplement"}},
	{regexp.MustCompile(`\b(?:Cal|N\.Y|Tex|Ill|Mass|Pa)\.`), termCourt, []string{"state", "jurisdiction"}},
}

// TermExtractor derives the retrieval query from raw citation text.
type TermExtractor struct {
	tokenizer Tokenizer
}

// NewTermExtractor binds an extractor to the tokenizer the index was built with.
func NewTermExtractor(tokenizer Tokenizer) *TermExtractor {
	if tokenizer == nil {
		tokenizer = NewWordTokenizer()
	}
	return &TermExtractor{tokenizer: tokenizer}
}

// Extract returns the sorted, de-duplicated term set for text: signal words, docket
// numbers, court and reporter abbreviations, parenthetical contents, and generic tokens.
func (e *TermExtractor) Extract(text string) []string {
	text = Normalize(text)
	if text == "" {
		return []string{}
	}

	set := make(map[string]struct{})
	add := func(terms ...string) {
		for _, t := range terms {
			if t != "" {
				set[t] = struct{}{}
			}
		}
	}

	if m := signalPattern.FindStringSubmatch(text); m != nil {
		add(termSignal)
		add(e.tokenizer.Tokenize(m[1])...)
	}

	for _, m := range docketPattern.FindAllStringSubmatch(text, -1) {
		add(termDocket)
		add(e.tokenizer.Tokenize(m[1])...)
	}

	for _, a := range abbreviations {
		if a.pattern.MatchString(text) {
			add(a.feature)
			add(a.words...)
		}
	}

	if strings.Contains(text, "§") {
		add(termSection)
	}

	for _, m := range parentheticalPattern.FindAllStringSubmatch(text, -1) {
		inner := strings.TrimSpace(m[1])
		if inner == "" {
			continue
		}
		if yearPattern.MatchString(inner) {
			add(termYear)
		}
		if !isDateOnly(inner) {
			add(termParenthetical)
		}
		add(e.tokenizer.Tokenize(inner)...)
	}

	if shortFormPattern.MatchString(text) {
		add(termShortForm)
	}

	add(e.tokenizer.Tokenize(text)...)

	terms := make([]string, 0, len(set))
	for t := range set {
		terms = append(terms, t)
	}
	slices.Sort(terms)
	return terms
}

// isDateOnly reports whether a parenthetical holds only a court/year designation,
// such as "(2019)" or "(9th Cir. 2019)".
func isDateOnly(inner string) bool {
	loc := yearPattern.FindStringIndex(inner)
	if loc == nil || loc[1] != len(inner) {
		return false
	}
	prefix := strings.TrimSpace(inner[:loc[0]])
	if prefix == "" {
		return true
	}
	return strings.Count(prefix, ".") > 0 && len(strings.Fields(prefix)) <= 3
}
