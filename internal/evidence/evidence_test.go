package evidence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/bluecite/internal/evidence"
	"github.com/JaimeStill/bluecite/internal/rules"
	"github.com/JaimeStill/bluecite/internal/stages"
)

var scope = []rules.Entry{
	{
		ID:     "H-1",
		Bucket: rules.BucketHouse,
		Title:  "Explanatory parentheticals for background signals",
		Text: "Every citation introduced by the signal see generally must carry an explanatory\n" +
			"parenthetical that states the substance of the cited source.",
	},
	{
		ID:     "R1.5",
		Bucket: rules.BucketGeneral,
		Title:  "Parenthetical information",
		Text:   "An explanatory parenthetical should explain the relevance of the authority.",
	},
}

func llmResult(errs ...stages.ValidationError) *stages.Result {
	return &stages.Result{Stage: stages.StageLLM, IsValid: len(errs) == 0, Errors: errs}
}

func TestValidateVerified(t *testing.T) {
	result := llmResult(stages.ValidationError{
		ErrorType:     "weak_parenthetical",
		Message:       "parenthetical names a topic only",
		RuleTextQuote: "must carry an explanatory parenthetical that states the substance of the cited source",
		Confidence:    0.9,
	})

	pass, issues := evidence.New().Validate(result, scope)

	assert.True(t, pass)
	assert.Empty(t, issues)
	assert.False(t, result.EvidenceValidationFailed)

	e := result.Errors[0]
	assert.Equal(t, stages.EvidenceVerified, e.EvidenceStatus)
	assert.Equal(t, "H-1", e.RuleID)
	assert.Equal(t, rules.BucketHouse, e.RuleBucket)
}

func TestValidateNormalizesWhitespaceAndQuotes(t *testing.T) {
	tests := []struct {
		name  string
		quote string
	}{
		{"collapsed newline", "see generally must carry an explanatory parenthetical"},
		{"extra spaces", "see   generally\tmust carry"},
		{"wrapped in quotes", `"An explanatory parenthetical should explain"`},
		{"curly quotes", "“An explanatory parenthetical should explain”"},
		{"trailing ellipsis", "the relevance of the authority..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := llmResult(stages.ValidationError{ErrorType: "x", RuleTextQuote: tt.quote})
			pass, _ := evidence.New().Validate(result, scope)
			assert.True(t, pass)
			assert.Equal(t, stages.EvidenceVerified, result.Errors[0].EvidenceStatus)
		})
	}
}

func TestValidateMissingQuote(t *testing.T) {
	result := llmResult(stages.ValidationError{
		ErrorType:  "weak_parenthetical",
		Message:    "parenthetical names a topic only",
		Confidence: 0.8,
	})
	result.Confidence = 0.9

	pass, issues := evidence.New().Validate(result, scope)

	assert.False(t, pass)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "missing rule_text_quote")
	assert.True(t, result.EvidenceValidationFailed)
	assert.Equal(t, issues, result.EvidenceIssues)

	require.Len(t, result.Errors, 1, "unverified errors are retained")
	assert.Equal(t, stages.EvidenceMissing, result.Errors[0].EvidenceStatus)
	assert.Empty(t, result.Errors[0].RuleID)
	assert.InDelta(t, 0.4, result.Errors[0].Confidence, 1e-9)
	assert.InDelta(t, 0.45, result.Confidence, 1e-9)
}

func TestValidateMismatchedQuote(t *testing.T) {
	tests := []struct {
		name  string
		err   stages.ValidationError
		scope []rules.Entry
		issue string
	}{
		{
			name:  "paraphrase",
			err:   stages.ValidationError{ErrorType: "x", RuleTextQuote: "background signals need a parenthetical"},
			scope: scope,
			issue: "does not appear in any retrieved rule",
		},
		{
			name:  "case differs",
			err:   stages.ValidationError{ErrorType: "x", RuleTextQuote: "EVERY CITATION INTRODUCED"},
			scope: scope,
			issue: "does not appear in any retrieved rule",
		},
		{
			name:  "quote from wrong cited rule",
			err:   stages.ValidationError{ErrorType: "x", RuleID: "R1.5", RuleTextQuote: "see generally must carry"},
			scope: scope,
			issue: "does not appear in cited rule R1.5",
		},
		{
			name:  "cited rule out of scope",
			err:   stages.ValidationError{ErrorType: "x", RuleID: "T6", RuleTextQuote: "see generally must carry"},
			scope: scope,
			issue: "cited rule T6 was not in scope",
		},
		{
			name:  "nothing retrieved",
			err:   stages.ValidationError{ErrorType: "x", RuleTextQuote: "see generally must carry"},
			scope: nil,
			issue: "no rules in scope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := llmResult(tt.err)
			pass, issues := evidence.New().Validate(result, tt.scope)

			assert.False(t, pass)
			require.Len(t, issues, 1)
			assert.Contains(t, issues[0], tt.issue)
			assert.Equal(t, stages.EvidenceMismatched, result.Errors[0].EvidenceStatus)
			assert.True(t, result.EvidenceValidationFailed)
		})
	}
}

func TestValidateMixedErrorsEveryStatusSet(t *testing.T) {
	result := llmResult(
		stages.ValidationError{ErrorType: "a", RuleTextQuote: "explain the relevance of the authority"},
		stages.ValidationError{ErrorType: "b"},
		stages.ValidationError{ErrorType: "c", RuleTextQuote: "invented rule text"},
	)

	pass, issues := evidence.New().Validate(result, scope)

	assert.False(t, pass)
	assert.Len(t, issues, 2)
	require.Len(t, result.Errors, 3)

	assert.Equal(t, stages.EvidenceVerified, result.Errors[0].EvidenceStatus)
	assert.Equal(t, "R1.5", result.Errors[0].RuleID)
	assert.Equal(t, stages.EvidenceMissing, result.Errors[1].EvidenceStatus)
	assert.Equal(t, stages.EvidenceMismatched, result.Errors[2].EvidenceStatus)
}

func TestValidateNoErrors(t *testing.T) {
	result := llmResult()
	result.EvidenceValidationFailed = true

	pass, issues := evidence.New().Validate(result, nil)

	assert.True(t, pass)
	assert.Empty(t, issues)
	assert.False(t, result.EvidenceValidationFailed)
}

func TestScope(t *testing.T) {
	corpus, err := rules.NewCorpus("t", scope)
	require.NoError(t, err)

	result := &stages.Result{Errors: []stages.ValidationError{
		{RuleID: "H-1", RuleBucket: rules.BucketHouse},
		{RuleID: "H-1", RuleBucket: rules.BucketHouse},
		{RuleID: "R1.5", RuleBucket: rules.BucketGeneral},
		{RuleID: "T6", RuleBucket: rules.BucketTables},
		{RuleID: ""},
	}}

	got := evidence.Scope(corpus, result)
	require.Len(t, got, 2)
	assert.Equal(t, "H-1", got[0].ID)
	assert.Equal(t, "R1.5", got[1].ID)

	assert.Nil(t, evidence.Scope(nil, result))
}

func TestValidateServiceFailureIsNotEvidenceFailure(t *testing.T) {
	result := stages.Failure(stages.StageLLM, stages.ErrorServiceUnavailable, "inference unavailable", 0)

	pass, issues := evidence.New().Validate(&result, scope)

	assert.True(t, pass)
	assert.Empty(t, issues)
	assert.False(t, result.EvidenceValidationFailed)
	assert.False(t, result.IsValid)
	assert.Zero(t, result.Confidence)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, stages.EvidenceMissing, result.Errors[0].EvidenceStatus)
	assert.InDelta(t, 1.0, result.Errors[0].Confidence, 1e-9)
	assert.True(t, result.ServiceFailed())
}

func TestValidateShortQuotes(t *testing.T) {
	short := []rules.Entry{
		{ID: "T2", Bucket: rules.BucketTables, Title: "Abbreviation", Text: "Abbreviate reporters."},
	}
	all := append(append([]rules.Entry{}, scope...), short...)

	tests := []struct {
		name   string
		quote  string
		status stages.EvidenceStatus
	}{
		{"single word inside a rule", `"a"`, stages.EvidenceMismatched},
		{"two words inside a rule", "explanatory parenthetical", stages.EvidenceMismatched},
		{"three words inside a rule", "explain the relevance", stages.EvidenceVerified},
		{"whole short rule", "Abbreviate reporters.", stages.EvidenceVerified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := llmResult(stages.ValidationError{ErrorType: "x", RuleTextQuote: tt.quote})
			evidence.New().Validate(result, all)
			assert.Equal(t, tt.status, result.Errors[0].EvidenceStatus)
		})
	}
}
