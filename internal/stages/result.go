// Package stages implements the escalating citation checkers: a regex stage, a
// structural rule stage, and a rule-grounded LLM stage.
package stages

import (
	"time"

	"github.com/JaimeStill/bluecite/internal/rules"
)

// Name identifies a stage in reports and metrics.
type Name string

const (
	StageRegex Name = "regex"
	StageRule  Name = "rule"
	StageLLM   Name = "llm"
)

// EvidenceStatus records whether an error's rule quote was verified against the
// rules in scope. An empty status means the error has not been through evidence
// validation yet; finalized reports never carry it.
type EvidenceStatus string

const (
	EvidenceVerified   EvidenceStatus = "verified"
	EvidenceMissing    EvidenceStatus = "missing"
	EvidenceMismatched EvidenceStatus = "mismatched"
)

// AccessTier tags how much rule context the LLM stage had.
type AccessTier string

const (
	TierPrimary   AccessTier = "primary"
	TierSecondary AccessTier = "secondary"
	TierTertiary  AccessTier = "tertiary"
)

// FileAccessNone is the file_access_status value for the tertiary tier.
const FileAccessNone = "no_file_access"

// Error types emitted by stage failures rather than citation findings.
const (
	ErrorServiceUnavailable = "service_unavailable"
	ErrorServiceTimeout     = "service_timeout"
	ErrorMalformedResponse  = "malformed_response"
	ErrorStageFailure       = "stage_failure"
)

// ValidationError is one finding against a citation. RuleID and RuleTextQuote are
// empty until supplied by the stage or back-filled by evidence validation.
type ValidationError struct {
	ErrorType      string         `json:"error_type"`
	Message        string         `json:"message"`
	RuleBucket     rules.Bucket   `json:"rule_bucket,omitempty"`
	RuleID         string         `json:"rule_id,omitempty"`
	RuleTextQuote  string         `json:"rule_text_quote,omitempty"`
	Confidence     float64        `json:"confidence"`
	EvidenceStatus EvidenceStatus `json:"evidence_status"`
}

// IsServiceFailure reports whether the error describes an infrastructure failure
// rather than a finding about the citation.
func (e ValidationError) IsServiceFailure() bool {
	switch e.ErrorType {
	case ErrorServiceUnavailable, ErrorServiceTimeout, ErrorMalformedResponse, ErrorStageFailure:
		return true
	}
	return false
}

// Result is the output of one stage for one citation.
type Result struct {
	Stage         Name              `json:"stage_name"`
	IsValid       bool              `json:"is_valid"`
	Confidence    float64           `json:"confidence"`
	Errors        []ValidationError `json:"errors"`
	CorrectedText string            `json:"corrected_text,omitempty"`
	ElapsedMS     int64             `json:"elapsed_ms"`

	EvidenceValidationFailed bool     `json:"evidence_validation_failed"`
	EvidenceIssues           []string `json:"evidence_issues,omitempty"`

	AccessTier       AccessTier `json:"access_tier,omitempty"`
	HasFileAccess    *bool      `json:"has_file_access,omitempty"`
	FileAccessStatus string     `json:"file_access_status,omitempty"`
	Notes            []string   `json:"notes,omitempty"`
}

// ServiceFailed reports whether the result carries a service failure marker.
func (r *Result) ServiceFailed() bool {
	for _, e := range r.Errors {
		if e.IsServiceFailure() {
			return true
		}
	}
	return false
}

// Failure builds the result of a stage that could not complete. Service failures
// carry no rule evidence and are marked missing so they always reach review.
func Failure(stage Name, errorType, message string, elapsed time.Duration) Result {
	return Result{
		Stage:      stage,
		IsValid:    false,
		Confidence: 0,
		Errors: []ValidationError{{
			ErrorType:      errorType,
			Message:        message,
			Confidence:     1,
			EvidenceStatus: EvidenceMissing,
		}},
		ElapsedMS: elapsed.Milliseconds(),
	}
}

func clamp(v float64) float64 {
	return min(max(v, 0), 1)
}
