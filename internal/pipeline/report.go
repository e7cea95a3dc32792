// Package pipeline routes citations through the escalating validation stages
// and runs batches of citations across a bounded worker pool.
package pipeline

import (
	"errors"
	"slices"

	"github.com/JaimeStill/bluecite/internal/rules"
	"github.com/JaimeStill/bluecite/internal/stages"
)

// ErrServiceTimeout marks a citation whose time budget ran out before the
// terminal stage produced a result.
var ErrServiceTimeout = errors.New("citation timed out")

// State is a position in the routing state machine.
type State string

const (
	StateInit         State = "Init"
	StateRegexChecked State = "RegexChecked"
	StateRuleChecked  State = "RuleChecked"
	StateLLMChecked   State = "LLMChecked"
	StateFinal        State = "Final"
)

// ExitStates lists the states a report can exit from, in routing order.
var ExitStates = []State{StateRegexChecked, StateRuleChecked, StateLLMChecked}

// Report is the finalized outcome for one citation. FinalResult is the result of
// the last stage that ran; StagesRun holds every stage result in order.
type Report struct {
	CitationID        string          `json:"citation_id"`
	StagesRun         []stages.Result `json:"stages_run"`
	FinalResult       stages.Result   `json:"final_result"`
	StageAtExit       State           `json:"stage_at_exit"`
	Coverage          *rules.Coverage `json:"coverage,omitempty"`
	RetrievalDegraded bool            `json:"retrieval_degraded"`
	NeedsReview       bool            `json:"needs_review"`
	Notes             []string        `json:"notes,omitempty"`
}

// IsValid reports the verdict of the final stage.
func (r *Report) IsValid() bool {
	return r.FinalResult.IsValid
}

// EvidenceFailed reports whether any stage result failed evidence validation.
func (r *Report) EvidenceFailed() bool {
	for _, s := range r.StagesRun {
		if s.EvidenceValidationFailed {
			return true
		}
	}
	return false
}

func (r *Report) finalize(exit State) {
	r.StageAtExit = exit
	if n := len(r.StagesRun); n > 0 {
		r.FinalResult = cloneResult(r.StagesRun[n-1])
	}
	r.NeedsReview = r.FinalResult.EvidenceValidationFailed ||
		r.FinalResult.ServiceFailed() ||
		r.RetrievalDegraded
}

func cloneResult(r stages.Result) stages.Result {
	r.Errors = slices.Clone(r.Errors)
	r.EvidenceIssues = slices.Clone(r.EvidenceIssues)
	r.Notes = slices.Clone(r.Notes)
	if r.HasFileAccess != nil {
		access := *r.HasFileAccess
		r.HasFileAccess = &access
	}
	return r
}
