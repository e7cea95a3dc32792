package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/bluecite/internal/metrics"
	"github.com/JaimeStill/bluecite/internal/pipeline"
	"github.com/JaimeStill/bluecite/internal/stages"
)

func TestCitationCompleted(t *testing.T) {
	m := metrics.New()

	m.CitationCompleted(&pipeline.Report{
		StageAtExit: pipeline.StateLLMChecked,
		FinalResult: stages.Result{
			IsValid: false,
			Errors: []stages.ValidationError{
				{ErrorType: "a", EvidenceStatus: stages.EvidenceVerified},
				{ErrorType: "b", EvidenceStatus: stages.EvidenceMissing},
				{ErrorType: "c", EvidenceStatus: stages.EvidenceMismatched},
				{ErrorType: "d", EvidenceStatus: stages.EvidenceMissing},
				{ErrorType: stages.ErrorServiceTimeout, EvidenceStatus: stages.EvidenceMissing},
			},
		},
	})
	m.CitationCompleted(&pipeline.Report{
		StageAtExit: pipeline.StateRegexChecked,
		FinalResult: stages.Result{IsValid: true},
	})

	expected := `
# HELP bluecite_citations_total Citations validated, by exit stage and verdict.
# TYPE bluecite_citations_total counter
bluecite_citations_total{stage_at_exit="LLMChecked",valid="false"} 1
bluecite_citations_total{stage_at_exit="RegexChecked",valid="true"} 1
# HELP bluecite_evidence_failures_total Findings in finalized reports that failed evidence validation, by status.
# TYPE bluecite_evidence_failures_total counter
bluecite_evidence_failures_total{status="mismatched"} 1
bluecite_evidence_failures_total{status="missing"} 2
`
	require.NoError(t, testutil.GatherAndCompare(
		m.Registry(),
		strings.NewReader(expected),
		"bluecite_citations_total",
		"bluecite_evidence_failures_total",
	))
}

func TestInferenceAttempt(t *testing.T) {
	m := metrics.New()

	m.InferenceAttempt(stages.OutcomeUnavailable)
	m.InferenceAttempt(stages.OutcomeUnavailable)
	m.InferenceAttempt(stages.OutcomeSuccess)

	expected := `
# HELP bluecite_inference_attempts_total Inference service attempts, by outcome.
# TYPE bluecite_inference_attempts_total counter
bluecite_inference_attempts_total{outcome="success"} 1
bluecite_inference_attempts_total{outcome="unavailable"} 2
`
	require.NoError(t, testutil.GatherAndCompare(
		m.Registry(),
		strings.NewReader(expected),
		"bluecite_inference_attempts_total",
	))
}

func TestStageCompleted(t *testing.T) {
	m := metrics.New()
	m.StageCompleted(stages.StageRegex, time.Millisecond)
	m.StageCompleted(stages.StageLLM, 2*time.Second)

	n, err := testutil.GatherAndCount(m.Registry(), "bluecite_stage_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestHandler(t *testing.T) {
	m := metrics.New()
	m.InferenceAttempt(stages.OutcomeSuccess)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `bluecite_inference_attempts_total{outcome="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
