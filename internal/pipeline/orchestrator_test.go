package pipeline_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/bluecite/internal/citations"
	"github.com/JaimeStill/bluecite/internal/pipeline"
	"github.com/JaimeStill/bluecite/internal/rules"
	"github.com/JaimeStill/bluecite/internal/stages"
)

type concurrencyChecker struct {
	active  atomic.Int32
	peak    atomic.Int32
	onCheck func(ctx context.Context)
}

func (c *concurrencyChecker) Check(ctx context.Context, _ citations.Citation) stages.Result {
	n := c.active.Add(1)
	defer c.active.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if c.onCheck != nil {
		c.onCheck(ctx)
	}
	time.Sleep(5 * time.Millisecond)
	return stages.Result{Stage: stages.StageRegex, IsValid: true, Confidence: 0.95, Errors: []stages.ValidationError{}}
}

func batchOf(n int) []citations.Citation {
	out := make([]citations.Citation, n)
	for i := range out {
		out[i] = cite(fmt.Sprintf("c%02d", i), "Smith v. Jones, 500 U.S. 1 (1990).")
	}
	return out
}

func newOrchestrator(regex pipeline.Checker, workers int) *pipeline.Orchestrator {
	router := pipeline.NewRouter(testConfig(), pipeline.Stages{
		Regex: regex,
		Rule:  checker(stages.StageRule, true, 0.9),
		LLM:   &fakeSemantic{},
	}, &fakeRetriever{}, nil, nil, discard())
	return pipeline.NewOrchestrator(router, workers, discard())
}

func TestOrchestratorRunsEveryCitation(t *testing.T) {
	regex := &concurrencyChecker{}
	o := newOrchestrator(regex, 3)
	batch := batchOf(12)

	result := o.Run(context.Background(), batch)

	require.Len(t, result.Reports, 12)
	assert.Empty(t, result.Skipped)
	for i, r := range result.Reports {
		assert.Equal(t, batch[i].ID, r.CitationID, "reports follow input order")
		assert.Equal(t, pipeline.StateRegexChecked, r.StageAtExit)
	}

	assert.LessOrEqual(t, regex.peak.Load(), int32(3))
	assert.Equal(t, 12, result.Summary.Total)
	assert.Equal(t, 12, result.Summary.Processed)
	assert.Equal(t, 12, result.Summary.Valid)
	assert.Equal(t, 12, result.Summary.StageExits[pipeline.StateRegexChecked])
}

func TestOrchestratorCancelledBeforeStart(t *testing.T) {
	o := newOrchestrator(&concurrencyChecker{}, 2)
	batch := batchOf(3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := o.Run(ctx, batch)

	assert.Empty(t, result.Reports)
	assert.Equal(t, []string{"c00", "c01", "c02"}, result.Skipped)
	assert.Equal(t, 3, result.Summary.Skipped)
	assert.Equal(t, 0, result.Summary.Processed)
}

func TestOrchestratorCancelStopsDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var inflightErr atomic.Value
	regex := &concurrencyChecker{
		onCheck: func(checkCtx context.Context) {
			cancel()
			inflightErr.Store(fmt.Sprint(checkCtx.Err()))
		},
	}
	o := newOrchestrator(regex, 1)

	result := o.Run(ctx, batchOf(5))

	require.Len(t, result.Reports, 1)
	assert.Equal(t, "c00", result.Reports[0].CitationID)
	assert.True(t, result.Reports[0].IsValid(), "dispatched citation completes normally")
	assert.Equal(t, "<nil>", inflightErr.Load(), "in-flight work is detached from batch cancellation")
	assert.Equal(t, []string{"c01", "c02", "c03", "c04"}, result.Skipped)
}

func TestOrchestratorEmptyBatch(t *testing.T) {
	o := newOrchestrator(&concurrencyChecker{}, 2)
	result := o.Run(context.Background(), nil)

	assert.Empty(t, result.Reports)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, 0, result.Summary.Total)
}

func TestOrchestratorOutageIsNotEvidenceFailure(t *testing.T) {
	llm := &fakeSemantic{result: stages.Failure(stages.StageLLM, stages.ErrorServiceUnavailable, "inference unavailable", 0)}
	router := pipeline.NewRouter(testConfig(), pipeline.Stages{
		Regex: checker(stages.StageRegex, true, 0.3),
		Rule:  checker(stages.StageRule, true, 0.5),
		LLM:   llm,
	}, &fakeRetriever{result: &rules.Result{Rules: []rules.Entry{{ID: "H-1", Bucket: rules.BucketHouse, Text: "real rule text"}}}}, nil, nil, discard())

	result := pipeline.NewOrchestrator(router, 2, discard()).Run(context.Background(), batchOf(2))

	require.Len(t, result.Reports, 2)
	for _, r := range result.Reports {
		final := r.FinalResult
		assert.Equal(t, pipeline.StateLLMChecked, r.StageAtExit)
		assert.False(t, r.IsValid())
		assert.False(t, final.EvidenceValidationFailed)
		assert.False(t, r.EvidenceFailed())
		require.Len(t, final.Errors, 1)
		assert.Equal(t, stages.ErrorServiceUnavailable, final.Errors[0].ErrorType)
		assert.Equal(t, stages.EvidenceMissing, final.Errors[0].EvidenceStatus)
		assert.True(t, r.NeedsReview)
	}

	assert.Equal(t, 0, result.Summary.EvidenceFailures)
	assert.Zero(t, result.Summary.EvidenceFailureRate)
	assert.Equal(t, 2, result.Summary.ServiceFailures)
	assert.Equal(t, 2, result.Summary.NeedsReview)
}
