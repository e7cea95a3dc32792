package pipeline_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JaimeStill/bluecite/internal/citations"
	"github.com/JaimeStill/bluecite/internal/pipeline"
	"github.com/JaimeStill/bluecite/internal/rules"
	"github.com/JaimeStill/bluecite/internal/stages"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *pipeline.Config {
	cfg := &pipeline.Config{CitationTimeout: "5s"}
	if err := cfg.Finalize(nil); err != nil {
		panic(err)
	}
	return cfg
}

type fakeChecker struct {
	name   stages.Name
	result stages.Result
	calls  atomic.Int32
}

func (f *fakeChecker) Check(context.Context, citations.Citation) stages.Result {
	f.calls.Add(1)
	r := f.result
	r.Stage = f.name
	r.Errors = append([]stages.ValidationError(nil), f.result.Errors...)
	return r
}

func checker(name stages.Name, valid bool, confidence float64) *fakeChecker {
	return &fakeChecker{
		name:   name,
		result: stages.Result{IsValid: valid, Confidence: confidence, Errors: []stages.ValidationError{}},
	}
}

type fakeSemantic struct {
	result     stages.Result
	calls      atomic.Int32
	mu         sync.Mutex
	groundings []stages.Grounding
	block      chan struct{}
}

func (f *fakeSemantic) Validate(_ context.Context, _ citations.Citation, g stages.Grounding) stages.Result {
	f.calls.Add(1)
	f.mu.Lock()
	f.groundings = append(f.groundings, g)
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}
	r := f.result
	r.Stage = stages.StageLLM
	r.Errors = append([]stages.ValidationError(nil), f.result.Errors...)
	return r
}

type fakeRetriever struct {
	result *rules.Result
	err    error
}

func (f *fakeRetriever) Retrieve(string, int) (*rules.Result, error) {
	return f.result, f.err
}

type countingObserver struct {
	mu        sync.Mutex
	stages    map[stages.Name]int
	citations int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{stages: map[stages.Name]int{}}
}

func (o *countingObserver) StageCompleted(s stages.Name, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stages[s]++
}

func (o *countingObserver) CitationCompleted(*pipeline.Report) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.citations++
}

func cite(id, text string) citations.Citation {
	return citations.Citation{ID: id, RawText: text, Type: citations.TypeCase, FootnoteNumber: 1, IndexInFootnote: 1}
}
