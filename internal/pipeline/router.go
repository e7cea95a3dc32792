package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/bluecite/internal/citations"
	"github.com/JaimeStill/bluecite/internal/evidence"
	"github.com/JaimeStill/bluecite/internal/rules"
	"github.com/JaimeStill/bluecite/internal/stages"
)

// Checker is a deterministic stage.
type Checker interface {
	Check(ctx context.Context, c citations.Citation) stages.Result
}

// SemanticChecker is the terminal, rule-grounded stage.
type SemanticChecker interface {
	Validate(ctx context.Context, c citations.Citation, g stages.Grounding) stages.Result
}

// Retriever supplies the rules that ground the semantic stage.
type Retriever interface {
	Retrieve(text string, quota int) (*rules.Result, error)
}

// Observer receives per-stage and per-citation events. Implementations must be
// safe for concurrent use.
type Observer interface {
	StageCompleted(stage stages.Name, elapsed time.Duration)
	CitationCompleted(report *Report)
}

type nopObserver struct{}

func (nopObserver) StageCompleted(stages.Name, time.Duration) {}
func (nopObserver) CitationCompleted(*Report)                 {}

// Stages bundles the three escalating checkers.
type Stages struct {
	Regex Checker
	Rule  Checker
	LLM   SemanticChecker
}

// Router drives one citation through Init, RegexChecked, RuleChecked, and
// LLMChecked until a stage clears its threshold or the terminal stage runs.
// It holds only read-only state and is safe for concurrent use.
type Router struct {
	stages    Stages
	retriever Retriever
	corpus    *rules.Corpus
	evidence  *evidence.Validator
	observer  Observer
	logger    *slog.Logger

	regexThreshold float64
	ruleThreshold  float64
	quota          int
	timeout        time.Duration
}

// NewRouter creates a Router. corpus scopes evidence validation for the
// deterministic stages; observer may be nil.
func NewRouter(
	cfg *Config,
	s Stages,
	retriever Retriever,
	corpus *rules.Corpus,
	observer Observer,
	logger *slog.Logger,
) *Router {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Router{
		stages:         s,
		retriever:      retriever,
		corpus:         corpus,
		evidence:       evidence.New(),
		observer:       observer,
		logger:         logger.With("system", "router"),
		regexThreshold: cfg.RegexThreshold,
		ruleThreshold:  cfg.RuleThreshold,
		quota:          cfg.QuotaPerBucket,
		timeout:        cfg.CitationTimeoutDuration(),
	}
}

// Route validates c and returns its finalized report. Stage failures are
// captured in the report; Route never fails.
func (r *Router) Route(ctx context.Context, c citations.Citation) Report {
	start := time.Now()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	report := Report{CitationID: c.ID}
	state := StateInit

	for state != StateFinal {
		switch state {
		case StateInit:
			result := r.runDeterministic(ctx, r.stages.Regex, c)
			report.StagesRun = append(report.StagesRun, result)
			state = StateRegexChecked

		case StateRegexChecked:
			if last(report).Confidence >= r.regexThreshold {
				report.finalize(StateRegexChecked)
				state = StateFinal
				continue
			}
			result := r.runDeterministic(ctx, r.stages.Rule, c)
			report.StagesRun = append(report.StagesRun, result)
			state = StateRuleChecked

		case StateRuleChecked:
			if last(report).Confidence >= r.ruleThreshold {
				report.finalize(StateRuleChecked)
				state = StateFinal
				continue
			}
			result := r.runSemantic(ctx, c, &report)
			report.StagesRun = append(report.StagesRun, result)
			state = StateLLMChecked

		case StateLLMChecked:
			report.finalize(StateLLMChecked)
			state = StateFinal
		}
	}

	r.observer.CitationCompleted(&report)
	r.logger.InfoContext(ctx, "citation validated",
		"citation_id", c.ID,
		"stage", report.StageAtExit,
		"valid", report.FinalResult.IsValid,
		"confidence", report.FinalResult.Confidence,
		"needs_review", report.NeedsReview,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return report
}

func last(report Report) stages.Result {
	return report.StagesRun[len(report.StagesRun)-1]
}

func (r *Router) runDeterministic(ctx context.Context, s Checker, c citations.Citation) stages.Result {
	start := time.Now()
	result := s.Check(ctx, c)
	r.evidence.Validate(&result, evidence.Scope(r.corpus, &result))
	r.observer.StageCompleted(result.Stage, time.Since(start))
	return result
}

// runSemantic retrieves grounding rules and runs the terminal stage. The stage
// runs on its own goroutine so that a stage ignoring ctx still yields a timeout
// result when the citation budget is spent.
func (r *Router) runSemantic(ctx context.Context, c citations.Citation, report *Report) stages.Result {
	start := time.Now()
	grounding := r.retrieve(c, report)

	done := make(chan stages.Result, 1)
	go func() {
		done <- r.stages.LLM.Validate(ctx, c, grounding)
	}()

	var result stages.Result
	select {
	case result = <-done:
	case <-ctx.Done():
		result = timeoutResult(ctx, time.Since(start))
	}

	r.evidence.Validate(&result, grounding.Rules)
	r.observer.StageCompleted(stages.StageLLM, time.Since(start))
	return result
}

func (r *Router) retrieve(c citations.Citation, report *Report) stages.Grounding {
	if r.retriever == nil {
		report.RetrievalDegraded = true
		report.Notes = append(report.Notes, "retrieval degraded: no retriever configured")
		return stages.Grounding{Err: rules.ErrCorpusUnavailable}
	}

	res, err := r.retriever.Retrieve(c.RawText, r.quota)
	if err != nil {
		report.RetrievalDegraded = true
		report.Notes = append(report.Notes, fmt.Sprintf("retrieval degraded: %v", err))
		r.logger.Warn("retrieval failed", "citation_id", c.ID, "error", err)
		return stages.Grounding{Err: fmt.Errorf("%w: %w", rules.ErrRetrievalDegraded, err)}
	}

	coverage := res.Coverage
	report.Coverage = &coverage

	if res.Degraded() {
		report.RetrievalDegraded = true
		report.Notes = append(report.Notes, "retrieval degraded: no rules matched the citation")
	}

	return stages.Grounding{Rules: res.Rules}
}

func timeoutResult(ctx context.Context, elapsed time.Duration) stages.Result {
	msg := ErrServiceTimeout.Error()
	if err := context.Cause(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return stages.Failure(stages.StageLLM, stages.ErrorServiceTimeout, msg, elapsed)
}
