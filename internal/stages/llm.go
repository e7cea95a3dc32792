package stages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/bluecite/internal/citations"
	"github.com/JaimeStill/bluecite/internal/inference"
	"github.com/JaimeStill/bluecite/internal/rules"
	"github.com/JaimeStill/bluecite/pkg/retry"
)

// Confidence assigned to a clean LLM verdict before the tier factor applies.
const llmCleanConfidence = 0.9

var tierFactor = map[AccessTier]float64{
	TierPrimary:   1.0,
	TierSecondary: 0.9,
	TierTertiary:  0.6,
}

// Attempt outcomes reported to an AttemptObserver.
const (
	OutcomeSuccess     = "success"
	OutcomeUnavailable = "unavailable"
	OutcomeMalformed   = "malformed"
	OutcomeRejected    = "rejected"
	OutcomeTimeout     = "timeout"
)

// AttemptObserver receives the outcome of every inference attempt.
type AttemptObserver func(outcome string)

// Grounding is the retrieval outcome handed to the LLM stage. Err is set when
// retrieval could not run for this citation.
type Grounding struct {
	Rules []rules.Entry
	Err   error
}

// Tier derives the access tier for g given whether the service has its own
// corpus access.
func (g Grounding) Tier(corpusAccess bool) AccessTier {
	switch {
	case g.Err != nil || len(g.Rules) == 0:
		return TierTertiary
	case corpusAccess:
		return TierPrimary
	default:
		return TierSecondary
	}
}

// LLMOptions configures an LLMStage.
type LLMOptions struct {
	Policy       retry.Policy
	Instructions InstructionSource
	Observer     AttemptObserver
}

// LLMStage checks a citation with the inference service, grounded in the rules
// retrieved for it. It is the terminal stage and always produces a result.
type LLMStage struct {
	client       inference.Client
	policy       retry.Policy
	instructions InstructionSource
	observe      AttemptObserver
	logger       *slog.Logger
}

// NewLLMStage creates an LLM stage. A zero Policy uses retry.Default.
func NewLLMStage(client inference.Client, opts LLMOptions, logger *slog.Logger) *LLMStage {
	policy := opts.Policy
	if policy.MaxAttempts == 0 {
		policy = retry.Default()
	}

	instructions := opts.Instructions
	if instructions == nil {
		instructions = defaultSource{}
	}

	observe := opts.Observer
	if observe == nil {
		observe = func(string) {}
	}

	return &LLMStage{
		client:       client,
		policy:       policy,
		instructions: instructions,
		observe:      observe,
		logger:       logger.With("stage", StageLLM),
	}
}

func (s *LLMStage) Name() Name {
	return StageLLM
}

// Validate runs the inference call for c. Transient failures and malformed
// responses are retried under the stage policy; when attempts run out the result
// carries a service failure instead of a verdict.
func (s *LLMStage) Validate(ctx context.Context, c citations.Citation, g Grounding) Result {
	start := time.Now()
	tier := g.Tier(s.client.CorpusAccess())

	base := Result{Stage: StageLLM, AccessTier: tier}
	applyTier(&base, tier, g)

	instructions, err := s.instructions.Instructions(ctx, tier)
	if err != nil {
		s.logger.WarnContext(ctx, "instruction override unavailable, using default", "tier", tier, "error", err)
		instructions, _ = DefaultInstructions(tier)
	}

	req := inference.Request{
		Prompt:     ComposePrompt(instructions, c, g.Rules),
		SchemaName: inference.SchemaName,
		Schema:     inference.ResponseSchema,
	}

	policy := s.policy
	policy.Retryable = inference.Retryable
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		s.logger.WarnContext(ctx, "retrying inference call",
			"citation_id", c.ID,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
	}

	resp, err := retry.Do(ctx, policy, func(ctx context.Context, _ int) (inference.Response, error) {
		content, err := s.client.Complete(ctx, req)
		if err == nil {
			var parsed inference.Response
			parsed, err = inference.ParseResponse(content)
			if err == nil {
				s.observe(OutcomeSuccess)
				return parsed, nil
			}
		}
		s.observe(outcome(err))
		return inference.Response{}, err
	})

	if err != nil {
		s.logger.ErrorContext(ctx, "inference call failed",
			"citation_id", c.ID,
			"tier", tier,
			"error", err,
		)
		failed := failureFor(err, time.Since(start))
		failed.AccessTier = base.AccessTier
		failed.HasFileAccess = base.HasFileAccess
		failed.FileAccessStatus = base.FileAccessStatus
		failed.Notes = append(base.Notes, failed.Notes...)
		return failed
	}

	result := base
	result.IsValid = resp.IsCorrect && len(resp.Errors) == 0
	result.CorrectedText = resp.CorrectedVersion
	result.Errors = make([]ValidationError, 0, len(resp.Errors))

	for _, f := range resp.Errors {
		result.Errors = append(result.Errors, ValidationError{
			ErrorType:     f.ErrorType,
			Message:       f.Message,
			RuleTextQuote: f.RuleTextQuote,
			Confidence:    clamp(f.Confidence),
		})
	}

	result.Confidence = clamp(tierFactor[tier] * findingConfidence(result.Errors))
	result.ElapsedMS = time.Since(start).Milliseconds()
	return result
}

func applyTier(r *Result, tier AccessTier, g Grounding) {
	access := tier == TierPrimary
	r.HasFileAccess = &access

	if tier != TierTertiary {
		return
	}

	r.FileAccessStatus = FileAccessNone
	if g.Err != nil {
		r.Notes = append(r.Notes, fmt.Sprintf("warning: rule retrieval failed (%v); validated without rule context", g.Err))
	} else {
		r.Notes = append(r.Notes, "warning: no rules retrieved; validated without rule context")
	}
}

func findingConfidence(errs []ValidationError) float64 {
	if len(errs) == 0 {
		return llmCleanConfidence
	}
	var sum float64
	for _, e := range errs {
		sum += e.Confidence
	}
	return sum / float64(len(errs))
}

func failureFor(err error, elapsed time.Duration) Result {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Failure(StageLLM, ErrorServiceTimeout, fmt.Sprintf("inference call timed out: %v", err), elapsed)
	case errors.Is(err, retry.ErrExhausted) && errors.Is(err, inference.ErrMalformedResponse):
		return Failure(StageLLM, ErrorMalformedResponse, fmt.Sprintf("inference service returned no conforming response: %v", err), elapsed)
	default:
		return Failure(StageLLM, ErrorServiceUnavailable, fmt.Sprintf("inference service unavailable: %v", err), elapsed)
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, inference.ErrMalformedResponse):
		return OutcomeMalformed
	case errors.Is(err, inference.ErrRequestRejected):
		return OutcomeRejected
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	default:
		return OutcomeUnavailable
	}
}
