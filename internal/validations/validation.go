// Package validations persists validation runs. A run executes a citation
// batch through the pipeline, stores the run and its per-citation reports, and
// archives the full result document to blob storage.
package validations

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/bluecite/internal/citations"
	"github.com/JaimeStill/bluecite/internal/pipeline"
)

// Status is the terminal state of a validation run.
type Status string

const (
	// StatusComplete marks a run where every citation was dispatched.
	StatusComplete Status = "complete"
	// StatusCancelled marks a run whose batch was cancelled before every
	// citation was dispatched.
	StatusCancelled Status = "cancelled"
)

// Runner executes a citation batch. *pipeline.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, batch []citations.Citation) *pipeline.Batch
}

// Run is a stored validation run.
type Run struct {
	ID          uuid.UUID        `json:"id"`
	Status      Status           `json:"status"`
	Summary     pipeline.Summary `json:"summary"`
	Skipped     []string         `json:"skipped"`
	ArchiveKey  *string          `json:"archive_key"`
	CreatedAt   time.Time        `json:"created_at"`
	CompletedAt time.Time        `json:"completed_at"`
}

// Report is one stored citation report. The flattened columns mirror fields of
// the embedded pipeline report so runs can be filtered without decoding it.
type Report struct {
	ID                       uuid.UUID       `json:"id"`
	RunID                    uuid.UUID       `json:"run_id"`
	CitationID               string          `json:"citation_id"`
	StageAtExit              pipeline.State  `json:"stage_at_exit"`
	IsValid                  bool            `json:"is_valid"`
	EvidenceValidationFailed bool            `json:"evidence_validation_failed"`
	NeedsReview              bool            `json:"needs_review"`
	Report                   pipeline.Report `json:"report"`
	ReviewedBy               *string         `json:"reviewed_by"`
	ReviewedAt               *time.Time      `json:"reviewed_at"`
}

// ReviewCommand records human sign-off on a flagged report.
type ReviewCommand struct {
	ReviewedBy string `json:"reviewed_by"`
}

// Document is the archived form of a run.
type Document struct {
	Run     Run               `json:"run"`
	Reports []pipeline.Report `json:"reports"`
}

func statusOf(batch *pipeline.Batch) Status {
	if len(batch.Skipped) > 0 {
		return StatusCancelled
	}
	return StatusComplete
}
