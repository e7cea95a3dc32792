package validations

import (
	"net/url"
	"strconv"

	"github.com/JaimeStill/bluecite/internal/pipeline"
	"github.com/JaimeStill/bluecite/pkg/query"
	"github.com/JaimeStill/bluecite/pkg/repository"
)

const (
	runColumns    = "id, status, summary, skipped, archive_key, created_at, completed_at"
	reportColumns = "id, run_id, citation_id, stage_at_exit, is_valid, evidence_validation_failed, needs_review, report, reviewed_by, reviewed_at"
)

var runProjection = query.
	NewProjectionMap("public", "validation_runs", "v").
	Project("id", "id").
	Project("status", "status").
	Project("summary", "summary").
	Project("skipped", "skipped").
	Project("archive_key", "archive_key").
	Project("created_at", "created_at").
	Project("completed_at", "completed_at")

var reportProjection = query.
	NewProjectionMap("public", "validation_reports", "r").
	Project("id", "id").
	Project("run_id", "run_id").
	Project("citation_id", "citation_id").
	Project("stage_at_exit", "stage_at_exit").
	Project("is_valid", "is_valid").
	Project("evidence_validation_failed", "evidence_validation_failed").
	Project("needs_review", "needs_review").
	Project("report", "report").
	Project("reviewed_by", "reviewed_by").
	Project("reviewed_at", "reviewed_at")

var (
	runDefaultSort    = query.SortField{Field: "created_at", Descending: true}
	reportDefaultSort = query.SortField{Field: "citation_id"}
)

// RunFilters contains optional filtering criteria for run queries.
type RunFilters struct {
	Status *Status `json:"status,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f RunFilters) Apply(b *query.Builder) *query.Builder {
	return b.WhereEquals("status", f.Status)
}

// RunFiltersFromQuery extracts run filter values from URL query parameters.
func RunFiltersFromQuery(values url.Values) RunFilters {
	var f RunFilters
	switch s := Status(values.Get("status")); s {
	case StatusComplete, StatusCancelled:
		f.Status = &s
	}
	return f
}

// ReportFilters contains optional filtering criteria for report queries.
type ReportFilters struct {
	NeedsReview *bool           `json:"needs_review,omitempty"`
	IsValid     *bool           `json:"is_valid,omitempty"`
	StageAtExit *pipeline.State `json:"stage_at_exit,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f ReportFilters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("needs_review", f.NeedsReview).
		WhereEquals("is_valid", f.IsValid).
		WhereEquals("stage_at_exit", f.StageAtExit)
}

// ReportFiltersFromQuery extracts report filter values from URL query parameters.
// Unparseable values are ignored.
func ReportFiltersFromQuery(values url.Values) ReportFilters {
	var f ReportFilters

	if s := values.Get("needs_review"); s != "" {
		if v, err := strconv.ParseBool(s); err == nil {
			f.NeedsReview = &v
		}
	}

	if s := values.Get("is_valid"); s != "" {
		if v, err := strconv.ParseBool(s); err == nil {
			f.IsValid = &v
		}
	}

	if s := pipeline.State(values.Get("stage_at_exit")); s != "" {
		for _, st := range pipeline.ExitStates {
			if st == s {
				f.StageAtExit = &s
				break
			}
		}
	}

	return f
}

func scanRun(s repository.Scanner) (Run, error) {
	var (
		run     Run
		summary repository.JSON[pipeline.Summary]
		skipped repository.JSON[[]string]
	)
	err := s.Scan(
		&run.ID,
		&run.Status,
		&summary,
		&skipped,
		&run.ArchiveKey,
		&run.CreatedAt,
		&run.CompletedAt,
	)
	run.Summary = summary.V
	run.Skipped = skipped.V
	if run.Skipped == nil {
		run.Skipped = []string{}
	}
	return run, err
}

func scanReport(s repository.Scanner) (Report, error) {
	var (
		r      Report
		report repository.JSON[pipeline.Report]
	)
	err := s.Scan(
		&r.ID,
		&r.RunID,
		&r.CitationID,
		&r.StageAtExit,
		&r.IsValid,
		&r.EvidenceValidationFailed,
		&r.NeedsReview,
		&report,
		&r.ReviewedBy,
		&r.ReviewedAt,
	)
	r.Report = report.V
	return r, err
}
