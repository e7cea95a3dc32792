package validations

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/bluecite/internal/citations"
	"github.com/JaimeStill/bluecite/internal/pipeline"
	"github.com/JaimeStill/bluecite/pkg/pagination"
	"github.com/JaimeStill/bluecite/pkg/query"
	"github.com/JaimeStill/bluecite/pkg/repository"
	"github.com/JaimeStill/bluecite/pkg/storage"
)

const insertReport = `
	INSERT INTO validation_reports(
		id, run_id, citation_id, stage_at_exit, is_valid,
		evidence_validation_failed, needs_review, report
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

type repo struct {
	db         *sql.DB
	runner     Runner
	store      storage.System
	storage    *storage.Config
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a validation repository implementing the System interface.
func New(
	db *sql.DB,
	runner Runner,
	store storage.System,
	storageCfg *storage.Config,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		runner:     runner,
		store:      store,
		storage:    storageCfg,
		logger:     logger.With("system", "validations"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

// Run validates the batch, executes it, and persists the outcome. Cancelling
// ctx stops dispatch; the partial batch is still stored with the cancelled
// status and its undispatched citation ids.
func (r *repo) Run(ctx context.Context, batch citations.Batch) (*Run, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	created := time.Now().UTC()
	result := r.runner.Run(ctx, batch.Citations)

	// The request may already be gone; what ran is still recorded.
	ctx = context.WithoutCancel(ctx)

	run := Run{
		ID:          uuid.New(),
		Status:      statusOf(result),
		Summary:     result.Summary,
		Skipped:     result.Skipped,
		CreatedAt:   created,
		CompletedAt: time.Now().UTC(),
	}

	if key, err := r.archive(ctx, run, result.Reports); err != nil {
		r.logger.Warn("archive validation run failed", "id", run.ID, "error", err)
	} else {
		run.ArchiveKey = &key
	}

	stored, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Run, error) {
		stored, err := repository.QueryOne(ctx, tx, `
			INSERT INTO validation_runs(id, status, summary, skipped, archive_key, created_at, completed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+runColumns,
			[]any{
				run.ID,
				string(run.Status),
				repository.JSON[pipeline.Summary]{V: run.Summary},
				repository.JSON[[]string]{V: run.Skipped},
				run.ArchiveKey,
				run.CreatedAt,
				run.CompletedAt,
			},
			scanRun,
		)
		if err != nil {
			return Run{}, err
		}

		argSets := make([][]any, 0, len(result.Reports))
		for _, rep := range result.Reports {
			argSets = append(argSets, []any{
				uuid.New(),
				run.ID,
				rep.CitationID,
				string(rep.StageAtExit),
				rep.IsValid(),
				rep.EvidenceFailed(),
				rep.NeedsReview,
				repository.JSON[pipeline.Report]{V: rep},
			})
		}
		if err := repository.ExecMany(ctx, tx, insertReport, argSets); err != nil {
			return Run{}, fmt.Errorf("insert reports: %w", err)
		}

		return stored, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("validation run stored",
		"id", stored.ID,
		"status", stored.Status,
		"processed", stored.Summary.Processed,
		"skipped", stored.Summary.Skipped,
		"needs_review", stored.Summary.NeedsReview,
	)
	return &stored, nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters RunFilters,
) (*pagination.PageResult[Run], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(runProjection, runDefaultSort)
	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	return pageOf(ctx, r.db, qb, page, scanRun, "validation runs")
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Run, error) {
	q, args, err := query.NewBuilder(runProjection).BuildSingle("id", id)
	if err != nil {
		return nil, err
	}

	run, err := repository.QueryOne(ctx, r.db, q, args, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &run, nil
}

func (r *repo) Reports(
	ctx context.Context,
	runID uuid.UUID,
	page pagination.PageRequest,
	filters ReportFilters,
) (*pagination.PageResult[Report], error) {
	if _, err := r.Find(ctx, runID); err != nil {
		return nil, err
	}

	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(reportProjection, reportDefaultSort).
		WhereEquals("run_id", runID).
		WhereSearch(page.Search, "citation_id")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	return pageOf(ctx, r.db, qb, page, scanReport, "validation reports")
}

func (r *repo) Archive(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	run, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.ArchiveKey == nil {
		return nil, ErrNotArchived
	}

	rc, err := r.store.Download(ctx, *run.ArchiveKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotArchived
		}
		return nil, fmt.Errorf("download archive %s: %w", *run.ArchiveKey, err)
	}
	return rc, nil
}

func (r *repo) Review(ctx context.Context, reportID uuid.UUID, cmd ReviewCommand) (*Report, error) {
	reviewer := strings.TrimSpace(cmd.ReviewedBy)
	if reviewer == "" {
		return nil, ErrReviewerRequired
	}

	rep, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Report, error) {
		var flagged bool
		err := tx.QueryRowContext(
			ctx,
			"SELECT needs_review FROM validation_reports WHERE id = $1 FOR UPDATE",
			reportID,
		).Scan(&flagged)
		if err != nil {
			return Report{}, err
		}
		if !flagged {
			return Report{}, ErrNotFlagged
		}

		return repository.QueryOne(ctx, tx, `
			UPDATE validation_reports
			SET needs_review = false,
			    report = jsonb_set(report, '{needs_review}', 'false'::jsonb),
			    reviewed_by = $1,
			    reviewed_at = NOW()
			WHERE id = $2
			RETURNING `+reportColumns,
			[]any{reviewer, reportID},
			scanReport,
		)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrReportNotFound, ErrDuplicate)
	}

	r.logger.Info("validation report reviewed",
		"id", rep.ID,
		"run_id", rep.RunID,
		"citation_id", rep.CitationID,
		"reviewed_by", reviewer,
	)
	return &rep, nil
}

func (r *repo) archive(ctx context.Context, run Run, reports []pipeline.Report) (string, error) {
	key := r.storage.ArchiveKey(run.ID.String() + ".json")

	data, err := json.Marshal(Document{Run: run, Reports: reports})
	if err != nil {
		return "", fmt.Errorf("encode archive: %w", err)
	}

	if err := r.store.Upload(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return "", err
	}
	return key, nil
}

func pageOf[T any](
	ctx context.Context,
	db *sql.DB,
	qb *query.Builder,
	page pagination.PageRequest,
	scan repository.ScanFunc[T],
	what string,
) (*pagination.PageResult[T], error) {
	countSQL, countArgs, err := qb.BuildCount()
	if err != nil {
		return nil, err
	}
	var total int
	if err := db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count %s: %w", what, err)
	}

	pageSQL, pageArgs, err := qb.BuildPage(page.Page, page.PageSize)
	if err != nil {
		return nil, err
	}
	items, err := repository.QueryMany(ctx, db, pageSQL, pageArgs, scan)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}
