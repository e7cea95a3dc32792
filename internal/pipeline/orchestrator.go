package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/JaimeStill/bluecite/internal/citations"
)

// Batch is the outcome of one orchestrator run. Reports follow input order and
// hold only dispatched citations; Skipped lists the ids never dispatched because
// the batch was cancelled.
type Batch struct {
	Reports []Report `json:"reports"`
	Skipped []string `json:"skipped"`
	Summary Summary  `json:"summary"`
}

// Orchestrator fans a batch of citations out across a bounded worker pool.
type Orchestrator struct {
	router  *Router
	workers int
	logger  *slog.Logger
}

// NewOrchestrator creates an Orchestrator running at most workers citations at once.
func NewOrchestrator(router *Router, workers int, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		router:  router,
		workers: max(workers, 1),
		logger:  logger.With("system", "orchestrator"),
	}
}

// Router returns the router used for each citation.
func (o *Orchestrator) Router() *Router {
	return o.router
}

// Run routes every citation and aggregates the reports. Cancelling ctx stops
// dispatch; citations already dispatched run to completion or to their own
// timeout, detached from ctx. Each worker writes only its own report slot.
func (o *Orchestrator) Run(ctx context.Context, batch []citations.Citation) *Batch {
	start := time.Now()
	slots := make([]*Report, len(batch))
	sem := semaphore.NewWeighted(int64(o.workers))
	detached := context.WithoutCancel(ctx)

	var g errgroup.Group
	dispatched := 0

	for i, c := range batch {
		if ctx.Err() != nil {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		if ctx.Err() != nil {
			sem.Release(1)
			break
		}

		dispatched = i + 1
		g.Go(func() error {
			defer sem.Release(1)
			report := o.router.Route(detached, c)
			slots[i] = &report
			return nil
		})
	}

	g.Wait()

	result := &Batch{
		Reports: make([]Report, 0, dispatched),
		Skipped: []string{},
	}
	for _, r := range slots[:dispatched] {
		result.Reports = append(result.Reports, *r)
	}
	for _, c := range batch[dispatched:] {
		result.Skipped = append(result.Skipped, c.ID)
	}

	result.Summary = Summarize(result.Reports, len(result.Skipped))
	result.Summary.ElapsedMS = time.Since(start).Milliseconds()

	o.logger.Info("batch complete",
		"citations", len(batch),
		"processed", result.Summary.Processed,
		"skipped", result.Summary.Skipped,
		"needs_review", result.Summary.NeedsReview,
		"elapsed_ms", result.Summary.ElapsedMS,
	)

	return result
}
