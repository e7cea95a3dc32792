package validations

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/JaimeStill/bluecite/internal/citations"
	"github.com/JaimeStill/bluecite/pkg/pagination"
)

// System defines the public contract for validation domain operations.
type System interface {
	Handler() *Handler

	Run(ctx context.Context, batch citations.Batch) (*Run, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters RunFilters,
	) (*pagination.PageResult[Run], error)

	Find(ctx context.Context, id uuid.UUID) (*Run, error)

	Reports(
		ctx context.Context,
		runID uuid.UUID,
		page pagination.PageRequest,
		filters ReportFilters,
	) (*pagination.PageResult[Report], error)

	// Archive opens the archived document of a run. The caller closes it.
	Archive(ctx context.Context, id uuid.UUID) (io.ReadCloser, error)

	Review(ctx context.Context, reportID uuid.UUID, cmd ReviewCommand) (*Report, error)
}
