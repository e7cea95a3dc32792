package inference

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limited throttles calls to an underlying Client. Workers block in Complete until
// the limiter admits them or their context ends.
type Limited struct {
	next    Client
	limiter *rate.Limiter
}

// NewLimited wraps next with a token bucket of rps requests per second.
func NewLimited(next Client, rps float64, burst int) *Limited {
	return &Limited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), max(burst, 1)),
	}
}

// Complete waits for the limiter and then delegates. A wait that cannot be admitted
// before the context deadline fails as a deadline error so it is reported as a
// timeout and not retried.
func (l *Limited) Complete(ctx context.Context, req Request) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	return l.next.Complete(ctx, req)
}

func (l *Limited) CorpusAccess() bool {
	return l.next.CorpusAccess()
}

func (l *Limited) Model() string {
	return l.next.Model()
}
