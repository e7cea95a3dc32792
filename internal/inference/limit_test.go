package inference_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/bluecite/internal/inference"
)

type staticClient struct {
	calls  int
	access bool
}

func (c *staticClient) Complete(context.Context, inference.Request) (string, error) {
	c.calls++
	return "ok", nil
}

func (c *staticClient) CorpusAccess() bool { return c.access }
func (c *staticClient) Model() string      { return "static" }

func TestLimitedDelegates(t *testing.T) {
	next := &staticClient{access: true}
	l := inference.NewLimited(next, 1000, 5)

	for range 3 {
		out, err := l.Complete(context.Background(), inference.Request{})
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
	}

	assert.Equal(t, 3, next.calls)
	assert.True(t, l.CorpusAccess())
	assert.Equal(t, "static", l.Model())
}

func TestLimitedHonorsContext(t *testing.T) {
	next := &staticClient{}
	l := inference.NewLimited(next, 0.001, 1)

	_, err := l.Complete(context.Background(), inference.Request{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = l.Complete(ctx, inference.Request{})
	assert.Error(t, err)
	assert.Equal(t, 1, next.calls)
}

func TestLimitedWaitBeyondDeadlineIsTimeout(t *testing.T) {
	next := &staticClient{}
	l := inference.NewLimited(next, 0.001, 1)

	_, err := l.Complete(context.Background(), inference.Request{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	_, err = l.Complete(ctx, inference.Request{})
	require.Error(t, err)

	assert.Less(t, time.Since(start), 500*time.Millisecond, "an unreachable slot fails without waiting")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, inference.ErrServiceUnavailable))
	assert.False(t, inference.Retryable(err))
	assert.Equal(t, 1, next.calls)
}
