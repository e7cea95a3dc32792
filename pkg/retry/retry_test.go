package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/bluecite/pkg/retry"
)

var errTransient = errors.New("transient")

type recorder struct {
	waits []time.Duration
}

func (r *recorder) sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return ctx.Err()
}

func TestDefaultPolicy(t *testing.T) {
	p := retry.Default()

	require.NoError(t, p.Validate())
	assert.Equal(t, 7, p.MaxAttempts)
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second,
		8 * time.Second, 16 * time.Second, 32 * time.Second,
	}, p.Delays)
}

func TestDoExhaustsAttempts(t *testing.T) {
	rec := &recorder{}
	p := retry.Default()
	p.Sleep = rec.sleep

	calls := 0
	_, err := retry.Do(context.Background(), p, func(context.Context, int) (string, error) {
		calls++
		return "", errTransient
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, retry.ErrExhausted)
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 7, calls)
	assert.Equal(t, retry.DefaultDelays(), rec.waits)

	for i := 1; i < len(rec.waits); i++ {
		assert.GreaterOrEqual(t, rec.waits[i], rec.waits[i-1])
	}
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	rec := &recorder{}
	p := retry.Default()
	p.Sleep = rec.sleep

	var retried []int
	p.OnRetry = func(attempt int, _ time.Duration, _ error) {
		retried = append(retried, attempt)
	}

	got, err := retry.Do(context.Background(), p, func(_ context.Context, attempt int) (int, error) {
		if attempt < 3 {
			return 0, errTransient
		}
		return attempt, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, got)
	assert.Equal(t, []int{2, 3}, retried)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.waits)
}

func TestDoStopsOnTerminalError(t *testing.T) {
	terminal := errors.New("bad request")
	p := retry.Default()
	p.Sleep = (&recorder{}).sleep
	p.Retryable = func(err error) bool { return !errors.Is(err, terminal) }

	calls := 0
	_, err := retry.Do(context.Background(), p, func(context.Context, int) (struct{}, error) {
		calls++
		return struct{}{}, terminal
	})

	assert.ErrorIs(t, err, terminal)
	assert.NotErrorIs(t, err, retry.ErrExhausted)
	assert.Equal(t, 1, calls)
}

func TestDoStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := retry.Default()
	p.Sleep = (&recorder{}).sleep

	calls := 0
	_, err := retry.Do(ctx, p, func(context.Context, int) (int, error) {
		calls++
		cancel()
		return 0, errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  retry.Policy
		wantErr bool
	}{
		{"default", retry.Default(), false},
		{"single attempt no delays", retry.Policy{MaxAttempts: 1}, false},
		{"zero attempts", retry.Policy{MaxAttempts: 0}, true},
		{"negative delay", retry.Policy{MaxAttempts: 2, Delays: []time.Duration{-time.Second}}, true},
		{"decreasing", retry.Policy{MaxAttempts: 3, Delays: []time.Duration{2 * time.Second, time.Second}}, true},
		{"flat", retry.Policy{MaxAttempts: 3, Delays: []time.Duration{time.Second, time.Second}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, retry.ErrInvalidPolicy)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDelayRepeatsLast(t *testing.T) {
	p := retry.Policy{MaxAttempts: 5, Delays: []time.Duration{time.Second, 3 * time.Second}}

	assert.Equal(t, time.Duration(0), p.Delay(1))
	assert.Equal(t, time.Second, p.Delay(2))
	assert.Equal(t, 3*time.Second, p.Delay(3))
	assert.Equal(t, 3*time.Second, p.Delay(5))
}
