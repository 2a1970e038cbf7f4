package crawler

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{ timeout bool }

var _ net.Error = timeoutErr{}

func (e timeoutErr) Error() string   { return "timeout" }
func (e timeoutErr) Timeout() bool   { return e.timeout }
func (e timeoutErr) Temporary() bool { return e.timeout }

func TestShouldRetry(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy()

	assert.False(t, p.ShouldRetry(nil, 0))
	assert.False(t, p.ShouldRetry(errors.New("boom"), p.maxAttempts-1))
	assert.False(t, p.ShouldRetry(context.Canceled, 0))
	assert.False(t, p.ShouldRetry(context.DeadlineExceeded, 0))
	assert.False(t, p.ShouldRetry(timeoutErr{timeout: false}, 0))
	assert.True(t, p.ShouldRetry(timeoutErr{timeout: true}, 0))
	assert.True(t, p.ShouldRetry(errors.New("boom"), 0))
}

func TestBackoffIsBoundedAndGrows(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy()
	for attempt := 0; attempt < 10; attempt++ {
		d := p.Backoff(attempt)
		require.GreaterOrEqual(t, d, time.Duration(0))
		require.LessOrEqual(t, d, p.maxDelay)
	}
}

func TestSleepHonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sleep(ctx, time.Minute), context.Canceled)
}
