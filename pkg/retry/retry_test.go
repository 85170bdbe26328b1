package retry

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "truthkit/pkg/errors"
	"truthkit/pkg/logger"
)

func testConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Microsecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.NewTestLogger(),
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return nil
	}, testConfig(3))

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		if calls < 3 {
			return errs.TransportError(502, nil, "bad gateway")
		}
		return nil
	}, testConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	boom := errs.TransportError(503, nil, "unavailable")
	calls := 0
	err := Do(func() error {
		calls++
		return boom
	}, testConfig(3))

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, stderrors.Is(err, boom))
}

func TestDoDoesNotRetryNonRetryableKinds(t *testing.T) {
	cases := []error{
		errs.AuthError(401, "bad token"),
		errs.ValidationError("bad input"),
	}
	for _, boom := range cases {
		calls := 0
		err := Do(func() error {
			calls++
			return boom
		}, testConfig(5))

		require.Error(t, err)
		assert.Equal(t, 1, calls, "error %v should not be retried", boom)
	}
}

func TestDoInvokesOnRetry(t *testing.T) {
	var attempts []int
	cfg := testConfig(3)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
	}

	_ = Do(func() error {
		return errs.TransportError(500, nil, "server error")
	}, cfg)

	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestDoStopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := testConfig(0)
	cfg.Context = ctx
	cfg.Backoff = &ConstantBackoff{Delay: time.Minute}

	err := Do(func() error {
		return errs.TransportError(500, nil, "server error")
	}, cfg)

	require.Error(t, err)
	assert.True(t, stderrors.Is(err, context.Canceled))
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	result, err := DoWithResult(func() (string, error) {
		calls++
		if calls < 2 {
			return "", errs.TransportError(500, nil, "server error")
		}
		return "done", nil
	}, testConfig(3))

	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, 2, calls)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.False(t, DefaultRetryIf(errs.AuthError(403, "forbidden")))
	assert.False(t, DefaultRetryIf(errs.ValidationError("bad")))
	assert.True(t, DefaultRetryIf(errs.TransportError(502, nil, "bad gateway")))
	assert.True(t, DefaultRetryIf(errs.RateLimitError(nil, "slow down")))
	assert.True(t, DefaultRetryIf(fmt.Errorf("mystery failure")))
}

func TestExponentialBackoffGrowsAndCaps(t *testing.T) {
	b := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   500 * time.Millisecond,
		Multiplier: 2.0,
	}

	assert.Equal(t, time.Duration(0), b.NextDelay(0))
	assert.Equal(t, 100*time.Millisecond, b.NextDelay(1))
	assert.Equal(t, 200*time.Millisecond, b.NextDelay(2))
	assert.Equal(t, 400*time.Millisecond, b.NextDelay(3))
	assert.Equal(t, 500*time.Millisecond, b.NextDelay(4))
	assert.Equal(t, 500*time.Millisecond, b.NextDelay(10))
}

func TestExponentialBackoffJitterStaysBounded(t *testing.T) {
	b := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     time.Minute,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}

	for i := 0; i < 100; i++ {
		d := b.NextDelay(2)
		assert.GreaterOrEqual(t, d, 180*time.Millisecond)
		assert.LessOrEqual(t, d, 220*time.Millisecond)
	}
}

func TestLinearBackoff(t *testing.T) {
	b := &LinearBackoff{
		BaseDelay: time.Second,
		Increment: time.Second,
		MaxDelay:  3 * time.Second,
	}

	assert.Equal(t, time.Duration(0), b.NextDelay(0))
	assert.Equal(t, 1*time.Second, b.NextDelay(1))
	assert.Equal(t, 2*time.Second, b.NextDelay(2))
	assert.Equal(t, 3*time.Second, b.NextDelay(3))
	assert.Equal(t, 3*time.Second, b.NextDelay(4))
}

func TestWaitHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Wait(ctx, time.Minute)
	require.Error(t, err)

	assert.NoError(t, Wait(ctx, 0))
}
