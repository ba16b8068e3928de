package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "jirascraper/pkg/errors"
	"jirascraper/pkg/logger"
)

func testConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     errs.IsRetryable,
		Context:     context.Background(),
		Logger:      logger.NewTestLogger(),
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return nil
	}, testConfig(3))

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		if calls < 3 {
			return errs.FromStatus(503, "unavailable")
		}
		return nil
	}, testConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return errs.FromStatus(429, "slow down")
	}, testConfig(3))

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, errs.KindRateLimited, errs.KindOf(err))
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
}

func TestDoDoesNotRetryFatal(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return errs.FromStatus(403, "forbidden")
	}, testConfig(5))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, errs.KindFatal, errs.KindOf(err))
}

func TestDoDoesNotRetryMalformed(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return errs.New(errs.KindMalformed, "bad body")
	}, testConfig(5))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoHonorsRetryAfterFloor(t *testing.T) {
	var observed time.Duration
	cfg := testConfig(2)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		observed = delay
	}

	rateLimited := &errs.Error{
		Kind:       errs.KindRateLimited,
		Status:     429,
		Message:    "slow down",
		RetryAfter: 25 * time.Millisecond,
	}

	calls := 0
	err := Do(func() error {
		calls++
		if calls == 1 {
			return rateLimited
		}
		return nil
	}, cfg)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, observed, 25*time.Millisecond)
}

func TestDoCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := testConfig(5)
	cfg.Context = ctx
	cfg.Backoff = &ConstantBackoff{Delay: time.Minute}

	done := make(chan error, 1)
	go func() {
		done <- Do(func() error {
			return errs.FromStatus(500, "boom")
		}, cfg)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("retry did not observe cancellation")
	}
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	got, err := DoWithResult(func() (string, error) {
		calls++
		if calls == 1 {
			return "", errs.FromStatus(502, "bad gateway")
		}
		return "page", nil
	}, testConfig(3))

	require.NoError(t, err)
	assert.Equal(t, "page", got)
	assert.Equal(t, 2, calls)
}

func TestExponentialBackoffGrows(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}

	assert.Equal(t, 100*time.Millisecond, eb.NextDelay(1))
	assert.Equal(t, 200*time.Millisecond, eb.NextDelay(2))
	assert.Equal(t, 400*time.Millisecond, eb.NextDelay(3))
	assert.Equal(t, time.Second, eb.NextDelay(10), "delay should cap at MaxDelay")
}

func TestExponentialBackoffJitterStaysPositive(t *testing.T) {
	eb := DefaultExponentialBackoff()
	for attempt := 1; attempt <= 10; attempt++ {
		assert.GreaterOrEqual(t, eb.NextDelay(attempt), time.Duration(0))
	}
}
