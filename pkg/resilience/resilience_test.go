package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend down")

func fail() error { return errBackend }
func ok() error   { return nil }

func TestBreakerTripsAndRecovers(t *testing.T) {
	clock := time.Unix(0, 0)
	b := NewBreaker("store", BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})
	b.now = func() time.Time { return clock }

	assert.ErrorIs(t, b.Do(fail), errBackend)
	assert.Equal(t, StateClosed, b.State())
	assert.ErrorIs(t, b.Do(fail), errBackend)
	assert.Equal(t, StateOpen, b.State())

	calls := 0
	err := b.Do(func() error { calls++; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Zero(t, calls)

	clock = clock.Add(time.Minute)
	require.NoError(t, b.Do(ok))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	clock := time.Unix(0, 0)
	b := NewBreaker("store", BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	b.now = func() time.Time { return clock }

	assert.ErrorIs(t, b.Do(fail), errBackend)
	clock = clock.Add(time.Second)
	assert.ErrorIs(t, b.Do(fail), errBackend)
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Do(ok), ErrCircuitOpen)
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	b := NewBreaker("store", BreakerConfig{FailureThreshold: 2})
	b.Do(fail)
	b.Do(ok)
	b.Do(fail)
	assert.Equal(t, StateClosed, b.State())
}

func TestRetry(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), "op", RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}, func() error {
		attempts++
		if attempts < 3 {
			return errBackend
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	err = Retry(context.Background(), "op", RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond}, fail)
	assert.ErrorIs(t, err, errBackend)
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, "op", RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond}, fail)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithTimeout(t *testing.T) {
	val, err := WithTimeout(context.Background(), time.Second, "fast", func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, val)

	_, err = WithTimeout(context.Background(), 10*time.Millisecond, "slow", func(ctx context.Context) (int, error) {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return 0, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	val, err = WithTimeout(context.Background(), 0, "unbounded", func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, val)
}
