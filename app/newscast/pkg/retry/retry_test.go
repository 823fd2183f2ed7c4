package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTransient = errors.New("transient")
	errFatal     = errors.New("fatal")
)

func fastPolicy(retryable func(error) bool) Policy {
	return Policy{
		Name:       "test",
		Attempts:   3,
		Multiplier: time.Millisecond,
		MinWait:    time.Millisecond,
		MaxWait:    5 * time.Millisecond,
		Retryable:  retryable,
	}
}

func isTransient(err error) bool { return errors.Is(err, errTransient) }

func TestPolicy_Backoff(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		attempt int
		want    time.Duration
	}{
		{"news first wait clamps to min", Policy{Multiplier: time.Second, MinWait: 2 * time.Second, MaxWait: 10 * time.Second}, 1, 2 * time.Second},
		{"news third wait", Policy{Multiplier: time.Second, MinWait: 2 * time.Second, MaxWait: 10 * time.Second}, 3, 4 * time.Second},
		{"news clamps to max", Policy{Multiplier: time.Second, MinWait: 2 * time.Second, MaxWait: 10 * time.Second}, 6, 10 * time.Second},
		{"social stays at min", Policy{Multiplier: time.Second, MinWait: 15 * time.Second, MaxWait: 60 * time.Second}, 2, 15 * time.Second},
		{"social reaches max", Policy{Multiplier: time.Second, MinWait: 15 * time.Second, MaxWait: 60 * time.Second}, 7, 60 * time.Second},
		{"huge attempt does not overflow", Policy{Multiplier: time.Second, MinWait: time.Second, MaxWait: time.Minute}, 200, time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Backoff(tt.attempt))
		})
	}
}

func TestDo_RetriesTransientUpToCap(t *testing.T) {
	calls := 0
	var notified []int
	p := fastPolicy(isTransient)
	p.OnRetry = func(err error, attempt int, wait time.Duration) {
		notified = append(notified, attempt)
	}

	_, err := Do(context.Background(), p, func(ctx context.Context) (string, error) {
		calls++
		return "", errTransient
	})

	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, notified)
}

func TestDo_NonRetryableSurfacesImmediately(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(isTransient), func(ctx context.Context) (int, error) {
		calls++
		return 0, errFatal
	})

	assert.Equal(t, errFatal, err)
	assert.Equal(t, 1, calls)
}

func TestDo_NonRetryableOnLastAttemptIsUnwrapped(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(isTransient), func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errTransient
		}
		return 0, errFatal
	})

	assert.Equal(t, errFatal, err)
	assert.Equal(t, 3, calls)
}

func TestDo_SucceedsAfterTransient(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastPolicy(nil), func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errTransient
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 2, calls)
}

func TestDo_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, fastPolicy(nil), func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errTransient
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
