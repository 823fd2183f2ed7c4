package ratelimit

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_SlidingWindowBound(t *testing.T) {
	const (
		maxTokens = 3
		period    = 150 * time.Millisecond
		callers   = 10
		// 记录时间戳晚于真实准入时刻，留出少量调度误差
		slack = 25 * time.Millisecond
	)
	l := New("test", maxTokens, period)

	var (
		mu       sync.Mutex
		admitted []time.Time
		wg       sync.WaitGroup
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Do(context.Background(), func(ctx context.Context) error {
				mu.Lock()
				admitted = append(admitted, time.Now())
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, admitted, callers)
	sort.Slice(admitted, func(i, j int) bool { return admitted[i].Before(admitted[j]) })

	// 任意一次准入开始的窗口内至多 maxTokens 次
	for i := range admitted {
		inWindow := 0
		for j := i; j < len(admitted); j++ {
			if admitted[j].Sub(admitted[i]) < period-slack {
				inWindow++
			}
		}
		assert.LessOrEqual(t, inWindow, maxTokens, "window starting at admission %d", i)
	}
}

func TestLimiter_ReleaseOnError(t *testing.T) {
	l := New("test", 1, 10*time.Millisecond)
	boom := errors.New("boom")

	err := l.Do(context.Background(), func(ctx context.Context) error { return boom })
	require.ErrorIs(t, err, boom)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err = l.Do(ctx, func(ctx context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestLimiter_ReleaseIsIdempotent(t *testing.T) {
	l := New("test", 1, 0)

	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	release()
	release()

	// 重复 release 不应让信号量超发
	release, err = l.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, l.sem.TryAcquire(1))
	release()
}

func TestLimiter_AcquireHonoursContext(t *testing.T) {
	l := New("test", 1, time.Hour)
	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimiter_SlotHeldUntilOperationEnds(t *testing.T) {
	l := New("test", 1, 0)

	started := make(chan struct{})
	finish := make(chan struct{})
	go func() {
		_ = l.Do(context.Background(), func(ctx context.Context) error {
			close(started)
			<-finish
			return nil
		})
	}()
	<-started

	assert.False(t, l.sem.TryAcquire(1))
	close(finish)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	release, err := l.Acquire(ctx)
	require.NoError(t, err)
	release()
}
