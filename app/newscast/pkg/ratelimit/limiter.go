// Package ratelimit 为外部依赖提供窗口限流。
//
// 每次准入占用一个槽位，槽位在受保护操作结束且距准入已满一个周期后才归还，
// 因此任意长度为 period 的滑动窗口内至多准入 maxTokens 次，同时在途调用也不超过 maxTokens。
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Limiter 进程内共享的限流器，可被多个请求并发使用
type Limiter struct {
	name   string
	max    int
	period time.Duration
	sem    *semaphore.Weighted

	// now 与 after 便于测试替换
	now   func() time.Time
	after func(d time.Duration, f func())
}

// New 创建限流器：每 period 至多 maxTokens 次准入
func New(name string, maxTokens int, period time.Duration) *Limiter {
	if maxTokens < 1 {
		maxTokens = 1
	}
	return &Limiter{
		name:   name,
		max:    maxTokens,
		period: period,
		sem:    semaphore.NewWeighted(int64(maxTokens)),
		now:    time.Now,
		after: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// Name 限流器名称
func (l *Limiter) Name() string { return l.name }

// MaxTokens 窗口内允许的最大准入次数
func (l *Limiter) MaxTokens() int { return l.max }

// Period 窗口长度
func (l *Limiter) Period() time.Duration { return l.period }

// Acquire 阻塞直到获得槽位；返回的 release 可重复调用，只生效一次
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	admitted := l.now()

	var once sync.Once
	release = func() {
		once.Do(func() {
			remaining := l.period - l.now().Sub(admitted)
			if remaining <= 0 {
				l.sem.Release(1)
				return
			}
			l.after(remaining, func() { l.sem.Release(1) })
		})
	}
	return release, nil
}

// Do 在槽位保护下执行 fn，无论 fn 如何返回都会归还槽位
func (l *Limiter) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	release, err := l.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}
