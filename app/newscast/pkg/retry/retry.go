package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/iWorld-y/newscast/app/newscast/pkg/config"
)

// Policy 有界指数退避重试策略
type Policy struct {
	Name       string
	Attempts   int
	Multiplier time.Duration
	MinWait    time.Duration
	MaxWait    time.Duration

	// Retryable 为 nil 时所有错误均可重试
	Retryable func(error) bool
	// OnRetry 在每次等待前回调，attempt 为刚失败的次数
	OnRetry func(err error, attempt int, wait time.Duration)
}

// FromConfig 根据配置构造策略
func FromConfig(name string, c config.RetryConfig, retryable func(error) bool) Policy {
	return Policy{
		Name:       name,
		Attempts:   c.Attempts,
		Multiplier: c.Multiplier,
		MinWait:    c.MinWait,
		MaxWait:    c.MaxWait,
		Retryable:  retryable,
	}
}

// Backoff 第 attempt 次失败后的等待时长：clamp(multiplier * 2^(attempt-1), min, max)
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	shift := attempt - 1
	if shift > 30 {
		shift = 30
	}
	d := p.Multiplier * time.Duration(1<<shift)
	if d < 0 || (p.MaxWait > 0 && d > p.MaxWait) {
		d = p.MaxWait
	}
	if d < p.MinWait {
		d = p.MinWait
	}
	return d
}

// Do 按策略执行 op：不可重试的错误立即返回，重试耗尽后返回最后一次错误
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++
		res, err := op(ctx)
		if err != nil && p.Retryable != nil && !p.Retryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	res, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(&policyBackOff{policy: p}),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			if p.OnRetry != nil {
				p.OnRetry(err, attempt, wait)
			}
		}),
	)
	// 最后一次尝试命中不可重试错误时 backoff 不会解包
	if perm, ok := err.(*backoff.PermanentError); ok {
		err = perm.Err
	}
	return res, err
}

// policyBackOff 将 Policy 适配为 backoff.BackOff
type policyBackOff struct {
	policy  Policy
	attempt int
}

func (b *policyBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.policy.Backoff(b.attempt)
}

func (b *policyBackOff) Reset() { b.attempt = 0 }
