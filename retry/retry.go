// Package retry 对瞬时失败做带抖动的指数退避重试.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/wyfcoding/marketsim/xerrors"
)

// Policy 退避策略.
type Policy struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64 // 相对抖动幅度，取值 [0,1)。
	Attempts   int     // 总尝试次数，<= 1 时只执行一次。
}

// DefaultPolicy 上传等外部调用使用的默认策略.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:   3,
		Initial:    100 * time.Millisecond,
		Max:        2 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.1,
	}
}

// Retryable 默认判定：上下文错误与参数类、不存在类错误不重试.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if e, ok := xerrors.FromError(err); ok {
		return e.Type != xerrors.ErrInvalidArg && e.Type != xerrors.ErrNotFound
	}
	return true
}

// Do 按 Retryable 判定重试 fn.
func Do(ctx context.Context, p Policy, fn func(context.Context) error) error {
	return DoIf(ctx, p, fn, Retryable)
}

// DoIf 仅在 retryable 返回 true 时重试，耗尽后返回最后一次错误.
func DoIf(ctx context.Context, p Policy, fn func(context.Context) error, retryable func(error) bool) error {
	attempts := max(p.Attempts, 1)
	wait := p.Initial

	var lastErr error
	for attempt := 1; ; attempt++ {
		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}
		if attempt >= attempts || !retryable(lastErr) {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return xerrors.Wrap(ctx.Err(), xerrors.ErrCanceled, "retry canceled")
		case <-timer.C:
		}
		wait = p.next(wait, rand.Float64())
	}

	if attempts == 1 {
		return lastErr
	}
	return xerrors.Wrap(lastErr, xerrors.ErrUnavailable, "retry attempts exhausted")
}

// next 计算下一次等待时长，u 为 [0,1) 的均匀样本.
func (p Policy) next(cur time.Duration, u float64) time.Duration {
	d := float64(cur) * p.Multiplier
	if p.Jitter > 0 {
		d += (u*2 - 1) * p.Jitter * d
	}
	if p.Max > 0 {
		return min(time.Duration(d), p.Max)
	}
	return time.Duration(d)
}
