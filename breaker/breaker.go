// Package breaker 提供基于 gobreaker 的熔断器，集成 Prometheus 状态指标与日志.
package breaker

import (
	"errors"
	"log/slog"

	"github.com/sony/gobreaker"

	"github.com/wyfcoding/marketsim/config"
	"github.com/wyfcoding/marketsim/metrics"
	"github.com/wyfcoding/marketsim/xerrors"
)

// ErrServiceUnavailable 熔断器处于打开状态.
var ErrServiceUnavailable = xerrors.New(xerrors.ErrUnavailable, 503100, "circuit breaker is open", "", nil)

// Breaker 封装 gobreaker，未启用时直接执行.
type Breaker struct {
	circuitBreaker *gobreaker.CircuitBreaker
}

// Settings 熔断器初始化参数.
type Settings struct {
	Name         string
	Config       config.CircuitBreakerConfig
	FailureRatio float64 // 默认 0.5
	MinRequests  uint32  // 默认 5
}

// NewBreaker 创建熔断器，m 可为 nil.
func NewBreaker(st Settings, m *metrics.Metrics) *Breaker {
	if !st.Config.Enabled {
		return &Breaker{}
	}

	failureRatio := st.FailureRatio
	if failureRatio <= 0 {
		failureRatio = 0.5
	}

	minRequests := st.MinRequests
	if minRequests == 0 {
		minRequests = 5
	}

	gs := gobreaker.Settings{
		Name:        st.Name,
		MaxRequests: st.Config.MaxRequests,
		Interval:    st.Config.Interval,
		Timeout:     st.Config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && ratio >= failureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
			if m != nil {
				m.BreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	}

	return &Breaker{circuitBreaker: gobreaker.NewCircuitBreaker(gs)}
}

// Execute 执行受熔断保护的函数.
func (b *Breaker) Execute(fn func() (any, error)) (any, error) {
	return ExecuteTyped(b, fn)
}

// State 当前状态，未启用时视为关闭.
func (b *Breaker) State() gobreaker.State {
	if b == nil || b.circuitBreaker == nil {
		return gobreaker.StateClosed
	}
	return b.circuitBreaker.State()
}

// ExecuteTyped 是 Execute 的泛型版本.
func ExecuteTyped[T any](b *Breaker, fn func() (T, error)) (T, error) {
	if b == nil || b.circuitBreaker == nil {
		return fn()
	}

	res, err := b.circuitBreaker.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, ErrServiceUnavailable.WithCause(err)
		}
		return zero, err
	}

	v, _ := res.(T)
	return v, nil
}
