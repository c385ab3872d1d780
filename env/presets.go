package env

import (
	"github.com/wyfcoding/marketsim/dynamics"
	"github.com/wyfcoding/marketsim/strategy"
)

// DefaultTrader 默认参数的做市商环境.
func DefaultTrader(src dynamics.Source, eta float64) *Trader {
	return NewTrader(dynamics.DefaultEngine(src), eta)
}

// DefaultAdversary 默认参数的对手方环境，初始漂移为 0.
func DefaultAdversary(src dynamics.Source, eta float64) *Adversary {
	d, err := NewAdversary(dynamics.EngineWithDrift(src, 0), eta)
	if err != nil {
		panic(err)
	}
	return d
}

// DefaultZeroSum 默认参数的零和环境.
func DefaultZeroSum(src dynamics.Source) *ZeroSum {
	d, err := NewZeroSum(dynamics.EngineWithDrift(src, 0))
	if err != nil {
		panic(err)
	}
	return d
}

var (
	_ Domain[strategy.Quote] = (*Trader)(nil)
	_ Domain[float64]        = (*Adversary)(nil)
	_ Domain[JointAction]    = (*ZeroSum)(nil)
)
