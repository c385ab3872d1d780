// Package evaluation 以蒙特卡洛方式评估基线报价策略，
// 支持并行回合、参数网格扫描与结果导出.
package evaluation

import (
	"github.com/wyfcoding/marketsim/config"
	"github.com/wyfcoding/marketsim/dynamics"
)

// Market 构建单个回合动力学引擎所需的参数.
type Market struct {
	Dt           float64
	InitialPrice float64
	Volatility   float64
	Drift        float64 // 非零时使用带漂移布朗运动.
	FillScale    float64
	FillDecay    float64
}

// DefaultMarket 默认市场参数.
func DefaultMarket() Market {
	return Market{
		Dt:           dynamics.DefaultDt,
		InitialPrice: dynamics.DefaultInitialPrice,
		Volatility:   dynamics.DefaultVolatility,
		FillScale:    dynamics.DefaultFillScale,
		FillDecay:    dynamics.DefaultFillDecay,
	}
}

// MarketFromConfig 由配置构建市场参数.
func MarketFromConfig(c config.SimulationConfig) Market {
	return Market{
		Dt:           c.Dt,
		InitialPrice: c.InitialPrice,
		Volatility:   c.Volatility,
		Drift:        c.Drift,
		FillScale:    c.FillScale,
		FillDecay:    c.FillDecay,
	}
}

// NewEngine 使用给定随机源创建引擎.
func (m Market) NewEngine(src dynamics.Source) (*dynamics.Engine, error) {
	var process dynamics.PriceProcess = dynamics.NewBrownianMotion(m.Dt, m.Volatility)
	if m.Drift != 0 {
		process = dynamics.NewBrownianMotionWithDrift(m.Dt, m.Drift, m.Volatility)
	}

	return dynamics.NewEngine(m.Dt, m.InitialPrice, src, process,
		dynamics.NewPoissonRate(m.Dt, m.FillScale, m.FillDecay))
}
