package dynamics

// 预设参数，对应经典 Avellaneda–Stoikov 数值实验.
const (
	DefaultDt           = 0.005
	DefaultInitialPrice = 100.0
	DefaultVolatility   = 2.0
	DefaultFillScale    = 140.0
	DefaultFillDecay    = 1.5
)

// DefaultPoissonRate 返回 A=140, k=1.5 的成交模型.
func DefaultPoissonRate() *PoissonRate {
	return NewPoissonRate(DefaultDt, DefaultFillScale, DefaultFillDecay)
}

// DefaultEngine 无漂移布朗运动 + 默认泊松成交.
func DefaultEngine(src Source) *Engine {
	return mustEngine(NewEngine(DefaultDt, DefaultInitialPrice, src,
		NewBrownianMotion(DefaultDt, DefaultVolatility), DefaultPoissonRate()))
}

// EngineWithDrift 带漂移布朗运动 + 默认泊松成交，供对抗环境使用.
func EngineWithDrift(src Source, drift float64) *Engine {
	return mustEngine(NewEngine(DefaultDt, DefaultInitialPrice, src,
		NewBrownianMotionWithDrift(DefaultDt, drift, DefaultVolatility), DefaultPoissonRate()))
}

// mustEngine 预设参数固定合法，唯一可能的失败是 src 为 nil.
func mustEngine(e *Engine, err error) *Engine {
	if err != nil {
		panic(err)
	}
	return e
}
