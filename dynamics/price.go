package dynamics

import "math"

// PriceProcess 参考价格的随机增量模型.
// SampleIncrement 只消耗一次正态抽样，不推进时间.
type PriceProcess interface {
	SampleIncrement(src Source, x float64) float64
}

// DriftController 允许外部（对手方）在每步创新前改写漂移项.
type DriftController interface {
	PriceProcess
	SetDrift(drift float64)
	Drift() float64
}

// BrownianMotion 无漂移布朗运动.
type BrownianMotion struct {
	dt         float64
	Volatility float64
}

// NewBrownianMotion 创建无漂移布朗运动.
func NewBrownianMotion(dt, volatility float64) *BrownianMotion {
	return &BrownianMotion{dt: dt, Volatility: volatility}
}

// SampleIncrement σ·√dt·z.
func (b *BrownianMotion) SampleIncrement(src Source, _ float64) float64 {
	return b.Volatility * math.Sqrt(b.dt) * src.NormFloat64()
}

// BrownianMotionWithDrift 带漂移布朗运动.
type BrownianMotionWithDrift struct {
	dt         float64
	drift      float64
	Volatility float64
}

// NewBrownianMotionWithDrift 创建带漂移布朗运动.
func NewBrownianMotionWithDrift(dt, drift, volatility float64) *BrownianMotionWithDrift {
	return &BrownianMotionWithDrift{dt: dt, drift: drift, Volatility: volatility}
}

// SampleIncrement μ·dt + σ·√dt·z.
func (b *BrownianMotionWithDrift) SampleIncrement(src Source, _ float64) float64 {
	return b.drift*b.dt + b.Volatility*math.Sqrt(b.dt)*src.NormFloat64()
}

// SetDrift 设置漂移率.
func (b *BrownianMotionWithDrift) SetDrift(drift float64) { b.drift = drift }

// Drift 返回当前漂移率.
func (b *BrownianMotionWithDrift) Drift() float64 { return b.drift }

// OrnsteinUhlenbeck 向零均值回复的 OU 过程.
type OrnsteinUhlenbeck struct {
	dt         float64
	Rate       float64 // 回复速度 θ.
	Volatility float64
}

// NewOrnsteinUhlenbeck 创建 OU 过程.
func NewOrnsteinUhlenbeck(dt, rate, volatility float64) *OrnsteinUhlenbeck {
	return &OrnsteinUhlenbeck{dt: dt, Rate: rate, Volatility: volatility}
}

// SampleIncrement −θ·x·dt + σ·√dt·z.
func (o *OrnsteinUhlenbeck) SampleIncrement(src Source, x float64) float64 {
	return -o.Rate*x*o.dt + o.Volatility*math.Sqrt(o.dt)*src.NormFloat64()
}

// OrnsteinUhlenbeckWithDrift 向目标水平回复的 OU 过程.
type OrnsteinUhlenbeckWithDrift struct {
	dt         float64
	Rate       float64
	Target     float64 // 长期均值.
	Volatility float64
}

// NewOrnsteinUhlenbeckWithDrift 创建带目标水平的 OU 过程.
func NewOrnsteinUhlenbeckWithDrift(dt, rate, target, volatility float64) *OrnsteinUhlenbeckWithDrift {
	return &OrnsteinUhlenbeckWithDrift{dt: dt, Rate: rate, Target: target, Volatility: volatility}
}

// SampleIncrement θ·(target−x)·dt + σ·√dt·z.
func (o *OrnsteinUhlenbeckWithDrift) SampleIncrement(src Source, x float64) float64 {
	return o.Rate*(o.Target-x)*o.dt + o.Volatility*math.Sqrt(o.dt)*src.NormFloat64()
}
