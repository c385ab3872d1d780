package dynamics

import "math"

// FillModel 给定报价偏移，返回一个时间步内被成交的概率.
type FillModel interface {
	MatchProbability(offset float64) float64
}

// PoissonRate 泊松到达强度 λ(δ) = A·exp(−k·δ).
type PoissonRate struct {
	dt    float64
	Scale float64 // A.
	Decay float64 // k.
}

// NewPoissonRate 创建泊松成交模型.
func NewPoissonRate(dt, scale, decay float64) *PoissonRate {
	return &PoissonRate{dt: dt, Scale: scale, Decay: decay}
}

// MatchProbability clamp(λ(δ)·dt, 0, 1)；负偏移（穿价）不做特殊处理.
func (p *PoissonRate) MatchProbability(offset float64) float64 {
	lambda := p.Scale * math.Exp(-p.Decay*offset)

	return math.Min(math.Max(lambda*p.dt, 0), 1)
}

// DecayRate 返回衰减系数 k.
func (p *PoissonRate) DecayRate() float64 { return p.Decay }

// DecayRater 暴露成交强度衰减系数的成交模型.
type DecayRater interface {
	DecayRate() float64
}
