package strategy

import "math"

// ExponentialUtility 指数效用下的 Avellaneda–Stoikov 闭式解.
// 仅在 t ≤ 1 内有意义，调用方负责不越过回合终点.
type ExponentialUtility struct {
	K          float64 // 订单流衰减.
	Gamma      float64 // 风险厌恶.
	Volatility float64
}

func NewExponentialUtility(k, gamma, volatility float64) ExponentialUtility {
	return ExponentialUtility{K: k, Gamma: gamma, Volatility: volatility}
}

// terms gss = γσ²，skew = −q·gss·(1−t)，sp = gss·(1−t) + (2/γ)·ln(1+γ/k).
func (s ExponentialUtility) terms(t, inv float64) (skew, sp float64) {
	gss := s.Gamma * s.Volatility * s.Volatility

	skew = -inv * gss * (1 - t)
	sp = gss*(1-t) + (2/s.Gamma)*math.Log(1+s.Gamma/s.K)

	return skew, sp
}

// Reservation 返回保留价与总价差.
func (s ExponentialUtility) Reservation(t, price, inv float64) (rp, sp float64) {
	skew, sp := s.terms(t, inv)

	return price + skew, sp
}

func (s ExponentialUtility) Compute(t, _, inv float64) Quote {
	return around(s.terms(t, inv))
}
