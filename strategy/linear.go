package strategy

// LinearUtility 线性效用下的对称常数报价 1/k.
type LinearUtility struct {
	K float64
}

func NewLinearUtility(k float64) LinearUtility {
	return LinearUtility{K: k}
}

func (s LinearUtility) Compute(_, _, _ float64) Quote {
	return Quote{Ask: 1 / s.K, Bid: 1 / s.K}
}

// LinearUtilityTerminalPenalty 线性效用 + 终端库存二次惩罚 η.
// η = 0 时退化为 LinearUtility.
type LinearUtilityTerminalPenalty struct {
	K   float64
	Eta float64
}

func NewLinearUtilityTerminalPenalty(k, eta float64) LinearUtilityTerminalPenalty {
	return LinearUtilityTerminalPenalty{K: k, Eta: eta}
}

// Compute 保留价 rp = s − 2qη，总价差 sp = 2/k + η.
func (s LinearUtilityTerminalPenalty) Compute(_, _, inv float64) Quote {
	skew := -2 * inv * s.Eta
	sp := 2/s.K + s.Eta

	return around(skew, sp)
}
