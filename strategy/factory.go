package strategy

import (
	"github.com/wyfcoding/marketsim/xerrors"
)

// 策略名称.
const (
	NameLinear        = "linear"
	NameLinearPenalty = "linear_penalty"
	NameExponential   = "exponential"
	NameExpression    = "expression"
)

// Params 构造报价策略所需的全部参数，按策略取用.
type Params struct {
	K          float64
	Eta        float64
	Gamma      float64
	Volatility float64
	AskExpr    string
	BidExpr    string
	Vars       map[string]float64
}

// New 按名称构造报价策略.
func New(name string, p Params) (Quoter, error) {
	if !(p.K > 0) {
		return nil, xerrors.ErrInvalidStrategyParam.WithDetail("k=%v", p.K)
	}

	switch name {
	case NameLinear:
		return NewLinearUtility(p.K), nil
	case NameLinearPenalty:
		return NewLinearUtilityTerminalPenalty(p.K, p.Eta), nil
	case NameExponential:
		if !(p.Gamma > 0) {
			return nil, xerrors.ErrInvalidStrategyParam.WithDetail("gamma=%v", p.Gamma)
		}
		return NewExponentialUtility(p.K, p.Gamma, p.Volatility), nil
	case NameExpression:
		vars := map[string]float64{"k": p.K, "eta": p.Eta, "gamma": p.Gamma, "sigma": p.Volatility}
		for k, v := range p.Vars {
			vars[k] = v
		}
		return NewExpressionQuoter(p.AskExpr, p.BidExpr, vars, NewLinearUtility(p.K).Compute(0, 0, 0))
	default:
		return nil, xerrors.ErrUnknownStrategy.WithDetail("name=%q", name)
	}
}
