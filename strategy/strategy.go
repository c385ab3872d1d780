// Package strategy 提供闭式解做市报价基线，输出相对参考价的卖/买偏移.
package strategy

import (
	"github.com/shopspring/decimal"
)

// Quote 卖价与买价相对参考价的正向距离（卖在上，买在下）.
type Quote struct {
	Ask float64
	Bid float64
}

// Spread 报价总宽度.
func (q Quote) Spread() float64 { return q.Ask + q.Bid }

// Prices 以 mid 为参考换算成绝对报价，用于报表.
func (q Quote) Prices(mid float64) (ask, bid decimal.Decimal) {
	m := decimal.NewFromFloat(mid)
	return m.Add(decimal.NewFromFloat(q.Ask)), m.Sub(decimal.NewFromFloat(q.Bid))
}

// Quoter 将 (时间, 价格, 库存) 映射为一对报价偏移，实现必须无状态且可并发调用.
type Quoter interface {
	Compute(t, price, inv float64) Quote
}

// QuoterFunc 函数适配器.
type QuoterFunc func(t, price, inv float64) Quote

func (f QuoterFunc) Compute(t, price, inv float64) Quote { return f(t, price, inv) }

// around 由保留价偏斜 skew = rp − price 与总价差 sp 拆出两侧偏移，
// 等价于 (rp + sp/2 − price, price − (rp − sp/2))，但不与价格水平相减.
func around(skew, sp float64) Quote {
	return Quote{
		Ask: skew + sp/2,
		Bid: sp/2 - skew,
	}
}
