package env

import (
	"github.com/wyfcoding/marketsim/dynamics"
	"github.com/wyfcoding/marketsim/strategy"
)

// Trader 单智能体做市商环境，动作为中间价两侧的报价偏移.
type Trader struct {
	book
	eta float64 // 终止库存惩罚系数.
}

// NewTrader 基于引擎创建做市商环境.
func NewTrader(engine *dynamics.Engine, eta float64) *Trader {
	return &Trader{book: newBook(engine), eta: eta}
}

// Eta 终止库存惩罚系数.
func (d *Trader) Eta() float64 { return d.eta }

// ActionSpace 两侧偏移均不受限.
func (d *Trader) ActionSpace() Space { return Space{realLine, realLine} }

// Step 报价按行动前的中间价挂出，随后价格演化并尝试成交.
// 收益 = 库存×价格增量 + 成交偏移，终止步额外扣除 η×inv².
func (d *Trader) Step(action strategy.Quote) Transition[strategy.Quote] {
	from := d.Observe()

	price := d.engine.Price()
	askPrice := price + action.Ask
	bidPrice := price - action.Bid

	d.reward = d.inv * d.engine.Innovate()
	d.execute(askPrice, bidPrice, 1)

	if d.terminal() {
		inv := d.liquidate()
		d.reward -= d.eta * inv * inv
	}

	return Transition[strategy.Quote]{From: from, Action: action, Reward: d.reward, To: d.Observe()}
}
