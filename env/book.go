package env

import (
	"github.com/wyfcoding/marketsim/dynamics"
)

// book 三个环境共享的库存、收益与财富记账.
type book struct {
	engine *dynamics.Engine

	inv         float64
	invTerminal float64
	reward      float64 // 最近一步的收益，不累计.
	wealth      float64 // 累计现金头寸.

	askFills int
	bidFills int
}

func newBook(engine *dynamics.Engine) book {
	return book{engine: engine}
}

// Observe 当前观测.
func (b *book) Observe() Observation {
	return Observation{
		State:    State{b.engine.Time(), inventoryInterval.Clamp(b.inv)},
		Terminal: b.terminal(),
	}
}

// StateSpace 状态空间.
func (b *book) StateSpace() Space { return StateSpace() }

func (b *book) terminal() bool { return b.engine.Time() >= Horizon }

// execute 依次尝试卖单与买单成交；触及库存边界的一侧直接跳过，不消耗随机数.
// sign 为 +1 时成交偏移计入收益，为 −1 时从收益中扣除.
func (b *book) execute(askPrice, bidPrice, sign float64) {
	if b.inv > InventoryMin {
		if f := b.engine.TryExecuteAsk(askPrice); f.Filled {
			b.inv--
			b.askFills++
			b.reward += sign * f.Offset
			b.wealth += askPrice
		}
	}

	if b.inv < InventoryMax {
		if f := b.engine.TryExecuteBid(bidPrice); f.Filled {
			b.inv++
			b.bidFills++
			b.reward += sign * f.Offset
			b.wealth -= bidPrice
		}
	}
}

// liquidate 终止时以中间价平掉剩余库存，返回平仓前的库存.
func (b *book) liquidate() float64 {
	inv := b.inv

	b.wealth += b.engine.Price() * inv
	b.invTerminal = inv
	b.inv = 0

	return inv
}

// Inventory 当前库存.
func (b *book) Inventory() float64 { return b.inv }

// TerminalInventory 最近一次终止时平仓前的库存.
func (b *book) TerminalInventory() float64 { return b.invTerminal }

// Reward 最近一步的收益.
func (b *book) Reward() float64 { return b.reward }

// Wealth 累计现金头寸.
func (b *book) Wealth() float64 { return b.wealth }

// Fills 回合内卖单与买单的成交次数.
func (b *book) Fills() (ask, bid int) { return b.askFills, b.bidFills }

// Engine 底层动力学引擎.
func (b *book) Engine() *dynamics.Engine { return b.engine }
