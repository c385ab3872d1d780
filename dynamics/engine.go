package dynamics

import (
	"math"

	"github.com/wyfcoding/marketsim/xerrors"
)

// Fill 一次成交尝试的结果，Offset 为相对当前参考价的实际偏移.
type Fill struct {
	Offset float64
	Filled bool
}

// Engine 组合一个价格过程与一个成交模型，并持有时钟与随机源.
// 单个回合独占，非并发安全.
type Engine struct {
	src     Source
	process PriceProcess
	fills   FillModel

	dt           float64
	time         float64
	price        float64
	initialPrice float64
}

// NewEngine 创建动力学引擎，dt 非正或依赖缺失属于构造期前置条件错误.
func NewEngine(dt, price float64, src Source, process PriceProcess, fills FillModel) (*Engine, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, xerrors.ErrNonPositiveTimeStep.WithDetail("dt=%v", dt)
	}
	if src == nil || process == nil || fills == nil {
		return nil, xerrors.ErrNilCollaborator
	}

	return &Engine{
		src:          src,
		process:      process,
		fills:        fills,
		dt:           dt,
		price:        price,
		initialPrice: price,
	}, nil
}

// Innovate 推进一个时间步并返回价格增量.
func (e *Engine) Innovate() float64 {
	inc := e.process.SampleIncrement(e.src, e.price)

	e.time += e.dt
	e.price += inc

	return inc
}

// TryExecuteAsk 以当前参考价尝试成交卖单，offset = orderPrice − price.
func (e *Engine) TryExecuteAsk(orderPrice float64) Fill {
	return e.tryExecute(orderPrice - e.price)
}

// TryExecuteBid 以当前参考价尝试成交买单，offset = price − orderPrice.
func (e *Engine) TryExecuteBid(orderPrice float64) Fill {
	return e.tryExecute(e.price - orderPrice)
}

// tryExecute 恰好消耗一次均匀抽样.
func (e *Engine) tryExecute(offset float64) Fill {
	p := e.fills.MatchProbability(offset)

	return Fill{Offset: offset, Filled: e.src.Float64() < p}
}

func (e *Engine) Time() float64         { return e.time }
func (e *Engine) Price() float64        { return e.price }
func (e *Engine) InitialPrice() float64 { return e.initialPrice }
func (e *Engine) Dt() float64           { return e.dt }
func (e *Engine) Process() PriceProcess { return e.process }
func (e *Engine) Fills() FillModel      { return e.fills }
