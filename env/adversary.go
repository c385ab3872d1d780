package env

import (
	"github.com/wyfcoding/marketsim/dynamics"
	"github.com/wyfcoding/marketsim/strategy"
	"github.com/wyfcoding/marketsim/xerrors"
)

// MaxAdversaryDrift 对手方可施加的最大漂移幅度.
const MaxAdversaryDrift = 5.0

// Adversary 单智能体对手方环境.
// 动作 a∈[0,1] 映射为漂移 5×(2a−1)，做市商使用带终止惩罚的线性效用策略报价.
type Adversary struct {
	book
	drift  dynamics.DriftController
	trader strategy.LinearUtilityTerminalPenalty
}

// NewAdversary 创建对手方环境，引擎的价格过程必须支持设置漂移，成交模型必须暴露衰减系数.
func NewAdversary(engine *dynamics.Engine, eta float64) (*Adversary, error) {
	if engine == nil {
		return nil, xerrors.ErrNilCollaborator.WithDetail("engine is nil")
	}

	drift, ok := engine.Process().(dynamics.DriftController)
	if !ok {
		return nil, xerrors.ErrDriftUnsupported.WithDetail("process %T", engine.Process())
	}

	decay, ok := engine.Fills().(dynamics.DecayRater)
	if !ok {
		return nil, xerrors.ErrDecayUnsupported.WithDetail("fill model %T", engine.Fills())
	}

	return &Adversary{
		book:   newBook(engine),
		drift:  drift,
		trader: strategy.NewLinearUtilityTerminalPenalty(decay.DecayRate(), eta),
	}, nil
}

// ActionSpace 漂移控制量 [0,1].
func (d *Adversary) ActionSpace() Space { return Space{unitInterval} }

// Step 动作先被截断到 [0,1]，转移中记录截断后的值.
// 收益为做市商收益的相反数：−库存×价格增量 − 成交偏移，终止步只平仓不计惩罚.
func (d *Adversary) Step(action float64) Transition[float64] {
	from := d.Observe()
	action = unitInterval.Clamp(action)

	price := d.engine.Price()
	q := d.trader.Compute(d.engine.Time(), price, d.inv)
	askPrice := price + q.Ask
	bidPrice := price - q.Bid

	d.drift.SetDrift(MaxAdversaryDrift * (2*action - 1))
	d.reward = -d.inv * d.engine.Innovate()
	d.execute(askPrice, bidPrice, -1)

	if d.terminal() {
		d.liquidate()
	}

	return Transition[float64]{From: from, Action: action, Reward: d.reward, To: d.Observe()}
}
