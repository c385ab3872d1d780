package env

import (
	"github.com/wyfcoding/marketsim/dynamics"
	"github.com/wyfcoding/marketsim/strategy"
	"github.com/wyfcoding/marketsim/xerrors"
)

// MaxZeroSumDrift 零和博弈中对手方的最大漂移幅度.
const MaxZeroSumDrift = 10.0

// JointAction 做市商报价与对手方漂移控制的联合动作.
type JointAction struct {
	Trader    strategy.Quote
	Adversary float64
}

// ZeroSum 做市商与对手方同时行动的零和环境，收益以做市商视角给出.
type ZeroSum struct {
	book
	drift dynamics.DriftController
}

// NewZeroSum 创建零和环境，引擎的价格过程必须支持设置漂移.
func NewZeroSum(engine *dynamics.Engine) (*ZeroSum, error) {
	if engine == nil {
		return nil, xerrors.ErrNilCollaborator.WithDetail("engine is nil")
	}

	drift, ok := engine.Process().(dynamics.DriftController)
	if !ok {
		return nil, xerrors.ErrDriftUnsupported.WithDetail("process %T", engine.Process())
	}

	return &ZeroSum{book: newBook(engine), drift: drift}, nil
}

// ActionSpace 做市商两侧偏移 [0,+Inf)，对手方 [0,1].
func (d *ZeroSum) ActionSpace() Space {
	nonNegative := Interval{Low: 0, High: realLine.High}
	return Space{nonNegative, nonNegative, unitInterval}
}

// Step 对手方先设定漂移，价格演化后做市商围绕新中间价报价并尝试成交.
// 报价偏移下限截断为 0，漂移控制量截断到 [0,1]；转移中记录原始动作.
func (d *ZeroSum) Step(action JointAction) Transition[JointAction] {
	from := d.Observe()

	ask := max(action.Trader.Ask, 0)
	bid := max(action.Trader.Bid, 0)
	control := unitInterval.Clamp(action.Adversary)

	d.drift.SetDrift(MaxZeroSumDrift * (2*control - 1))
	d.reward = d.inv * d.engine.Innovate()

	price := d.engine.Price()
	d.execute(price+ask, price-bid, 1)

	if d.terminal() {
		d.liquidate()
	}

	return Transition[JointAction]{From: from, Action: action, Reward: d.reward, To: d.Observe()}
}
