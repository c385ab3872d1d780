// Package env 将动力学引擎包装成供外部强化学习控制器驱动的 MDP 环境.
//
// 三个变体共享库存、收益与财富的记账规则：
//   - Trader：单智能体做市商，动作为两侧报价偏移。
//   - Adversary：单智能体对手方，控制价格漂移，做市商使用内置基线策略。
//   - ZeroSum：做市商与对手方同时行动的零和博弈。
//
// 环境实例按回合新建，终止后丢弃，非并发安全。
package env

import "math"

// 库存与时间边界.
const (
	InventoryMin = -50.0
	InventoryMax = 50.0
	Horizon      = 1.0
)

// State 观测向量 [time, clamp(inv, -50, 50)].
type State [2]float64

// Observation 观测及是否已终止.
type Observation struct {
	State    State
	Terminal bool
}

// Transition 一步状态转移.
type Transition[A any] struct {
	From   Observation
	Action A
	Reward float64
	To     Observation
}

// Terminated 转移是否到达终止状态.
func (t Transition[A]) Terminated() bool { return t.To.Terminal }

// Negated 取反收益，零和博弈中供对手方学习者使用.
func (t Transition[A]) Negated() Transition[A] {
	t.Reward = -t.Reward
	return t
}

// ReplaceAction 替换转移中的动作，用于把环境动作映射回策略的原始输出.
func ReplaceAction[A, B any](t Transition[A], action B) Transition[B] {
	return Transition[B]{From: t.From, Action: action, Reward: t.Reward, To: t.To}
}

// Interval 闭区间，端点可为 ±Inf.
type Interval struct {
	Low  float64
	High float64
}

// Clamp 截断到区间内，NaN 映射到下界.
func (i Interval) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return i.Low
	}
	return math.Min(math.Max(v, i.Low), i.High)
}

// Contains 是否落在区间内.
func (i Interval) Contains(v float64) bool { return v >= i.Low && v <= i.High }

// Space 各维度区间.
type Space []Interval

var (
	unitInterval      = Interval{Low: 0, High: 1}
	inventoryInterval = Interval{Low: InventoryMin, High: InventoryMax}
	realLine          = Interval{Low: math.Inf(-1), High: math.Inf(1)}
)

// StateSpace 所有变体共享的状态空间 time∈[0,1]、inv∈[-50,50].
func StateSpace() Space {
	return Space{unitInterval, inventoryInterval}
}

// Domain 外部控制器驱动的环境契约.
type Domain[A any] interface {
	Observe() Observation
	Step(action A) Transition[A]
	StateSpace() Space
	ActionSpace() Space
}
