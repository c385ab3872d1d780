// Package dynamics 实现 Avellaneda–Stoikov 框架下的参考价格演化与成交概率模型.
package dynamics

import "math/rand/v2"

// Source 回合内唯一的随机源，价格采样与成交采样共用.
type Source interface {
	// NormFloat64 返回一个标准正态样本.
	NormFloat64() float64
	// Float64 返回 [0,1) 上的均匀样本.
	Float64() float64
}

// seedStream 用于派生 PCG 的第二个种子字，避免 (seed, seed) 这类对称输入.
const seedStream = 0x9e3779b97f4a7c15

// NewSource 创建一个确定性的 PCG 随机源，相同 seed 产生相同序列.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^seedStream))
}
