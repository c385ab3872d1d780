// Package stats 提供回合结果的汇总统计.
package stats

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/shopspring/decimal"
)

// MeanVar 总体均值与方差，空输入返回 0.
func MeanVar(values []float64) (mean, variance float64) {
	if len(values) == 0 {
		return 0, 0
	}

	var sum, sumsq float64
	for _, v := range values {
		sum += v
		sumsq += v * v
	}

	n := float64(len(values))
	mean = sum / n
	variance = sumsq/n - mean*mean

	return mean, variance
}

// MedianQuantiles 以 n/4 为步长取已排序样本的四分位点.
func MedianQuantiles(sorted []float64) (q25, q50, q75 float64) {
	if len(sorted) == 0 {
		return 0, 0, 0
	}

	pivot := len(sorted) / 4
	return sorted[pivot], sorted[pivot*2], sorted[pivot*3]
}

// Estimate 均值与标准差.
type Estimate struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// FromSlice 由样本计算估计量，数值误差导致的负方差按 0 处理.
func FromSlice(values []float64) Estimate {
	mean, variance := MeanVar(values)
	return Estimate{Mean: mean, StdDev: math.Sqrt(math.Max(variance, 0))}
}

func (e Estimate) String() string {
	return fmt.Sprintf("%v ± %v", e.Mean, e.StdDev)
}

// LogValue 实现 slog.LogValuer.
func (e Estimate) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("mean", e.Mean),
		slog.Float64("stddev", e.StdDev),
	)
}

// Decimal 转换为定点数，用于持久化.
func (e Estimate) Decimal() (mean, stddev decimal.Decimal) {
	return decimal.NewFromFloat(e.Mean), decimal.NewFromFloat(e.StdDev)
}
