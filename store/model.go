// Package store 持久化评估结果.
package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/marketsim/evaluation"
	"github.com/wyfcoding/marketsim/stats"
)

// EvaluationRun 一次扫描中单个参数点的汇总，同一次扫描共享 RunID.
type EvaluationRun struct {
	ID              uint64          `gorm:"primaryKey;autoIncrement"`
	RunID           string          `gorm:"size:36;index"`
	Strategy        string          `gorm:"size:32;index"`
	Param           decimal.Decimal `gorm:"type:decimal(20,8)"`
	Episodes        int
	Seed            uint64
	WealthMean      decimal.Decimal `gorm:"type:decimal(20,8)"`
	WealthStdDev    decimal.Decimal `gorm:"type:decimal(20,8)"`
	InventoryMean   decimal.Decimal `gorm:"type:decimal(20,8)"`
	InventoryStdDev decimal.Decimal `gorm:"type:decimal(20,8)"`
	SpreadMean      decimal.Decimal `gorm:"type:decimal(20,8)"`
	SpreadStdDev    decimal.Decimal `gorm:"type:decimal(20,8)"`
	CreatedAt       time.Time
}

// TableName 表名.
func (EvaluationRun) TableName() string { return "evaluation_runs" }

// NewRuns 将评估记录转换为持久化模型.
func NewRuns(runID uuid.UUID, seed uint64, records []evaluation.Record, now time.Time) []EvaluationRun {
	runs := make([]EvaluationRun, len(records))
	for i, r := range records {
		run := EvaluationRun{
			RunID:     runID.String(),
			Strategy:  r.Strategy,
			Param:     decimal.NewFromFloat(r.Param),
			Episodes:  r.Episodes,
			Seed:      seed,
			CreatedAt: now,
		}
		run.WealthMean, run.WealthStdDev = r.Wealth.Decimal()
		run.InventoryMean, run.InventoryStdDev = r.Inventory.Decimal()
		run.SpreadMean, run.SpreadStdDev = r.Spread.Decimal()
		runs[i] = run
	}
	return runs
}

// Record 还原为评估记录，四分位数不持久化.
func (r EvaluationRun) Record() evaluation.Record {
	return evaluation.Record{
		Strategy:  r.Strategy,
		Param:     r.Param.InexactFloat64(),
		Episodes:  r.Episodes,
		Wealth:    estimate(r.WealthMean, r.WealthStdDev),
		Inventory: estimate(r.InventoryMean, r.InventoryStdDev),
		Spread:    estimate(r.SpreadMean, r.SpreadStdDev),
	}
}

func estimate(mean, stddev decimal.Decimal) stats.Estimate {
	return stats.Estimate{Mean: mean.InexactFloat64(), StdDev: stddev.InexactFloat64()}
}
