package evaluation

import (
	"context"
	"slices"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/wyfcoding/marketsim/dynamics"
	"github.com/wyfcoding/marketsim/env"
	"github.com/wyfcoding/marketsim/logging"
	"github.com/wyfcoding/marketsim/metrics"
	"github.com/wyfcoding/marketsim/stats"
	"github.com/wyfcoding/marketsim/strategy"
	"github.com/wyfcoding/marketsim/tracing"
	"github.com/wyfcoding/marketsim/xerrors"
)

// Record 一次评估的汇总.
type Record struct {
	Strategy           string
	Param              float64
	Episodes           int
	Wealth             stats.Estimate
	Inventory          stats.Estimate
	Spread             stats.Estimate
	WealthQuartiles    [3]float64
	InventoryQuartiles [3]float64
}

// Result 汇总及逐回合原始结果，Outcomes 按回合序号排列.
type Result struct {
	Record   Record
	Outcomes []Outcome
}

// Evaluator 并行运行相互独立的做市回合.
// 第 i 个回合使用种子 Seed+i，结果与并发度无关.
type Evaluator struct {
	Market   Market
	Episodes int
	Workers  int     // 0 表示不限制.
	Seed     uint64
	Eta      float64 // 环境的终止库存惩罚，只影响收益，不影响财富.

	Metrics *metrics.Metrics
	Logger  *logging.Logger
}

// NewEvaluator 使用默认市场参数创建评估器.
func NewEvaluator(episodes int, seed uint64) *Evaluator {
	return &Evaluator{Market: DefaultMarket(), Episodes: episodes, Seed: seed}
}

func (e *Evaluator) logger() *logging.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return logging.Default()
}

// Evaluate 运行 Episodes 个回合并汇总结果.
func (e *Evaluator) Evaluate(ctx context.Context, name string, param float64, quoter strategy.Quoter) (*Result, error) {
	if e.Episodes <= 0 {
		return nil, xerrors.ErrInvalidEpisodes.WithDetail("episodes=%d", e.Episodes)
	}
	if quoter == nil {
		return nil, xerrors.ErrNilCollaborator.WithDetail("quoter is nil")
	}

	ctx, span := tracing.StartSpan(ctx, "evaluation.Evaluate")
	defer span.End()
	tracing.AddTag(ctx, "strategy", name)
	tracing.AddTag(ctx, "param", param)
	tracing.AddTag(ctx, "episodes", e.Episodes)

	start := time.Now()
	outcomes := make([]Outcome, e.Episodes)

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	if e.Workers > 0 {
		p = p.WithMaxGoroutines(e.Workers)
	}
	for i := range outcomes {
		p.Go(func(ctx context.Context) error {
			out, err := e.runOne(ctx, uint64(i), quoter)
			if err != nil {
				return err
			}
			outcomes[i] = out
			e.Metrics.ObserveEpisode(name, out.Wealth, out.AskFills, out.BidFills)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		tracing.SetError(ctx, err)
		return nil, err
	}

	res := &Result{Record: summarize(name, param, outcomes), Outcomes: outcomes}
	e.Metrics.ObserveEvaluation("evaluate", time.Since(start))

	e.logger().DebugContext(ctx, "evaluation finished",
		"strategy", name,
		"param", param,
		"episodes", e.Episodes,
		"wealth", res.Record.Wealth,
		"inventory", res.Record.Inventory,
		"spread", res.Record.Spread,
		"duration", time.Since(start),
	)

	return res, nil
}

func (e *Evaluator) runOne(ctx context.Context, index uint64, quoter strategy.Quoter) (Outcome, error) {
	engine, err := e.Market.NewEngine(dynamics.NewSource(e.Seed + index))
	if err != nil {
		return Outcome{}, err
	}
	return runTrader(ctx, env.NewTrader(engine, e.Eta), quoter)
}

func summarize(name string, param float64, outcomes []Outcome) Record {
	wealth := make([]float64, len(outcomes))
	inv := make([]float64, len(outcomes))
	spread := make([]float64, len(outcomes))
	for i, o := range outcomes {
		wealth[i] = o.Wealth
		inv[i] = o.TerminalInventory
		spread[i] = o.AverageSpread
	}

	r := Record{
		Strategy:  name,
		Param:     param,
		Episodes:  len(outcomes),
		Wealth:    stats.FromSlice(wealth),
		Inventory: stats.FromSlice(inv),
		Spread:    stats.FromSlice(spread),
	}

	slices.Sort(wealth)
	slices.Sort(inv)
	r.WealthQuartiles[0], r.WealthQuartiles[1], r.WealthQuartiles[2] = stats.MedianQuantiles(wealth)
	r.InventoryQuartiles[0], r.InventoryQuartiles[1], r.InventoryQuartiles[2] = stats.MedianQuantiles(inv)

	return r
}
