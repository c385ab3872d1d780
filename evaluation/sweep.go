package evaluation

import (
	"context"
	"maps"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/marketsim/strategy"
	"github.com/wyfcoding/marketsim/tracing"
	"github.com/wyfcoding/marketsim/xerrors"
)

// SweepVar 表达式策略中承载扫描参数的变量名.
const SweepVar = "p"

// DefaultGrid 0.001 与 0.01..1.00.
func DefaultGrid() []float64 {
	grid := make([]float64, 0, 101)
	grid = append(grid, 0.001)
	for i := 1; i <= 100; i++ {
		grid = append(grid, 0.01*float64(i))
	}
	return grid
}

// SweepParam 各策略被扫描的参数名.
func SweepParam(name string) string {
	switch name {
	case strategy.NameLinear:
		return "k"
	case strategy.NameLinearPenalty:
		return "eta"
	case strategy.NameExponential:
		return "gamma"
	default:
		return SweepVar
	}
}

// WithParam 将网格值写入策略对应的参数.
func WithParam(name string, base strategy.Params, v float64) strategy.Params {
	p := base
	switch name {
	case strategy.NameLinear:
		p.K = v
	case strategy.NameLinearPenalty:
		p.Eta = v
	case strategy.NameExponential:
		p.Gamma = v
	default:
		p.Vars = maps.Clone(base.Vars)
		if p.Vars == nil {
			p.Vars = make(map[string]float64, 1)
		}
		p.Vars[SweepVar] = v
	}
	return p
}

// Sweep 对网格中的每个值运行一次评估，最多 limit 个评估并发，结果按参数升序.
func (e *Evaluator) Sweep(ctx context.Context, name string, base strategy.Params, grid []float64, limit int) ([]Record, error) {
	if len(grid) == 0 {
		return nil, xerrors.ErrEmptyGrid
	}

	ctx, span := tracing.StartSpan(ctx, "evaluation.Sweep")
	defer span.End()
	tracing.AddTag(ctx, "strategy", name)
	tracing.AddTag(ctx, "grid_size", len(grid))

	start := time.Now()
	records := make([]Record, len(grid))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, v := range grid {
		g.Go(func() error {
			quoter, err := strategy.New(name, WithParam(name, base, v))
			if err != nil {
				return err
			}
			res, err := e.Evaluate(gctx, name, v, quoter)
			if err != nil {
				return err
			}
			records[i] = res.Record
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		tracing.SetError(ctx, err)
		return nil, err
	}

	slices.SortStableFunc(records, func(a, b Record) int {
		switch {
		case a.Param < b.Param:
			return -1
		case a.Param > b.Param:
			return 1
		default:
			return 0
		}
	})

	e.Metrics.ObserveEvaluation("sweep", time.Since(start))
	e.logger().InfoContext(ctx, "sweep finished",
		"strategy", name,
		"param", SweepParam(name),
		"points", len(records),
		"duration", time.Since(start),
	)

	return records, nil
}
