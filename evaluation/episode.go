package evaluation

import (
	"context"

	"github.com/wyfcoding/marketsim/env"
	"github.com/wyfcoding/marketsim/strategy"
	"github.com/wyfcoding/marketsim/xerrors"
)

// EpisodeResult 通用回合的汇总.
type EpisodeResult struct {
	Steps     int
	RewardSum float64
}

// RunEpisode 以策略函数驱动任意环境直到终止，每步之间检查 ctx.
func RunEpisode[A any](ctx context.Context, d env.Domain[A], policy func(env.Observation) A) (EpisodeResult, error) {
	var res EpisodeResult

	obs := d.Observe()
	for !obs.Terminal {
		if err := ctx.Err(); err != nil {
			return res, xerrors.Wrap(err, xerrors.ErrCanceled, "episode canceled")
		}

		tr := d.Step(policy(obs))
		res.Steps++
		res.RewardSum += tr.Reward
		obs = tr.To
	}

	return res, nil
}

// Outcome 单个做市回合的结果.
type Outcome struct {
	Wealth            float64
	TerminalInventory float64
	AverageSpread     float64 // 每步报价价差的平均值.
	RewardSum         float64
	Steps             int
	AskFills          int
	BidFills          int
}

// runTrader 以报价器驱动做市环境，报价使用引擎的真实时间、价格与未截断库存.
func runTrader(ctx context.Context, d *env.Trader, quoter strategy.Quoter) (Outcome, error) {
	var (
		out       Outcome
		spreadSum float64
	)

	quote := func() strategy.Quote {
		e := d.Engine()
		q := quoter.Compute(e.Time(), e.Price(), d.Inventory())
		spreadSum += q.Spread()
		return q
	}

	res, err := RunEpisode[strategy.Quote](ctx, d, func(env.Observation) strategy.Quote { return quote() })
	if err != nil {
		return out, err
	}

	out.Wealth = d.Wealth()
	out.TerminalInventory = d.TerminalInventory()
	out.RewardSum = res.RewardSum
	out.Steps = res.Steps
	out.AskFills, out.BidFills = d.Fills()
	if res.Steps > 0 {
		out.AverageSpread = spreadSum / float64(res.Steps)
	}

	return out, nil
}
