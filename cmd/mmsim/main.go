// Command mmsim 评估 Avellaneda–Stoikov 做市基线策略.
//
//	mmsim [-conf path] evaluate [-strategy name] [-episodes n] [-seed s]
//	mmsim [-conf path] sweep    [-strategy name] [-episodes n] [-seed s]
//	mmsim [-conf path] serve
//	mmsim [-conf path] runs     (-id run-id | -strategy name [-limit n])
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/wyfcoding/marketsim/config"
	"github.com/wyfcoding/marketsim/evaluation"
	"github.com/wyfcoding/marketsim/logging"
	"github.com/wyfcoding/marketsim/metrics"
	"github.com/wyfcoding/marketsim/strategy"
	"github.com/wyfcoding/marketsim/tracing"
)

const serviceName = "mmsim"

var errUsage = errors.New("usage: mmsim [-conf path] evaluate|sweep|serve|runs [flags]")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	confPath := fs.String("conf", "", "path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	var conf config.Config
	if err := config.Load(*confPath, &conf); err != nil {
		return err
	}

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	if cmd == "evaluate" || cmd == "sweep" {
		if err := applyOverrides(cmd, cmdArgs, &conf); err != nil {
			return err
		}
	}

	logger := logging.InitLogger(logging.Config{
		Service:    serviceName,
		Module:     cmd,
		Level:      conf.Log.Level,
		File:       conf.Log.File,
		Stdout:     conf.Log.Stdout,
		MaxSize:    conf.Log.MaxSize,
		MaxBackups: conf.Log.MaxBackups,
		MaxAge:     conf.Log.MaxAge,
		Compress:   conf.Log.Compress,
	})
	config.PrintWithMask(conf)

	shutdownTracer, err := tracing.InitTracer(conf.Tracing)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
	} else {
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				logger.Error("failed to shutdown tracer", "error", err)
			}
		}()
	}

	m := metrics.NewMetrics(serviceName)
	m.RegisterBuildInfo(serviceName, conf.Version)

	switch cmd {
	case "evaluate":
		return evaluate(ctx, &conf, m, logger, stdout)
	case "sweep":
		_, err := runSweep(ctx, &conf, m, logger)
		return err
	case "serve":
		return serve(ctx, &conf, m, logger)
	case "runs":
		return listRuns(ctx, &conf, m, logger, cmdArgs, stdout)
	default:
		return errUsage
	}
}

// applyOverrides 解析子命令参数覆盖配置并重新校验.
func applyOverrides(cmd string, args []string, conf *config.Config) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.StringVar(&conf.Evaluation.Strategy, "strategy", conf.Evaluation.Strategy, "strategy name: linear, linear_penalty, exponential, expression")
	fs.IntVar(&conf.Evaluation.Episodes, "episodes", conf.Evaluation.Episodes, "episodes per evaluation")
	fs.Uint64Var(&conf.Simulation.Seed, "seed", conf.Simulation.Seed, "base seed, episode i uses seed+i")
	fs.StringVar(&conf.Evaluation.Output, "out", conf.Evaluation.Output, "csv output path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return config.Validate(conf)
}

// strategyParams 由配置构造策略参数，k 为 0 时取成交衰减系数.
func strategyParams(conf *config.Config) strategy.Params {
	ev := conf.Evaluation
	k := ev.K
	if k == 0 {
		k = conf.Simulation.FillDecay
	}
	return strategy.Params{
		K:          k,
		Eta:        ev.Eta,
		Gamma:      ev.Gamma,
		Volatility: conf.Simulation.Volatility,
		AskExpr:    ev.AskExpr,
		BidExpr:    ev.BidExpr,
		Vars:       ev.Vars,
	}
}

// paramValue 单次评估时被记录的参数值.
func paramValue(name string, p strategy.Params) float64 {
	switch name {
	case strategy.NameLinear:
		return p.K
	case strategy.NameLinearPenalty:
		return p.Eta
	case strategy.NameExponential:
		return p.Gamma
	default:
		return p.Vars[evaluation.SweepVar]
	}
}

func newEvaluator(conf *config.Config, m *metrics.Metrics, logger *logging.Logger) *evaluation.Evaluator {
	return &evaluation.Evaluator{
		Market:   evaluation.MarketFromConfig(conf.Simulation),
		Episodes: conf.Evaluation.Episodes,
		Workers:  conf.Evaluation.Workers,
		Seed:     conf.Simulation.Seed,
		Metrics:  m,
		Logger:   logger.WithModule("evaluation"),
	}
}

func evaluate(ctx context.Context, conf *config.Config, m *metrics.Metrics, logger *logging.Logger, stdout io.Writer) error {
	name := conf.Evaluation.Strategy
	params := strategyParams(conf)

	quoter, err := strategy.New(name, params)
	if err != nil {
		return err
	}

	res, err := newEvaluator(conf, m, logger).Evaluate(ctx, name, paramValue(name, params), quoter)
	if err != nil {
		return err
	}

	r := res.Record
	logger.InfoContext(ctx, "evaluation finished", "strategy", name, "episodes", r.Episodes,
		"wealth", r.Wealth, "inventory", r.Inventory, "spread", r.Spread)

	fmt.Fprintf(stdout, "PnL: %s | %v < %v < %v\n", r.Wealth, r.WealthQuartiles[0], r.WealthQuartiles[1], r.WealthQuartiles[2])
	fmt.Fprintf(stdout, "Inv: %s | %v < %v < %v\n", r.Inventory, r.InventoryQuartiles[0], r.InventoryQuartiles[1], r.InventoryQuartiles[2])
	fmt.Fprintf(stdout, "Spread: %s\n", r.Spread)
	return nil
}
