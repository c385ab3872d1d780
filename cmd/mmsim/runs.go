package main

import (
	"context"
	"errors"
	"flag"
	"io"

	"github.com/google/uuid"

	"github.com/wyfcoding/marketsim/config"
	"github.com/wyfcoding/marketsim/evaluation"
	"github.com/wyfcoding/marketsim/logging"
	"github.com/wyfcoding/marketsim/metrics"
	"github.com/wyfcoding/marketsim/store"
)

var errDatabaseDisabled = errors.New("runs requires [database] enabled = true")

// runsQuery runs 子命令的查询条件，ID 优先于 Strategy.
type runsQuery struct {
	ID       string
	Strategy string
	Limit    int
}

func parseRunsQuery(args []string) (runsQuery, error) {
	var q runsQuery
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fs.StringVar(&q.ID, "id", "", "sweep run id")
	fs.StringVar(&q.Strategy, "strategy", "", "list the latest records of a strategy")
	fs.IntVar(&q.Limit, "limit", 20, "maximum records with -strategy")
	if err := fs.Parse(args); err != nil {
		return q, err
	}
	if q.ID == "" && q.Strategy == "" {
		return q, errUsage
	}
	if q.ID != "" {
		if _, err := uuid.Parse(q.ID); err != nil {
			return q, err
		}
	}
	return q, nil
}

// listRuns 从结果库读取已保存的扫描记录并以 CSV 输出.
func listRuns(ctx context.Context, conf *config.Config, m *metrics.Metrics, logger *logging.Logger, args []string, stdout io.Writer) error {
	q, err := parseRunsQuery(args)
	if err != nil {
		return err
	}
	if !conf.Database.Enabled {
		return errDatabaseDisabled
	}

	results, cleanup, err := openStore(ctx, conf, m, logger)
	defer cleanup()
	if err != nil {
		return err
	}
	return printRuns(ctx, results, q, stdout)
}

func printRuns(ctx context.Context, results *store.ResultStore, q runsQuery, w io.Writer) error {
	var (
		rows []store.EvaluationRun
		err  error
	)
	if q.ID != "" {
		rows, err = results.ListRuns(ctx, uuid.MustParse(q.ID))
	} else {
		rows, err = results.ListStrategy(ctx, q.Strategy, q.Limit)
	}
	if err != nil {
		return err
	}

	records := make([]evaluation.Record, len(rows))
	for i, r := range rows {
		records[i] = r.Record()
	}
	return evaluation.WriteCSV(w, records)
}
