package main

import (
	"bytes"
	"context"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/wyfcoding/marketsim/config"
	"github.com/wyfcoding/marketsim/database"
	"github.com/wyfcoding/marketsim/evaluation"
	"github.com/wyfcoding/marketsim/logging"
	"github.com/wyfcoding/marketsim/metrics"
	"github.com/wyfcoding/marketsim/storage"
	"github.com/wyfcoding/marketsim/store"
)

// sinks 扫描结果的可选去向.
type sinks struct {
	results  *store.ResultStore
	uploader *storage.MinIOClient
}

// openStore 打开结果库并建表，返回的 cleanup 总是非空.
func openStore(ctx context.Context, conf *config.Config, m *metrics.Metrics, logger *logging.Logger) (*store.ResultStore, func(), error) {
	db, err := database.NewDB(conf.Database, conf.CircuitBreaker, logger.WithModule("database"), m)
	if err != nil {
		return nil, func() {}, err
	}
	config.RegisterReloadHook(func(c *config.Config) { db.UpdateBreaker(c.CircuitBreaker) })

	cleanup := func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}

	results := store.NewResultStore(db)
	if err := results.AutoMigrate(ctx); err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return results, cleanup, nil
}

// openSinks 按配置打开结果库与对象存储，均为可选.
func openSinks(ctx context.Context, conf *config.Config, m *metrics.Metrics, logger *logging.Logger) (*sinks, func(), error) {
	s := &sinks{}
	cleanup := func() {}

	if conf.Database.Enabled {
		results, closeStore, err := openStore(ctx, conf, m, logger)
		if err != nil {
			return nil, cleanup, err
		}
		s.results, cleanup = results, closeStore
	}

	if conf.Minio.Endpoint != "" {
		client, err := storage.NewMinIOClient(conf.Minio)
		if err != nil {
			return nil, cleanup, err
		}
		if err := client.EnsureBucket(ctx); err != nil {
			return nil, cleanup, err
		}
		storage.RegisterReloadHook(client)
		s.uploader = client
	}

	return s, cleanup, nil
}

// runSweep 执行一次扫描：写 CSV，可选入库与上传.
func runSweep(ctx context.Context, conf *config.Config, m *metrics.Metrics, logger *logging.Logger) (uuid.UUID, error) {
	out, cleanup, err := openSinks(ctx, conf, m, logger)
	defer cleanup()
	if err != nil {
		return uuid.Nil, err
	}
	return sweepOnce(ctx, conf, m, logger, out)
}

func sweepOnce(ctx context.Context, conf *config.Config, m *metrics.Metrics, logger *logging.Logger, out *sinks) (uuid.UUID, error) {
	runID := uuid.New()
	name := conf.Evaluation.Strategy

	grid := conf.Evaluation.Grid
	if len(grid) == 0 {
		grid = evaluation.DefaultGrid()
	}

	records, err := newEvaluator(conf, m, logger).Sweep(ctx, name, strategyParams(conf), grid, runtime.GOMAXPROCS(0))
	if err != nil {
		return runID, err
	}

	var buf bytes.Buffer
	if err := evaluation.WriteCSV(&buf, records); err != nil {
		return runID, err
	}
	if conf.Evaluation.Output != "" {
		if err := os.WriteFile(conf.Evaluation.Output, buf.Bytes(), 0o644); err != nil {
			return runID, err
		}
	}

	if out.results != nil {
		if err := out.results.SaveRecords(ctx, runID, conf.Simulation.Seed, records); err != nil {
			return runID, err
		}
	}

	if out.uploader != nil {
		object := storage.ObjectName(name, runID, time.Now())
		link, err := storage.PublishCSV(ctx, out.uploader, object, buf.Bytes())
		if err != nil {
			return runID, err
		}
		logger.InfoContext(ctx, "sweep uploaded", "object", object, "url", link)
	}

	logger.InfoContext(ctx, "sweep stored", "run_id", runID, "strategy", name, "points", len(records), "output", conf.Evaluation.Output)
	return runID, nil
}
