package main

import (
	"context"

	"github.com/wyfcoding/marketsim/app"
	"github.com/wyfcoding/marketsim/config"
	"github.com/wyfcoding/marketsim/logging"
	"github.com/wyfcoding/marketsim/metrics"
	"github.com/wyfcoding/marketsim/scheduler"
)

// schedulerServer 让调度器受 App 生命周期管理.
type schedulerServer struct {
	*scheduler.Scheduler
}

func (s schedulerServer) Start(ctx context.Context) error {
	s.Scheduler.Start(ctx)
	<-ctx.Done()
	return nil
}

// serve 周期性执行扫描并暴露指标，直到收到退出信号.
func serve(ctx context.Context, conf *config.Config, m *metrics.Metrics, logger *logging.Logger) error {
	out, cleanup, err := openSinks(ctx, conf, m, logger)
	if err != nil {
		cleanup()
		return err
	}

	config.RegisterReloadHook(func(c *config.Config) {
		logger.Info("config reloaded, next sweep uses new settings", "strategy", c.Evaluation.Strategy)
	})

	sched := scheduler.NewScheduler(logger.WithModule("scheduler"), m)
	err = sched.AddJob(scheduler.JobConfig{
		Name:       "sweep",
		Cron:       conf.Schedule.Cron,
		Interval:   conf.Schedule.Interval,
		RunOnStart: true,
	}, func(ctx context.Context) error {
		// 每次运行固定一份快照，热更新只影响下一次.
		_, err := sweepOnce(ctx, config.Current(), m, logger, out)
		return err
	})
	if err != nil {
		cleanup()
		return err
	}

	config.Watch()

	opts := []app.Option{app.WithServer(schedulerServer{sched}), app.WithCleanup(cleanup)}
	if conf.Metrics.Enabled {
		opts = append(opts, app.WithCleanup(m.ExposeHttp(conf.Metrics.Port, conf.Metrics.Path)))
	}

	return app.New(serviceName, logger.Logger, opts...).Run(ctx)
}
