// Package scheduler 按固定间隔或 cron 表达式周期性执行任务，同一任务不重叠运行.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wyfcoding/marketsim/logging"
	"github.com/wyfcoding/marketsim/metrics"
)

var (
	// ErrJobNameEmpty 任务名称为空。
	ErrJobNameEmpty = errors.New("job name is empty")
	// ErrJobScheduleInvalid 既无有效间隔也无 cron 表达式。
	ErrJobScheduleInvalid = errors.New("job schedule is invalid")
	// ErrJobAlreadyExists 任务名称重复。
	ErrJobAlreadyExists = errors.New("job already exists")
	// ErrJobHandlerNil 任务处理函数为空。
	ErrJobHandlerNil = errors.New("job handler is nil")
	// ErrSchedulerStarted 调度器启动后不能再注册任务。
	ErrSchedulerStarted = errors.New("scheduler already started")
)

// Job 定义定时任务函数原型。
type Job func(ctx context.Context) error

// JobConfig 定义任务调度参数，Cron 非空时优先于 Interval。
type JobConfig struct {
	Name       string
	Cron       string        // 标准五段式 cron 表达式，支持 @every / @hourly 等描述符。
	Interval   time.Duration // 调度间隔。
	Timeout    time.Duration // 单次执行超时。
	RunOnStart bool          // 启动时立即执行一次。
}

// Scheduler 负责任务的统一调度与生命周期管理。
type Scheduler struct {
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	jobs    map[string]*jobRunner
	started bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

type jobRunner struct {
	cfg      JobConfig
	schedule cron.Schedule
	handler  Job
	running  atomic.Bool
}

// NewScheduler 创建任务调度器，m 可为 nil。
func NewScheduler(logger *logging.Logger, m *metrics.Metrics) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Scheduler{
		logger:  logger.Logger,
		metrics: m,
		jobs:    make(map[string]*jobRunner),
		stop:    make(chan struct{}),
	}
}

// ParseSchedule 解析任务的触发计划。
func ParseSchedule(cfg JobConfig) (cron.Schedule, error) {
	if cfg.Cron != "" {
		schedule, err := cron.ParseStandard(cfg.Cron)
		if err != nil {
			return nil, errors.Join(ErrJobScheduleInvalid, err)
		}
		return schedule, nil
	}
	if cfg.Interval <= 0 {
		return nil, ErrJobScheduleInvalid
	}
	return cron.Every(cfg.Interval), nil
}

// AddJob 注册一个新的调度任务。
func (s *Scheduler) AddJob(cfg JobConfig, handler Job) error {
	if cfg.Name == "" {
		return ErrJobNameEmpty
	}
	if handler == nil {
		return ErrJobHandlerNil
	}
	schedule, err := ParseSchedule(cfg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrSchedulerStarted
	}
	if _, exists := s.jobs[cfg.Name]; exists {
		return ErrJobAlreadyExists
	}

	s.jobs[cfg.Name] = &jobRunner{cfg: cfg, schedule: schedule, handler: handler}
	return nil
}

// Start 启动调度器并异步运行所有任务。
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true

	for _, runner := range s.jobs {
		s.wg.Add(1)
		go s.runJob(ctx, runner)
	}
}

// Stop 关闭调度器并等待所有任务退出。
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (s *Scheduler) runJob(ctx context.Context, runner *jobRunner) {
	defer s.wg.Done()

	if runner.cfg.RunOnStart {
		s.execute(ctx, runner)
	}

	for {
		now := time.Now()
		timer := time.NewTimer(runner.schedule.Next(now).Sub(now))

		select {
		case <-timer.C:
			s.execute(ctx, runner)
		case <-s.stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// execute 同步执行一次；上一次仍在运行时跳过.
func (s *Scheduler) execute(ctx context.Context, runner *jobRunner) {
	if !runner.running.CompareAndSwap(false, true) {
		s.logger.Warn("scheduler job skipped (already running)", "job", runner.cfg.Name)
		return
	}
	defer runner.running.Store(false)

	execCtx := ctx
	if runner.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, runner.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := runner.handler(execCtx)
	s.metrics.ObserveJob(runner.cfg.Name, err, time.Since(start))

	if err != nil {
		s.logger.ErrorContext(ctx, "scheduler job failed", "job", runner.cfg.Name, "error", err)
		return
	}
	s.logger.DebugContext(ctx, "scheduler job succeeded", "job", runner.cfg.Name, "duration", time.Since(start))
}
