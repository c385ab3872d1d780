// Package metrics 封装基于 Prometheus 的指标注册表与模拟器的标准指标.
package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 独立注册表及预定义指标，nil 接收者上的记录方法为空操作.
type Metrics struct {
	registry *prometheus.Registry

	EpisodesTotal      *prometheus.CounterVec   // 完成的回合数 (维度: strategy)
	FillsTotal         *prometheus.CounterVec   // 成交次数 (维度: strategy, side)
	TerminalWealth     *prometheus.HistogramVec // 回合终止财富分布 (维度: strategy)
	EvaluationDuration *prometheus.HistogramVec // 评估耗时 (维度: kind)
	JobRunsTotal       *prometheus.CounterVec   // 定时任务执行次数 (维度: job, status)
	JobDuration        *prometheus.HistogramVec // 定时任务耗时 (维度: job)
	BreakerState       *prometheus.GaugeVec     // 熔断器状态 (维度: name)
	BuildInfo          *prometheus.GaugeVec
}

// NewMetrics 初始化指标采集器并注册 Go 运行时与进程指标.
func NewMetrics(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}

	m.EpisodesTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "mmsim_episodes_total",
		Help: "Total number of simulated episodes",
	}, []string{"strategy"})

	m.FillsTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "mmsim_fills_total",
		Help: "Total number of executed quotes",
	}, []string{"strategy", "side"})

	m.TerminalWealth = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mmsim_terminal_wealth",
		Help:    "Terminal wealth per episode",
		Buckets: prometheus.LinearBuckets(-20, 10, 12),
	}, []string{"strategy"})

	m.EvaluationDuration = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mmsim_evaluation_duration_seconds",
		Help:    "Evaluation latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"kind"})

	m.JobRunsTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "mmsim_job_runs_total",
		Help: "Total number of scheduled job runs",
	}, []string{"job", "status"})

	m.JobDuration = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mmsim_job_duration_seconds",
		Help:    "Scheduled job latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"job"})

	m.BreakerState = m.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mmsim_circuit_breaker_state",
		Help: "Circuit breaker state (0: Closed, 1: Half-Open, 2: Open)",
	}, []string{"name"})

	slog.Info("metrics registry initialized", "service", serviceName)
	return m
}

// NewCounterVec 创建并注册一个新的计数器指标。
func (m *Metrics) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

// NewGaugeVec 创建并注册一个新的仪表盘指标。
func (m *Metrics) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	gv := prometheus.NewGaugeVec(opts, labelNames)
	m.registry.MustRegister(gv)
	return gv
}

// NewHistogramVec 创建并注册一个新的直方图指标。
func (m *Metrics) NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(opts, labelNames)
	m.registry.MustRegister(hv)
	return hv
}

// Registry 返回底层注册表，用于测试读取.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveEpisode 记录一个回合的结果.
func (m *Metrics) ObserveEpisode(strategy string, wealth float64, askFills, bidFills int) {
	if m == nil {
		return
	}
	m.EpisodesTotal.WithLabelValues(strategy).Inc()
	m.FillsTotal.WithLabelValues(strategy, "ask").Add(float64(askFills))
	m.FillsTotal.WithLabelValues(strategy, "bid").Add(float64(bidFills))
	m.TerminalWealth.WithLabelValues(strategy).Observe(wealth)
}

// ObserveEvaluation 记录一次评估或扫描的耗时.
func (m *Metrics) ObserveEvaluation(kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.EvaluationDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveJob 记录一次定时任务执行.
func (m *Metrics) ObserveJob(job string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.JobRunsTotal.WithLabelValues(job, status).Inc()
	m.JobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}

// Handler 返回用于暴露指标的 HTTP 处理器。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ExposeHttp 在指定端口启动独立的 HTTP 服务器暴露指标，返回优雅关闭函数.
func (m *Metrics) ExposeHttp(port, path string) func() {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown metrics server", "error", err)
		}
	}
}
