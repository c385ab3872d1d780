// Package logging 提供统一的结构化日志（slog）封装，支持 OpenTelemetry 追踪上下文注入、
// 运行时调整级别以及 GORM 日志集成.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm/logger"
)

var (
	defaultLogger *Logger
	mu            sync.RWMutex

	// level 所有由本包创建的 Handler 共享，热更新配置时直接调整.
	level = new(slog.LevelVar)
)

// Config 定义日志配置
type Config struct {
	Service    string
	Module     string
	Level      string
	File       string // 日志文件路径，为空则只输出到 stdout
	Stdout     bool   // 配置了文件时是否同时输出到 stdout
	MaxSize    int    // 每个日志文件最大尺寸 (MB)
	MaxBackups int    // 保留旧日志文件的最大个数
	MaxAge     int    // 保留旧日志文件的最大天数
	Compress   bool   // 是否压缩旧日志
}

// Logger 封装 *slog.Logger，附带服务名与模块名.
type Logger struct {
	*slog.Logger
	Service string
	Module  string
}

// TraceHandler 从 context 中提取 trace_id 与 span_id 注入日志记录.
type TraceHandler struct {
	slog.Handler
}

// Handle 实现 slog.Handler.
func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

// WithAttrs 保持装饰器包裹.
func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

// WithGroup 保持装饰器包裹.
func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithGroup(name)}
}

// ParseLevel 解析级别字符串，无法识别时回退到 info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel 运行时调整全局日志级别.
func SetLevel(s string) {
	level.Set(ParseLevel(s))
}

// Level 当前全局日志级别.
func Level() slog.Level {
	return level.Level()
}

func newJSONHandler(w io.Writer) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "timestamp"
			}
			return a
		},
	})
}

func newLogger(handler slog.Handler, service, module string) *Logger {
	l := slog.New(&TraceHandler{Handler: handler}).With(
		slog.String("service", service),
		slog.String("module", module),
	)
	return &Logger{Logger: l, Service: service, Module: module}
}

// NewFromConfig 创建 Logger，配置了文件时使用 lumberjack 切割.
func NewFromConfig(cfg Config) *Logger {
	SetLevel(cfg.Level)

	if cfg.File == "" {
		return newLogger(newJSONHandler(os.Stdout), cfg.Service, cfg.Module)
	}

	handler := newJSONHandler(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	})
	if cfg.Stdout {
		handler = newMultiHandler(handler, newJSONHandler(os.Stdout))
	}

	return newLogger(handler, cfg.Service, cfg.Module)
}

// NewWriterLogger 输出到任意 io.Writer，不改变全局级别.
func NewWriterLogger(w io.Writer, service, module string) *Logger {
	return newLogger(newJSONHandler(w), service, module)
}

// InitLogger 初始化全局默认日志记录器并设置为 slog 默认值，可重复调用以切换输出.
func InitLogger(cfg Config) *Logger {
	l := NewFromConfig(cfg)

	mu.Lock()
	defaultLogger = l
	mu.Unlock()

	slog.SetDefault(l.Logger)
	return l
}

// Default 返回默认日志记录器，未初始化时创建一个输出到 stdout 的实例.
func Default() *Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l != nil {
		return l
	}
	return InitLogger(Config{Service: "mmsim", Module: "default", Level: "info"})
}

// WithModule 派生带模块名的子 Logger.
func (l *Logger) WithModule(module string) *Logger {
	return &Logger{
		Logger:  l.Logger.With(slog.String("module", module)),
		Service: l.Service,
		Module:  module,
	}
}

// GormLogger 将 GORM 日志输出到 slog.
type GormLogger struct {
	logger        *slog.Logger
	level         logger.LogLevel
	SlowThreshold time.Duration // 超过此阈值的 SQL 记为慢查询
}

// NewGormLogger 创建 GormLogger，默认级别为 Warn.
func NewGormLogger(l *Logger, slowThreshold time.Duration) *GormLogger {
	return &GormLogger{
		logger:        l.Logger,
		level:         logger.Warn,
		SlowThreshold: slowThreshold,
	}
}

// LogMode 返回指定级别的副本.
func (l *GormLogger) LogMode(lvl logger.LogLevel) logger.Interface {
	cp := *l
	cp.level = lvl
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Trace 错误记为 Error，慢查询记为 Warn，其余记为 Debug.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []any{
		slog.String("sql", sql),
		slog.Duration("elapsed", elapsed),
	}
	if rows != -1 {
		fields = append(fields, slog.Int64("rows", rows))
	}

	switch {
	case err != nil && err != logger.ErrRecordNotFound && l.level >= logger.Error:
		fields = append(fields, slog.Any("error", err))
		l.logger.ErrorContext(ctx, "gorm trace error", fields...)
	case l.SlowThreshold != 0 && elapsed > l.SlowThreshold && l.level >= logger.Warn:
		fields = append(fields, slog.String("type", "slow_query"))
		l.logger.WarnContext(ctx, "gorm trace slow query", fields...)
	case l.level >= logger.Info:
		l.logger.DebugContext(ctx, "gorm trace", fields...)
	}
}
