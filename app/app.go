// Package app 管理长驻进程的生命周期：启动服务、监听信号并优雅关闭.
package app

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"
)

const shutdownTimeout = 10 * time.Second

// App 应用程序容器.
type App struct {
	name   string
	logger *slog.Logger
	opts   options
}

// New 创建应用程序实例.
func New(name string, logger *slog.Logger, opts ...Option) *App {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &App{name: name, logger: logger, opts: o}
}

// Run 启动所有 Server 并阻塞，直到收到 SIGINT/SIGTERM、ctx 结束或任一 Server 失败.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application starting", "name", a.name, "pid", os.Getpid())

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var wg conc.WaitGroup
	for _, srv := range a.opts.servers {
		wg.Go(func() {
			if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("server failed", "error", err)
				cancel(err)
			}
		})
	}

	<-ctx.Done()
	a.logger.Info("shutting down application", "name", a.name)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	var errs []error
	for _, srv := range a.opts.servers {
		if err := srv.Stop(shutdownCtx); err != nil {
			a.logger.Error("server failed to stop", "error", err)
			errs = append(errs, err)
		}
	}
	wg.Wait()

	for i := len(a.opts.cleanups) - 1; i >= 0; i-- {
		a.opts.cleanups[i]()
	}

	if cause := context.Cause(ctx); cause != nil &&
		!errors.Is(cause, context.Canceled) && !errors.Is(cause, context.DeadlineExceeded) {
		errs = append(errs, cause)
	}

	a.logger.Info("application shut down")
	return errors.Join(errs...)
}
