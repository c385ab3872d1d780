package app

import "context"

// Server 由 App 管理生命周期的长驻组件，Start 阻塞直到 ctx 结束或出错.
type Server interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Option 函数式选项.
type Option func(*options)

type options struct {
	servers  []Server
	cleanups []func()
}

// WithServer 添加一个或多个 Server，启动时并发运行，关闭时依次停止.
func WithServer(servers ...Server) Option {
	return func(o *options) {
		o.servers = append(o.servers, servers...)
	}
}

// WithCleanup 添加关闭时执行的清理函数，按注册的逆序执行.
func WithCleanup(cleanup func()) Option {
	return func(o *options) {
		if cleanup != nil {
			o.cleanups = append(o.cleanups, cleanup)
		}
	}
}
