// Package database 提供带熔断保护与链路追踪的 GORM 连接封装.
package database

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/marketsim/breaker"
	"github.com/wyfcoding/marketsim/config"
	"github.com/wyfcoding/marketsim/logging"
	"github.com/wyfcoding/marketsim/metrics"
	"github.com/wyfcoding/marketsim/xerrors"

	"gorm.io/driver/clickhouse"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"
)

const defaultSlowThreshold = 200 * time.Millisecond

// DB 封装了 GORM 实例.
type DB struct {
	*gorm.DB
	cfg     config.DatabaseConfig
	breaker *breaker.DynamicBreaker
	logger  *logging.Logger
}

// Dialector 按驱动名选择 GORM 方言.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "clickhouse":
		return clickhouse.Open(dsn), nil
	default:
		return nil, xerrors.ErrUnsupportedDriver.WithDetail("driver=%q", driver)
	}
}

// NewDB 按配置选择方言并打开连接.
func NewDB(cfg config.DatabaseConfig, cbCfg config.CircuitBreakerConfig, logger *logging.Logger, m *metrics.Metrics) (*DB, error) {
	dialector, err := Dialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return Open(dialector, cfg, cbCfg, logger, m)
}

// Open 基于给定方言打开连接、注册 otel 插件并配置连接池，失败时关闭已打开的连接池.
func Open(dialector gorm.Dialector, cfg config.DatabaseConfig, cbCfg config.CircuitBreakerConfig, logger *logging.Logger, m *metrics.Metrics) (*DB, error) {
	slow := cfg.SlowThreshold
	if slow == 0 {
		slow = defaultSlowThreshold
	}
	gormLogger := logging.NewGormLogger(logger, slow)

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger:      gormLogger.LogMode(cfg.LogLevel),
		PrepareStmt: true,
	})
	if err != nil {
		closePool(gormDB)
		return nil, xerrors.WrapInternal(err, "failed to open database connection")
	}

	if errTracing := gormDB.Use(tracing.NewPlugin()); errTracing != nil {
		closePool(gormDB)
		return nil, xerrors.WrapInternal(errTracing, "failed to register gorm otel plugin")
	}

	sqlDB, errDB := gormDB.DB()
	if errDB != nil {
		closePool(gormDB)
		return nil, xerrors.WrapInternal(errDB, "failed to get underlying sql.DB")
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	cb := breaker.NewDynamicBreaker("database-"+dialector.Name(), m, 0, 0)
	cb.Update(cbCfg)

	logger.Info("database connected", "driver", dialector.Name())

	return &DB{DB: gormDB, cfg: cfg, breaker: cb, logger: logger}, nil
}

// closePool 关闭 gorm 持有的连接池，预编译语句包装层会先被清空.
func closePool(gormDB *gorm.DB) {
	if gormDB == nil {
		return
	}
	pool := gormDB.ConnPool
	if prepared, ok := pool.(*gorm.PreparedStmtDB); ok {
		prepared.Close()
		pool = prepared.ConnPool
	}
	if closer, ok := pool.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}

// UpdateBreaker 配置热更新时重建熔断器.
func (db *DB) UpdateBreaker(cfg config.CircuitBreakerConfig) {
	db.breaker.Update(cfg)
}

// Transaction 带熔断保护的事务，熔断打开时返回 ErrStoreUnavailable.
func (db *DB) Transaction(ctx context.Context, fc func(tx *gorm.DB) error) error {
	_, err := db.breaker.Execute(func() (any, error) {
		if errTx := db.DB.WithContext(ctx).Transaction(fc); errTx != nil {
			return nil, xerrors.WrapInternal(errTx, "transaction failed")
		}
		return nil, nil
	})
	if errors.Is(err, breaker.ErrServiceUnavailable) {
		return xerrors.ErrStoreUnavailable.WithCause(err)
	}
	return err
}

// Close 关闭底层连接池.
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
