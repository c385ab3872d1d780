package database

import (
	"context"

	"github.com/wyfcoding/marketsim/xerrors"
	"gorm.io/gorm"
)

// GormRepository 基于 GORM 的泛型仓储.
type GormRepository[T any] struct {
	db *gorm.DB
}

// NewGormRepository 创建泛型仓储.
func NewGormRepository[T any](db *gorm.DB) *GormRepository[T] {
	return &GormRepository[T]{db: db}
}

// DB 返回带 ctx 的 GORM 实例.
func (r *GormRepository[T]) DB(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// WithTx 返回绑定到事务的仓储.
func (r *GormRepository[T]) WithTx(tx *gorm.DB) *GormRepository[T] {
	return &GormRepository[T]{db: tx}
}

// CreateInBatches 批量插入.
func (r *GormRepository[T]) CreateInBatches(ctx context.Context, entities []T, batchSize int) error {
	if len(entities) == 0 {
		return nil
	}
	if err := r.DB(ctx).CreateInBatches(entities, batchSize).Error; err != nil {
		return xerrors.WrapInternal(err, "failed to create entities")
	}
	return nil
}

// Find 按作用域查询.
func (r *GormRepository[T]) Find(ctx context.Context, scopes ...func(*gorm.DB) *gorm.DB) ([]T, error) {
	var entities []T
	if err := r.DB(ctx).Scopes(scopes...).Find(&entities).Error; err != nil {
		return nil, xerrors.WrapInternal(err, "failed to find entities")
	}
	return entities, nil
}
