package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wyfcoding/marketsim/database"
	"github.com/wyfcoding/marketsim/evaluation"
)

const batchSize = 100

// ResultStore 评估结果仓储.
type ResultStore struct {
	db   *database.DB
	repo *database.GormRepository[EvaluationRun]
	now  func() time.Time
}

// NewResultStore 基于数据库连接创建仓储.
func NewResultStore(db *database.DB) *ResultStore {
	return &ResultStore{
		db:   db,
		repo: database.NewGormRepository[EvaluationRun](db.DB),
		now:  time.Now,
	}
}

// AutoMigrate 创建或更新表结构.
func (s *ResultStore) AutoMigrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&EvaluationRun{})
}

// SaveRecords 在一个事务中写入一次扫描的全部记录.
func (s *ResultStore) SaveRecords(ctx context.Context, runID uuid.UUID, seed uint64, records []evaluation.Record) error {
	runs := NewRuns(runID, seed, records, s.now().UTC())

	return s.db.Transaction(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).CreateInBatches(ctx, runs, batchSize)
	})
}

// ListRuns 查询一次扫描的记录，按参数升序.
func (s *ResultStore) ListRuns(ctx context.Context, runID uuid.UUID) ([]EvaluationRun, error) {
	return s.repo.Find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("run_id = ?", runID.String()).Order("param ASC")
	})
}

// ListStrategy 查询某策略最近的若干条记录.
func (s *ResultStore) ListStrategy(ctx context.Context, strategy string, limit int) ([]EvaluationRun, error) {
	return s.repo.Find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("strategy = ?", strategy).Order("created_at DESC").Limit(limit)
	})
}
