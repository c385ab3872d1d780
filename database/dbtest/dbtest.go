// Package dbtest 提供记录语句的内存 database/sql 驱动，供仓储层测试使用.
package dbtest

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Recorder 记录执行过的语句，按预设返回查询结果或写入错误.
type Recorder struct {
	mu sync.Mutex

	execs     []string
	queries   []string
	commits   int
	rollbacks int

	execErr error
	columns []string
	rows    [][]driver.Value
}

// New 创建连接到 Recorder 的 *sql.DB.
func New() (*sql.DB, *Recorder) {
	r := &Recorder{}
	return sql.OpenDB(connector{r: r}), r
}

// Dialector 以 MySQL 方言包装 db，跳过版本探测.
func Dialector(db *sql.DB) gorm.Dialector {
	return mysql.New(mysql.Config{Conn: db, SkipInitializeWithVersion: true})
}

// FailExec 之后的写语句都返回 err，nil 表示恢复.
func (r *Recorder) FailExec(err error) {
	r.mu.Lock()
	r.execErr = err
	r.mu.Unlock()
}

// SetRows 之后的查询都返回这些行.
func (r *Recorder) SetRows(columns []string, rows [][]driver.Value) {
	r.mu.Lock()
	r.columns, r.rows = columns, rows
	r.mu.Unlock()
}

// Execs 已执行的写语句.
func (r *Recorder) Execs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.execs...)
}

// Queries 已执行的查询语句.
func (r *Recorder) Queries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

// Commits 提交次数.
func (r *Recorder) Commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commits
}

// Rollbacks 回滚次数.
func (r *Recorder) Rollbacks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rollbacks
}

func (r *Recorder) exec(query string) (driver.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.execs = append(r.execs, query)
	if r.execErr != nil {
		return nil, r.execErr
	}
	return result{}, nil
}

func (r *Recorder) query(query string) (driver.Rows, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query)
	return &rows{columns: r.columns, values: append([][]driver.Value(nil), r.rows...)}, nil
}

type connector struct{ r *Recorder }

func (c connector) Connect(context.Context) (driver.Conn, error) { return conn(c), nil }
func (c connector) Driver() driver.Driver                        { return drv{} }

type drv struct{}

func (drv) Open(string) (driver.Conn, error) {
	return nil, errors.New("dbtest: open through the connector")
}

type conn struct{ r *Recorder }

func (c conn) Prepare(query string) (driver.Stmt, error) { return stmt{r: c.r, query: query}, nil }
func (c conn) Close() error                              { return nil }
func (c conn) Begin() (driver.Tx, error)                 { return tx(c), nil }

type stmt struct {
	r     *Recorder
	query string
}

func (s stmt) Close() error                               { return nil }
func (s stmt) NumInput() int                              { return -1 }
func (s stmt) Exec([]driver.Value) (driver.Result, error) { return s.r.exec(s.query) }
func (s stmt) Query([]driver.Value) (driver.Rows, error)  { return s.r.query(s.query) }

type tx struct{ r *Recorder }

func (t tx) Commit() error {
	t.r.mu.Lock()
	t.r.commits++
	t.r.mu.Unlock()
	return nil
}

func (t tx) Rollback() error {
	t.r.mu.Lock()
	t.r.rollbacks++
	t.r.mu.Unlock()
	return nil
}

// result 自增主键从 1 开始.
type result struct{}

func (result) LastInsertId() (int64, error) { return 1, nil }
func (result) RowsAffected() (int64, error) { return 1, nil }

type rows struct {
	columns []string
	values  [][]driver.Value
}

func (r *rows) Columns() []string { return r.columns }
func (r *rows) Close() error      { return nil }

func (r *rows) Next(dest []driver.Value) error {
	if len(r.values) == 0 {
		return io.EOF
	}
	copy(dest, r.values[0])
	r.values = r.values[1:]
	return nil
}
