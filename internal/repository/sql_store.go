package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MKris124/poultry-manager/common/config"
	"github.com/MKris124/poultry-manager/internal/domain"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// querier *sql.DB 与 *sql.Tx 的公共部分
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// dialect 方言差异：占位符与建表类型
type dialect struct {
	name       string
	builder    sq.StatementBuilderType
	primaryKey string
	floatType  string
	dateType   string
}

var (
	postgresDialect = dialect{
		name:       config.DriverPostgres,
		builder:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		primaryKey: "BIGSERIAL PRIMARY KEY",
		floatType:  "DOUBLE PRECISION",
		dateType:   "DATE",
	}
	sqliteDialect = dialect{
		name:       config.DriverSQLite,
		builder:    sq.StatementBuilder.PlaceholderFormat(sq.Question),
		primaryKey: "INTEGER PRIMARY KEY AUTOINCREMENT",
		floatType:  "REAL",
		dateType:   "TEXT",
	}
)

// SQLStore Store 的 database/sql 实现（PostgreSQL / SQLite）
type SQLStore struct {
	db      *sql.DB
	q       querier
	dialect dialect
	inTx    bool
}

// 确保实现了接口
var _ Store = (*SQLStore)(nil)

// NewSQLStore driver 取 config.DriverPostgres 或 config.DriverSQLite
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	d := postgresDialect
	if driver == config.DriverSQLite {
		d = sqliteDialect
	}
	return &SQLStore{db: db, q: db, dialect: d}
}

// WithTx 嵌套调用时复用外层事务
func (s *SQLStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txStore := &SQLStore{db: s.db, q: tx, dialect: s.dialect, inTx: true}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// DeleteAll 按外键依赖顺序清空
func (s *SQLStore) DeleteAll(ctx context.Context) error {
	for _, table := range []string{"shipments", "partner_growers", "partner_locations", "growers", "partners", "partner_groups"} {
		if err := s.exec(ctx, s.dialect.builder.Delete(table)); err != nil {
			return fmt.Errorf("delete all %s: %w", table, err)
		}
	}
	return nil
}

// ---- helpers ----

func (s *SQLStore) exec(ctx context.Context, b sq.Sqlizer) error {
	_, err := s.execResult(ctx, b)
	return err
}

func (s *SQLStore) execResult(ctx context.Context, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, translateErr(err)
	}
	return res, nil
}

func (s *SQLStore) query(ctx context.Context, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	return s.q.QueryContext(ctx, query, args...)
}

func (s *SQLStore) queryRow(ctx context.Context, b sq.Sqlizer, dest ...any) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	return s.q.QueryRowContext(ctx, query, args...).Scan(dest...)
}

// insertReturningID INSERT ... RETURNING id（两种方言都支持）
func (s *SQLStore) insertReturningID(ctx context.Context, b sq.InsertBuilder) (int64, error) {
	var id int64
	if err := s.queryRow(ctx, b.Suffix("RETURNING id"), &id); err != nil {
		return 0, translateErr(err)
	}
	return id, nil
}

// requireAffected 影响 0 行时返回 ErrNotFound
func requireAffected(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, domain.ErrNotFound)
	}
	return nil
}

func notFound(err error, what string, key any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", what, key, domain.ErrNotFound)
	}
	return fmt.Errorf("get %s: %w", what, err)
}

// translateErr 唯一约束冲突映射为 ErrConflict
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", domain.ErrConflict, pqErr.Message)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && isSQLiteUnique(liteErr) {
		return fmt.Errorf("%w: %s", domain.ErrConflict, liteErr.Error())
	}
	return err
}

func isSQLiteUnique(e *sqlite.Error) bool {
	switch e.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	// 未开启扩展错误码时只有基础码
	return e.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(e.Error(), "UNIQUE")
}

// nullDate 兼容 PostgreSQL DATE（time.Time）与 SQLite TEXT
type nullDate struct {
	Date  domain.Date
	Valid bool
}

func (n *nullDate) Scan(value any) error {
	n.Valid = false
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		n.Date, n.Valid = domain.DateOf(v), true
		return nil
	case string:
		return n.parse(v)
	case []byte:
		return n.parse(string(v))
	default:
		return fmt.Errorf("unsupported date value %T", value)
	}
}

func (n *nullDate) parse(s string) error {
	if s == "" {
		return nil
	}
	if len(s) > len(domain.DateLayout) {
		s = s[:len(domain.DateLayout)]
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		return fmt.Errorf("scan date %q: %w", s, err)
	}
	n.Date, n.Valid = d, true
	return nil
}

func (n nullDate) ptr() *domain.Date {
	if !n.Valid {
		return nil
	}
	d := n.Date
	return &d
}

// dateArg 以 YYYY-MM-DD 文本写入，两种方言都能接受
func dateArg(d *domain.Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}

func floatArg(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func int64Arg(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}
