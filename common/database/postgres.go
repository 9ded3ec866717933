package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MKris124/poultry-manager/common/config"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Open 按配置的驱动打开数据库（postgres 默认）
func Open(cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.Driver == config.DriverSQLite {
		return NewSQLiteDB(cfg.SQLitePath)
	}
	return NewPostgresDB(cfg)
}

// NewPostgresDB 创建PostgreSQL数据库连接
func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.GetDSN()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 设置连接池参数
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewSQLiteDB 创建嵌入式 SQLite 连接（本地开发/单机部署）
// path 为 ":memory:" 时只保留一个连接，否则每个连接会看到不同的内存库
func NewSQLiteDB(path string) (*sql.DB, error) {
	if path == "" {
		path = "poultry.db"
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// sqlite 单写者
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return db, nil
}

// Close 关闭数据库连接
func Close(db *sql.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
