//go:build integration

package repository

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/MKris124/poultry-manager/common/config"
	"github.com/MKris124/poultry-manager/common/database"

	"github.com/stretchr/testify/require"
)

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if i, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return i
	}
	return def
}

// 每个子测试前清空数据；需要一个专用测试库
func TestSQLStore_Postgres(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:   config.DriverPostgres,
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnvInt("TEST_DB_PORT", 5432),
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getEnv("TEST_DB_NAME", "poultry_test"),
		SSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
	}
	defer db.Close()

	s := NewSQLStore(db, config.DriverPostgres)
	require.NoError(t, s.Migrate(context.Background()))

	runStoreContract(t, func(t *testing.T) Store {
		require.NoError(t, s.DeleteAll(context.Background()))
		return s
	})
}
