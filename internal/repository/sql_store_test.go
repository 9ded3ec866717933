package repository

import (
	"context"
	"testing"
	"time"

	"github.com/MKris124/poultry-manager/common/config"
	"github.com/MKris124/poultry-manager/common/database"
	"github.com/MKris124/poultry-manager/internal/domain"

	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := NewSQLStore(db, config.DriverSQLite)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLStore_SQLite(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return newSQLiteStore(t)
	})
}

func TestSQLStore_MigrateIsIdempotent(t *testing.T) {
	s := newSQLiteStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestNullDate_Scan(t *testing.T) {
	var d nullDate
	require.NoError(t, d.Scan(nil))
	require.Nil(t, d.ptr())

	require.NoError(t, d.Scan("2024-05-06"))
	require.Equal(t, "2024-05-06", d.ptr().String())

	require.NoError(t, d.Scan([]byte("2024-05-07T00:00:00Z")))
	require.Equal(t, "2024-05-07", d.ptr().String())

	require.NoError(t, d.Scan(time.Date(2024, time.May, 8, 13, 0, 0, 0, time.UTC)))
	require.Equal(t, "2024-05-08", d.ptr().String())

	require.Error(t, d.Scan("not a date"))
	require.Error(t, d.Scan(42))
}

func TestDateArg(t *testing.T) {
	require.Nil(t, dateArg(nil))
	require.Nil(t, dateArg(&domain.Date{}))
	d := domain.NewDate(2024, time.January, 2)
	require.Equal(t, "2024-01-02", dateArg(&d))
}
