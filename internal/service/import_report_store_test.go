package service

import (
	"context"
	"testing"
	"time"

	"github.com/MKris124/poultry-manager/internal/domain"
	"github.com/MKris124/poultry-manager/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func newRedisReportStore(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *ImportReportStore) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewImportReportStore(store.NewRedisKV(client), ttl)
}

func TestImportReportStore_Redis(t *testing.T) {
	ctx := context.Background()
	mr, reports := newRedisReportStore(t, time.Hour)

	older := &ImportReport{ID: "a", FileName: "jan.xlsx", ImportedAt: time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC), ImportResult: *domain.NewImportResult()}
	older.IncrementSuccess()
	newer := &ImportReport{ID: "b", FileName: "feb.xlsx", ImportedAt: time.Date(2024, 2, 5, 8, 0, 0, 0, time.UTC), ImportResult: *domain.NewImportResult()}
	newer.AddError(3, "invalid name/code format in column B: 'x'")

	require.NoError(t, reports.Save(ctx, older))
	require.NoError(t, reports.Save(ctx, newer))
	require.Equal(t, time.Hour, mr.TTL(importReportKeyPrefix+"a"))

	got, err := reports.Get(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, "feb.xlsx", got.FileName)
	require.Equal(t, []string{"3. sor: invalid name/code format in column B: 'x'"}, got.ErrorMessages)

	list, err := reports.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "b", list[0].ID)
	require.Equal(t, 1, list[1].SuccessCount)

	_, err = reports.Get(ctx, "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)

	mr.FastForward(2 * time.Hour)
	list, err = reports.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}
