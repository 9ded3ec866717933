package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisKV) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisKV(client)
}

func TestRedisKV_GetSetExpire(t *testing.T) {
	ctx := context.Background()
	mr, kv := setupTestRedis(t)

	_, err := kv.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrMiss)

	require.NoError(t, kv.Set(ctx, "import:report:a", "1", time.Hour))
	require.NoError(t, kv.Set(ctx, "import:report:b", "2", 0))
	require.NoError(t, kv.Set(ctx, "other", "3", 0))

	v, err := kv.Get(ctx, "import:report:a")
	require.NoError(t, err)
	require.Equal(t, "1", v)
	require.Equal(t, time.Hour, mr.TTL("import:report:a"))
	require.Zero(t, mr.TTL("import:report:b"))

	keys, err := kv.ScanKeys(ctx, "import:report:*")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"import:report:a", "import:report:b"}, keys)

	mr.FastForward(2 * time.Hour)
	_, err = kv.Get(ctx, "import:report:a")
	require.ErrorIs(t, err, ErrMiss)

	keys, err = kv.ScanKeys(ctx, "import:report:*")
	require.NoError(t, err)
	require.Equal(t, []string{"import:report:b"}, keys)
}

func TestRedisKV_ServerDown(t *testing.T) {
	mr, kv := setupTestRedis(t)
	mr.Close()

	_, err := kv.Get(context.Background(), "import:report:a")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrMiss)
}

func TestMemoryKV_GetSetExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	kv := NewMemoryKV()
	kv.now = func() time.Time { return now }

	_, err := kv.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrMiss)

	require.NoError(t, kv.Set(ctx, "import:report:a", "1", time.Hour))
	require.NoError(t, kv.Set(ctx, "import:report:b", "2", 0))
	require.NoError(t, kv.Set(ctx, "other", "3", 0))

	v, err := kv.Get(ctx, "import:report:a")
	require.NoError(t, err)
	require.Equal(t, "1", v)

	keys, err := kv.ScanKeys(ctx, "import:report:*")
	require.NoError(t, err)
	require.Equal(t, []string{"import:report:a", "import:report:b"}, keys)

	now = now.Add(2 * time.Hour)
	_, err = kv.Get(ctx, "import:report:a")
	require.ErrorIs(t, err, ErrMiss)

	keys, err = kv.ScanKeys(ctx, "import:report:*")
	require.NoError(t, err)
	require.Equal(t, []string{"import:report:b"}, keys)
}
