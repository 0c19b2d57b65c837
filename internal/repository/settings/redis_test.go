package settings

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// redisAddrEnv names the variable pointing the Redis tests at a live server.
const redisAddrEnv = "IRRIGATION_TEST_REDIS_ADDR"

// TestRedisStore runs against a real server when one is configured.
func TestRedisStore(t *testing.T) {
	t.Parallel()

	addr := os.Getenv(redisAddrEnv)
	if addr == "" {
		t.Skipf("%s is not set", redisAddrEnv)
	}

	ctx := context.Background()

	client, err := DialRedis(ctx, addr, "", 0)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	namespace := "irrigation:test:" + uuid.NewString() + ":"
	store := NewRedisStore(client, namespace)

	t.Cleanup(func() {
		keys, _ := client.Keys(context.Background(), namespace+"*").Result()
		if len(keys) > 0 {
			_ = client.Del(context.Background(), keys...).Err()
		}
	})

	_, err = store.GetU32(ctx, "goteros_i")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SetU32(ctx, "goteros_i", 57600))
	require.NoError(t, store.SetI64(ctx, KeyClockOffset, -1_700_000_000_123))
	require.NoError(t, store.SetU8(ctx, KeyManualMode, 1))

	start, err := store.GetU32(ctx, "goteros_i")
	require.NoError(t, err)
	require.Equal(t, uint32(57600), start)

	offset, err := store.GetI64(ctx, KeyClockOffset)
	require.NoError(t, err)
	require.Equal(t, int64(-1_700_000_000_123), offset)

	_, err = store.GetU8(ctx, KeyClockOffset)
	require.ErrorIs(t, err, ErrMalformed)

	raw, err := client.Get(ctx, namespace+KeyManualMode).Result()
	require.NoError(t, err)
	require.Equal(t, "1", raw)
}

// TestNewRedisStore_DefaultNamespace checks the namespace fallback.
func TestNewRedisStore_DefaultNamespace(t *testing.T) {
	t.Parallel()

	store := NewRedisStore(nil, "")
	require.Equal(t, DefaultRedisNamespace, store.namespace)
}
