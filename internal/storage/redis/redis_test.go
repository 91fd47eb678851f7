package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/vendas-storefront/internal/storage"
)

// setupTestRedis starts a miniredis server and returns a KV connected to it.
func setupTestRedis(t *testing.T, opts ...Option) (*KV, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	kv, err := Dial(context.Background(), mr.Addr(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	return kv, mr
}

func TestKV_SetGetDelete(t *testing.T) {
	kv, mr := setupTestRedis(t)
	ctx := context.Background()

	_, err := kv.Get(ctx, "vendas_cart_v1")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, kv.Set(ctx, "vendas_cart_v1", []byte(`{"items":{}}`)))

	raw, err := mr.Get("vendas:vendas_cart_v1")
	require.NoError(t, err)
	assert.Equal(t, `{"items":{}}`, raw)

	got, err := kv.Get(ctx, "vendas_cart_v1")
	require.NoError(t, err)
	assert.Equal(t, `{"items":{}}`, string(got))

	require.NoError(t, kv.Delete(ctx, "vendas_cart_v1"))
	assert.False(t, mr.Exists("vendas:vendas_cart_v1"))
}

func TestKV_TTL(t *testing.T) {
	kv, mr := setupTestRedis(t, WithTTL(time.Hour))
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "vendas_ux_v1", []byte(`{}`)))
	assert.Equal(t, time.Hour, mr.TTL("vendas:vendas_ux_v1"))

	mr.FastForward(2 * time.Hour)
	_, err := kv.Get(ctx, "vendas_ux_v1")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestKV_Ping(t *testing.T) {
	kv, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, storage.Ping(ctx, kv))

	mr.Close()
	assert.Error(t, kv.Ping(ctx))
}
