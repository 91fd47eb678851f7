package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/vendas-storefront/internal/storage"
)

func TestOpenStorage(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name string
		cfg  StorageConfig
	}{
		{name: "memory", cfg: StorageConfig{Driver: DriverMemory}},
		{name: "file", cfg: StorageConfig{Driver: DriverFile, Dir: t.TempDir()}},
		{name: "redis", cfg: StorageConfig{Driver: DriverRedis, RedisAddr: mr.Addr()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store, err := openStorage(ctx, zap.NewNop(), tt.cfg)
			require.NoError(t, err)
			t.Cleanup(store.close)

			assert.Nil(t, store.orders, "only postgres keeps an order log")
			require.NoError(t, storage.Ping(ctx, store.kv))
			require.NoError(t, store.kv.Set(ctx, "k", []byte("v")))
			got, err := store.kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v", string(got))
		})
	}
}

func TestOpenStorage_UnknownDriver(t *testing.T) {
	_, err := openStorage(context.Background(), zap.NewNop(), StorageConfig{Driver: "sqlite"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown storage driver "sqlite"`)
}
