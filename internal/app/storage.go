package app

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/vendas-storefront/internal/storage"
	"github.com/xenking/vendas-storefront/internal/storage/postgres"
	"github.com/xenking/vendas-storefront/internal/storage/redis"
	"github.com/xenking/vendas-storefront/internal/storefront"
)

// backend is the opened storage of the storefront. orders is nil for
// drivers without an order log.
type backend struct {
	kv     storage.KV
	orders storefront.OrderLog
	close  func()
}

// openStorage connects the configured snapshot store. close releases it.
func openStorage(ctx context.Context, lg *zap.Logger, cfg StorageConfig) (*backend, error) {
	lg.Info("Opening storage", zap.String("driver", cfg.Driver))

	switch cfg.Driver {
	case DriverMemory:
		return &backend{kv: storage.NewMemory(), close: func() {}}, nil
	case DriverFile:
		kv, err := storage.NewFile(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return &backend{kv: kv, close: func() {}}, nil
	case DriverRedis:
		kv, err := redis.Dial(ctx, cfg.RedisAddr, redis.WithTTL(cfg.RedisTTL))
		if err != nil {
			return nil, err
		}
		return &backend{kv: kv, close: func() {
			if err := kv.Close(); err != nil {
				lg.Warn("Close redis", zap.Error(err))
			}
		}}, nil
	case DriverPostgres:
		pool, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "open postgres")
		}
		return &backend{
			kv:     postgres.NewKV(pool),
			orders: postgres.NewOrders(pool),
			close:  pool.Close,
		}, nil
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
