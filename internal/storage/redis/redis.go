// Package redis implements storage.KV on top of Redis.
package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/xenking/vendas-storefront/internal/storage"
)

var _ storage.KV = (*KV)(nil)

// KV stores snapshots as plain Redis strings under a key prefix.
type KV struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// Option configures a KV.
type Option func(*KV)

// WithTTL expires idle snapshots after d. Zero keeps them forever.
func WithTTL(d time.Duration) Option {
	return func(kv *KV) { kv.ttl = d }
}

// New returns a KV using client. Keys are stored as "vendas:<key>".
func New(client *goredis.Client, opts ...Option) *KV {
	kv := &KV{client: client, prefix: "vendas:"}
	for _, o := range opts {
		o(kv)
	}
	return kv
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr string, opts ...Option) (*KV, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "ping redis %s", addr)
	}
	return New(client, opts...), nil
}

func (r *KV) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "redis get %q", key)
	}
	return data, nil
}

func (r *KV) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, value, r.ttl).Err(); err != nil {
		return errors.Wrapf(err, "redis set %q", key)
	}
	return nil
}

func (r *KV) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return errors.Wrapf(err, "redis delete %q", key)
	}
	return nil
}

func (r *KV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *KV) Close() error {
	return r.client.Close()
}
