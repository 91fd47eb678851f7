package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/vendas-storefront/internal/storage"
)

const (
	getSnapshotSQL = `SELECT value FROM storefront_snapshots WHERE key = $1`

	upsertSnapshotSQL = `INSERT INTO storefront_snapshots (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	deleteSnapshotSQL = `DELETE FROM storefront_snapshots WHERE key = $1`
)

var _ storage.KV = (*KV)(nil)

// KV implements storage.KV backed by the storefront_snapshots table.
type KV struct {
	pool *pgxpool.Pool
}

// NewKV returns a KV that uses the given pool.
func NewKV(pool *pgxpool.Pool) *KV {
	return &KV{pool: pool}
}

func (r *KV) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := r.pool.QueryRow(ctx, getSnapshotSQL, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get snapshot %q", key)
	}
	return []byte(value), nil
}

func (r *KV) Set(ctx context.Context, key string, value []byte) error {
	if _, err := r.pool.Exec(ctx, upsertSnapshotSQL, key, string(value)); err != nil {
		return errors.Wrapf(err, "upsert snapshot %q", key)
	}
	return nil
}

func (r *KV) Delete(ctx context.Context, key string) error {
	if _, err := r.pool.Exec(ctx, deleteSnapshotSQL, key); err != nil {
		return errors.Wrapf(err, "delete snapshot %q", key)
	}
	return nil
}

func (r *KV) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
