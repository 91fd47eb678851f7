package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/vendas-storefront/internal/domain/checkout"
)

const (
	insertOrderSQL = `INSERT INTO confirmed_orders (order_id, session_id, items, total)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id) DO NOTHING`

	sessionOrdersSQL = `SELECT order_id, items, total, confirmed_at
		FROM confirmed_orders
		WHERE session_id = $1
		ORDER BY confirmed_at, order_id`
)

// ConfirmedOrder is a row of the confirmed order log.
type ConfirmedOrder struct {
	checkout.Order
	Items       int
	ConfirmedAt time.Time
}

// Orders keeps a log of orders confirmed through the storefront.
type Orders struct {
	pool *pgxpool.Pool
}

// NewOrders returns an order log that uses the given pool.
func NewOrders(pool *pgxpool.Pool) *Orders {
	return &Orders{pool: pool}
}

// RecordOrder stores a confirmed order. Recording the same order twice keeps
// the first row.
func (o *Orders) RecordOrder(ctx context.Context, sessionID string, order checkout.Order, items int) error {
	total := order.Total.Round(2)
	if _, err := o.pool.Exec(ctx, insertOrderSQL, order.ID, sessionID, items, total); err != nil {
		return errors.Wrapf(err, "insert order %d", order.ID)
	}
	return nil
}

// SessionOrders lists the orders confirmed by a session, oldest first.
func (o *Orders) SessionOrders(ctx context.Context, sessionID string) ([]ConfirmedOrder, error) {
	rows, err := o.pool.Query(ctx, sessionOrdersSQL, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "query orders")
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ConfirmedOrder, error) {
		var co ConfirmedOrder
		err := row.Scan(&co.ID, &co.Items, &co.Total, &co.ConfirmedAt)
		return co, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan orders")
	}
	return out, nil
}
