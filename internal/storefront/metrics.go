package storefront

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics counts storefront activity.
type Metrics struct {
	cartMutations metric.Int64Counter
	coupons       metric.Int64Counter
	checkouts     metric.Int64Counter
	staleLoads    metric.Int64Counter
	sessions      metric.Int64UpDownCounter
}

// NewMetrics registers the storefront instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter("github.com/xenking/vendas-storefront/internal/storefront")

	var (
		m   Metrics
		err error
	)
	if m.cartMutations, err = meter.Int64Counter("storefront.cart.mutations",
		metric.WithDescription("Cart mutations by operation"),
	); err != nil {
		return nil, errors.Wrap(err, "cart mutations counter")
	}
	if m.coupons, err = meter.Int64Counter("storefront.coupon.applications",
		metric.WithDescription("Coupon applications by result"),
	); err != nil {
		return nil, errors.Wrap(err, "coupon counter")
	}
	if m.checkouts, err = meter.Int64Counter("storefront.checkouts",
		metric.WithDescription("Order confirmations by result"),
	); err != nil {
		return nil, errors.Wrap(err, "checkout counter")
	}
	if m.staleLoads, err = meter.Int64Counter("storefront.catalog.stale_loads",
		metric.WithDescription("Catalog responses discarded because a newer load was issued"),
	); err != nil {
		return nil, errors.Wrap(err, "stale loads counter")
	}
	if m.sessions, err = meter.Int64UpDownCounter("storefront.sessions",
		metric.WithDescription("Sessions held in memory"),
	); err != nil {
		return nil, errors.Wrap(err, "sessions counter")
	}
	return &m, nil
}

func (m *Metrics) cartMutation(ctx context.Context, op string) {
	m.cartMutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func (m *Metrics) couponApplied(ctx context.Context, err error) {
	m.coupons.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result(err))))
}

func (m *Metrics) checkout(ctx context.Context, err error) {
	m.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result(err))))
}

func (m *Metrics) staleLoad(ctx context.Context) {
	m.staleLoads.Add(ctx, 1)
}

func (m *Metrics) sessionOpened(ctx context.Context) {
	m.sessions.Add(ctx, 1)
}

func (m *Metrics) sessionEvicted(ctx context.Context) {
	m.sessions.Add(ctx, -1)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
