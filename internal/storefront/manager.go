// Package storefront keeps the per-session state of the storefront: cart,
// coupon checkout flow, browsing preferences and the latest catalog listing.
package storefront

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/xenking/vendas-storefront/internal/domain/cart"
	"github.com/xenking/vendas-storefront/internal/domain/checkout"
	"github.com/xenking/vendas-storefront/internal/domain/prefs"
	"github.com/xenking/vendas-storefront/internal/storage"
)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the base logger of sessions.
func WithLogger(lg *zap.Logger) Option {
	return func(m *Manager) { m.lg = lg }
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithPageSize sets the catalog page size. Zero shows everything on one page.
func WithPageSize(n int) Option {
	return func(m *Manager) { m.pageSize = max(n, 0) }
}

// WithIdleTimeout sets how long an unused session stays in memory. Zero
// keeps sessions forever.
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) { m.idle = d }
}

// OrderLog records orders confirmed by sessions.
type OrderLog interface {
	RecordOrder(ctx context.Context, sessionID string, order checkout.Order, items int) error
}

// WithOrderLog records every confirmed order in log.
func WithOrderLog(log OrderLog) Option {
	return func(m *Manager) { m.orders = log }
}

// Manager creates and restores sessions. Each session sees kv through its
// own key prefix.
type Manager struct {
	kv       storage.KV
	catalog  Catalog
	lg       *zap.Logger
	metrics  *Metrics
	orders   OrderLog
	pageSize int
	idle     time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager over kv and catalog.
func NewManager(kv storage.KV, catalog Catalog, opts ...Option) *Manager {
	m := &Manager{
		kv:       kv,
		catalog:  catalog,
		lg:       zap.NewNop(),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, o := range opts {
		o(m)
	}
	if m.metrics == nil {
		m.metrics, _ = NewMetrics(noop.NewMeterProvider())
	}
	return m
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like a session id issued by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Session returns the session id, restoring it from storage on first use.
func (m *Manager) Session(ctx context.Context, id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		s.lastSeen = m.now()
		return s
	}

	lg := m.lg.With(zap.String("session", id))
	kv := storage.WithPrefix(m.kv, "session/"+id+"/")

	s := &Session{
		id:       id,
		catalog:  m.catalog,
		metrics:  m.metrics,
		orders:   m.orders,
		lg:       lg,
		prefs:    prefs.Open(ctx, kv, prefs.WithLogger(lg)),
		browser:  browser{pageSize: m.pageSize},
		lastSeen: m.now(),
	}
	s.flow = checkout.New(cart.Open(ctx, kv,
		cart.WithLogger(lg),
		cart.WithChangeHook(func(n int) {
			lg.Debug("Cart changed", zap.Int("items", n))
		}),
	))

	m.sessions[id] = s
	m.metrics.sessionOpened(ctx)
	return s
}

// Evict drops the in-memory state of a session. Its persisted cart and
// preferences stay in storage and are restored on next use.
func (m *Manager) Evict(ctx context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return
	}
	delete(m.sessions, id)
	m.metrics.sessionEvicted(ctx)
}

// Len returns the number of sessions held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep evicts sessions idle for longer than the idle timeout and returns
// how many were dropped. Sessions with a confirmation in flight are kept.
func (m *Manager) Sweep(ctx context.Context) int {
	if m.idle <= 0 {
		return 0
	}
	deadline := m.now().Add(-m.idle)

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.sessions {
		if s.lastSeen.After(deadline) || s.confirming() {
			continue
		}
		delete(m.sessions, id)
		m.metrics.sessionEvicted(ctx)
		n++
	}
	return n
}

// Run sweeps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	if m.idle <= 0 || interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.Sweep(ctx); n > 0 {
				m.lg.Debug("Evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}
