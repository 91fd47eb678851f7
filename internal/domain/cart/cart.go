// Package cart holds the shopping cart: quantities per product, restored from
// and persisted to a key-value store after every mutation.
package cart

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/vendas-storefront/internal/domain/product"
	"github.com/xenking/vendas-storefront/internal/storage"
)

// StorageKey is the fixed key of the cart snapshot.
const StorageKey = "vendas_cart_v1"

// MaxQuantity is the largest quantity a single line may hold.
const MaxQuantity = 999

var (
	// ErrOutOfStock is returned by Add for a product without stock.
	ErrOutOfStock = errors.New("out of stock")
	// ErrQuantityLimit is returned when a line would exceed MaxQuantity.
	ErrQuantityLimit = errors.New("quantity limit exceeded")
)

// NotFoundError indicates a mutation on a product that is not in the cart.
type NotFoundError struct {
	ProductID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %d not in cart", e.ProductID)
}

// Line is one product in the cart. Quantity is always between 1 and
// MaxQuantity.
type Line struct {
	Product  product.Product
	Quantity int
}

// Total returns price times quantity.
func (l Line) Total() decimal.Decimal {
	return l.Product.Preco.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report persistence failures.
func WithLogger(lg *zap.Logger) Option {
	return func(s *Store) { s.lg = lg }
}

// WithChangeHook registers fn to be called with the new item count after
// every mutation.
func WithChangeHook(fn func(itemCount int)) Option {
	return func(s *Store) { s.onChange = fn }
}

// Store is the cart of one session. It is not safe for concurrent use; the
// owning session serializes access.
type Store struct {
	kv       storage.KV
	lg       *zap.Logger
	onChange func(int)
	lines    map[int64]Line
	revision uint64
}

// Open restores the cart stored in kv. Missing or malformed snapshots yield
// an empty cart; Open never fails.
func Open(ctx context.Context, kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		lg:    zap.NewNop(),
		lines: make(map[int64]Line),
	}
	for _, o := range opts {
		o(s)
	}

	data, err := kv.Get(ctx, StorageKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return s
	case err != nil:
		s.lg.Warn("Cart snapshot unreadable, starting empty", zap.Error(err))
		return s
	}

	lines, skipped, err := decodeSnapshot(data)
	if err != nil {
		s.lg.Warn("Cart snapshot malformed, starting empty", zap.Error(err))
		return s
	}
	if skipped > 0 {
		s.lg.Warn("Skipped malformed cart lines", zap.Int("skipped", skipped))
	}
	s.lines = lines
	return s
}

// Add inserts p with quantity 1 or increments it when already present.
func (s *Store) Add(ctx context.Context, p product.Product) error {
	if !p.InStock() {
		return ErrOutOfStock
	}
	l, ok := s.lines[p.ID]
	if ok {
		if l.Quantity >= MaxQuantity {
			return ErrQuantityLimit
		}
		l.Quantity++
	} else {
		l = Line{Product: p, Quantity: 1}
	}
	s.lines[p.ID] = l
	s.changed(ctx)
	return nil
}

// Increment adds one unit of an existing line.
func (s *Store) Increment(ctx context.Context, id int64) error {
	l, ok := s.lines[id]
	if !ok {
		return &NotFoundError{ProductID: id}
	}
	if l.Quantity >= MaxQuantity {
		return ErrQuantityLimit
	}
	l.Quantity++
	s.lines[id] = l
	s.changed(ctx)
	return nil
}

// Decrement removes one unit of an existing line. At quantity 1 it is a
// no-op; use Remove to drop the line.
func (s *Store) Decrement(ctx context.Context, id int64) error {
	l, ok := s.lines[id]
	if !ok {
		return &NotFoundError{ProductID: id}
	}
	if l.Quantity <= 1 {
		return nil
	}
	l.Quantity--
	s.lines[id] = l
	s.changed(ctx)
	return nil
}

// SetQuantity sets the quantity of an existing line, clamped to at least 1.
// Quantities above MaxQuantity are rejected and leave the line unchanged.
func (s *Store) SetQuantity(ctx context.Context, id int64, n int) error {
	l, ok := s.lines[id]
	if !ok {
		return &NotFoundError{ProductID: id}
	}
	if n > MaxQuantity {
		return ErrQuantityLimit
	}
	l.Quantity = max(n, 1)
	s.lines[id] = l
	s.changed(ctx)
	return nil
}

// Remove deletes the line for id. Removing an absent id does nothing.
func (s *Store) Remove(ctx context.Context, id int64) {
	if _, ok := s.lines[id]; !ok {
		return
	}
	delete(s.lines, id)
	s.changed(ctx)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	clear(s.lines)
	s.changed(ctx)
}

// Len returns the number of distinct products.
func (s *Store) Len() int {
	return len(s.lines)
}

// Line returns the line for id.
func (s *Store) Line(id int64) (Line, bool) {
	l, ok := s.lines[id]
	return l, ok
}

// Lines returns a copy of all lines ordered by product id.
func (s *Store) Lines() []Line {
	out := make([]Line, 0, len(s.lines))
	for _, l := range s.lines {
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b Line) int {
		switch {
		case a.Product.ID < b.Product.ID:
			return -1
		case a.Product.ID > b.Product.ID:
			return 1
		}
		return 0
	})
	return out
}

// Subtotal is the exact sum of price times quantity over all lines.
func (s *Store) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Total())
	}
	return total
}

// ItemCount is the sum of all quantities.
func (s *Store) ItemCount() int {
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Revision increases with every mutation.
func (s *Store) Revision() uint64 {
	return s.revision
}

// changed persists the snapshot and notifies the change hook. A write
// failure keeps the in-memory cart as is.
func (s *Store) changed(ctx context.Context) {
	s.revision++
	if err := s.kv.Set(ctx, StorageKey, encodeSnapshot(s.Lines())); err != nil {
		s.lg.Error("Persist cart", zap.Error(err))
	}
	if s.onChange != nil {
		s.onChange(s.ItemCount())
	}
}
