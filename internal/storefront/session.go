package storefront

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/vendas-storefront/internal/domain/cart"
	"github.com/xenking/vendas-storefront/internal/domain/checkout"
	"github.com/xenking/vendas-storefront/internal/domain/prefs"
	"github.com/xenking/vendas-storefront/internal/domain/product"
	"github.com/xenking/vendas-storefront/internal/export"
)

// Catalog is the external service a session talks to.
type Catalog interface {
	product.Catalog
	checkout.OrderConfirmer
}

// Session is the state of one browser session. All mutations are
// serialized by mu; calls to the catalog service run without holding it.
type Session struct {
	id      string
	catalog Catalog
	metrics *Metrics
	orders  OrderLog
	lg      *zap.Logger

	// lastSeen is guarded by the Manager mutex.
	lastSeen time.Time

	mu      sync.Mutex
	flow    *checkout.Flow
	prefs   *prefs.Store
	browser browser
}

func (s *Session) confirming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow.Confirming()
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Cart returns the current cart view.
func (s *Session) Cart() CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newCartView(s.flow)
}

// Prefs returns the current browsing preferences.
func (s *Session) Prefs() prefs.UX {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.Get()
}

// Catalog returns the applied listing without loading.
func (s *Session) Catalog() CatalogView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalogView()
}

func (s *Session) catalogView() CatalogView {
	ux := s.prefs.Get()
	v := CatalogView{Prefs: ux}
	switch {
	case !s.browser.loaded:
		v.Page = Page{Page: 1, TotalPages: 1, Status: StatusLoading}
	case s.browser.loadErr != nil:
		v.Page = Page{Page: 1, TotalPages: 1, Status: StatusLoadError}
	default:
		v.Page = paginate(s.browser.products, s.browser.pageSize, ux.Page)
	}
	return v
}

// Load fetches the catalog with the stored preferences. When a newer load
// was issued in the meantime the result is returned with Stale set and the
// session listing is left alone.
func (s *Session) Load(ctx context.Context) (CatalogView, error) {
	s.mu.Lock()
	gen := s.browser.begin()
	ux := s.prefs.Get()
	pageSize := s.browser.pageSize
	s.mu.Unlock()

	list, err := s.catalog.List(ctx, ux.Filter())

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.browser.apply(gen, list, err) {
		s.metrics.staleLoad(ctx)
		s.lg.Debug("Discarded stale catalog load", zap.Uint64("generation", gen))
		if err != nil {
			return CatalogView{}, err
		}
		return CatalogView{Page: paginate(list, pageSize, ux.Page), Prefs: ux, Stale: true}, nil
	}
	if err != nil {
		return s.catalogView(), err
	}

	v := s.catalogView()
	if v.Page.Page != ux.Page {
		s.prefs.ResetPage(ctx)
		v.Prefs = s.prefs.Get()
	}
	return v, nil
}

// UpdatePrefs changes the browsing preferences and reloads the catalog.
func (s *Session) UpdatePrefs(ctx context.Context, p prefs.Patch) (CatalogView, error) {
	s.mu.Lock()
	s.prefs.Apply(ctx, p)
	s.mu.Unlock()

	return s.Load(ctx)
}

// Export returns the full listing most recently applied to the session.
func (s *Session) Export() []product.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.browser.snapshot()
}

// WriteExport writes the applied listing in format f.
func (s *Session) WriteExport(w io.Writer, f export.Format, compress bool) error {
	return export.Write(w, f, s.Export(), compress)
}

// AddToCart adds the product id of the applied listing to the cart.
func (s *Session) AddToCart(ctx context.Context, id int64) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.browser.lookup(id)
	if !ok {
		return newCartView(s.flow), product.ErrNotFound
	}
	return s.updateCart(ctx, "add", func(ctx context.Context, c *cart.Store) error {
		return c.Add(ctx, p)
	})
}

// Increment adds one unit of a cart line.
func (s *Session) Increment(ctx context.Context, id int64) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateCart(ctx, "increment", func(ctx context.Context, c *cart.Store) error {
		return c.Increment(ctx, id)
	})
}

// Decrement removes one unit of a cart line, never below one.
func (s *Session) Decrement(ctx context.Context, id int64) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateCart(ctx, "decrement", func(ctx context.Context, c *cart.Store) error {
		return c.Decrement(ctx, id)
	})
}

// SetQuantity sets the quantity of a cart line.
func (s *Session) SetQuantity(ctx context.Context, id int64, n int) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateCart(ctx, "set_quantity", func(ctx context.Context, c *cart.Store) error {
		return c.SetQuantity(ctx, id, n)
	})
}

// Remove drops a cart line.
func (s *Session) Remove(ctx context.Context, id int64) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateCart(ctx, "remove", func(ctx context.Context, c *cart.Store) error {
		c.Remove(ctx, id)
		return nil
	})
}

func (s *Session) updateCart(ctx context.Context, op string, fn func(context.Context, *cart.Store) error) (CartView, error) {
	if err := s.flow.UpdateCart(ctx, fn); err != nil {
		return newCartView(s.flow), err
	}
	s.metrics.cartMutation(ctx, op)
	return newCartView(s.flow), nil
}

// SetCoupon records the coupon input.
func (s *Session) SetCoupon(_ context.Context, text string) (CartView, error) {
	return s.dispatch(checkout.CouponEdited{Text: text})
}

// ApplyCoupon validates the coupon against the cart.
func (s *Session) ApplyCoupon(ctx context.Context) (CartView, error) {
	v, err := s.dispatch(checkout.CouponApplied{})
	s.metrics.couponApplied(ctx, err)
	return v, err
}

// Review freezes the discounted total.
func (s *Session) Review(_ context.Context) (CartView, error) {
	return s.dispatch(checkout.TotalReviewed{})
}

func (s *Session) dispatch(ev checkout.Event) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.flow.Dispatch(ev)
	return newCartView(s.flow), err
}

// Confirm places the order. The cart is cleared and the catalog reloaded
// on success; on failure the session is left as it was.
func (s *Session) Confirm(ctx context.Context) (*checkout.Order, CartView, error) {
	s.mu.Lock()
	req, err := s.flow.BeginConfirm()
	if err != nil {
		v := newCartView(s.flow)
		s.mu.Unlock()
		return nil, v, err
	}
	s.mu.Unlock()

	items := 0
	for _, it := range req.Items {
		items += it.Quantity
	}

	order, err := s.catalog.ConfirmOrder(ctx, req)
	s.metrics.checkout(ctx, err)

	s.mu.Lock()
	s.flow.FinishConfirm(ctx, err)
	v := newCartView(s.flow)
	s.mu.Unlock()

	if err != nil {
		return nil, v, err
	}

	s.lg.Info("Order confirmed",
		zap.Int64("order_id", order.ID),
		zap.String("total", order.Total.StringFixed(2)),
	)
	if s.orders != nil {
		// The order is placed; a failed log write must not undo that.
		if err := s.orders.RecordOrder(ctx, s.id, *order, items); err != nil {
			s.lg.Warn("Record order", zap.Int64("order_id", order.ID), zap.Error(err))
		}
	}
	s.reload(ctx)
	return order, v, nil
}

// CreateProduct validates and creates a product, then reloads the catalog.
func (s *Session) CreateProduct(ctx context.Context, in product.Product) (*product.Product, error) {
	p, err := product.Validate(in)
	if err != nil {
		return nil, err
	}
	created, err := s.catalog.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.reload(ctx)
	return created, nil
}

// UpdateProduct validates and replaces a product, then reloads the catalog.
func (s *Session) UpdateProduct(ctx context.Context, id int64, in product.Product) (*product.Product, error) {
	p, err := product.Validate(in)
	if err != nil {
		return nil, err
	}
	updated, err := s.catalog.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}
	s.reload(ctx)
	return updated, nil
}

// DeleteProduct deletes a product, then reloads the catalog.
func (s *Session) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.catalog.Delete(ctx, id); err != nil {
		return err
	}
	s.reload(ctx)
	return nil
}

// reload refreshes the listing after a write. Failures are only logged.
func (s *Session) reload(ctx context.Context) {
	if _, err := s.Load(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.lg.Warn("Reload catalog", zap.Error(err))
	}
}
