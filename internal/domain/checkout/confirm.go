package checkout

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/vendas-storefront/internal/domain/coupon"
)

// OrderItem is one line of an order request.
type OrderItem struct {
	ProductID int64
	Quantity  int
}

// OrderRequest is sent to the order confirmation endpoint.
type OrderRequest struct {
	Items  []OrderItem
	Coupon *string
}

// Order is the confirmed order returned by the catalog service.
type Order struct {
	ID    int64
	Total decimal.Decimal
}

// OrderConfirmer places orders.
type OrderConfirmer interface {
	ConfirmOrder(ctx context.Context, req OrderRequest) (*Order, error)
}

// BeginConfirm checks the preconditions, snapshots the order request and
// marks a confirmation in flight. Until FinishConfirm is called every
// mutation of the flow or its cart fails with ErrConfirmInProgress.
func (f *Flow) BeginConfirm() (OrderRequest, error) {
	switch {
	case f.confirming:
		return OrderRequest{}, ErrConfirmInProgress
	case f.cart.Len() == 0:
		return OrderRequest{}, ErrEmptyCart
	case !f.ConfirmEnabled():
		return OrderRequest{}, ErrConfirmDisabled
	}

	lines := f.cart.Lines()
	req := OrderRequest{Items: make([]OrderItem, 0, len(lines))}
	for _, l := range lines {
		req.Items = append(req.Items, OrderItem{ProductID: l.Product.ID, Quantity: l.Quantity})
	}
	if strings.TrimSpace(f.text) != "" {
		code := coupon.Normalize(f.text)
		req.Coupon = &code
	}

	f.confirming = true
	return req, nil
}

// FinishConfirm ends the confirmation started by BeginConfirm. On success
// the cart is cleared and the coupon reset; on failure nothing changes so
// the confirmation can be retried.
func (f *Flow) FinishConfirm(ctx context.Context, err error) {
	f.confirming = false
	if err != nil {
		return
	}
	f.cart.Clear(ctx)
	f.Reset()
}

// Confirm runs a whole confirmation against c.
func (f *Flow) Confirm(ctx context.Context, c OrderConfirmer) (*Order, error) {
	req, err := f.BeginConfirm()
	if err != nil {
		return nil, err
	}
	order, err := c.ConfirmOrder(ctx, req)
	f.FinishConfirm(ctx, err)
	if err != nil {
		return nil, err
	}
	return order, nil
}
