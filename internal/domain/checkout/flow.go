// Package checkout implements the coupon state machine that gates order
// confirmation, and the confirmation coordinator built on top of it.
package checkout

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/vendas-storefront/internal/domain/cart"
	"github.com/xenking/vendas-storefront/internal/domain/coupon"
)

// Event is a user intent delivered to Flow.Dispatch.
type Event interface {
	event()
}

// CouponEdited carries the new content of the coupon input.
type CouponEdited struct {
	Text string
}

// CouponApplied is the "apply coupon" action.
type CouponApplied struct{}

// TotalReviewed is the "review total" action.
type TotalReviewed struct{}

// CartChanged reports a mutation of the cart made outside of Flow.
type CartChanged struct{}

func (CouponEdited) event()  {}
func (CouponApplied) event() {}
func (TotalReviewed) event() {}
func (CartChanged) event()   {}

// Totals are derived from the cart, the coupon text and the state.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Flow is the checkout state of one session. It is not safe for concurrent
// use.
type Flow struct {
	cart       *cart.Store
	text       string
	state      State
	frozen     Totals
	confirming bool
}

// New returns a Flow in StateEmpty over c.
func New(c *cart.Store) *Flow {
	return &Flow{cart: c}
}

// Cart returns the underlying cart for reading. Mutate it through UpdateCart.
func (f *Flow) Cart() *cart.Store { return f.cart }

// State returns the current checkout state.
func (f *Flow) State() State { return f.state }

// CouponText returns the coupon input as typed.
func (f *Flow) CouponText() string { return f.text }

// Locked reports whether the coupon input is read-only.
func (f *Flow) Locked() bool { return f.state == StateReviewed }

// Confirming reports whether a confirmation is in flight.
func (f *Flow) Confirming() bool { return f.confirming }

// ConfirmEnabled holds iff the coupon text is blank or the total was reviewed.
func (f *Flow) ConfirmEnabled() bool {
	return strings.TrimSpace(f.text) == "" || f.state == StateReviewed
}

// Totals returns the current totals. A discount is shown once the coupon is
// validated; after review the frozen totals are returned.
func (f *Flow) Totals() Totals {
	if f.state == StateReviewed {
		return f.frozen
	}
	subtotal := f.cart.Subtotal()
	if f.state == StateValidated {
		res := coupon.Evaluate(subtotal, f.text)
		return Totals{Subtotal: subtotal, Discount: res.Discount, Total: res.Total}
	}
	return Totals{Subtotal: subtotal, Discount: decimal.Zero, Total: subtotal}
}

// Dispatch delivers ev to the matching transition.
func (f *Flow) Dispatch(ev Event) error {
	switch ev := ev.(type) {
	case CouponEdited:
		return f.SetCouponText(ev.Text)
	case CouponApplied:
		return f.ApplyCoupon()
	case TotalReviewed:
		return f.Review()
	case CartChanged:
		f.CartChanged()
		return nil
	default:
		return errors.Errorf("unknown event %T", ev)
	}
}

// SetCouponText records an edit of the coupon input. Clearing it returns to
// StateEmpty from any state. While reviewed, any other edit is rejected.
func (f *Flow) SetCouponText(text string) error {
	if f.confirming {
		return ErrConfirmInProgress
	}
	if strings.TrimSpace(text) == "" {
		f.text = text
		f.toEmpty()
		return nil
	}
	if text == f.text {
		return nil
	}
	if f.state == StateReviewed {
		return ErrCouponLocked
	}
	f.text = text
	f.state = StateTyping
	return nil
}

// ApplyCoupon validates the coupon against the cart.
func (f *Flow) ApplyCoupon() error {
	switch {
	case f.confirming:
		return ErrConfirmInProgress
	case f.state == StateReviewed:
		return nil
	case f.cart.Len() == 0:
		return ErrEmptyCart
	case strings.TrimSpace(f.text) == "":
		return ErrCouponRequired
	}

	if _, err := coupon.Validate(f.cart.Subtotal(), f.text); err != nil {
		f.state = StateTyping
		return err
	}
	f.state = StateValidated
	return nil
}

// Review freezes the totals and locks the coupon.
func (f *Flow) Review() error {
	switch {
	case f.confirming:
		return ErrConfirmInProgress
	case f.state == StateReviewed:
		return nil
	case f.state != StateValidated:
		return ErrNotValidated
	case f.cart.Len() == 0:
		return ErrEmptyCart
	}

	f.frozen = f.Totals()
	f.state = StateReviewed
	return nil
}

// CartChanged invalidates a validated or reviewed coupon so the discount has
// to be applied and reviewed again against the new cart.
func (f *Flow) CartChanged() {
	if f.state == StateValidated || f.state == StateReviewed {
		f.state = StateTyping
		f.frozen = Totals{}
	}
}

// UpdateCart runs fn against the cart and reports a change to the state
// machine when the cart revision moved.
func (f *Flow) UpdateCart(ctx context.Context, fn func(context.Context, *cart.Store) error) error {
	if f.confirming {
		return ErrConfirmInProgress
	}
	rev := f.cart.Revision()
	err := fn(ctx, f.cart)
	if f.cart.Revision() != rev {
		f.CartChanged()
	}
	return err
}

// Reset clears the coupon and returns to StateEmpty.
func (f *Flow) Reset() {
	f.text = ""
	f.toEmpty()
}

func (f *Flow) toEmpty() {
	f.state = StateEmpty
	f.frozen = Totals{}
}
