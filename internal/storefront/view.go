package storefront

import (
	"github.com/xenking/vendas-storefront/internal/domain/checkout"
	"github.com/xenking/vendas-storefront/internal/domain/prefs"
)

// LineView is one cart row.
type LineView struct {
	ProductID int64
	Nome      string
	Preco     string
	Quantity  int
	Total     string
}

// CartView is the view model of the cart drawer.
type CartView struct {
	Lines          []LineView
	Subtotal       string
	Discount       string
	Total          string
	ItemCount      int
	Coupon         string
	Locked         bool
	State          checkout.State
	ConfirmEnabled bool
	Confirming     bool
	Empty          bool
}

// CatalogView is the view model of the product grid.
type CatalogView struct {
	Page
	Prefs prefs.UX
	// Stale is set when a newer load was issued while this one ran; the
	// listing was returned but not applied to the session.
	Stale bool
}

func newCartView(f *checkout.Flow) CartView {
	c := f.Cart()
	lines := c.Lines()
	totals := f.Totals()

	v := CartView{
		Lines:      make([]LineView, 0, len(lines)),
		Subtotal:   totals.Subtotal.StringFixed(2),
		Discount:   totals.Discount.StringFixed(2),
		Total:      totals.Total.StringFixed(2),
		ItemCount:  c.ItemCount(),
		Coupon:     f.CouponText(),
		Locked:     f.Locked(),
		State:      f.State(),
		Confirming: f.Confirming(),
		Empty:      len(lines) == 0,
	}
	v.ConfirmEnabled = f.ConfirmEnabled() && !v.Empty && !v.Confirming

	for _, l := range lines {
		v.Lines = append(v.Lines, LineView{
			ProductID: l.Product.ID,
			Nome:      l.Product.Nome,
			Preco:     l.Product.Preco.StringFixed(2),
			Quantity:  l.Quantity,
			Total:     l.Total().StringFixed(2),
		})
	}
	return v
}
