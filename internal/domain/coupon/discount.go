package coupon

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// Normalize trims whitespace and upper-cases a coupon code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Evaluate computes discount and total for a subtotal and a free-text code.
// It never fails: an empty code and an unknown code both yield no discount
// and Valid=false. Use Validate to tell the two apart.
func Evaluate(subtotal decimal.Decimal, code string) Result {
	rule, ok := Lookup(code)
	if !ok {
		return Result{Discount: zero, Total: subtotal, Valid: false}
	}

	discount, err := Apply(rule, subtotal)
	if err != nil {
		return Result{Discount: zero, Total: subtotal, Valid: false}
	}

	return Result{
		Discount: discount,
		Total:    decimal.Max(zero, subtotal.Sub(discount)),
		Valid:    true,
	}
}

// Validate is Evaluate with an error for non-empty unrecognized codes.
// An empty code is the "no coupon" case and returns a zero discount with a
// nil error.
func Validate(subtotal decimal.Decimal, code string) (Result, error) {
	res := Evaluate(subtotal, code)
	if !res.Valid && Normalize(code) != "" {
		return res, ErrInvalidCoupon
	}
	return res, nil
}

// Apply calculates the discount amount of rule for subtotal, rounded half-up
// to cents.
func Apply(rule Rule, subtotal decimal.Decimal) (decimal.Decimal, error) {
	switch rule.DiscountType {
	case DiscountPercentage:
		amount := subtotal.Mul(rule.Value).Div(hundred)
		return floorAtZero(amount).Round(2), nil
	case DiscountFixed:
		amount := decimal.Min(rule.Value, subtotal)
		return floorAtZero(amount).Round(2), nil
	default:
		return zero, errors.Errorf("unsupported discount type: %q", rule.DiscountType)
	}
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return zero
	}
	return d
}
