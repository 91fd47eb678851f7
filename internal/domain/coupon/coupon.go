package coupon

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage-based discount to the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a fixed monetary discount capped at the subtotal.
	DiscountFixed DiscountType = "fixed"
)

// ErrInvalidCoupon is returned when a non-empty coupon code is not recognized.
var ErrInvalidCoupon = errors.New("invalid coupon code")

// Rule defines a coupon's discount behaviour.
type Rule struct {
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
	Description  string
}

// Aluno10 is the student coupon: 10% off the subtotal.
var Aluno10 = Rule{
	Code:         "ALUNO10",
	DiscountType: DiscountPercentage,
	Value:        decimal.NewFromInt(10),
	Description:  "10% de desconto para alunos",
}

// rules holds every recognized coupon, keyed by normalized code.
var rules = map[string]Rule{
	Aluno10.Code: Aluno10,
}

// Lookup returns the rule for a code, normalizing it first.
func Lookup(code string) (Rule, bool) {
	r, ok := rules[Normalize(code)]
	return r, ok
}

// Result is the outcome of evaluating a code against a subtotal.
type Result struct {
	Discount decimal.Decimal
	Total    decimal.Decimal
	Valid    bool
}
