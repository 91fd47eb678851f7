package coupon

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name         string
		subtotal     decimal.Decimal
		code         string
		wantDiscount decimal.Decimal
		wantTotal    decimal.Decimal
		wantValid    bool
	}{
		{
			name:         "lowercase code is accepted",
			subtotal:     d("100.00"),
			code:         "aluno10",
			wantDiscount: d("10.00"),
			wantTotal:    d("90.00"),
			wantValid:    true,
		},
		{
			name:         "surrounding whitespace is ignored",
			subtotal:     d("100.00"),
			code:         "  Aluno10 \t",
			wantDiscount: d("10.00"),
			wantTotal:    d("90.00"),
			wantValid:    true,
		},
		{
			name:         "unknown code",
			subtotal:     d("100.00"),
			code:         "XYZ",
			wantDiscount: d("0"),
			wantTotal:    d("100.00"),
		},
		{
			name:         "empty code",
			subtotal:     d("42.10"),
			code:         "",
			wantDiscount: d("0"),
			wantTotal:    d("42.10"),
		},
		{
			name:     "discount rounds half up at the cent",
			subtotal: d("0.05"),
			code:     "ALUNO10",
			// 0.005 -> 0.01
			wantDiscount: d("0.01"),
			wantTotal:    d("0.04"),
			wantValid:    true,
		},
		{
			name:     "discount rounds down below half a cent",
			subtotal: d("29.94"),
			code:     "ALUNO10",
			// 2.994 -> 2.99
			wantDiscount: d("2.99"),
			wantTotal:    d("26.95"),
			wantValid:    true,
		},
		{
			name:         "zero subtotal",
			subtotal:     d("0"),
			code:         "ALUNO10",
			wantDiscount: d("0"),
			wantTotal:    d("0"),
			wantValid:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.subtotal, tt.code)

			assert.Equal(t, tt.wantValid, got.Valid)
			assert.True(t, tt.wantDiscount.Equal(got.Discount),
				"expected discount %s, got %s", tt.wantDiscount, got.Discount)
			assert.True(t, tt.wantTotal.Equal(got.Total),
				"expected total %s, got %s", tt.wantTotal, got.Total)
		})
	}
}

func TestValidate(t *testing.T) {
	_, err := Validate(d("10"), "BOGUS")
	require.ErrorIs(t, err, ErrInvalidCoupon)

	res, err := Validate(d("10"), "   ")
	require.NoError(t, err)
	assert.False(t, res.Valid)

	res, err = Validate(d("10"), "aluno10")
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestApply(t *testing.T) {
	tests := []struct {
		name        string
		rule        Rule
		subtotal    decimal.Decimal
		wantAmount  decimal.Decimal
		wantErrText string
	}{
		{
			name:       "percentage 18% off 100",
			rule:       Rule{Code: "PCT18", DiscountType: DiscountPercentage, Value: d("18")},
			subtotal:   d("100"),
			wantAmount: d("18"),
		},
		{
			name:       "percentage with cents precision",
			rule:       Rule{Code: "PCT15", DiscountType: DiscountPercentage, Value: d("15")},
			subtotal:   d("29.97"),
			wantAmount: d("4.50"),
		},
		{
			name:       "fixed capped at subtotal",
			rule:       Rule{Code: "BIG", DiscountType: DiscountFixed, Value: d("200")},
			subtotal:   d("100"),
			wantAmount: d("100"),
		},
		{
			name:        "unsupported discount type",
			rule:        Rule{Code: "BAD", DiscountType: DiscountType("bogus"), Value: d("10")},
			subtotal:    d("10"),
			wantErrText: "unsupported discount type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.rule, tt.subtotal)
			if tt.wantErrText != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrText)
				return
			}

			require.NoError(t, err)
			assert.True(t, tt.wantAmount.Equal(got),
				"expected amount %s, got %s", tt.wantAmount, got)
		})
	}
}
