package checkout

import "github.com/go-faster/errors"

// Sentinel errors returned by Flow.
var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrCouponRequired    = errors.New("coupon code required")
	ErrCouponLocked      = errors.New("coupon is locked after review")
	ErrNotValidated      = errors.New("apply the coupon before reviewing")
	ErrConfirmDisabled   = errors.New("review the coupon before confirming")
	ErrConfirmInProgress = errors.New("confirmation in progress")
)
