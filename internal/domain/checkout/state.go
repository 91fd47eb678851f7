package checkout

// State is the coupon checkout state.
type State int

const (
	// StateEmpty means no coupon text; confirm is always allowed.
	StateEmpty State = iota
	// StateTyping means coupon text is present but not validated.
	StateTyping
	// StateValidated means the coupon was applied successfully.
	StateValidated
	// StateReviewed means totals are frozen and the coupon is locked.
	StateReviewed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateTyping:
		return "typing"
	case StateValidated:
		return "validated"
	case StateReviewed:
		return "reviewed"
	default:
		return "unknown"
	}
}
