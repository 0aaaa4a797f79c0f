package revenue

import "errors"

var (
	// ErrInvalidChannel indicates the channel has no shares outstanding.
	ErrInvalidChannel = errors.New("revenue: channel has no shares")

	// ErrInvalidAmount indicates a zero revenue amount.
	ErrInvalidAmount = errors.New("revenue: amount must be positive")

	// ErrNothingToClaim indicates the computed claimable amount is zero.
	ErrNothingToClaim = errors.New("revenue: nothing to claim")

	// ErrNotAuthorized indicates the caller is not the administrator.
	ErrNotAuthorized = errors.New("revenue: caller is not authorized")

	// ErrFeeTooHigh indicates the platform fee exceeds its ceiling.
	ErrFeeTooHigh = errors.New("revenue: platform fee exceeds ceiling")

	// ErrZeroRecipient indicates the fee recipient is the zero address.
	ErrZeroRecipient = errors.New("revenue: fee recipient must not be zero")

	// ErrNilParam indicates a required dependency or parameter is nil.
	ErrNilParam = errors.New("revenue: nil parameter")
)
