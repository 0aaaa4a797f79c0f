package market

import "errors"

var (
	// ErrInvalidAmount indicates a zero amount or one exceeding the listing.
	ErrInvalidAmount = errors.New("market: invalid share amount")

	// ErrInvalidPrice indicates a zero price per share.
	ErrInvalidPrice = errors.New("market: price must be positive")

	// ErrInsufficientShares indicates the seller lacks shares for the escrow.
	ErrInsufficientShares = errors.New("market: insufficient shares")

	// ErrInsufficientPayment indicates the buyer's payment is below the total price.
	ErrInsufficientPayment = errors.New("market: insufficient payment")

	// ErrListingNotFound indicates no listing exists with the given id.
	ErrListingNotFound = errors.New("market: listing not found")

	// ErrListingNotActive indicates the listing was cancelled or fully sold.
	ErrListingNotActive = errors.New("market: listing not active")

	// ErrNotAuthorized indicates the caller is neither the seller nor the administrator.
	ErrNotAuthorized = errors.New("market: caller is not authorized")

	// ErrFeeTooHigh indicates the marketplace fee exceeds its ceiling.
	ErrFeeTooHigh = errors.New("market: marketplace fee exceeds ceiling")

	// ErrZeroRecipient indicates the fee recipient is the zero address.
	ErrZeroRecipient = errors.New("market: fee recipient must not be zero")

	// ErrPriceOverflow indicates amount*pricePerShare exceeds the uint64 range.
	ErrPriceOverflow = errors.New("market: total price overflows")

	// ErrNilParam indicates a required dependency or parameter is nil.
	ErrNilParam = errors.New("market: nil parameter")
)
