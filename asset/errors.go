package asset

import "errors"

var (
	// ErrInsufficientFunds indicates the spending account balance is too low.
	ErrInsufficientFunds = errors.New("asset: insufficient funds")

	// ErrInsufficientAllowance indicates the spender was not approved for the amount.
	ErrInsufficientAllowance = errors.New("asset: insufficient allowance")

	// ErrZeroAmount indicates a transfer of zero.
	ErrZeroAmount = errors.New("asset: transfer amount must be positive")

	// ErrInvalidAsset indicates an empty asset id.
	ErrInvalidAsset = errors.New("asset: invalid asset id")
)
