package ledger

import "errors"

var (
	// ErrInsufficientBalance indicates the sender holds fewer shares than requested.
	ErrInsufficientBalance = errors.New("ledger: insufficient share balance")

	// ErrZeroAmount indicates a transfer of zero shares.
	ErrZeroAmount = errors.New("ledger: transfer amount must be positive")

	// ErrLengthMismatch indicates batch channel and amount slices differ in length.
	ErrLengthMismatch = errors.New("ledger: channel and amount count mismatch")

	// ErrInvalidAddress indicates an address is malformed or not 20 bytes.
	ErrInvalidAddress = errors.New("ledger: invalid address")
)
