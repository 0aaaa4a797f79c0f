// Package asset defines the asset transfer capability consumed by the
// revenue and market engines.
//
// An asset is either the native currency or a designated fungible token.
// Native payments accompany the call that spends them; token payments follow
// the approve-then-transfer-from pattern, so a spender must hold sufficient
// allowance before it can debit a payer.
package asset

import (
	"context"

	"github.com/knowscroll/libknowscroll-go/ledger"
)

// ID identifies an asset. The native currency has a reserved id; any other
// non-empty id names a fungible token.
type ID string

// Native is the native currency asset id.
const Native ID = "native"

// IsNative reports whether the id names the native currency.
func (id ID) IsNative() bool {
	return id == Native
}

// Bank provides balances and atomic asset transfers.
type Bank interface {
	// Balance returns the owner's balance of an asset.
	Balance(ctx context.Context, asset ID, owner ledger.Address) (uint64, error)

	// Transfer moves the caller's own funds. from is the spending account.
	Transfer(ctx context.Context, asset ID, from, to ledger.Address, amount uint64) error

	// TransferFrom moves funds on behalf of another account. For token
	// assets the spender must have been approved by from for at least
	// amount; the allowance is consumed. For the native asset the payment
	// accompanies the call and no allowance is checked.
	TransferFrom(ctx context.Context, asset ID, spender, from, to ledger.Address, amount uint64) error
}
