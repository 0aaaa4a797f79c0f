// Package ledger defines the ownership ledger capability consumed by the
// revenue and market engines.
//
// The ledger maps (holder, channel) to a share balance; all channels share
// one global balance table keyed by channel id. The engines depend on it for
// "who owns how many shares of channel X" but never implement it — the
// backing substrate (a chain, a database, a test double) is injected at
// construction.
package ledger

import (
	"context"
	"encoding/hex"
	"fmt"
)

// AddressSize is the length of a holder address in bytes.
const AddressSize = 20

// Address identifies a shareholder, fee recipient, or engine escrow account.
type Address [AddressSize]byte

// ZeroAddress is the all-zero address, treated as invalid for recipients.
var ZeroAddress Address

// ParseAddress decodes a hex-encoded 20-byte address.
func ParseAddress(s string) (Address, error) {
	var addr Address
	b, err := hex.DecodeString(s)
	if err != nil {
		return addr, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(b) != AddressSize {
		return addr, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddress, AddressSize, len(b))
	}
	copy(addr[:], b)
	return addr, nil
}

// String returns the hex encoding of the address.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Ledger provides share balances and atomic share transfers.
type Ledger interface {
	// BalanceOf returns the holder's share balance for a channel.
	BalanceOf(ctx context.Context, holder Address, channelID uint64) (uint64, error)

	// TotalShares returns the total shares outstanding for a channel.
	// A channel with zero total shares does not exist.
	TotalShares(ctx context.Context, channelID uint64) (uint64, error)

	// Transfer atomically moves amount shares of a channel between holders.
	Transfer(ctx context.Context, from, to Address, channelID, amount uint64) error

	// BatchTransfer atomically moves shares across multiple channels.
	// channelIDs and amounts must have equal length; either every transfer
	// applies or none do.
	BatchTransfer(ctx context.Context, from, to Address, channelIDs, amounts []uint64) error
}
