package ledger

import (
	"context"
	"fmt"
	"sync"
)

// MemLedger is an in-memory implementation of Ledger for testing and
// embedding. Balances are held in a single table keyed by channel id, the
// same shape as the external substrate it stands in for.
type MemLedger struct {
	mu       sync.RWMutex
	balances map[uint64]map[Address]uint64 // channelID -> holder -> shares
	totals   map[uint64]uint64             // channelID -> total shares
}

// Compile-time interface check.
var _ Ledger = (*MemLedger)(nil)

// NewMemLedger creates an empty in-memory ledger.
func NewMemLedger() *MemLedger {
	return &MemLedger{
		balances: make(map[uint64]map[Address]uint64),
		totals:   make(map[uint64]uint64),
	}
}

// Mint credits newly issued shares to a holder, growing the channel's total.
func (l *MemLedger) Mint(holder Address, channelID, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[channelID] == nil {
		l.balances[channelID] = make(map[Address]uint64)
	}
	l.balances[channelID][holder] += amount
	l.totals[channelID] += amount
}

// BalanceOf returns the holder's share balance for a channel.
func (l *MemLedger) BalanceOf(_ context.Context, holder Address, channelID uint64) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[channelID][holder], nil
}

// TotalShares returns the total shares outstanding for a channel.
func (l *MemLedger) TotalShares(_ context.Context, channelID uint64) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totals[channelID], nil
}

// Transfer atomically moves shares between holders.
func (l *MemLedger) Transfer(_ context.Context, from, to Address, channelID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transferLocked(from, to, channelID, amount)
}

// BatchTransfer atomically moves shares across multiple channels.
func (l *MemLedger) BatchTransfer(_ context.Context, from, to Address, channelIDs, amounts []uint64) error {
	if len(channelIDs) != len(amounts) {
		return fmt.Errorf("%w: %d channels, %d amounts", ErrLengthMismatch, len(channelIDs), len(amounts))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Validate everything before applying anything.
	for i, ch := range channelIDs {
		if amounts[i] == 0 {
			return ErrZeroAmount
		}
		if l.balances[ch][from] < amounts[i] {
			return fmt.Errorf("%w: channel %d", ErrInsufficientBalance, ch)
		}
	}
	for i, ch := range channelIDs {
		if err := l.transferLocked(from, to, ch, amounts[i]); err != nil {
			return err
		}
	}
	return nil
}

func (l *MemLedger) transferLocked(from, to Address, channelID, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	if l.balances[channelID][from] < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, l.balances[channelID][from], amount)
	}
	l.balances[channelID][from] -= amount
	l.balances[channelID][to] += amount
	return nil
}
