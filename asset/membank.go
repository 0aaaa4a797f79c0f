package asset

import (
	"context"
	"fmt"
	"sync"

	"github.com/knowscroll/libknowscroll-go/ledger"
)

type allowanceKey struct {
	owner   ledger.Address
	spender ledger.Address
}

// MemBank is an in-memory implementation of Bank for testing. It tracks
// balances per asset and approve-then-transfer-from allowances for token
// assets; the native asset bypasses the allowance check.
type MemBank struct {
	mu         sync.RWMutex
	balances   map[ID]map[ledger.Address]uint64
	allowances map[ID]map[allowanceKey]uint64
}

// Compile-time interface check.
var _ Bank = (*MemBank)(nil)

// NewMemBank creates an empty in-memory bank.
func NewMemBank() *MemBank {
	return &MemBank{
		balances:   make(map[ID]map[ledger.Address]uint64),
		allowances: make(map[ID]map[allowanceKey]uint64),
	}
}

// Mint credits funds to an account.
func (b *MemBank) Mint(asset ID, owner ledger.Address, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.balances[asset] == nil {
		b.balances[asset] = make(map[ledger.Address]uint64)
	}
	b.balances[asset][owner] += amount
}

// Approve grants spender the right to debit up to amount from owner.
// A second call overwrites the previous allowance.
func (b *MemBank) Approve(asset ID, owner, spender ledger.Address, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.allowances[asset] == nil {
		b.allowances[asset] = make(map[allowanceKey]uint64)
	}
	b.allowances[asset][allowanceKey{owner: owner, spender: spender}] = amount
}

// Allowance returns the remaining approved amount for a (owner, spender) pair.
func (b *MemBank) Allowance(asset ID, owner, spender ledger.Address) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.allowances[asset][allowanceKey{owner: owner, spender: spender}]
}

// Balance returns the owner's balance of an asset.
func (b *MemBank) Balance(_ context.Context, asset ID, owner ledger.Address) (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.balances[asset][owner], nil
}

// Transfer moves the caller's own funds.
func (b *MemBank) Transfer(_ context.Context, asset ID, from, to ledger.Address, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transferLocked(asset, from, to, amount)
}

// TransferFrom moves funds on behalf of another account, consuming the
// spender's allowance for token assets.
func (b *MemBank) TransferFrom(_ context.Context, asset ID, spender, from, to ledger.Address, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !asset.IsNative() {
		key := allowanceKey{owner: from, spender: spender}
		if b.allowances[asset][key] < amount {
			return fmt.Errorf("%w: approved %d, need %d", ErrInsufficientAllowance, b.allowances[asset][key], amount)
		}
		if err := b.transferLocked(asset, from, to, amount); err != nil {
			return err
		}
		b.allowances[asset][key] -= amount
		return nil
	}
	return b.transferLocked(asset, from, to, amount)
}

func (b *MemBank) transferLocked(asset ID, from, to ledger.Address, amount uint64) error {
	if asset == "" {
		return ErrInvalidAsset
	}
	if amount == 0 {
		return ErrZeroAmount
	}
	if b.balances[asset][from] < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, b.balances[asset][from], amount)
	}
	b.balances[asset][from] -= amount
	b.balances[asset][to] += amount
	return nil
}
