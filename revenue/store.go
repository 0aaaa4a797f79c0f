package revenue

import (
	"sync"

	"github.com/knowscroll/libknowscroll-go/asset"
	"github.com/knowscroll/libknowscroll-go/ledger"
)

// AccountStore persists revenue accounts: cumulative net deposits per
// (channel, asset), cumulative claims per (channel, asset, holder), and the
// set of assets that have received revenue per channel.
//
// The engine serializes all access, so implementations need only be
// internally consistent, not transactional across calls.
type AccountStore interface {
	// Deposited returns the cumulative net revenue for a channel and asset.
	Deposited(channelID uint64, assetID asset.ID) (uint64, error)

	// SetDeposited overwrites the cumulative net revenue for a channel and asset.
	SetDeposited(channelID uint64, assetID asset.ID, total uint64) error

	// Claimed returns a holder's cumulative claimed amount.
	Claimed(channelID uint64, assetID asset.ID, holder ledger.Address) (uint64, error)

	// SetClaimed overwrites a holder's cumulative claimed amount.
	SetClaimed(channelID uint64, assetID asset.ID, holder ledger.Address, total uint64) error

	// RegisterAsset records that an asset has received revenue on a channel.
	// Registering an already-known asset is a no-op.
	RegisterAsset(channelID uint64, assetID asset.ID) error

	// Assets returns every asset ever registered for a channel.
	Assets(channelID uint64) ([]asset.ID, error)
}

type accountKey struct {
	channelID uint64
	assetID   asset.ID
}

type claimKey struct {
	channelID uint64
	assetID   asset.ID
	holder    ledger.Address
}

// MemAccountStore is an in-memory AccountStore for testing.
type MemAccountStore struct {
	mu        sync.RWMutex
	deposited map[accountKey]uint64
	claimed   map[claimKey]uint64
	assets    map[uint64][]asset.ID // registration order preserved
}

// Compile-time interface check.
var _ AccountStore = (*MemAccountStore)(nil)

// NewMemAccountStore creates an empty in-memory account store.
func NewMemAccountStore() *MemAccountStore {
	return &MemAccountStore{
		deposited: make(map[accountKey]uint64),
		claimed:   make(map[claimKey]uint64),
		assets:    make(map[uint64][]asset.ID),
	}
}

// Deposited returns the cumulative net revenue for a channel and asset.
func (s *MemAccountStore) Deposited(channelID uint64, assetID asset.ID) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deposited[accountKey{channelID, assetID}], nil
}

// SetDeposited overwrites the cumulative net revenue for a channel and asset.
func (s *MemAccountStore) SetDeposited(channelID uint64, assetID asset.ID, total uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deposited[accountKey{channelID, assetID}] = total
	return nil
}

// Claimed returns a holder's cumulative claimed amount.
func (s *MemAccountStore) Claimed(channelID uint64, assetID asset.ID, holder ledger.Address) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claimed[claimKey{channelID, assetID, holder}], nil
}

// SetClaimed overwrites a holder's cumulative claimed amount.
func (s *MemAccountStore) SetClaimed(channelID uint64, assetID asset.ID, holder ledger.Address, total uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimed[claimKey{channelID, assetID, holder}] = total
	return nil
}

// RegisterAsset records that an asset has received revenue on a channel.
func (s *MemAccountStore) RegisterAsset(channelID uint64, assetID asset.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.assets[channelID] {
		if id == assetID {
			return nil
		}
	}
	s.assets[channelID] = append(s.assets[channelID], assetID)
	return nil
}

// Assets returns every asset ever registered for a channel.
func (s *MemAccountStore) Assets(channelID uint64) ([]asset.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]asset.ID, len(s.assets[channelID]))
	copy(out, s.assets[channelID])
	return out, nil
}
