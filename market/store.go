package market

import "sync"

// ListingStore persists listings and allocates their ids. Ids are monotonic,
// 1-based, and never reused. The engine serializes access; implementations
// need only be internally consistent.
type ListingStore interface {
	// NextID allocates the next listing id.
	NextID() (uint64, error)

	// Put stores or overwrites a listing keyed by its id.
	Put(listing *Listing) error

	// Get retrieves a listing by id, ErrListingNotFound if absent.
	Get(id uint64) (*Listing, error)

	// List returns all listings, active or not, in id order.
	List() ([]*Listing, error)
}

// MemListingStore is an in-memory ListingStore for testing.
type MemListingStore struct {
	mu       sync.RWMutex
	listings map[uint64]*Listing
	lastID   uint64
}

// Compile-time interface check.
var _ ListingStore = (*MemListingStore)(nil)

// NewMemListingStore creates an empty in-memory listing store.
func NewMemListingStore() *MemListingStore {
	return &MemListingStore{listings: make(map[uint64]*Listing)}
}

// NextID allocates the next listing id.
func (s *MemListingStore) NextID() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	return s.lastID, nil
}

// Put stores or overwrites a listing keyed by its id.
func (s *MemListingStore) Put(listing *Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *listing
	s.listings[listing.ID] = &cp
	return nil
}

// Get retrieves a listing by id.
func (s *MemListingStore) Get(id uint64) (*Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, ErrListingNotFound
	}
	cp := *l
	return &cp, nil
}

// List returns all listings in id order.
func (s *MemListingStore) List() ([]*Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Listing, 0, len(s.listings))
	for id := uint64(1); id <= s.lastID; id++ {
		if l, ok := s.listings[id]; ok {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

// filterListings returns the listings matching keep.
func filterListings(all []*Listing, keep func(*Listing) bool) []*Listing {
	var out []*Listing
	for _, l := range all {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}
