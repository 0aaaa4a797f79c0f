package market

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var (
	bucketListings = []byte("listings")
	bucketCounters = []byte("counters")
)

var keyLastListingID = []byte("last_listing_id")

// BoltListingStore persists listings in bbolt. Listings are gob-encoded and
// keyed by their 8-byte big-endian id, so cursor order is id order.
type BoltListingStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ ListingStore = (*BoltListingStore)(nil)

// OpenBoltListingStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltListingStore(dbPath string) (*BoltListingStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("market: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("market: open bolt db: %w", err)
	}
	store, err := NewBoltListingStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewBoltListingStore wraps an already-open bbolt database, creating the
// market buckets if they do not exist.
func NewBoltListingStore(db *bbolt.DB) (*BoltListingStore, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketListings, bucketCounters} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("market: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &BoltListingStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltListingStore) Close() error { return s.db.Close() }

// idKey encodes a listing id as an 8-byte big-endian key.
func idKey(id uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, id)
	return k
}

// encodeListing serializes a listing using gob encoding.
func encodeListing(l *Listing) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(l); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeListing deserializes gob-encoded data into a listing.
func decodeListing(data []byte) (*Listing, error) {
	var l Listing
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&l); err != nil {
		return nil, err
	}
	return &l, nil
}

// NextID allocates the next listing id. Ids are persisted so they survive
// restarts and are never reused.
func (s *BoltListingStore) NextID() (uint64, error) {
	var id uint64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCounters)
		if v := b.Get(keyLastListingID); v != nil && len(v) == 8 {
			id = binary.BigEndian.Uint64(v)
		}
		id++
		return b.Put(keyLastListingID, idKey(id))
	})
	if err != nil {
		return 0, fmt.Errorf("market: allocate listing id: %w", err)
	}
	return id, nil
}

// Put stores or overwrites a listing keyed by its id.
func (s *BoltListingStore) Put(listing *Listing) error {
	if listing == nil {
		return fmt.Errorf("%w: listing", ErrNilParam)
	}
	data, err := encodeListing(listing)
	if err != nil {
		return fmt.Errorf("market: encode listing: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketListings).Put(idKey(listing.ID), data); err != nil {
			return fmt.Errorf("market: put listing: %w", err)
		}
		return nil
	})
}

// Get retrieves a listing by id.
func (s *BoltListingStore) Get(id uint64) (*Listing, error) {
	var listing *Listing
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketListings).Get(idKey(id))
		if data == nil {
			return ErrListingNotFound
		}
		var err error
		listing, err = decodeListing(data)
		if err != nil {
			return fmt.Errorf("market: decode listing: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// List returns all listings in id order.
func (s *BoltListingStore) List() ([]*Listing, error) {
	var out []*Listing
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketListings).ForEach(func(_, v []byte) error {
			l, err := decodeListing(v)
			if err != nil {
				return fmt.Errorf("market: decode listing in list: %w", err)
			}
			out = append(out, l)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
