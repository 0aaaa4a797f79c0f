package revenue

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/knowscroll/libknowscroll-go/asset"
	"github.com/knowscroll/libknowscroll-go/ledger"
)

var (
	bucketDeposits = []byte("revenue_deposits")
	bucketClaims   = []byte("revenue_claims")
	bucketAssets   = []byte("revenue_assets")
)

// BoltAccountStore persists revenue accounts in bbolt.
//
// Keys are channel id as 8 big-endian bytes followed by the holder address
// (claims only) and the asset id, so per-channel entries are contiguous and
// reachable by prefix scan.
type BoltAccountStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ AccountStore = (*BoltAccountStore)(nil)

// OpenBoltAccountStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltAccountStore(dbPath string) (*BoltAccountStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("revenue: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("revenue: open bolt db: %w", err)
	}
	store, err := NewBoltAccountStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewBoltAccountStore wraps an already-open bbolt database, creating the
// revenue buckets if they do not exist.
func NewBoltAccountStore(db *bbolt.DB) (*BoltAccountStore, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketDeposits, bucketClaims, bucketAssets} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("revenue: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &BoltAccountStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltAccountStore) Close() error { return s.db.Close() }

// channelKey encodes a channel id as an 8-byte big-endian prefix.
func channelKey(channelID uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, channelID)
	return k
}

func depositKey(channelID uint64, assetID asset.ID) []byte {
	return append(channelKey(channelID), assetID...)
}

func claimsKey(channelID uint64, assetID asset.ID, holder ledger.Address) []byte {
	k := append(channelKey(channelID), holder[:]...)
	return append(k, assetID...)
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func decodeUint64(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// Deposited returns the cumulative net revenue for a channel and asset.
func (s *BoltAccountStore) Deposited(channelID uint64, assetID asset.ID) (uint64, error) {
	var total uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		total = decodeUint64(tx.Bucket(bucketDeposits).Get(depositKey(channelID, assetID)))
		return nil
	})
	return total, err
}

// SetDeposited overwrites the cumulative net revenue for a channel and asset.
func (s *BoltAccountStore) SetDeposited(channelID uint64, assetID asset.ID, total uint64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketDeposits).Put(depositKey(channelID, assetID), encodeUint64(total)); err != nil {
			return fmt.Errorf("revenue: put deposited: %w", err)
		}
		return nil
	})
}

// Claimed returns a holder's cumulative claimed amount.
func (s *BoltAccountStore) Claimed(channelID uint64, assetID asset.ID, holder ledger.Address) (uint64, error) {
	var total uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		total = decodeUint64(tx.Bucket(bucketClaims).Get(claimsKey(channelID, assetID, holder)))
		return nil
	})
	return total, err
}

// SetClaimed overwrites a holder's cumulative claimed amount.
func (s *BoltAccountStore) SetClaimed(channelID uint64, assetID asset.ID, holder ledger.Address, total uint64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketClaims).Put(claimsKey(channelID, assetID, holder), encodeUint64(total)); err != nil {
			return fmt.Errorf("revenue: put claimed: %w", err)
		}
		return nil
	})
}

// RegisterAsset records that an asset has received revenue on a channel.
func (s *BoltAccountStore) RegisterAsset(channelID uint64, assetID asset.ID) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketAssets).Put(depositKey(channelID, assetID), []byte{}); err != nil {
			return fmt.Errorf("revenue: put asset registration: %w", err)
		}
		return nil
	})
}

// Assets returns every asset ever registered for a channel, in key order.
func (s *BoltAccountStore) Assets(channelID uint64) ([]asset.ID, error) {
	var out []asset.ID
	prefix := channelKey(channelID)
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketAssets).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			out = append(out, asset.ID(k[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("revenue: list assets: %w", err)
	}
	return out, nil
}
