package market

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowscroll/libknowscroll-go/asset"
	"github.com/knowscroll/libknowscroll-go/ledger"
)

func TestBoltListingStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.db")

	store, err := OpenBoltListingStore(path)
	require.NoError(t, err)

	id, err := store.NextID()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	listing := &Listing{
		ID:            id,
		Seller:        seller,
		ChannelID:     channelOne,
		Amount:        10,
		PricePerShare: sharePrice,
		ListedAt:      time.Unix(1_700_000_000, 0).UTC(),
		Active:        true,
	}
	require.NoError(t, store.Put(listing))
	require.NoError(t, store.Close())

	// Everything survives a restart, including the id counter.
	store, err = OpenBoltListingStore(path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, listing, got)

	next, err := store.NextID()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next)
}

func TestBoltListingStore_GetMissing(t *testing.T) {
	store, err := OpenBoltListingStore(filepath.Join(t.TempDir(), "market.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Get(42)
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestBoltListingStore_ListIDOrder(t *testing.T) {
	store, err := OpenBoltListingStore(filepath.Join(t.TempDir(), "market.db"))
	require.NoError(t, err)
	defer store.Close()

	for i := 0; i < 3; i++ {
		id, err := store.NextID()
		require.NoError(t, err)
		require.NoError(t, store.Put(&Listing{ID: id, Seller: seller, ChannelID: channelOne, Amount: 1, PricePerShare: sharePrice, Active: true}))
	}

	all, err := store.List()
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, l := range all {
		assert.Equal(t, uint64(i+1), l.ID)
	}
}

func TestEngine_OverBoltStore(t *testing.T) {
	ctx := context.Background()
	store, err := OpenBoltListingStore(filepath.Join(t.TempDir(), "market.db"))
	require.NoError(t, err)
	defer store.Close()

	l := ledger.NewMemLedger()
	l.Mint(seller, channelOne, 20)
	b := asset.NewMemBank()
	b.Mint(asset.Native, buyer, 10*oneUnit)

	e, err := New(Options{
		Ledger: l, Bank: b, Store: store, Account: escrowAcct,
		Admin: admin, FeeRecipient: feeRecipient, FeeBps: 250,
	})
	require.NoError(t, err)

	id, err := e.CreateListing(ctx, seller, channelOne, 20, sharePrice)
	require.NoError(t, err)
	require.NoError(t, e.Purchase(ctx, buyer, id, 10, oneUnit))

	listing, err := e.GetListing(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), listing.Amount)
	assert.True(t, listing.Active)

	buyerShares, _ := l.BalanceOf(ctx, buyer, channelOne)
	assert.Equal(t, uint64(10), buyerShares)
}
