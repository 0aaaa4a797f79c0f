package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeAddr(seed byte) Address {
	var addr Address
	for i := range addr {
		addr[i] = seed
	}
	return addr
}

// --- Address tests ---

func TestParseAddress_RoundTrip(t *testing.T) {
	addr := makeAddr(0xAB)
	parsed, err := ParseAddress(addr.String())
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)
}

func TestParseAddress_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not hex", "zz"},
		{"too short", "abcd"},
		{"too long", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAddress(tt.input)
			assert.ErrorIs(t, err, ErrInvalidAddress)
		})
	}
}

func TestAddress_IsZero(t *testing.T) {
	assert.True(t, ZeroAddress.IsZero())
	assert.False(t, makeAddr(0x01).IsZero())
}

// --- MemLedger tests ---

func TestMemLedger_MintAndBalances(t *testing.T) {
	ctx := context.Background()
	l := NewMemLedger()
	alice := makeAddr(0xAA)

	l.Mint(alice, 1, 70)
	l.Mint(makeAddr(0xBB), 1, 30)

	bal, err := l.BalanceOf(ctx, alice, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(70), bal)

	total, err := l.TotalShares(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), total)

	// Unknown channel has no shares.
	total, err = l.TotalShares(ctx, 99)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestMemLedger_Transfer(t *testing.T) {
	ctx := context.Background()
	l := NewMemLedger()
	alice := makeAddr(0xAA)
	bob := makeAddr(0xBB)
	l.Mint(alice, 1, 100)

	require.NoError(t, l.Transfer(ctx, alice, bob, 1, 40))

	aliceBal, _ := l.BalanceOf(ctx, alice, 1)
	bobBal, _ := l.BalanceOf(ctx, bob, 1)
	assert.Equal(t, uint64(60), aliceBal)
	assert.Equal(t, uint64(40), bobBal)

	// Total is unchanged by transfers.
	total, _ := l.TotalShares(ctx, 1)
	assert.Equal(t, uint64(100), total)
}

func TestMemLedger_Transfer_Insufficient(t *testing.T) {
	ctx := context.Background()
	l := NewMemLedger()
	alice := makeAddr(0xAA)
	l.Mint(alice, 1, 10)

	err := l.Transfer(ctx, alice, makeAddr(0xBB), 1, 11)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	err = l.Transfer(ctx, alice, makeAddr(0xBB), 1, 0)
	assert.ErrorIs(t, err, ErrZeroAmount)
}

func TestMemLedger_BatchTransfer(t *testing.T) {
	ctx := context.Background()
	l := NewMemLedger()
	alice := makeAddr(0xAA)
	bob := makeAddr(0xBB)
	l.Mint(alice, 1, 50)
	l.Mint(alice, 2, 50)

	require.NoError(t, l.BatchTransfer(ctx, alice, bob, []uint64{1, 2}, []uint64{10, 20}))

	b1, _ := l.BalanceOf(ctx, bob, 1)
	b2, _ := l.BalanceOf(ctx, bob, 2)
	assert.Equal(t, uint64(10), b1)
	assert.Equal(t, uint64(20), b2)
}

func TestMemLedger_BatchTransfer_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	l := NewMemLedger()
	alice := makeAddr(0xAA)
	bob := makeAddr(0xBB)
	l.Mint(alice, 1, 50)
	l.Mint(alice, 2, 5)

	// Second leg cannot be covered, so the first must not apply either.
	err := l.BatchTransfer(ctx, alice, bob, []uint64{1, 2}, []uint64{10, 20})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	b1, _ := l.BalanceOf(ctx, bob, 1)
	assert.Zero(t, b1)
}

func TestMemLedger_BatchTransfer_LengthMismatch(t *testing.T) {
	l := NewMemLedger()
	err := l.BatchTransfer(context.Background(), makeAddr(0xAA), makeAddr(0xBB), []uint64{1}, []uint64{1, 2})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}
