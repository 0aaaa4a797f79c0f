package asset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowscroll/libknowscroll-go/ledger"
)

const usdToken = ID("token:usdx")

func makeAddr(seed byte) ledger.Address {
	var addr ledger.Address
	for i := range addr {
		addr[i] = seed
	}
	return addr
}

func TestID_IsNative(t *testing.T) {
	assert.True(t, Native.IsNative())
	assert.False(t, usdToken.IsNative())
}

// --- MemBank tests ---

func TestMemBank_Transfer(t *testing.T) {
	ctx := context.Background()
	b := NewMemBank()
	alice := makeAddr(0xAA)
	bob := makeAddr(0xBB)
	b.Mint(Native, alice, 1000)

	require.NoError(t, b.Transfer(ctx, Native, alice, bob, 400))

	aliceBal, _ := b.Balance(ctx, Native, alice)
	bobBal, _ := b.Balance(ctx, Native, bob)
	assert.Equal(t, uint64(600), aliceBal)
	assert.Equal(t, uint64(400), bobBal)
}

func TestMemBank_Transfer_Errors(t *testing.T) {
	ctx := context.Background()
	b := NewMemBank()
	alice := makeAddr(0xAA)
	b.Mint(Native, alice, 10)

	assert.ErrorIs(t, b.Transfer(ctx, Native, alice, makeAddr(0xBB), 11), ErrInsufficientFunds)
	assert.ErrorIs(t, b.Transfer(ctx, Native, alice, makeAddr(0xBB), 0), ErrZeroAmount)
	assert.ErrorIs(t, b.Transfer(ctx, "", alice, makeAddr(0xBB), 1), ErrInvalidAsset)
}

func TestMemBank_TransferFrom_Token(t *testing.T) {
	ctx := context.Background()
	b := NewMemBank()
	owner := makeAddr(0xAA)
	spender := makeAddr(0x01)
	dest := makeAddr(0xBB)
	b.Mint(usdToken, owner, 1000)

	// No approval yet.
	err := b.TransferFrom(ctx, usdToken, spender, owner, dest, 100)
	assert.ErrorIs(t, err, ErrInsufficientAllowance)

	b.Approve(usdToken, owner, spender, 300)
	require.NoError(t, b.TransferFrom(ctx, usdToken, spender, owner, dest, 100))

	// Allowance is consumed.
	assert.Equal(t, uint64(200), b.Allowance(usdToken, owner, spender))

	err = b.TransferFrom(ctx, usdToken, spender, owner, dest, 250)
	assert.ErrorIs(t, err, ErrInsufficientAllowance)

	destBal, _ := b.Balance(ctx, usdToken, dest)
	assert.Equal(t, uint64(100), destBal)
}

func TestMemBank_TransferFrom_NativeSkipsAllowance(t *testing.T) {
	ctx := context.Background()
	b := NewMemBank()
	owner := makeAddr(0xAA)
	b.Mint(Native, owner, 500)

	// Native payments accompany the call, so no approval is needed.
	require.NoError(t, b.TransferFrom(ctx, Native, makeAddr(0x01), owner, makeAddr(0xBB), 500))

	bal, _ := b.Balance(ctx, Native, owner)
	assert.Zero(t, bal)
}
