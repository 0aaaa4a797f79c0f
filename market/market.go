// Package market implements an escrow marketplace for channel shares.
//
// A seller lists shares at an asking price; the listed shares move into
// escrow under the engine's own ledger address until they are bought back,
// amended, or cancelled. Buyers purchase partial or full quantities against a
// listing, paying in the native asset; the seller receives the total minus
// the marketplace fee and any overpayment is refunded to the buyer exactly.
package market

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/bits"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/knowscroll/libknowscroll-go/asset"
	"github.com/knowscroll/libknowscroll-go/event"
	"github.com/knowscroll/libknowscroll-go/ledger"
)

const (
	// BpsDenominator is the basis-point denominator for fee math.
	BpsDenominator = 10000

	// MaxFeeBps caps the marketplace fee at 10%.
	MaxFeeBps = 1000

	// DefaultFeeBps is the default marketplace fee (2.5%).
	DefaultFeeBps = 250
)

// Options configures a market Engine.
type Options struct {
	Ledger       ledger.Ledger   // required
	Bank         asset.Bank      // required
	Store        ListingStore    // defaults to a new MemListingStore
	Account      ledger.Address  // required: the engine's escrow address
	Admin        ledger.Address  // required: may cancel listings and set fees
	FeeRecipient ledger.Address  // required
	FeeBps       uint64          // defaults to DefaultFeeBps; 0 means default
	Bus          *event.Bus      // optional
	Logger       *slog.Logger    // optional
	Clock        clockwork.Clock // defaults to the real clock
}

// Engine lets shareholders list shares for sale under escrow and buyers
// purchase atomically against a listing. A single mutex serializes all
// operations; two concurrent purchases of one listing always serialize, the
// second seeing the reduced amount or an inactive listing.
type Engine struct {
	mu           sync.Mutex
	ledger       ledger.Ledger
	bank         asset.Bank
	store        ListingStore
	account      ledger.Address
	admin        ledger.Address
	feeRecipient ledger.Address
	feeBps       uint64
	bus          *event.Bus
	logger       *slog.Logger
	clock        clockwork.Clock
}

// New creates a market Engine.
func New(opts Options) (*Engine, error) {
	if opts.Ledger == nil {
		return nil, fmt.Errorf("%w: ledger", ErrNilParam)
	}
	if opts.Bank == nil {
		return nil, fmt.Errorf("%w: bank", ErrNilParam)
	}
	if opts.Account.IsZero() {
		return nil, fmt.Errorf("%w: engine account", ErrNilParam)
	}
	if opts.Admin.IsZero() {
		return nil, fmt.Errorf("%w: admin", ErrNilParam)
	}
	if opts.FeeRecipient.IsZero() {
		return nil, ErrZeroRecipient
	}
	feeBps := opts.FeeBps
	if feeBps == 0 {
		feeBps = DefaultFeeBps
	}
	if feeBps > MaxFeeBps {
		return nil, fmt.Errorf("%w: %d bps (max %d)", ErrFeeTooHigh, feeBps, MaxFeeBps)
	}
	store := opts.Store
	if store == nil {
		store = NewMemListingStore()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{
		ledger:       opts.Ledger,
		bank:         opts.Bank,
		store:        store,
		account:      opts.Account,
		admin:        opts.Admin,
		feeRecipient: opts.FeeRecipient,
		feeBps:       feeBps,
		bus:          opts.Bus,
		logger:       logger,
		clock:        clock,
	}, nil
}

// Account returns the engine's escrow address.
func (e *Engine) Account() ledger.Address { return e.account }

// FeeBps returns the current marketplace fee in basis points.
func (e *Engine) FeeBps() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.feeBps
}

// FeeRecipient returns the current marketplace fee recipient.
func (e *Engine) FeeRecipient() ledger.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.feeRecipient
}

// CreateListing escrows amount shares of a channel at pricePerShare and
// returns the new listing id. Ids are monotonic and never reused.
func (e *Engine) CreateListing(ctx context.Context, seller ledger.Address, channelID, amount, pricePerShare uint64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	if pricePerShare == 0 {
		return 0, ErrInvalidPrice
	}
	balance, err := e.ledger.BalanceOf(ctx, seller, channelID)
	if err != nil {
		return 0, fmt.Errorf("market: balance: %w", err)
	}
	if balance < amount {
		return 0, fmt.Errorf("%w: have %d, need %d", ErrInsufficientShares, balance, amount)
	}

	if err := e.ledger.Transfer(ctx, seller, e.account, channelID, amount); err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			return 0, fmt.Errorf("%w: %v", ErrInsufficientShares, err)
		}
		return 0, fmt.Errorf("market: escrow shares: %w", err)
	}

	id, err := e.store.NextID()
	if err != nil {
		e.returnShares(ctx, seller, channelID, amount)
		return 0, err
	}
	listing := &Listing{
		ID:            id,
		Seller:        seller,
		ChannelID:     channelID,
		Amount:        amount,
		PricePerShare: pricePerShare,
		ListedAt:      e.clock.Now(),
		Active:        true,
	}
	if err := e.store.Put(listing); err != nil {
		e.returnShares(ctx, seller, channelID, amount)
		return 0, err
	}

	e.logger.Debug(
		"listing created",
		"listing", id,
		"seller", seller,
		"channel", channelID,
		"amount", amount,
		"price", pricePerShare,
	)
	e.publish(TypeListingCreated, ListingCreated{
		ListingID:     id,
		Seller:        seller,
		ChannelID:     channelID,
		Amount:        amount,
		PricePerShare: pricePerShare,
	})
	return id, nil
}

// UpdateListing amends an active listing. A zero newAmount or newPrice
// leaves that field unchanged, so a call with both zero succeeds without
// effect. Changing the amount adjusts the escrow by the difference, pulling
// more shares from or returning shares to the seller.
func (e *Engine) UpdateListing(ctx context.Context, caller ledger.Address, id, newAmount, newPrice uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	listing, err := e.store.Get(id)
	if err != nil {
		return err
	}
	if !listing.Active {
		return fmt.Errorf("%w: listing %d", ErrListingNotActive, id)
	}
	if caller != listing.Seller {
		return ErrNotAuthorized
	}

	prevAmount := listing.Amount
	if newPrice > 0 {
		listing.PricePerShare = newPrice
	}
	if newAmount > 0 && newAmount != prevAmount {
		if newAmount > prevAmount {
			delta := newAmount - prevAmount
			if err := e.ledger.Transfer(ctx, listing.Seller, e.account, listing.ChannelID, delta); err != nil {
				if errors.Is(err, ledger.ErrInsufficientBalance) {
					return fmt.Errorf("%w: %v", ErrInsufficientShares, err)
				}
				return fmt.Errorf("market: escrow shares: %w", err)
			}
		} else {
			delta := prevAmount - newAmount
			if err := e.ledger.Transfer(ctx, e.account, listing.Seller, listing.ChannelID, delta); err != nil {
				return fmt.Errorf("market: return shares: %w", err)
			}
		}
		listing.Amount = newAmount
	}

	if err := e.store.Put(listing); err != nil {
		// Put the escrow back the way it was.
		if listing.Amount > prevAmount {
			e.returnShares(ctx, listing.Seller, listing.ChannelID, listing.Amount-prevAmount)
		} else if listing.Amount < prevAmount {
			_ = e.ledger.Transfer(ctx, listing.Seller, e.account, listing.ChannelID, prevAmount-listing.Amount)
		}
		return err
	}

	e.logger.Debug(
		"listing updated",
		"listing", id,
		"amount", listing.Amount,
		"price", listing.PricePerShare,
	)
	e.publish(TypeListingUpdated, ListingUpdated{
		ListingID:     id,
		Amount:        listing.Amount,
		PricePerShare: listing.PricePerShare,
	})
	return nil
}

// CancelListing deactivates a listing and returns all escrowed shares to the
// seller. The seller or the administrator may cancel; cancelling an inactive
// listing fails with ErrListingNotActive. Inactive is terminal.
func (e *Engine) CancelListing(ctx context.Context, caller ledger.Address, id uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	listing, err := e.store.Get(id)
	if err != nil {
		return err
	}
	if !listing.Active {
		return fmt.Errorf("%w: listing %d", ErrListingNotActive, id)
	}
	if caller != listing.Seller && caller != e.admin {
		return ErrNotAuthorized
	}

	returned := listing.Amount
	listing.Active = false
	if err := e.store.Put(listing); err != nil {
		return err
	}
	if returned > 0 {
		if err := e.ledger.Transfer(ctx, e.account, listing.Seller, listing.ChannelID, returned); err != nil {
			listing.Active = true
			_ = e.store.Put(listing)
			return fmt.Errorf("market: return shares: %w", err)
		}
	}

	e.logger.Debug("listing cancelled", "listing", id, "returned", returned)
	e.publish(TypeListingCancelled, ListingCancelled{
		ListingID:      id,
		ReturnedShares: returned,
	})
	return nil
}

// Purchase buys amount shares against a listing, paying payment in the
// native asset. payment must cover amount*pricePerShare; the excess is
// refunded to the buyer exactly. Buying the full remaining amount closes the
// listing.
func (e *Engine) Purchase(ctx context.Context, buyer ledger.Address, id, amount, payment uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	listing, err := e.store.Get(id)
	if err != nil {
		return err
	}
	if !listing.Active {
		return fmt.Errorf("%w: listing %d", ErrListingNotActive, id)
	}
	if amount == 0 || amount > listing.Amount {
		return fmt.Errorf("%w: %d of %d available", ErrInvalidAmount, amount, listing.Amount)
	}

	total, err := totalPrice(amount, listing.PricePerShare)
	if err != nil {
		return err
	}
	if payment < total {
		return fmt.Errorf("%w: %d < %d", ErrInsufficientPayment, payment, total)
	}
	fee := mulDiv(total, e.feeBps, BpsDenominator)
	proceeds := total - fee
	refund := payment - total

	// Pull the whole payment into the engine account; everything settled
	// below is covered by it.
	if err := e.bank.TransferFrom(ctx, asset.Native, e.account, buyer, e.account, payment); err != nil {
		return fmt.Errorf("market: collect payment: %w", err)
	}

	// Listing state is updated before any payout leaves the engine.
	prev := *listing
	listing.Amount -= amount
	if listing.Amount == 0 {
		listing.Active = false
	}
	if err := e.store.Put(listing); err != nil {
		e.refundPayment(ctx, buyer, payment)
		return err
	}

	if err := e.ledger.Transfer(ctx, e.account, buyer, listing.ChannelID, amount); err != nil {
		_ = e.store.Put(&prev)
		e.refundPayment(ctx, buyer, payment)
		return fmt.Errorf("market: deliver shares: %w", err)
	}

	// The engine account holds the full payment at this point, so these
	// settlements cannot fail for lack of funds.
	if fee > 0 {
		if err := e.bank.Transfer(ctx, asset.Native, e.account, e.feeRecipient, fee); err != nil {
			return fmt.Errorf("market: pay fee: %w", err)
		}
	}
	if err := e.bank.Transfer(ctx, asset.Native, e.account, listing.Seller, proceeds); err != nil {
		return fmt.Errorf("market: pay seller: %w", err)
	}
	if refund > 0 {
		if err := e.bank.Transfer(ctx, asset.Native, e.account, buyer, refund); err != nil {
			return fmt.Errorf("market: refund buyer: %w", err)
		}
	}

	e.logger.Debug(
		"shares purchased",
		"listing", id,
		"buyer", buyer,
		"amount", amount,
		"total", total,
		"fee", fee,
		"refund", refund,
	)
	e.publish(TypeSharesPurchased, SharesPurchased{
		ListingID: id,
		Buyer:     buyer,
		Seller:    listing.Seller,
		ChannelID: listing.ChannelID,
		Amount:    amount,
		Total:     total,
		Fee:       fee,
		Refund:    refund,
	})
	return nil
}

// GetListing returns a listing by id, active or not.
func (e *Engine) GetListing(id uint64) (*Listing, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Get(id)
}

// ActiveListings returns all active listings in id order.
func (e *Engine) ActiveListings() ([]*Listing, error) {
	return e.filtered(func(l *Listing) bool { return l.Active })
}

// ListingsByChannel returns all listings for a channel, active or not.
func (e *Engine) ListingsByChannel(channelID uint64) ([]*Listing, error) {
	return e.filtered(func(l *Listing) bool { return l.ChannelID == channelID })
}

// ListingsBySeller returns all listings created by a seller, active or not.
func (e *Engine) ListingsBySeller(seller ledger.Address) ([]*Listing, error) {
	return e.filtered(func(l *Listing) bool { return l.Seller == seller })
}

func (e *Engine) filtered(keep func(*Listing) bool) ([]*Listing, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	all, err := e.store.List()
	if err != nil {
		return nil, err
	}
	return filterListings(all, keep), nil
}

// SetFeeBps updates the marketplace fee. Only the administrator may call it
// and the fee must stay at or below MaxFeeBps.
func (e *Engine) SetFeeBps(caller ledger.Address, bps uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return ErrNotAuthorized
	}
	if bps > MaxFeeBps {
		return fmt.Errorf("%w: %d bps (max %d)", ErrFeeTooHigh, bps, MaxFeeBps)
	}
	e.feeBps = bps
	return nil
}

// SetFeeRecipient updates the marketplace fee recipient. Only the
// administrator may call it; the zero address is rejected.
func (e *Engine) SetFeeRecipient(caller, recipient ledger.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return ErrNotAuthorized
	}
	if recipient.IsZero() {
		return ErrZeroRecipient
	}
	e.feeRecipient = recipient
	return nil
}

// returnShares sends escrowed shares back to a seller after a failed
// operation.
func (e *Engine) returnShares(ctx context.Context, seller ledger.Address, channelID, amount uint64) {
	if err := e.ledger.Transfer(ctx, e.account, seller, channelID, amount); err != nil {
		e.logger.Error(
			"escrow return failed",
			"seller", seller,
			"channel", channelID,
			"amount", amount,
			"error", err,
		)
	}
}

// refundPayment sends a collected payment back to the buyer after a failed
// purchase.
func (e *Engine) refundPayment(ctx context.Context, buyer ledger.Address, amount uint64) {
	if err := e.bank.Transfer(ctx, asset.Native, e.account, buyer, amount); err != nil {
		e.logger.Error("payment refund failed", "buyer", buyer, "amount", amount, "error", err)
	}
}

func (e *Engine) publish(eventType event.Type, data any) {
	if e.bus != nil {
		e.bus.Publish(eventType, event.New(eventType, data))
	}
}

// totalPrice computes amount*pricePerShare, rejecting uint64 overflow.
func totalPrice(amount, pricePerShare uint64) (uint64, error) {
	hi, lo := bits.Mul64(amount, pricePerShare)
	if hi != 0 {
		return 0, fmt.Errorf("%w: %d * %d", ErrPriceOverflow, amount, pricePerShare)
	}
	return lo, nil
}

// mulDiv computes a*b/den with a 128-bit intermediate so the product cannot
// overflow. den must be nonzero; a quotient above the uint64 range saturates.
func mulDiv(a, b, den uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi >= den {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, den)
	return q
}
