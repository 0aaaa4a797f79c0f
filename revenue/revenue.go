// Package revenue implements share-proportional revenue distribution.
//
// Revenue arrives per channel and asset, loses a platform fee, and becomes
// claimable by shareholders in proportion to the shares they hold at claim
// time. Claims are pull-based: no call ever iterates the holder set.
// Proportions are never snapshotted — a claim is computed against the
// holder's current balance and the full cumulative deposits, so a holder who
// transfers shares away forfeits revenue added afterwards, and the new holder
// inherits entitlement to earlier deposits net of amounts already claimed.
package revenue

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/bits"
	"sync"

	"github.com/knowscroll/libknowscroll-go/asset"
	"github.com/knowscroll/libknowscroll-go/event"
	"github.com/knowscroll/libknowscroll-go/ledger"
)

const (
	// BpsDenominator is the basis-point denominator for fee math.
	BpsDenominator = 10000

	// MaxFeeBps caps the platform fee at 10%.
	MaxFeeBps = 1000

	// DefaultFeeBps is the default platform fee (5%).
	DefaultFeeBps = 500
)

// Options configures a revenue Engine.
type Options struct {
	Ledger       ledger.Ledger  // required
	Bank         asset.Bank     // required
	Store        AccountStore   // defaults to a new MemAccountStore
	Account      ledger.Address // required: the engine's own bank account
	Admin        ledger.Address // required: may change fee parameters
	FeeRecipient ledger.Address // required
	FeeBps       uint64         // defaults to DefaultFeeBps; 0 means default
	Bus          *event.Bus     // optional
	Logger       *slog.Logger   // optional
}

// Engine collects revenue per channel and asset and lets shareholders
// withdraw their proportional, fee-adjusted share exactly once per unit of
// revenue. All operations serialize on an internal mutex, reproducing the
// serialized-transaction substrate the accounting model assumes.
type Engine struct {
	mu           sync.Mutex
	ledger       ledger.Ledger
	bank         asset.Bank
	store        AccountStore
	account      ledger.Address
	admin        ledger.Address
	feeRecipient ledger.Address
	feeBps       uint64
	bus          *event.Bus
	logger       *slog.Logger
}

// New creates a revenue Engine.
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
		store = NewMemAccountStore()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
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
	}, nil
}

// Account returns the engine's bank account address.
func (e *Engine) Account() ledger.Address { return e.account }

// FeeBps returns the current platform fee in basis points.
func (e *Engine) FeeBps() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.feeBps
}

// FeeRecipient returns the current platform fee recipient.
func (e *Engine) FeeRecipient() ledger.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.feeRecipient
}

// AddRevenue accepts amount of assetID from payer for a channel, pays the
// platform fee to the fee recipient, and credits the remainder (including
// any division remainder) to the channel's revenue account.
func (e *Engine) AddRevenue(ctx context.Context, payer ledger.Address, channelID uint64, assetID asset.ID, amount uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if amount == 0 {
		return ErrInvalidAmount
	}
	if assetID == "" {
		return asset.ErrInvalidAsset
	}
	total, err := e.ledger.TotalShares(ctx, channelID)
	if err != nil {
		return fmt.Errorf("revenue: total shares: %w", err)
	}
	if total == 0 {
		return fmt.Errorf("%w: channel %d", ErrInvalidChannel, channelID)
	}

	fee := mulDiv(amount, e.feeBps, BpsDenominator)
	net := amount - fee

	// Pull the full amount into the engine account first; for token assets
	// this requires the payer's prior approval.
	if err := e.bank.TransferFrom(ctx, assetID, e.account, payer, e.account, amount); err != nil {
		return fmt.Errorf("revenue: collect payment: %w", err)
	}

	deposited, err := e.store.Deposited(channelID, assetID)
	if err != nil {
		e.refund(ctx, assetID, payer, amount)
		return fmt.Errorf("revenue: read deposits: %w", err)
	}
	if err := e.store.RegisterAsset(channelID, assetID); err != nil {
		e.refund(ctx, assetID, payer, amount)
		return fmt.Errorf("revenue: register asset: %w", err)
	}
	if err := e.store.SetDeposited(channelID, assetID, deposited+net); err != nil {
		e.refund(ctx, assetID, payer, amount)
		return fmt.Errorf("revenue: record deposit: %w", err)
	}

	if fee > 0 {
		if err := e.bank.Transfer(ctx, assetID, e.account, e.feeRecipient, fee); err != nil {
			// Undo the deposit record and return the funds.
			_ = e.store.SetDeposited(channelID, assetID, deposited)
			e.refund(ctx, assetID, payer, amount)
			return fmt.Errorf("revenue: pay platform fee: %w", err)
		}
	}

	e.logger.Debug(
		"revenue added",
		"channel", channelID,
		"asset", assetID,
		"gross", amount,
		"fee", fee,
		"net", net,
	)
	e.publish(TypeRevenueAdded, RevenueAdded{
		ChannelID: channelID,
		Asset:     assetID,
		Payer:     payer,
		Gross:     amount,
		Fee:       fee,
		Net:       net,
	})
	return nil
}

// Claimable returns the amount of assetID the holder could claim for a
// channel right now: floor(deposited * balance / totalShares) minus what the
// holder already claimed, clamped at zero.
func (e *Engine) Claimable(ctx context.Context, channelID uint64, assetID asset.ID, holder ledger.Address) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.claimableLocked(ctx, channelID, assetID, holder)
}

func (e *Engine) claimableLocked(ctx context.Context, channelID uint64, assetID asset.ID, holder ledger.Address) (uint64, error) {
	deposited, err := e.store.Deposited(channelID, assetID)
	if err != nil {
		return 0, fmt.Errorf("revenue: read deposits: %w", err)
	}
	if deposited == 0 {
		return 0, nil
	}
	total, err := e.ledger.TotalShares(ctx, channelID)
	if err != nil {
		return 0, fmt.Errorf("revenue: total shares: %w", err)
	}
	balance, err := e.ledger.BalanceOf(ctx, holder, channelID)
	if err != nil {
		return 0, fmt.Errorf("revenue: balance: %w", err)
	}
	if total == 0 || balance == 0 {
		return 0, nil
	}

	entitled := mulDiv(deposited, balance, total)
	claimed, err := e.store.Claimed(channelID, assetID, holder)
	if err != nil {
		return 0, fmt.Errorf("revenue: read claims: %w", err)
	}
	// Claimed can exceed the formula after the holder transfers shares away;
	// the result clamps at zero, never underflows.
	if claimed >= entitled {
		return 0, nil
	}
	return entitled - claimed, nil
}

// Claim withdraws the holder's full claimable amount of assetID for a
// channel. The claim record is written before the payout so a failure or
// reentrant call during the transfer cannot claim twice.
func (e *Engine) Claim(ctx context.Context, holder ledger.Address, channelID uint64, assetID asset.ID) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	amount, err := e.claimLocked(ctx, holder, channelID, assetID)
	if err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, ErrNothingToClaim
	}
	return amount, nil
}

// claimLocked performs a single-asset claim and returns the amount paid out,
// zero (without error) when nothing is claimable.
func (e *Engine) claimLocked(ctx context.Context, holder ledger.Address, channelID uint64, assetID asset.ID) (uint64, error) {
	amount, err := e.claimableLocked(ctx, channelID, assetID, holder)
	if err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, nil
	}

	claimed, err := e.store.Claimed(channelID, assetID, holder)
	if err != nil {
		return 0, fmt.Errorf("revenue: read claims: %w", err)
	}
	if err := e.store.SetClaimed(channelID, assetID, holder, claimed+amount); err != nil {
		return 0, fmt.Errorf("revenue: record claim: %w", err)
	}
	if err := e.bank.Transfer(ctx, assetID, e.account, holder, amount); err != nil {
		_ = e.store.SetClaimed(channelID, assetID, holder, claimed)
		return 0, fmt.Errorf("revenue: pay claim: %w", err)
	}

	e.logger.Debug(
		"revenue claimed",
		"channel", channelID,
		"asset", assetID,
		"holder", holder,
		"amount", amount,
	)
	e.publish(TypeRevenueClaimed, RevenueClaimed{
		ChannelID: channelID,
		Asset:     assetID,
		Holder:    holder,
		Amount:    amount,
	})
	return amount, nil
}

// ClaimAll claims the holder's revenue across every asset the channel has
// received, skipping assets with nothing claimable. It fails with
// ErrNothingToClaim only when the aggregate claimable is zero.
func (e *Engine) ClaimAll(ctx context.Context, holder ledger.Address, channelID uint64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	assets, err := e.store.Assets(channelID)
	if err != nil {
		return 0, fmt.Errorf("revenue: list assets: %w", err)
	}

	var total uint64
	for _, assetID := range assets {
		amount, err := e.claimLocked(ctx, holder, channelID, assetID)
		if err != nil {
			return total, fmt.Errorf("asset %q: %w", assetID, err)
		}
		total += amount
	}
	if total == 0 {
		return 0, ErrNothingToClaim
	}
	return total, nil
}

// SupportedAssets returns every asset that has received revenue on a channel.
func (e *Engine) SupportedAssets(channelID uint64) ([]asset.ID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Assets(channelID)
}

// TotalDeposited returns the cumulative net revenue for a channel and asset.
func (e *Engine) TotalDeposited(channelID uint64, assetID asset.ID) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Deposited(channelID, assetID)
}

// SetFeeBps updates the platform fee. Only the administrator may call it and
// the fee must stay at or below MaxFeeBps.
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

// SetFeeRecipient updates the platform fee recipient. Only the administrator
// may call it; the zero address is rejected.
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

// refund returns collected funds to the payer after a failed operation.
func (e *Engine) refund(ctx context.Context, assetID asset.ID, payer ledger.Address, amount uint64) {
	if err := e.bank.Transfer(ctx, assetID, e.account, payer, amount); err != nil {
		e.logger.Error(
			"refund failed",
			"asset", assetID,
			"payer", payer,
			"amount", amount,
			"error", err,
		)
	}
}

func (e *Engine) publish(eventType event.Type, data any) {
	if e.bus != nil {
		e.bus.Publish(eventType, event.New(eventType, data))
	}
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
