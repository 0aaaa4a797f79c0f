// Package governance implements threshold-gated proposal voting for
// channels. It reuses the marketplace's weighting rule: a vote weighs the
// voter's current share balance, looked up on the ownership ledger at vote
// time.
package governance

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/bits"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/knowscroll/libknowscroll-go/event"
	"github.com/knowscroll/libknowscroll-go/ledger"
)

const (
	// BpsDenominator is the basis-point denominator for threshold math.
	BpsDenominator = 10000

	// DefaultThresholdBps is the default share of a channel required to
	// open a proposal (5%).
	DefaultThresholdBps = 500

	// MinVotingPeriod and MaxVotingPeriod bound a proposal's window.
	MinVotingPeriod = time.Hour
	MaxVotingPeriod = 30 * 24 * time.Hour
)

// Event types published by the governance engine.
const (
	TypeProposalCreated  event.Type = "governance.proposal_created"
	TypeVoteCast         event.Type = "governance.vote_cast"
	TypeProposalExecuted event.Type = "governance.proposal_executed"
)

// ProposalCreated is the payload of a TypeProposalCreated event.
type ProposalCreated struct {
	ProposalID uint64
	ChannelID  uint64
	Proposer   ledger.Address
}

// VoteCast is the payload of a TypeVoteCast event.
type VoteCast struct {
	ProposalID uint64
	Voter      ledger.Address
	Support    bool
	Weight     uint64
}

// ProposalExecuted is the payload of a TypeProposalExecuted event.
type ProposalExecuted struct {
	ProposalID uint64
	Passed     bool
}

// Options configures a governance Engine.
type Options struct {
	Ledger       ledger.Ledger   // required
	Store        ProposalStore   // defaults to a new MemProposalStore
	ThresholdBps uint64          // defaults to DefaultThresholdBps; 0 means default
	Bus          *event.Bus      // optional
	Logger       *slog.Logger    // optional
	Clock        clockwork.Clock // defaults to the real clock
}

// Engine manages channel proposals and votes.
type Engine struct {
	mu           sync.Mutex
	ledger       ledger.Ledger
	store        ProposalStore
	thresholdBps uint64
	bus          *event.Bus
	logger       *slog.Logger
	clock        clockwork.Clock
}

// New creates a governance Engine.
func New(opts Options) (*Engine, error) {
	if opts.Ledger == nil {
		return nil, fmt.Errorf("%w: ledger", ErrNilParam)
	}
	store := opts.Store
	if store == nil {
		store = NewMemProposalStore()
	}
	thresholdBps := opts.ThresholdBps
	if thresholdBps == 0 {
		thresholdBps = DefaultThresholdBps
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
		store:        store,
		thresholdBps: thresholdBps,
		bus:          opts.Bus,
		logger:       logger,
		clock:        clock,
	}, nil
}

// Propose opens a proposal on a channel. The proposer must hold at least the
// threshold share of the channel's total shares.
func (e *Engine) Propose(ctx context.Context, proposer ledger.Address, channelID uint64, description, contentRef string, duration time.Duration) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if description == "" {
		return 0, ErrEmptyDescription
	}
	if duration < MinVotingPeriod || duration > MaxVotingPeriod {
		return 0, fmt.Errorf("%w: %s", ErrInvalidDuration, duration)
	}
	total, err := e.ledger.TotalShares(ctx, channelID)
	if err != nil {
		return 0, fmt.Errorf("governance: total shares: %w", err)
	}
	if total == 0 {
		return 0, fmt.Errorf("%w: channel %d", ErrInvalidChannel, channelID)
	}
	balance, err := e.ledger.BalanceOf(ctx, proposer, channelID)
	if err != nil {
		return 0, fmt.Errorf("governance: balance: %w", err)
	}
	if mulDiv(balance, BpsDenominator, total) < e.thresholdBps {
		return 0, fmt.Errorf("%w: hold %d of %d shares, need %d bps", ErrBelowThreshold, balance, total, e.thresholdBps)
	}

	id, err := e.store.NextID()
	if err != nil {
		return 0, err
	}
	now := e.clock.Now()
	p := &Proposal{
		ID:          id,
		ChannelID:   channelID,
		Proposer:    proposer,
		Description: description,
		ContentRef:  contentRef,
		StartsAt:    now,
		EndsAt:      now.Add(duration),
	}
	if err := e.store.Put(p); err != nil {
		return 0, err
	}

	e.logger.Debug("proposal created", "proposal", id, "channel", channelID, "proposer", proposer)
	e.publish(TypeProposalCreated, ProposalCreated{
		ProposalID: id,
		ChannelID:  channelID,
		Proposer:   proposer,
	})
	return id, nil
}

// Vote casts the voter's full current share balance for or against a
// proposal. Each holder votes at most once per proposal.
func (e *Engine) Vote(ctx context.Context, voter ledger.Address, proposalID uint64, support bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.store.Get(proposalID)
	if err != nil {
		return err
	}
	if !e.clock.Now().Before(p.EndsAt) {
		return fmt.Errorf("%w: proposal %d", ErrVotingClosed, proposalID)
	}
	voted, err := e.store.HasVoted(proposalID, voter)
	if err != nil {
		return err
	}
	if voted {
		return fmt.Errorf("%w: proposal %d", ErrAlreadyVoted, proposalID)
	}
	weight, err := e.ledger.BalanceOf(ctx, voter, p.ChannelID)
	if err != nil {
		return fmt.Errorf("governance: balance: %w", err)
	}
	if weight == 0 {
		return ErrNoVotingPower
	}

	if support {
		p.ForVotes += weight
	} else {
		p.AgainstVotes += weight
	}
	if err := e.store.RecordVote(proposalID, voter); err != nil {
		return err
	}
	if err := e.store.Put(p); err != nil {
		return err
	}

	e.logger.Debug("vote cast", "proposal", proposalID, "voter", voter, "support", support, "weight", weight)
	e.publish(TypeVoteCast, VoteCast{
		ProposalID: proposalID,
		Voter:      voter,
		Support:    support,
		Weight:     weight,
	})
	return nil
}

// Execute finalizes a proposal after its voting window closes. The proposal
// passes when the weight for exceeds the weight against. Execution happens
// at most once.
func (e *Engine) Execute(proposalID uint64) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.store.Get(proposalID)
	if err != nil {
		return false, err
	}
	if p.Executed {
		return false, fmt.Errorf("%w: proposal %d", ErrAlreadyExecuted, proposalID)
	}
	if e.clock.Now().Before(p.EndsAt) {
		return false, fmt.Errorf("%w: proposal %d ends at %s", ErrVotingOpen, proposalID, p.EndsAt)
	}

	p.Executed = true
	p.Passed = p.ForVotes > p.AgainstVotes
	if err := e.store.Put(p); err != nil {
		return false, err
	}

	e.logger.Debug("proposal executed", "proposal", proposalID, "passed", p.Passed)
	e.publish(TypeProposalExecuted, ProposalExecuted{
		ProposalID: proposalID,
		Passed:     p.Passed,
	})
	return p.Passed, nil
}

// GetProposal returns a proposal by id.
func (e *Engine) GetProposal(id uint64) (*Proposal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Get(id)
}

// ProposalsByChannel returns all proposals for a channel in id order.
func (e *Engine) ProposalsByChannel(channelID uint64) ([]*Proposal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.ByChannel(channelID)
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
