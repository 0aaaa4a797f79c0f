package governance

import (
	"sync"
	"time"

	"github.com/knowscroll/libknowscroll-go/ledger"
)

// Proposal is a channel governance proposal. Vote weight is the voter's
// share balance at vote time, one vote per holder per proposal.
type Proposal struct {
	ID           uint64
	ChannelID    uint64
	Proposer     ledger.Address
	Description  string
	ContentRef   string // reference to the proposed content change
	StartsAt     time.Time
	EndsAt       time.Time
	ForVotes     uint64
	AgainstVotes uint64
	Executed     bool
	Passed       bool
}

// ProposalStore persists proposals and per-holder vote records.
type ProposalStore interface {
	// NextID allocates the next proposal id.
	NextID() (uint64, error)

	// Put stores or overwrites a proposal keyed by its id.
	Put(p *Proposal) error

	// Get retrieves a proposal by id, ErrProposalNotFound if absent.
	Get(id uint64) (*Proposal, error)

	// HasVoted reports whether a holder has voted on a proposal.
	HasVoted(proposalID uint64, voter ledger.Address) (bool, error)

	// RecordVote marks a holder as having voted on a proposal.
	RecordVote(proposalID uint64, voter ledger.Address) error

	// ByChannel returns all proposals for a channel in id order.
	ByChannel(channelID uint64) ([]*Proposal, error)
}

type voteKey struct {
	proposalID uint64
	voter      ledger.Address
}

// MemProposalStore is an in-memory ProposalStore.
type MemProposalStore struct {
	mu        sync.RWMutex
	proposals map[uint64]*Proposal
	votes     map[voteKey]struct{}
	lastID    uint64
}

// Compile-time interface check.
var _ ProposalStore = (*MemProposalStore)(nil)

// NewMemProposalStore creates an empty in-memory proposal store.
func NewMemProposalStore() *MemProposalStore {
	return &MemProposalStore{
		proposals: make(map[uint64]*Proposal),
		votes:     make(map[voteKey]struct{}),
	}
}

// NextID allocates the next proposal id.
func (s *MemProposalStore) NextID() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	return s.lastID, nil
}

// Put stores or overwrites a proposal keyed by its id.
func (s *MemProposalStore) Put(p *Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.proposals[p.ID] = &cp
	return nil
}

// Get retrieves a proposal by id.
func (s *MemProposalStore) Get(id uint64) (*Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.proposals[id]
	if !ok {
		return nil, ErrProposalNotFound
	}
	cp := *p
	return &cp, nil
}

// HasVoted reports whether a holder has voted on a proposal.
func (s *MemProposalStore) HasVoted(proposalID uint64, voter ledger.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.votes[voteKey{proposalID, voter}]
	return ok, nil
}

// RecordVote marks a holder as having voted on a proposal.
func (s *MemProposalStore) RecordVote(proposalID uint64, voter ledger.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes[voteKey{proposalID, voter}] = struct{}{}
	return nil
}

// ByChannel returns all proposals for a channel in id order.
func (s *MemProposalStore) ByChannel(channelID uint64) ([]*Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Proposal
	for id := uint64(1); id <= s.lastID; id++ {
		if p, ok := s.proposals[id]; ok && p.ChannelID == channelID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}
