package governance

import "errors"

var (
	// ErrInvalidChannel indicates the channel has no shares outstanding.
	ErrInvalidChannel = errors.New("governance: channel has no shares")

	// ErrBelowThreshold indicates the proposer holds too small a share of the channel.
	ErrBelowThreshold = errors.New("governance: share of channel below proposal threshold")

	// ErrInvalidDuration indicates the voting window is outside the allowed bounds.
	ErrInvalidDuration = errors.New("governance: invalid voting duration")

	// ErrEmptyDescription indicates a proposal without a description.
	ErrEmptyDescription = errors.New("governance: description must not be empty")

	// ErrProposalNotFound indicates no proposal exists with the given id.
	ErrProposalNotFound = errors.New("governance: proposal not found")

	// ErrAlreadyVoted indicates the holder already voted on this proposal.
	ErrAlreadyVoted = errors.New("governance: already voted")

	// ErrVotingClosed indicates the proposal's voting window has ended.
	ErrVotingClosed = errors.New("governance: voting window closed")

	// ErrVotingOpen indicates the proposal's voting window has not ended yet.
	ErrVotingOpen = errors.New("governance: voting window still open")

	// ErrNoVotingPower indicates the voter holds no shares of the channel.
	ErrNoVotingPower = errors.New("governance: no voting power")

	// ErrAlreadyExecuted indicates the proposal was already executed.
	ErrAlreadyExecuted = errors.New("governance: proposal already executed")

	// ErrNilParam indicates a required dependency or parameter is nil.
	ErrNilParam = errors.New("governance: nil parameter")
)
