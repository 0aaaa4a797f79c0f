package config

import "errors"

var (
	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrPlatformFeeTooHigh indicates the platform fee exceeds its ceiling.
	ErrPlatformFeeTooHigh = errors.New("config: platform fee exceeds 1000 bps")

	// ErrMarketFeeTooHigh indicates the marketplace fee exceeds its ceiling.
	ErrMarketFeeTooHigh = errors.New("config: market fee exceeds 1000 bps")

	// ErrInvalidFeeRecipient indicates the fee recipient is missing or malformed.
	ErrInvalidFeeRecipient = errors.New("config: invalid fee recipient address")

	// ErrInvalidThreshold indicates the proposal threshold is out of range.
	ErrInvalidThreshold = errors.New("config: proposal threshold must be between 1 and 10000 bps")

	// ErrInvalidVotingPeriod indicates the voting period is out of range.
	ErrInvalidVotingPeriod = errors.New("config: voting period out of range")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")
)
