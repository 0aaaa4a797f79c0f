package config

import (
	"fmt"
	"strings"

	"github.com/knowscroll/libknowscroll-go/governance"
	"github.com/knowscroll/libknowscroll-go/ledger"
	"github.com/knowscroll/libknowscroll-go/market"
	"github.com/knowscroll/libknowscroll-go/revenue"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if cfg.PlatformFeeBps > revenue.MaxFeeBps {
		return fmt.Errorf("%w: %d", ErrPlatformFeeTooHigh, cfg.PlatformFeeBps)
	}
	if cfg.MarketFeeBps > market.MaxFeeBps {
		return fmt.Errorf("%w: %d", ErrMarketFeeTooHigh, cfg.MarketFeeBps)
	}

	recipient, err := ledger.ParseAddress(cfg.FeeRecipient)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFeeRecipient, err)
	}
	if recipient.IsZero() {
		return ErrInvalidFeeRecipient
	}

	if cfg.ProposalThresholdBps == 0 || cfg.ProposalThresholdBps > governance.BpsDenominator {
		return fmt.Errorf("%w: %d", ErrInvalidThreshold, cfg.ProposalThresholdBps)
	}
	if cfg.VotingPeriod < governance.MinVotingPeriod || cfg.VotingPeriod > governance.MaxVotingPeriod {
		return fmt.Errorf("%w: %s", ErrInvalidVotingPeriod, cfg.VotingPeriod)
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	return nil
}
