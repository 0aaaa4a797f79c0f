// Package config holds the engine configuration shared by embedders: fee
// parameters, the governance threshold, and storage location. Values load
// from the environment under the KNOWSCROLL_ prefix and are validated before
// use.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config collects the tunable parameters for the revenue, market, and
// governance engines. Fee values are basis points (1/100 of a percent).
type Config struct {
	DataDir              string        `envconfig:"DATA_DIR" default:".knowscroll"`
	PlatformFeeBps       uint64        `envconfig:"PLATFORM_FEE_BPS" default:"500"`
	MarketFeeBps         uint64        `envconfig:"MARKET_FEE_BPS" default:"250"`
	FeeRecipient         string        `envconfig:"FEE_RECIPIENT"` // hex-encoded 20-byte address
	ProposalThresholdBps uint64        `envconfig:"PROPOSAL_THRESHOLD_BPS" default:"500"`
	VotingPeriod         time.Duration `envconfig:"VOTING_PERIOD" default:"72h"`
	LogLevel             string        `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from the environment (KNOWSCROLL_ prefix) and
// validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("knowscroll", &cfg); err != nil {
		return nil, fmt.Errorf("config: process environment: %w", err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
