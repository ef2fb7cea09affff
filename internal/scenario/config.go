// Package scenario loads scripted price paths and drives the simulator
// through them. The report, publisher and server layers consume its results;
// none of them touch the core directly.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"VaultUSD/internal/state"
)

// Config is a scripted scenario document.
type Config struct {
	Name         string      `yaml:"name"`
	InitialPrice float64     `yaml:"initial_price"`
	Risk         *RiskConfig `yaml:"risk"`
	Vaults       []VaultSpec `yaml:"vaults"`
	Prices       []float64   `yaml:"prices"`
}

// RiskConfig optionally overrides the default thresholds.
type RiskConfig struct {
	MinCollateralRatio   float64 `yaml:"min_collateral_ratio"`
	LiquidationThreshold float64 `yaml:"liquidation_threshold"`
}

// VaultSpec describes a vault opened before the price path starts.
type VaultSpec struct {
	Owner      string  `yaml:"owner"`
	Collateral float64 `yaml:"collateral"`
	Liability  float64 `yaml:"liability"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", cfg.Name, err)
	}
	return &cfg, nil
}

// Validate rejects documents the core would refuse mid-run. The core never
// clamps or coerces invalid values, so the scenario layer fails fast instead.
func (c *Config) Validate() error {
	if c.InitialPrice <= 0 {
		return fmt.Errorf("initial_price must be > 0, got %v", c.InitialPrice)
	}
	if err := c.RiskParams().Validate(); err != nil {
		return err
	}
	for i, v := range c.Vaults {
		if v.Owner == "" {
			return fmt.Errorf("vaults[%d]: owner is required", i)
		}
		if v.Collateral < 0 {
			return fmt.Errorf("vaults[%d]: negative collateral %v", i, v.Collateral)
		}
		if v.Liability < 0 {
			return fmt.Errorf("vaults[%d]: negative liability %v", i, v.Liability)
		}
	}
	for i, p := range c.Prices {
		if p <= 0 {
			return fmt.Errorf("prices[%d] must be > 0, got %v", i, p)
		}
	}
	return nil
}

// RiskParams returns the configured thresholds, or the defaults when the
// document has no risk section.
func (c *Config) RiskParams() state.RiskParams {
	if c.Risk == nil {
		return state.DefaultRiskParams()
	}
	return state.RiskParams{
		MinCollateralRatio:   c.Risk.MinCollateralRatio,
		LiquidationThreshold: c.Risk.LiquidationThreshold,
	}
}

// PriceShock is the built-in reference scenario: three vaults opened at 200%
// health, then a staged collapse of the collateral price.
func PriceShock() *Config {
	return &Config{
		Name:         "price-shock",
		InitialPrice: 2000,
		Vaults: []VaultSpec{
			{Owner: "user1", Collateral: 10, Liability: 10000},
			{Owner: "user2", Collateral: 5, Liability: 5000},
			{Owner: "user3", Collateral: 3, Liability: 3000},
		},
		Prices: []float64{2000, 1800, 1600, 1400, 1200, 1000, 800},
	}
}
