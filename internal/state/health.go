package state

import (
	"fmt"
	"math"
)

// Default collateralization thresholds. New debt issuance is gated at 150%
// while existing vaults survive down to 110%, so there is a buffer zone where
// a vault is undercollateralized relative to the minting requirement but not
// yet seized.
const (
	MinCollateralRatio   = 1.5
	LiquidationThreshold = 1.1
)

// RiskParams defines the collateralization thresholds for a run.
type RiskParams struct {
	MinCollateralRatio   float64
	LiquidationThreshold float64
}

func DefaultRiskParams() RiskParams {
	return RiskParams{
		MinCollateralRatio:   MinCollateralRatio,
		LiquidationThreshold: LiquidationThreshold,
	}
}

// Validate checks threshold ordering: min_collateral_ratio > liquidation_threshold > 0.
func (p RiskParams) Validate() error {
	if p.LiquidationThreshold <= 0 {
		return fmt.Errorf("liquidation_threshold must be > 0, got %v", p.LiquidationThreshold)
	}
	if p.MinCollateralRatio <= p.LiquidationThreshold {
		return fmt.Errorf("min_collateral_ratio (%v) must be > liquidation_threshold (%v)",
			p.MinCollateralRatio, p.LiquidationThreshold)
	}
	return nil
}

// Health returns the vault's collateralization ratio at the given price.
// A vault with no liability is maximally healthy regardless of collateral.
func Health(v *Vault, price float64) float64 {
	if v.Liability == 0 {
		return math.Inf(1)
	}
	return v.Collateral * price / v.Liability
}

// IsAdequatelyCollateralized reports whether the vault meets the minting
// requirement at the given price.
func (p RiskParams) IsAdequatelyCollateralized(v *Vault, price float64) bool {
	return Health(v, price) >= p.MinCollateralRatio
}

// IsLiquidatable reports whether the vault is below the liquidation threshold.
// A vault with no liability is never liquidatable.
func (p RiskParams) IsLiquidatable(v *Vault, price float64) bool {
	return v.Liability > 0 && Health(v, price) < p.LiquidationThreshold
}
