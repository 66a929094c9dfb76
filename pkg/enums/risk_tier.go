package enums

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RiskTier is the user-selected conservatism level for payout forecasts.
type RiskTier string

const (
	RiskTierLow     RiskTier = "low"
	RiskTierMedium  RiskTier = "medium"
	RiskTierHigh    RiskTier = "high"
	RiskTierMaximum RiskTier = "maximum"
)

var validRiskTiers = []RiskTier{
	RiskTierLow,
	RiskTierMedium,
	RiskTierHigh,
	RiskTierMaximum,
}

var safetyMultipliers = map[RiskTier]decimal.Decimal{
	RiskTierLow:     decimal.RequireFromString("1.00"),
	RiskTierMedium:  decimal.RequireFromString("0.95"),
	RiskTierHigh:    decimal.RequireFromString("0.90"),
	RiskTierMaximum: decimal.RequireFromString("0.85"),
}

// IsValid reports whether the value matches the canonical tier enum.
func (r RiskTier) IsValid() bool {
	for _, candidate := range validRiskTiers {
		if candidate == r {
			return true
		}
	}
	return false
}

// SafetyMultiplier returns the haircut applied to seasonal forecasts.
// Unknown tiers behave like low risk.
func (r RiskTier) SafetyMultiplier() decimal.Decimal {
	if m, ok := safetyMultipliers[r]; ok {
		return m
	}
	return safetyMultipliers[RiskTierLow]
}

// ParseRiskTier converts raw input into RiskTier.
func ParseRiskTier(value string) (RiskTier, error) {
	for _, candidate := range validRiskTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid risk tier %q", value)
}
