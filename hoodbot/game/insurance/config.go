// Package insurance implements tiered loss protection: a purchased policy
// returns a fraction of wealth that would otherwise be stolen, as long as
// its daily premium keeps getting paid.
package insurance

import (
	"time"

	"github.com/hoodline/hoodbot/hoodbot/database/models"
)

// TierSpec is the price and strength of one protection tier.
type TierSpec struct {
	Fraction     float64 // fraction of stolen wealth returned to the victim
	DailyPremium int64
}

type Config struct {
	Tiers map[models.InsuranceTier]TierSpec

	// A policy is current while the last premium was paid within one
	// BillingPeriod plus Grace. Beyond that it pays out nothing, even if
	// the stored tier has not been downgraded yet.
	BillingPeriod time.Duration
	Grace         time.Duration
}

func DefaultConfig() Config {
	return Config{
		Tiers: map[models.InsuranceTier]TierSpec{
			models.InsuranceNone:   {Fraction: 0, DailyPremium: 0},
			models.InsuranceBronze: {Fraction: 0.15, DailyPremium: 500},
			models.InsuranceSilver: {Fraction: 0.30, DailyPremium: 2000},
			models.InsuranceGold:   {Fraction: 0.50, DailyPremium: 6000},
		},
		BillingPeriod: 24 * time.Hour,
		Grace:         6 * time.Hour,
	}
}

// Fraction returns the protection fraction for a tier, 0 for unknown tiers.
func (c *Config) Fraction(tier models.InsuranceTier) float64 {
	return c.Tiers[tier].Fraction
}

// Premium returns the daily premium for a tier.
func (c *Config) Premium(tier models.InsuranceTier) int64 {
	return c.Tiers[tier].DailyPremium
}
