package models

import (
	"time"

	"github.com/uptrace/bun"
)

// InsuranceTier is the purchased protection level.
type InsuranceTier string

const (
	InsuranceNone   InsuranceTier = "none"
	InsuranceBronze InsuranceTier = "bronze"
	InsuranceSilver InsuranceTier = "silver"
	InsuranceGold   InsuranceTier = "gold"
)

// Valid reports whether t is a known tier.
func (t InsuranceTier) Valid() bool {
	switch t {
	case InsuranceNone, InsuranceBronze, InsuranceSilver, InsuranceGold:
		return true
	}
	return false
}

type InsurancePolicy struct {
	bun.BaseModel `bun:"table:insurance_policies,alias:ip"`

	AccountID         int64         `bun:"account_id,pk"`
	Tier              InsuranceTier `bun:"tier,notnull,default:'none'"`
	LastPremiumPaidAt time.Time     `bun:"last_premium_paid_at,nullzero"`
	CreatedAt         time.Time     `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt         time.Time     `bun:"updated_at,notnull"`
}

// Current reports whether the policy's protection applies at now: last
// premium paid within one billing period plus the grace window. A policy
// whose premium lapsed is treated as tier none even before downgrade.
func (p *InsurancePolicy) Current(now time.Time, billingPeriod, grace time.Duration) bool {
	if p.Tier == InsuranceNone || p.LastPremiumPaidAt.IsZero() {
		return false
	}
	return now.Sub(p.LastPremiumPaidAt) <= billingPeriod+grace
}
