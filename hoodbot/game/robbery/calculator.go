package robbery

import "math"

// RateInput is everything the success-rate formula looks at. Values come
// from a snapshot taken at resolution time; the calculator itself does no
// I/O and no randomness so it can be tested against fixed inputs.
type RateInput struct {
	AttackerLevel int
	DefenderLevel int

	// Combat bonuses from currently effective equipment only.
	WeaponBonus int
	ArmorBonus  int

	// Faction and consumable multipliers, 1.0 when absent.
	AttackerFactionMult float64
	DefenderFactionMult float64
	AttackerBoostMult   float64
	DefenderBoostMult   float64
}

// SuccessRate computes the probability that a robbery with the given input
// succeeds. The level difference contributes with diminishing returns, gear
// shifts the rate linearly, and the combined attack/defense multipliers
// scale the result before clamping into [MinRate, MaxRate].
func SuccessRate(cfg *Config, in RateInput) float64 {
	diff := float64(in.AttackerLevel - in.DefenderLevel)

	// diff/(|diff|+softcap) approaches ±1 asymptotically, so outleveling a
	// target helps less and less the bigger the gap gets.
	base := cfg.BaseRate + cfg.LevelSwing*diff/(math.Abs(diff)+cfg.LevelSoftCap)

	base += float64(in.WeaponBonus-in.ArmorBonus) / cfg.BonusNormalizer

	attack := nonZero(in.AttackerFactionMult) * nonZero(in.AttackerBoostMult)
	defense := nonZero(in.DefenderFactionMult) * nonZero(in.DefenderBoostMult)

	return clamp(base*attack/defense, cfg.MinRate, cfg.MaxRate)
}

func nonZero(m float64) float64 {
	if m <= 0 {
		return 1.0
	}
	return m
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
