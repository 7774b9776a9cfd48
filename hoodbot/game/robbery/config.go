package robbery

import (
	"time"

	"github.com/hoodline/hoodbot/hoodbot/game/insurance"
)

// Config holds every tunable of the robbery engine. Nothing in the
// calculator or resolver hard-codes a percentage; balance changes happen
// here.
type Config struct {
	// Success-rate curve
	MinRate         float64 // floor, keeps robberies never impossible
	MaxRate         float64 // ceiling, keeps robberies never guaranteed
	BaseRate        float64 // rate at equal levels with no gear
	LevelSwing      float64 // max contribution of the level difference
	LevelSoftCap    float64 // level diff at which half the swing is reached
	BonusNormalizer float64 // combat-bonus points per 100% rate shift

	// Loot
	StealFractionMin float64
	StealFractionMax float64
	ItemTheftChance  float64

	// Experience rewards. An attempt always pays something; success pays
	// more.
	SuccessExperience int64
	FailureExperience int64

	// Equipment wear per robbery
	WeaponDegradeStep int
	ArmorDegradeStep  int

	// Cooldown per (attacker, defender) pair
	Cooldown time.Duration

	// Inventory capacity and the escrow window for stolen items, which is
	// longer than the ordinary acquisition window.
	InventoryCapacity  int
	TheftEscrowTTL     time.Duration
	AcquisitionEscrowTTL time.Duration

	// FactionMultipliers keys faction name to its combat multiplier.
	// Unknown or empty factions count as 1.0.
	FactionMultipliers map[string]float64

	Insurance insurance.Config
}

// DefaultConfig returns the live tuning values.
func DefaultConfig() Config {
	return Config{
		MinRate:         0.05,
		MaxRate:         0.95,
		BaseRate:        0.50,
		LevelSwing:      0.25,
		LevelSoftCap:    10,
		BonusNormalizer: 200,

		StealFractionMin: 0.08,
		StealFractionMax: 0.28,
		ItemTheftChance:  0.05,

		SuccessExperience: 25,
		FailureExperience: 5,

		WeaponDegradeStep: 2,
		ArmorDegradeStep:  2,

		Cooldown: 24 * time.Hour,

		InventoryCapacity:    50,
		TheftEscrowTTL:       48 * time.Hour,
		AcquisitionEscrowTTL: 24 * time.Hour,

		FactionMultipliers: map[string]float64{
			"eastside":  1.05,
			"westside":  1.05,
			"syndicate": 1.10,
		},

		Insurance: insurance.DefaultConfig(),
	}
}

// FactionMultiplier resolves a faction name to its multiplier, 1.0 for
// unknown factions.
func (c *Config) FactionMultiplier(faction string) float64 {
	if m, ok := c.FactionMultipliers[faction]; ok && m > 0 {
		return m
	}
	return 1.0
}
