// Package progression holds the pure level and tier curves. Level and tier
// are derived from experience and must always be recomputed together; no
// other code is allowed to write them independently.
package progression

import "math"

// Tier is the coarse rank derived from level. It affects display and
// eligibility, not combat math.
type Tier int

const (
	TierRookie Tier = iota
	TierHustler
	TierEnforcer
	TierCapo
	TierBoss
	TierKingpin
)

var tierNames = [...]string{"rookie", "hustler", "enforcer", "capo", "boss", "kingpin"}

func (t Tier) String() string {
	if t < TierRookie || t > TierKingpin {
		return "rookie"
	}
	return tierNames[t]
}

// Display returns the human-facing tier name.
func (t Tier) Display() string {
	switch t {
	case TierHustler:
		return "Hustler"
	case TierEnforcer:
		return "Enforcer"
	case TierCapo:
		return "Capo"
	case TierBoss:
		return "Boss"
	case TierKingpin:
		return "Kingpin"
	default:
		return "Rookie"
	}
}

const expCurveBase = 100

// LevelForExperience maps total experience to a level via a monotonic
// square-root curve: level n requires 100*(n-1)^2 experience.
func LevelForExperience(exp int64) int {
	if exp <= 0 {
		return 1
	}
	return 1 + int(math.Sqrt(float64(exp)/expCurveBase))
}

// ExperienceForLevel is the inverse bound: the minimum experience at which
// the given level is reached.
func ExperienceForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	n := int64(level - 1)
	return expCurveBase * n * n
}

// Tier thresholds by level.
const (
	hustlerLevel  = 5
	enforcerLevel = 12
	capoLevel     = 20
	bossLevel     = 35
	kingpinLevel  = 50
)

// TierForLevel maps a level to its tier.
func TierForLevel(level int) Tier {
	switch {
	case level >= kingpinLevel:
		return TierKingpin
	case level >= bossLevel:
		return TierBoss
	case level >= capoLevel:
		return TierCapo
	case level >= enforcerLevel:
		return TierEnforcer
	case level >= hustlerLevel:
		return TierHustler
	default:
		return TierRookie
	}
}

// TierForExperience is the composed derivation used wherever experience
// changes.
func TierForExperience(exp int64) Tier {
	return TierForLevel(LevelForExperience(exp))
}
