package robbery

import (
	"math"
	"math/rand"
	"time"

	"github.com/hoodline/hoodbot/hoodbot/database/models"
)

// Snapshot is the state a single robbery is resolved against. Everything
// here is read fresh per request; in particular the insurance policy must
// not be cached across requests, since a lapse can happen between the
// preview and the attack.
type Snapshot struct {
	Attacker *models.Account
	Defender *models.Account

	AttackerWeapon *models.EquipmentItem // nil when nothing effective equipped
	DefenderArmor  *models.EquipmentItem

	// DefenderEquipped is the item-theft candidate pool.
	DefenderEquipped []*models.EquipmentItem

	DefenderPolicy *models.InsurancePolicy

	Now time.Time
}

// Resolver rolls outcomes. The roll source is injectable so tests can force
// success, failure, steal fractions and item thefts.
type Resolver struct {
	cfg  *Config
	roll func() float64
}

func NewResolver(cfg *Config) *Resolver {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Resolver{cfg: cfg, roll: rng.Float64}
}

// NewResolverWithRoll builds a resolver with a fixed roll source.
func NewResolverWithRoll(cfg *Config, roll func() float64) *Resolver {
	return &Resolver{cfg: cfg, roll: roll}
}

// Rate computes the success probability for the snapshot without rolling.
// Used by the precheck preview.
func (r *Resolver) Rate(s Snapshot) float64 {
	return SuccessRate(r.cfg, r.rateInput(s))
}

func (r *Resolver) rateInput(s Snapshot) RateInput {
	in := RateInput{
		AttackerLevel:       s.Attacker.Level,
		DefenderLevel:       s.Defender.Level,
		AttackerFactionMult: r.cfg.FactionMultiplier(s.Attacker.Faction),
		DefenderFactionMult: r.cfg.FactionMultiplier(s.Defender.Faction),
		AttackerBoostMult:   s.Attacker.AttackMultiplier(s.Now),
		DefenderBoostMult:   s.Defender.DefenseMultiplier(s.Now),
	}
	if s.AttackerWeapon != nil && s.AttackerWeapon.Effective() {
		in.WeaponBonus = s.AttackerWeapon.CombatBonus
	}
	if s.DefenderArmor != nil && s.DefenderArmor.Effective() {
		in.ArmorBonus = s.DefenderArmor.CombatBonus
	}
	return in
}

// Resolve rolls one robbery: success check, steal amount, insurance payout
// and the independent item-theft check. It mutates nothing.
func (r *Resolver) Resolve(s Snapshot) *Outcome {
	rate := r.Rate(s)

	out := &Outcome{
		AttackerID:  s.Attacker.ID,
		DefenderID:  s.Defender.ID,
		SuccessRate: rate,
	}

	out.Success = r.roll() < rate
	if !out.Success {
		out.ExperienceDelta = r.cfg.FailureExperience
		return out
	}

	out.ExperienceDelta = r.cfg.SuccessExperience

	fraction := r.cfg.StealFractionMin + r.roll()*(r.cfg.StealFractionMax-r.cfg.StealFractionMin)
	out.GrossStolen = int64(math.Floor(fraction * float64(s.Defender.Wealth)))

	protection := r.effectiveProtection(s)
	out.InsurancePayout = int64(math.Floor(float64(out.GrossStolen) * protection))
	out.NetStolen = out.GrossStolen - out.InsurancePayout

	if r.roll() < r.cfg.ItemTheftChance {
		out.StolenItem = r.pickStolenItem(s.DefenderEquipped)
	}

	return out
}

// effectiveProtection is the higher of the current policy's fraction and
// the best legacy per-item protection bonus on effective gear.
func (r *Resolver) effectiveProtection(s Snapshot) float64 {
	var policy float64
	if s.DefenderPolicy != nil &&
		s.DefenderPolicy.Current(s.Now, r.cfg.Insurance.BillingPeriod, r.cfg.Insurance.Grace) {
		policy = r.cfg.Insurance.Fraction(s.DefenderPolicy.Tier)
	}

	var legacy float64
	for _, item := range s.DefenderEquipped {
		if item.Effective() && item.ProtectionBonus > legacy {
			legacy = item.ProtectionBonus
		}
	}

	return clamp(math.Max(policy, legacy), 0, 1)
}

// pickStolenItem chooses uniformly among currently equipped items.
// Unequipped inventory is never stolen.
func (r *Resolver) pickStolenItem(equipped []*models.EquipmentItem) *models.EquipmentItem {
	candidates := make([]*models.EquipmentItem, 0, len(equipped))
	for _, item := range equipped {
		if item.Effective() {
			candidates = append(candidates, item)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	idx := int(r.roll() * float64(len(candidates)))
	if idx >= len(candidates) {
		idx = len(candidates) - 1
	}
	return candidates[idx]
}
