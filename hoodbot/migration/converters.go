package migration

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hoodline/hoodbot/hoodbot/database/models"
	"github.com/hoodline/hoodbot/hoodbot/game/progression"
)

func (m *Migrator) convertPlayer(mp MongoPlayer) *models.Account {
	now := time.Now()

	exp := int64(mp.Exp)
	level := int(mp.Level)
	if level < 1 {
		level = progression.LevelForExperience(exp)
	}

	return &models.Account{
		Username:    cleanseString(mp.Name),
		DisplayName: cleanseString(mp.Name),
		DiscordID:   mp.DiscordID,
		KickID:      mp.KickID,
		TwitchID:    mp.TwitchID,
		Wealth:      int64(mp.Cash) + int64(mp.Bank),
		Experience:  exp,
		Level:       level,
		Tier:        progression.TierForLevel(level).String(),
		Faction:     cleanseString(mp.Faction),
		JailedUntil: mp.JailUntil,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (m *Migrator) convertPlayerStats(accountID int64, ms MongoPlayerStats) *models.PlayerStats {
	return &models.PlayerStats{
		AccountID:        accountID,
		RobAttempts:      int64(ms.Robs),
		RobSuccesses:     int64(ms.RobWins),
		WealthStolen:     int64(ms.Stolen),
		WealthLost:       int64(ms.Lost),
		TimesRobbed:      int64(ms.Robbed),
		TimesDefended:    int64(ms.Defended),
		ExperienceEarned: int64(ms.TotalExp),
		UpdatedAt:        time.Now(),
	}
}

// convertProtection maps the legacy protection field onto an insurance
// policy row. Unknown tier strings import as no coverage.
func (m *Migrator) convertProtection(accountID int64, mp MongoPlayer) *models.InsurancePolicy {
	tier := models.InsuranceTier(strings.ToLower(mp.Protection))
	if !tier.Valid() {
		tier = models.InsuranceNone
	}
	now := time.Now()
	return &models.InsurancePolicy{
		AccountID:         accountID,
		Tier:              tier,
		LastPremiumPaidAt: mp.ProtPaidAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (m *Migrator) convertGear(accountID int64, mg MongoGearItem) *models.EquipmentItem {
	now := time.Now()

	durability := int(mg.Durability)
	if durability < 0 {
		durability = 0
	}
	if durability > models.MaxDurability {
		durability = models.MaxDurability
	}

	tier := int(mg.Tier)
	if tier < 1 {
		tier = 1
	}

	item := &models.EquipmentItem{
		AccountID:       accountID,
		Name:            cleanseString(mg.Name),
		Slot:            convertGearType(mg.Type),
		Tier:            tier,
		CombatBonus:     int(mg.Power),
		ProtectionBonus: mg.Protection,
		Durability:      durability,
		Equipped:        mg.Equipped,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if !mg.Obtained.IsZero() {
		item.CreatedAt = mg.Obtained
	}
	return item
}

func convertGearType(t string) models.EquipmentSlot {
	switch strings.ToLower(t) {
	case "weapon", "gun", "knife":
		return models.SlotWeapon
	case "armor", "vest":
		return models.SlotArmor
	case "business":
		return models.SlotBusiness
	case "housing", "house", "crib":
		return models.SlotHousing
	}
	return models.SlotNone
}

// cleanseString removes null bytes and control characters that the legacy
// store let through.
func cleanseString(s string) string {
	if s == "" {
		return ""
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r == 0 || (r < 32 && r != 9 && r != 10 && r != 13) {
			continue
		}
		result.WriteRune(r)
	}
	return strings.TrimSpace(result.String())
}
