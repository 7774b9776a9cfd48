package migration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoodline/hoodbot/hoodbot/database/models"
)

func TestConvertPlayer(t *testing.T) {
	m := &Migrator{}

	mp := MongoPlayer{
		DiscordID:  "123456789",
		KickID:     "k-55",
		Name:       "street\x00ghost",
		Cash:       1500,
		Bank:       8500,
		Exp:        40000,
		Level:      21,
		Faction:    "eastside",
		Protection: "Silver",
	}

	acc := m.convertPlayer(mp)
	assert.Equal(t, "streetghost", acc.Username)
	assert.Equal(t, "123456789", acc.DiscordID)
	assert.Equal(t, "k-55", acc.KickID)
	assert.Equal(t, int64(10000), acc.Wealth)
	assert.Equal(t, int64(40000), acc.Experience)
	assert.Equal(t, 21, acc.Level)
	assert.NotEmpty(t, acc.Tier)
}

func TestConvertPlayerDerivesLevel(t *testing.T) {
	m := &Migrator{}

	acc := m.convertPlayer(MongoPlayer{Name: "rookie", Exp: 0})
	assert.Equal(t, 1, acc.Level)
}

func TestConvertProtection(t *testing.T) {
	m := &Migrator{}

	paid := time.Now().Add(-2 * time.Hour)
	policy := m.convertProtection(7, MongoPlayer{Protection: "Gold", ProtPaidAt: paid})
	assert.Equal(t, int64(7), policy.AccountID)
	assert.Equal(t, models.InsuranceGold, policy.Tier)
	assert.Equal(t, paid, policy.LastPremiumPaidAt)

	policy = m.convertProtection(7, MongoPlayer{Protection: "platinum"})
	assert.Equal(t, models.InsuranceNone, policy.Tier)
}

func TestConvertGear(t *testing.T) {
	m := &Migrator{}

	item := m.convertGear(3, MongoGearItem{
		OwnerID:    "123",
		Name:       "Sawed-Off",
		Type:       "gun",
		Tier:       3,
		Power:      24,
		Durability: 150,
		Equipped:   true,
	})

	require.NotNil(t, item)
	assert.Equal(t, int64(3), item.AccountID)
	assert.Equal(t, models.SlotWeapon, item.Slot)
	assert.Equal(t, 24, item.CombatBonus)
	assert.Equal(t, models.MaxDurability, item.Durability)
	assert.True(t, item.Equipped)
}

func TestConvertGearType(t *testing.T) {
	cases := map[string]models.EquipmentSlot{
		"weapon":   models.SlotWeapon,
		"knife":    models.SlotWeapon,
		"Vest":     models.SlotArmor,
		"crib":     models.SlotHousing,
		"business": models.SlotBusiness,
		"pet":      models.SlotNone,
	}
	for in, want := range cases {
		assert.Equal(t, want, convertGearType(in), "type %q", in)
	}
}

func TestCleanseString(t *testing.T) {
	assert.Equal(t, "ghost", cleanseString("  ghost\x00 "))
	assert.Equal(t, "", cleanseString(""))
	assert.Equal(t, "héx", cleanseString("héx"))
}
