package models

import (
	"time"

	"github.com/uptrace/bun"
)

// EquipmentSlot is the slot an item occupies when equipped.
type EquipmentSlot string

const (
	SlotWeapon   EquipmentSlot = "weapon"
	SlotArmor    EquipmentSlot = "armor"
	SlotBusiness EquipmentSlot = "business"
	SlotHousing  EquipmentSlot = "housing"
	SlotNone     EquipmentSlot = "none"
)

const MaxDurability = 100

type EquipmentItem struct {
	bun.BaseModel `bun:"table:equipment_items,alias:eq"`

	ID        int64         `bun:"id,pk,autoincrement"`
	AccountID int64         `bun:"account_id,notnull"`
	Name      string        `bun:"name,notnull"`
	Slot      EquipmentSlot `bun:"slot,notnull,default:'none'"`
	Tier      int           `bun:"tier,notnull,default:1"`

	// CombatBonus is attack value for weapons and defense value for armor.
	CombatBonus int `bun:"combat_bonus,notnull,default:0"`

	// ProtectionBonus is the legacy per-item insurance: fraction of stolen
	// wealth blocked while the item is equipped (housing/business items).
	ProtectionBonus float64 `bun:"protection_bonus,notnull,default:0"`

	Durability int  `bun:"durability,notnull,default:100"`
	Equipped   bool `bun:"equipped,notnull,default:false"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// Effective reports whether the item currently contributes its bonuses:
// equipped and not broken.
func (i *EquipmentItem) Effective() bool {
	return i.Equipped && i.Durability > 0
}

// EscrowItem holds an item that could not be placed into a full inventory,
// pending claim or expiry. Stolen items get a longer window than ordinary
// acquisitions.
type EscrowItem struct {
	bun.BaseModel `bun:"table:escrow_items,alias:esc"`

	ID        int64     `bun:"id,pk,autoincrement"`
	ItemID    int64     `bun:"item_id,notnull"`
	AccountID int64     `bun:"account_id,notnull"`
	Reason    string    `bun:"reason,notnull"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

const (
	EscrowReasonTheft    = "theft"
	EscrowReasonPurchase = "purchase"
)
