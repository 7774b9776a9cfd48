package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hoodline/hoodbot/hoodbot/database/models"
	"github.com/uptrace/bun"
)

// DamageReport describes what a degradation pass did to an account's gear.
type DamageReport struct {
	Degraded  bool
	Destroyed bool
	ItemName  string
}

type EquipmentRepository interface {
	Create(ctx context.Context, item *models.EquipmentItem) error
	GetByID(ctx context.Context, id int64) (*models.EquipmentItem, error)
	GetEquipped(ctx context.Context, accountID int64) ([]*models.EquipmentItem, error)
	GetEquippedBySlot(ctx context.Context, accountID int64, slot models.EquipmentSlot) (*models.EquipmentItem, error)
	CountByOwner(ctx context.Context, tx bun.IDB, accountID int64) (int, error)

	// DegradeEquippedTx decrements durability of the equipped item in the
	// given slot by step. At zero durability the item is unequipped but kept
	// in inventory. No equipped item in the slot is a no-op, not an error.
	DegradeEquippedTx(ctx context.Context, tx bun.IDB, accountID int64, slot models.EquipmentSlot, step int) (DamageReport, error)

	// TransferOwnershipTx reassigns an item to a new owner, unequipped.
	TransferOwnershipTx(ctx context.Context, tx bun.IDB, itemID, newOwnerID int64) error

	CreateEscrowTx(ctx context.Context, tx bun.IDB, escrow *models.EscrowItem) error
	ListEscrowByAccount(ctx context.Context, accountID int64) ([]*models.EscrowItem, error)
	DeleteExpiredEscrow(ctx context.Context) (int64, error)
}

type equipmentRepository struct {
	db *bun.DB
}

func NewEquipmentRepository(db *bun.DB) EquipmentRepository {
	return &equipmentRepository{db: db}
}

func (r *equipmentRepository) Create(ctx context.Context, item *models.EquipmentItem) error {
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	_, err := r.db.NewInsert().Model(item).Exec(ctx)
	return err
}

func (r *equipmentRepository) GetByID(ctx context.Context, id int64) (*models.EquipmentItem, error) {
	item := new(models.EquipmentItem)
	err := r.db.NewSelect().
		Model(item).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *equipmentRepository) GetEquipped(ctx context.Context, accountID int64) ([]*models.EquipmentItem, error) {
	var items []*models.EquipmentItem
	err := r.db.NewSelect().
		Model(&items).
		Where("account_id = ?", accountID).
		Where("equipped = TRUE").
		Where("durability > 0").
		Order("slot ASC").
		Scan(ctx)
	return items, err
}

func (r *equipmentRepository) GetEquippedBySlot(ctx context.Context, accountID int64, slot models.EquipmentSlot) (*models.EquipmentItem, error) {
	item := new(models.EquipmentItem)
	err := r.db.NewSelect().
		Model(item).
		Where("account_id = ?", accountID).
		Where("slot = ?", slot).
		Where("equipped = TRUE").
		Where("durability > 0").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

func (r *equipmentRepository) CountByOwner(ctx context.Context, tx bun.IDB, accountID int64) (int, error) {
	return tx.NewSelect().
		Model((*models.EquipmentItem)(nil)).
		Where("account_id = ?", accountID).
		Count(ctx)
}

// applyDegrade wears an item down by step points, clamped at zero. An item
// hitting zero is destroyed and must also be unequipped.
func applyDegrade(durability, step int) (newDurability int, destroyed bool) {
	durability -= step
	if durability < 0 {
		durability = 0
	}
	return durability, durability == 0
}

func (r *equipmentRepository) DegradeEquippedTx(ctx context.Context, tx bun.IDB, accountID int64, slot models.EquipmentSlot, step int) (DamageReport, error) {
	item := new(models.EquipmentItem)
	err := tx.NewSelect().
		Model(item).
		Where("account_id = ?", accountID).
		Where("slot = ?", slot).
		Where("equipped = TRUE").
		Where("durability > 0").
		Limit(1).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Nothing equipped in this slot, nothing to wear down.
			return DamageReport{}, nil
		}
		return DamageReport{}, &RepositoryError{Operation: "degrade select", Entity: "equipment item", Err: err}
	}

	durability, destroyed := applyDegrade(item.Durability, step)

	q := tx.NewUpdate().
		Model((*models.EquipmentItem)(nil)).
		Set("durability = ?", durability).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", item.ID)
	if destroyed {
		q = q.Set("equipped = FALSE")
	}
	if _, err := q.Exec(ctx); err != nil {
		return DamageReport{}, &RepositoryError{Operation: "degrade update", Entity: "equipment item", Err: err}
	}

	return DamageReport{
		Degraded:  true,
		Destroyed: destroyed,
		ItemName:  item.Name,
	}, nil
}

func (r *equipmentRepository) TransferOwnershipTx(ctx context.Context, tx bun.IDB, itemID, newOwnerID int64) error {
	result, err := tx.NewUpdate().
		Model((*models.EquipmentItem)(nil)).
		Set("account_id = ?", newOwnerID).
		Set("equipped = FALSE").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", itemID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &NotFoundError{Entity: "equipment item", ID: itemID}
	}
	return nil
}

func (r *equipmentRepository) CreateEscrowTx(ctx context.Context, tx bun.IDB, escrow *models.EscrowItem) error {
	escrow.CreatedAt = time.Now()
	_, err := tx.NewInsert().Model(escrow).Exec(ctx)
	return err
}

func (r *equipmentRepository) ListEscrowByAccount(ctx context.Context, accountID int64) ([]*models.EscrowItem, error) {
	var escrows []*models.EscrowItem
	err := r.db.NewSelect().
		Model(&escrows).
		Where("account_id = ?", accountID).
		Where("expires_at > ?", time.Now()).
		Order("expires_at ASC").
		Scan(ctx)
	return escrows, err
}

func (r *equipmentRepository) DeleteExpiredEscrow(ctx context.Context) (int64, error) {
	result, err := r.db.NewDelete().
		Model((*models.EscrowItem)(nil)).
		Where("expires_at <= ?", time.Now()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
