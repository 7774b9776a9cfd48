package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hoodline/hoodbot/hoodbot/database/models"
	"github.com/hoodline/hoodbot/hoodbot/game/progression"
	"github.com/uptrace/bun"
)

var (
	ErrInsufficientWealth = errors.New("insufficient wealth")
	ErrAccountNotFound    = errors.New("account not found")
)

type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	GetByPlatformID(ctx context.Context, platform models.Platform, externalID string) (*models.Account, error)
	GetUsernames(ctx context.Context) ([]NameRef, error)
	GetTopByWealth(ctx context.Context, limit int) ([]*models.Account, error)
	Update(ctx context.Context, account *models.Account) error

	// AdjustWealth applies a relative delta outside any robbery transaction
	// (purchases, premiums). Negative deltas are guarded against overdraw.
	AdjustWealth(ctx context.Context, id int64, delta int64) error

	// AdjustWealthTx is AdjustWealth inside an existing transaction.
	AdjustWealthTx(ctx context.Context, tx bun.IDB, id int64, delta int64) error

	// TransferWealthTx moves amount from one account to another inside tx.
	// The debit is guarded so the source can never go negative; a guard miss
	// returns ErrInsufficientWealth and must abort the transaction.
	TransferWealthTx(ctx context.Context, tx bun.IDB, fromID, toID, amount int64) error

	// AddExperienceTx adds delta experience and recomputes level and tier
	// together from the resulting total. Level and tier are never written
	// independently of experience.
	AddExperienceTx(ctx context.Context, tx bun.IDB, id int64, delta int64) (level int, tier string, err error)
}

// NameRef pairs an account id with its display names for identifier
// resolution.
type NameRef struct {
	ID          int64  `bun:"id"`
	Username    string `bun:"username"`
	DisplayName string `bun:"display_name"`
}

type accountRepository struct {
	db *bun.DB
}

func NewAccountRepository(db *bun.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	if account.Level == 0 {
		account.Level = progression.LevelForExperience(account.Experience)
	}
	if account.Tier == "" {
		account.Tier = progression.TierForLevel(account.Level).String()
	}
	_, err := r.db.NewInsert().Model(account).Exec(ctx)
	return err
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	account := new(models.Account)
	err := r.db.NewSelect().
		Model(account).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

func (r *accountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	account := new(models.Account)
	err := r.db.NewSelect().
		Model(account).
		Where("LOWER(username) = LOWER(?)", username).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

func (r *accountRepository) GetByPlatformID(ctx context.Context, platform models.Platform, externalID string) (*models.Account, error) {
	if !platform.Valid() {
		return nil, fmt.Errorf("unknown platform %q", platform)
	}

	account := new(models.Account)
	err := r.db.NewSelect().
		Model(account).
		Where("? = ?", bun.Ident(platform.Column()), externalID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

func (r *accountRepository) GetUsernames(ctx context.Context) ([]NameRef, error) {
	var refs []NameRef
	err := r.db.NewSelect().
		Model((*models.Account)(nil)).
		Column("id", "username", "display_name").
		Scan(ctx, &refs)
	return refs, err
}

func (r *accountRepository) GetTopByWealth(ctx context.Context, limit int) ([]*models.Account, error) {
	var accounts []*models.Account
	err := r.db.NewSelect().
		Model(&accounts).
		Order("wealth DESC").
		Limit(limit).
		Scan(ctx)
	return accounts, err
}

func (r *accountRepository) Update(ctx context.Context, account *models.Account) error {
	account.UpdatedAt = time.Now()
	_, err := r.db.NewUpdate().
		Model(account).
		WherePK().
		Exec(ctx)
	return err
}

func (r *accountRepository) AdjustWealth(ctx context.Context, id int64, delta int64) error {
	return r.AdjustWealthTx(ctx, r.db, id, delta)
}

func (r *accountRepository) AdjustWealthTx(ctx context.Context, tx bun.IDB, id int64, delta int64) error {
	q := tx.NewUpdate().
		Model((*models.Account)(nil)).
		Set("wealth = wealth + ?", delta).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id)
	if delta < 0 {
		q = q.Where("wealth >= ?", -delta)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if delta < 0 {
			// The guard also swallows missing accounts; tell them apart.
			exists, err := tx.NewSelect().
				Model((*models.Account)(nil)).
				Where("id = ?", id).
				Exists(ctx)
			if err != nil {
				return err
			}
			if exists {
				return ErrInsufficientWealth
			}
		}
		return ErrAccountNotFound
	}
	return nil
}

func (r *accountRepository) TransferWealthTx(ctx context.Context, tx bun.IDB, fromID, toID, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be positive, got %d", amount)
	}

	now := time.Now()

	// Debit first, guarded so the ledger can never go negative.
	result, err := tx.NewUpdate().
		Model((*models.Account)(nil)).
		Set("wealth = wealth - ?", amount).
		Set("updated_at = ?", now).
		Where("id = ?", fromID).
		Where("wealth >= ?", amount).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to debit account %d: %w", fromID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInsufficientWealth
	}

	result, err = tx.NewUpdate().
		Model((*models.Account)(nil)).
		Set("wealth = wealth + ?", amount).
		Set("updated_at = ?", now).
		Where("id = ?", toID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to credit account %d: %w", toID, err)
	}
	affected, err = result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAccountNotFound
	}

	slog.Debug("Wealth transferred",
		slog.String("type", "db"),
		slog.Int64("from", fromID),
		slog.Int64("to", toID),
		slog.Int64("amount", amount))

	return nil
}

func (r *accountRepository) AddExperienceTx(ctx context.Context, tx bun.IDB, id int64, delta int64) (int, string, error) {
	var experience int64
	_, err := tx.NewUpdate().
		Model((*models.Account)(nil)).
		Set("experience = experience + ?", delta).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Returning("experience").
		Exec(ctx, &experience)
	if err != nil {
		return 0, "", fmt.Errorf("failed to add experience to account %d: %w", id, err)
	}

	// Level and tier are derived from experience and must move together.
	level := progression.LevelForExperience(experience)
	tier := progression.TierForLevel(level).String()

	_, err = tx.NewUpdate().
		Model((*models.Account)(nil)).
		Set("level = ?", level).
		Set("tier = ?", tier).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return 0, "", fmt.Errorf("failed to update level/tier for account %d: %w", id, err)
	}

	return level, tier, nil
}
