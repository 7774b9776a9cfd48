package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hoodline/hoodbot/hoodbot/database/models"
	"github.com/uptrace/bun"
)

type InsuranceRepository interface {
	// Get returns the stored policy, or a tier-none policy when the account
	// has never purchased one.
	Get(ctx context.Context, accountID int64) (*models.InsurancePolicy, error)
	UpsertTx(ctx context.Context, tx bun.IDB, policy *models.InsurancePolicy) error

	// ListDue returns policies on a paid tier whose last premium is older
	// than the cutoff.
	ListDue(ctx context.Context, paidBefore time.Time) ([]*models.InsurancePolicy, error)
}

type insuranceRepository struct {
	db *bun.DB
}

func NewInsuranceRepository(db *bun.DB) InsuranceRepository {
	return &insuranceRepository{db: db}
}

func (r *insuranceRepository) Get(ctx context.Context, accountID int64) (*models.InsurancePolicy, error) {
	policy := new(models.InsurancePolicy)
	err := r.db.NewSelect().
		Model(policy).
		Where("account_id = ?", accountID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.InsurancePolicy{
				AccountID: accountID,
				Tier:      models.InsuranceNone,
			}, nil
		}
		return nil, err
	}
	return policy, nil
}

func (r *insuranceRepository) UpsertTx(ctx context.Context, tx bun.IDB, policy *models.InsurancePolicy) error {
	policy.UpdatedAt = time.Now()
	if policy.CreatedAt.IsZero() {
		policy.CreatedAt = policy.UpdatedAt
	}

	_, err := tx.NewInsert().
		Model(policy).
		On("CONFLICT (account_id) DO UPDATE").
		Set("tier = EXCLUDED.tier").
		Set("last_premium_paid_at = EXCLUDED.last_premium_paid_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (r *insuranceRepository) ListDue(ctx context.Context, paidBefore time.Time) ([]*models.InsurancePolicy, error) {
	var policies []*models.InsurancePolicy
	err := r.db.NewSelect().
		Model(&policies).
		Where("tier != ?", models.InsuranceNone).
		Where("last_premium_paid_at < ?", paidBefore).
		Order("last_premium_paid_at ASC").
		Scan(ctx)
	return policies, err
}
