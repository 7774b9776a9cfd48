package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hoodline/hoodbot/hoodbot/database/models"
	"github.com/uptrace/bun"
)

// CooldownRepository is a generic keyed-timer store with lazy expiry:
// entries are never deleted, an expired entry is simply inactive and can be
// overwritten by the next Set.
type CooldownRepository interface {
	Get(ctx context.Context, subjectID int64, action models.ActionType, targetID int64) (*models.CooldownEntry, error)
	IsActive(ctx context.Context, subjectID int64, action models.ActionType, targetID int64) (bool, error)
	Remaining(ctx context.Context, subjectID int64, action models.ActionType, targetID int64) (time.Duration, error)
	SetTx(ctx context.Context, tx bun.IDB, subjectID int64, action models.ActionType, targetID int64, ttl time.Duration) (time.Time, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type cooldownRepository struct {
	db *bun.DB
}

func NewCooldownRepository(db *bun.DB) CooldownRepository {
	return &cooldownRepository{db: db}
}

func (r *cooldownRepository) Get(ctx context.Context, subjectID int64, action models.ActionType, targetID int64) (*models.CooldownEntry, error) {
	entry := new(models.CooldownEntry)
	err := r.db.NewSelect().
		Model(entry).
		Where("subject_id = ?", subjectID).
		Where("action_type = ?", action).
		Where("target_id = ?", targetID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

func (r *cooldownRepository) IsActive(ctx context.Context, subjectID int64, action models.ActionType, targetID int64) (bool, error) {
	entry, err := r.Get(ctx, subjectID, action, targetID)
	if err != nil {
		return false, err
	}
	return entry != nil && entry.Active(time.Now()), nil
}

func (r *cooldownRepository) Remaining(ctx context.Context, subjectID int64, action models.ActionType, targetID int64) (time.Duration, error) {
	entry, err := r.Get(ctx, subjectID, action, targetID)
	if err != nil {
		return 0, err
	}
	if entry == nil {
		return 0, nil
	}
	return entry.Remaining(time.Now()), nil
}

func (r *cooldownRepository) SetTx(ctx context.Context, tx bun.IDB, subjectID int64, action models.ActionType, targetID int64, ttl time.Duration) (time.Time, error) {
	now := time.Now()
	entry := &models.CooldownEntry{
		SubjectID:  subjectID,
		ActionType: action,
		TargetID:   targetID,
		ExpiresAt:  now.Add(ttl),
		UpdatedAt:  now,
	}

	_, err := tx.NewInsert().
		Model(entry).
		On("CONFLICT (subject_id, action_type, target_id) DO UPDATE").
		Set("expires_at = EXCLUDED.expires_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return entry.ExpiresAt, nil
}

// DeleteExpired sweeps dead timers. Purely an optimization; correctness
// relies on lazy expiry alone.
func (r *cooldownRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.NewDelete().
		Model((*models.CooldownEntry)(nil)).
		Where("expires_at <= ?", time.Now()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
