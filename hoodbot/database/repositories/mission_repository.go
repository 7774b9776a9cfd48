package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hoodline/hoodbot/hoodbot/database/models"
	"github.com/uptrace/bun"
)

// MissionRepository stores objective counters. Mission/achievement scoring
// rules live outside this module; only the update contract is served here.
type MissionRepository interface {
	IncrementProgress(ctx context.Context, accountID int64, objectiveKey string, amount int64) error
	SetProgress(ctx context.Context, accountID int64, objectiveKey string, value int64) error
	GetProgress(ctx context.Context, accountID int64, objectiveKey string) (int64, error)
}

type missionRepository struct {
	db *bun.DB
}

func NewMissionRepository(db *bun.DB) MissionRepository {
	return &missionRepository{db: db}
}

func (r *missionRepository) IncrementProgress(ctx context.Context, accountID int64, objectiveKey string, amount int64) error {
	row := &models.MissionProgress{
		AccountID:    accountID,
		ObjectiveKey: objectiveKey,
		Progress:     amount,
		UpdatedAt:    time.Now(),
	}
	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (account_id, objective_key) DO UPDATE").
		Set("progress = mp.progress + EXCLUDED.progress").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (r *missionRepository) SetProgress(ctx context.Context, accountID int64, objectiveKey string, value int64) error {
	row := &models.MissionProgress{
		AccountID:    accountID,
		ObjectiveKey: objectiveKey,
		Progress:     value,
		UpdatedAt:    time.Now(),
	}
	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (account_id, objective_key) DO UPDATE").
		Set("progress = EXCLUDED.progress").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (r *missionRepository) GetProgress(ctx context.Context, accountID int64, objectiveKey string) (int64, error) {
	var progress int64
	err := r.db.NewSelect().
		Model((*models.MissionProgress)(nil)).
		Column("progress").
		Where("account_id = ?", accountID).
		Where("objective_key = ?", objectiveKey).
		Scan(ctx, &progress)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return progress, nil
}
