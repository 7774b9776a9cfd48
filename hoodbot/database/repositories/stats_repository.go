package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hoodline/hoodbot/hoodbot/database/models"
	"github.com/uptrace/bun"
)

// RobAttemptDelta is one side's contribution to the leaderboard snapshot.
type RobAttemptDelta struct {
	Success         bool
	WealthDelta     int64
	ExperienceDelta int64
	AsDefender      bool
}

type StatsRepository interface {
	RecordRobAttempt(ctx context.Context, accountID int64, delta RobAttemptDelta) error
	Get(ctx context.Context, accountID int64) (*models.PlayerStats, error)
	TopByWealthStolen(ctx context.Context, limit int) ([]*models.PlayerStats, error)
}

type statsRepository struct {
	db *bun.DB
}

func NewStatsRepository(db *bun.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) RecordRobAttempt(ctx context.Context, accountID int64, delta RobAttemptDelta) error {
	now := time.Now()

	var (
		attempts, successes       int64
		stolen, lost              int64
		robbed, defended, expGain int64
	)

	if delta.AsDefender {
		if delta.Success {
			robbed = 1
			lost = -delta.WealthDelta
		} else {
			defended = 1
		}
	} else {
		attempts = 1
		if delta.Success {
			successes = 1
			stolen = delta.WealthDelta
		}
		expGain = delta.ExperienceDelta
	}

	stats := &models.PlayerStats{
		AccountID:        accountID,
		RobAttempts:      attempts,
		RobSuccesses:     successes,
		WealthStolen:     stolen,
		WealthLost:       lost,
		TimesRobbed:      robbed,
		TimesDefended:    defended,
		ExperienceEarned: expGain,
		UpdatedAt:        now,
	}

	_, err := r.db.NewInsert().
		Model(stats).
		On("CONFLICT (account_id) DO UPDATE").
		Set("rob_attempts = ps.rob_attempts + EXCLUDED.rob_attempts").
		Set("rob_successes = ps.rob_successes + EXCLUDED.rob_successes").
		Set("wealth_stolen = ps.wealth_stolen + EXCLUDED.wealth_stolen").
		Set("wealth_lost = ps.wealth_lost + EXCLUDED.wealth_lost").
		Set("times_robbed = ps.times_robbed + EXCLUDED.times_robbed").
		Set("times_defended = ps.times_defended + EXCLUDED.times_defended").
		Set("experience_earned = ps.experience_earned + EXCLUDED.experience_earned").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// Get returns zeroed stats for accounts that have no row yet.
func (r *statsRepository) Get(ctx context.Context, accountID int64) (*models.PlayerStats, error) {
	stats := new(models.PlayerStats)
	err := r.db.NewSelect().
		Model(stats).
		Where("account_id = ?", accountID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.PlayerStats{AccountID: accountID}, nil
		}
		return nil, err
	}
	return stats, nil
}

func (r *statsRepository) TopByWealthStolen(ctx context.Context, limit int) ([]*models.PlayerStats, error) {
	var stats []*models.PlayerStats
	err := r.db.NewSelect().
		Model(&stats).
		Order("wealth_stolen DESC").
		Limit(limit).
		Scan(ctx)
	return stats, err
}
