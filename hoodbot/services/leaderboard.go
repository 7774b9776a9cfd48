package services

import (
	"context"

	"github.com/hoodline/hoodbot/hoodbot/database/models"
	"github.com/hoodline/hoodbot/hoodbot/database/repositories"
	"github.com/hoodline/hoodbot/hoodbot/game/robbery"
)

// LeaderboardService maintains per-player aggregates outside the robbery
// transaction. A lost update here never touches a balance.
type LeaderboardService struct {
	stats repositories.StatsRepository
}

func NewLeaderboardService(stats repositories.StatsRepository) *LeaderboardService {
	return &LeaderboardService{stats: stats}
}

var _ robbery.Leaderboard = (*LeaderboardService)(nil)

func (s *LeaderboardService) RecordRobAttempt(ctx context.Context, accountID int64, rec robbery.AttemptRecord) error {
	return s.stats.RecordRobAttempt(ctx, accountID, repositories.RobAttemptDelta{
		Success:         rec.Success,
		WealthDelta:     rec.WealthDelta,
		ExperienceDelta: rec.ExperienceDelta,
		AsDefender:      rec.AsDefender,
	})
}

// TopRobbers returns the highest lifetime earners by stolen wealth.
func (s *LeaderboardService) TopRobbers(ctx context.Context, limit int) ([]*models.PlayerStats, error) {
	return s.stats.TopByWealthStolen(ctx, limit)
}

// StatsFor returns one player's lifetime aggregates.
func (s *LeaderboardService) StatsFor(ctx context.Context, accountID int64) (*models.PlayerStats, error) {
	return s.stats.Get(ctx, accountID)
}
