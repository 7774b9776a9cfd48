package services

import (
	"context"

	"github.com/hoodline/hoodbot/hoodbot/database/repositories"
	"github.com/hoodline/hoodbot/hoodbot/game/robbery"
)

// MissionService tracks objective progress fed by game events.
type MissionService struct {
	missions repositories.MissionRepository
}

func NewMissionService(missions repositories.MissionRepository) *MissionService {
	return &MissionService{missions: missions}
}

var _ robbery.Missions = (*MissionService)(nil)

func (s *MissionService) IncrementProgress(ctx context.Context, accountID int64, objectiveKey string, amount int64) error {
	return s.missions.IncrementProgress(ctx, accountID, objectiveKey, amount)
}

func (s *MissionService) SetProgress(ctx context.Context, accountID int64, objectiveKey string, value int64) error {
	return s.missions.SetProgress(ctx, accountID, objectiveKey, value)
}

// Progress returns how far an account is on one objective.
func (s *MissionService) Progress(ctx context.Context, accountID int64, objectiveKey string) (int64, error) {
	return s.missions.GetProgress(ctx, accountID, objectiveKey)
}
