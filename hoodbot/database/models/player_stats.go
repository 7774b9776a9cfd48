package models

import (
	"time"

	"github.com/uptrace/bun"
)

// PlayerStats is the leaderboard snapshot for one account: cumulative
// counters incremented after each committed robbery. Best-effort data,
// rebuilt from audit events when it drifts.
type PlayerStats struct {
	bun.BaseModel `bun:"table:player_stats,alias:ps"`

	AccountID        int64 `bun:"account_id,pk"`
	RobAttempts      int64 `bun:"rob_attempts,notnull,default:0"`
	RobSuccesses     int64 `bun:"rob_successes,notnull,default:0"`
	WealthStolen     int64 `bun:"wealth_stolen,notnull,default:0"`
	WealthLost       int64 `bun:"wealth_lost,notnull,default:0"`
	TimesRobbed      int64 `bun:"times_robbed,notnull,default:0"`
	TimesDefended    int64 `bun:"times_defended,notnull,default:0"`
	ExperienceEarned int64 `bun:"experience_earned,notnull,default:0"`

	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// MissionProgress tracks one objective counter for one account. The rules
// that interpret objectives live outside the engine; this is only the
// update contract's storage.
type MissionProgress struct {
	bun.BaseModel `bun:"table:mission_progress,alias:mp"`

	AccountID    int64     `bun:"account_id,pk"`
	ObjectiveKey string    `bun:"objective_key,pk"`
	Progress     int64     `bun:"progress,notnull,default:0"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}
