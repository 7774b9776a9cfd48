package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ActionType keys a cooldown timer.
type ActionType string

const (
	ActionRob     ActionType = "rob"
	ActionWork    ActionType = "work"
	ActionHustle  ActionType = "hustle"
	ActionCrate   ActionType = "crate"
	ActionMission ActionType = "mission"
)

// CooldownEntry is a keyed timer. TargetID is 0 for untargeted actions.
// Entries are never deleted; an entry with expires_at in the past is simply
// inactive and may be overwritten.
type CooldownEntry struct {
	bun.BaseModel `bun:"table:cooldowns,alias:cd"`

	SubjectID  int64      `bun:"subject_id,pk"`
	ActionType ActionType `bun:"action_type,pk"`
	TargetID   int64      `bun:"target_id,pk"`
	ExpiresAt  time.Time  `bun:"expires_at,notnull"`
	UpdatedAt  time.Time  `bun:"updated_at,notnull"`
}

// Active reports whether the timer still blocks the action at now.
func (c *CooldownEntry) Active(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}

// Remaining returns how long until expiry, zero when already expired.
func (c *CooldownEntry) Remaining(now time.Time) time.Duration {
	if !c.Active(now) {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}
