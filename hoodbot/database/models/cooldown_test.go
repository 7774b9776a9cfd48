package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownEntryActiveBoundary(t *testing.T) {
	now := time.Now()
	entry := &CooldownEntry{
		SubjectID:  1,
		ActionType: ActionRob,
		TargetID:   2,
		ExpiresAt:  now,
	}

	// The expiry instant itself no longer blocks.
	assert.True(t, entry.Active(now.Add(-time.Nanosecond)))
	assert.False(t, entry.Active(now))
	assert.False(t, entry.Active(now.Add(time.Nanosecond)))
}

func TestCooldownEntryRemaining(t *testing.T) {
	now := time.Now()
	entry := &CooldownEntry{ExpiresAt: now.Add(time.Hour)}

	assert.Equal(t, time.Hour, entry.Remaining(now))
	assert.Zero(t, entry.Remaining(now.Add(time.Hour)))
	assert.Zero(t, entry.Remaining(now.Add(2*time.Hour)))
}
