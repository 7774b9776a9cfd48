package robbery

import (
	"context"
	"sync"
	"time"
)

// AttackLocks keeps one in-process session per attacker so a single player
// cannot run two overlapping robberies through the same process. It is a
// guard on top of the database cooldown, not a replacement for it.
type AttackLocks struct {
	sessions       sync.Map // attacker id -> session start
	sessionTimeout time.Duration
}

func NewAttackLocks(sessionTimeout time.Duration) *AttackLocks {
	return &AttackLocks{sessionTimeout: sessionTimeout}
}

// Acquire starts a session for the attacker. It returns false when a
// session is already running.
func (l *AttackLocks) Acquire(attackerID int64) bool {
	_, loaded := l.sessions.LoadOrStore(attackerID, time.Now())
	return !loaded
}

// Release ends the attacker's session.
func (l *AttackLocks) Release(attackerID int64) {
	l.sessions.Delete(attackerID)
}

// Active reports whether the attacker currently holds a session.
func (l *AttackLocks) Active(attackerID int64) bool {
	_, ok := l.sessions.Load(attackerID)
	return ok
}

func (l *AttackLocks) cleanupStale() {
	now := time.Now()
	l.sessions.Range(func(key, value interface{}) bool {
		if now.Sub(value.(time.Time)) > l.sessionTimeout {
			l.sessions.Delete(key)
		}
		return true
	})
}

// StartCleanupRoutine sweeps sessions abandoned by crashed handlers.
func (l *AttackLocks) StartCleanupRoutine(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.cleanupStale()
			}
		}
	}()
}
