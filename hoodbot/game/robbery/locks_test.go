package robbery

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestAttackLocksExclusive(t *testing.T) {
	locks := NewAttackLocks(time.Minute)

	if !locks.Acquire(1) {
		t.Fatal("first acquire should succeed")
	}
	if locks.Acquire(1) {
		t.Fatal("second acquire for same attacker should fail")
	}
	if !locks.Acquire(2) {
		t.Fatal("different attacker should not be blocked")
	}

	locks.Release(1)
	if !locks.Acquire(1) {
		t.Fatal("acquire after release should succeed")
	}
}

func TestAttackLocksConcurrent(t *testing.T) {
	locks := NewAttackLocks(time.Minute)

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if locks.Acquire(7) {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestAttackLocksStaleCleanup(t *testing.T) {
	locks := NewAttackLocks(10 * time.Millisecond)

	locks.Acquire(9)
	time.Sleep(20 * time.Millisecond)
	locks.cleanupStale()

	if locks.Active(9) {
		t.Fatal("stale session should have been cleaned up")
	}
	if !locks.Acquire(9) {
		t.Fatal("acquire after cleanup should succeed")
	}
}
