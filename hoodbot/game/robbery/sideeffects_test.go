package robbery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeLeaderboard struct {
	records map[int64]AttemptRecord
	err     error
}

func (f *fakeLeaderboard) RecordRobAttempt(_ context.Context, accountID int64, rec AttemptRecord) error {
	if f.err != nil {
		return f.err
	}
	if f.records == nil {
		f.records = make(map[int64]AttemptRecord)
	}
	f.records[accountID] = rec
	return nil
}

type fakeMissions struct {
	increments map[string]int64
	panicKey   string
}

func (f *fakeMissions) IncrementProgress(_ context.Context, _ int64, objectiveKey string, amount int64) error {
	if objectiveKey == f.panicKey {
		panic("mission store corrupted")
	}
	if f.increments == nil {
		f.increments = make(map[string]int64)
	}
	f.increments[objectiveKey] += amount
	return nil
}

func (f *fakeMissions) SetProgress(_ context.Context, _ int64, objectiveKey string, value int64) error {
	if f.increments == nil {
		f.increments = make(map[string]int64)
	}
	f.increments[objectiveKey] = value
	return nil
}

type fakeNotifier struct {
	robbedCalls   int
	defendedCalls int
	lastItemName  string
}

func (f *fakeNotifier) NotifyRobbed(_ context.Context, _ int64, _ string, _ int64, itemLostName string) error {
	f.robbedCalls++
	f.lastItemName = itemLostName
	return nil
}

func (f *fakeNotifier) NotifyDefended(_ context.Context, _ int64, _ string) error {
	f.defendedCalls++
	return nil
}

type fakeFeed struct {
	posts int
}

func (f *fakeFeed) PostItemTheft(_ context.Context, _, _, _ string, _ int) error {
	f.posts++
	return nil
}

func successResult() *RobberyResult {
	return &RobberyResult{
		RobberyID:        "rb-1",
		AttackerID:       1,
		DefenderID:       2,
		AttackerName:     "ghost",
		DefenderName:     "mark",
		Success:          true,
		WealthStolen:     5000,
		ExperienceGained: 25,
	}
}

func TestPropagatorDispatchSuccess(t *testing.T) {
	lb := &fakeLeaderboard{}
	ms := &fakeMissions{}
	nt := &fakeNotifier{}
	fd := &fakeFeed{}
	p := NewPropagator(lb, ms, nt, fd)

	res := successResult()
	res.ItemStolen = &ItemRef{ID: 31, Name: "Brass Knuckles", Tier: 2}
	p.Dispatch(context.Background(), res)

	attacker := lb.records[1]
	assert.True(t, attacker.Success)
	assert.Equal(t, int64(5000), attacker.WealthDelta)
	assert.Equal(t, int64(25), attacker.ExperienceDelta)
	assert.False(t, attacker.AsDefender)

	defender := lb.records[2]
	assert.True(t, defender.AsDefender)
	assert.Equal(t, int64(-5000), defender.WealthDelta)
	assert.Zero(t, defender.ExperienceDelta)

	assert.Equal(t, int64(1), ms.increments[ObjectiveRobAttempts])
	assert.Equal(t, int64(1), ms.increments[ObjectiveRobSuccesses])
	assert.Equal(t, int64(5000), ms.increments[ObjectiveWealthStolen])

	assert.Equal(t, 1, nt.robbedCalls)
	assert.Equal(t, 0, nt.defendedCalls)
	assert.Equal(t, "Brass Knuckles", nt.lastItemName)
	assert.Equal(t, 1, fd.posts)
}

func TestPropagatorDispatchFailure(t *testing.T) {
	lb := &fakeLeaderboard{}
	ms := &fakeMissions{}
	nt := &fakeNotifier{}
	fd := &fakeFeed{}
	p := NewPropagator(lb, ms, nt, fd)

	res := successResult()
	res.Success = false
	res.WealthStolen = 0
	res.ExperienceGained = 5
	p.Dispatch(context.Background(), res)

	assert.False(t, lb.records[1].Success)
	assert.Equal(t, int64(1), ms.increments[ObjectiveRobAttempts])
	assert.Zero(t, ms.increments[ObjectiveRobSuccesses])
	assert.Equal(t, 1, nt.defendedCalls)
	assert.Equal(t, 0, nt.robbedCalls)
	assert.Equal(t, 0, fd.posts)
}

func TestPropagatorIsolatesFailures(t *testing.T) {
	lb := &fakeLeaderboard{err: errors.New("stats table locked")}
	ms := &fakeMissions{}
	nt := &fakeNotifier{}
	p := NewPropagator(lb, ms, nt, nil)

	assert.NotPanics(t, func() {
		p.Dispatch(context.Background(), successResult())
	})

	// The leaderboard failing must not stop the later effects.
	assert.Equal(t, int64(1), ms.increments[ObjectiveRobAttempts])
	assert.Equal(t, 1, nt.robbedCalls)
}

func TestPropagatorRecoversPanics(t *testing.T) {
	ms := &fakeMissions{panicKey: ObjectiveRobSuccesses}
	nt := &fakeNotifier{}
	p := NewPropagator(nil, ms, nt, nil)

	assert.NotPanics(t, func() {
		p.Dispatch(context.Background(), successResult())
	})

	assert.Equal(t, int64(1), ms.increments[ObjectiveRobAttempts])
	assert.Equal(t, int64(5000), ms.increments[ObjectiveWealthStolen])
	assert.Equal(t, 1, nt.robbedCalls)
}

func TestPropagatorNilSafe(t *testing.T) {
	var p *Propagator
	assert.NotPanics(t, func() {
		p.Dispatch(context.Background(), successResult())
	})

	p = NewPropagator(nil, nil, nil, nil)
	assert.NotPanics(t, func() {
		p.Dispatch(context.Background(), nil)
	})
}
