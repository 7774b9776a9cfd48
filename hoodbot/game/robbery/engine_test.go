package robbery

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/hoodline/hoodbot/hoodbot/database/models"
	"github.com/hoodline/hoodbot/hoodbot/database/repositories"
	"github.com/hoodline/hoodbot/hoodbot/game/progression"
)

// fakeTxRunner satisfies TxRunner without a database. The zero bun.Tx is
// never touched because every repository below is an in-memory fake.
// When accounts is set, balances are snapshotted before fn and restored on
// error, mirroring a real rollback.
type fakeTxRunner struct {
	err      error
	calls    int
	accounts *fakeAccounts
}

func (f *fakeTxRunner) RunInTx(ctx context.Context, _ *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}

	var snapshot map[int64]models.Account
	if f.accounts != nil {
		snapshot = make(map[int64]models.Account, len(f.accounts.accounts))
		for id, a := range f.accounts.accounts {
			snapshot[id] = *a
		}
	}

	if err := fn(ctx, bun.Tx{}); err != nil {
		for id := range snapshot {
			restored := snapshot[id]
			f.accounts.accounts[id] = &restored
		}
		return err
	}
	return nil
}

type fakeAccounts struct {
	accounts  map[int64]*models.Account
	transfers []int64
}

func (f *fakeAccounts) Create(_ context.Context, a *models.Account) error {
	f.accounts[a.ID] = a
	return nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id int64) (*models.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, repositories.ErrAccountNotFound
	}
	return a, nil
}

func (f *fakeAccounts) GetByUsername(_ context.Context, _ string) (*models.Account, error) {
	return nil, repositories.ErrAccountNotFound
}

func (f *fakeAccounts) GetByPlatformID(_ context.Context, _ models.Platform, _ string) (*models.Account, error) {
	return nil, repositories.ErrAccountNotFound
}

func (f *fakeAccounts) GetUsernames(_ context.Context) ([]repositories.NameRef, error) {
	return nil, nil
}

func (f *fakeAccounts) GetTopByWealth(_ context.Context, _ int) ([]*models.Account, error) {
	return nil, nil
}

func (f *fakeAccounts) Update(_ context.Context, _ *models.Account) error { return nil }

func (f *fakeAccounts) AdjustWealth(_ context.Context, id int64, delta int64) error {
	return f.AdjustWealthTx(nil, nil, id, delta)
}

func (f *fakeAccounts) AdjustWealthTx(_ context.Context, _ bun.IDB, id int64, delta int64) error {
	a := f.accounts[id]
	if delta < 0 && a.Wealth < -delta {
		return repositories.ErrInsufficientWealth
	}
	a.Wealth += delta
	return nil
}

func (f *fakeAccounts) TransferWealthTx(_ context.Context, _ bun.IDB, fromID, toID, amount int64) error {
	from := f.accounts[fromID]
	if from.Wealth < amount {
		return repositories.ErrInsufficientWealth
	}
	from.Wealth -= amount
	f.accounts[toID].Wealth += amount
	f.transfers = append(f.transfers, amount)
	return nil
}

func (f *fakeAccounts) AddExperienceTx(_ context.Context, _ bun.IDB, id int64, delta int64) (int, string, error) {
	a := f.accounts[id]
	a.Experience += delta
	a.Level = progression.LevelForExperience(a.Experience)
	a.Tier = progression.TierForLevel(a.Level).String()
	return a.Level, a.Tier, nil
}

type fakeEquipment struct {
	weapons  map[int64]*models.EquipmentItem
	armors   map[int64]*models.EquipmentItem
	equipped map[int64][]*models.EquipmentItem

	ownerCount int
	transfers  []int64
	escrows    []*models.EscrowItem
	degrades   []models.EquipmentSlot
}

func (f *fakeEquipment) Create(_ context.Context, _ *models.EquipmentItem) error { return nil }

func (f *fakeEquipment) GetByID(_ context.Context, _ int64) (*models.EquipmentItem, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeEquipment) GetEquipped(_ context.Context, accountID int64) ([]*models.EquipmentItem, error) {
	return f.equipped[accountID], nil
}

func (f *fakeEquipment) GetEquippedBySlot(_ context.Context, accountID int64, slot models.EquipmentSlot) (*models.EquipmentItem, error) {
	if slot == models.SlotWeapon {
		return f.weapons[accountID], nil
	}
	return f.armors[accountID], nil
}

func (f *fakeEquipment) CountByOwner(_ context.Context, _ bun.IDB, _ int64) (int, error) {
	return f.ownerCount, nil
}

func (f *fakeEquipment) DegradeEquippedTx(_ context.Context, _ bun.IDB, _ int64, slot models.EquipmentSlot, _ int) (repositories.DamageReport, error) {
	f.degrades = append(f.degrades, slot)
	return repositories.DamageReport{}, nil
}

func (f *fakeEquipment) TransferOwnershipTx(_ context.Context, _ bun.IDB, itemID, _ int64) error {
	f.transfers = append(f.transfers, itemID)
	return nil
}

func (f *fakeEquipment) CreateEscrowTx(_ context.Context, _ bun.IDB, escrow *models.EscrowItem) error {
	f.escrows = append(f.escrows, escrow)
	return nil
}

func (f *fakeEquipment) ListEscrowByAccount(_ context.Context, _ int64) ([]*models.EscrowItem, error) {
	return nil, nil
}

func (f *fakeEquipment) DeleteExpiredEscrow(_ context.Context) (int64, error) { return 0, nil }

type cooldownKey struct {
	subject int64
	action  models.ActionType
	target  int64
}

type fakeCooldowns struct {
	entries map[cooldownKey]time.Time
	sets    int
	setErr  error
}

// arm starts a timer for one (subject, target) pair, like a prior robbery
// would have.
func (f *fakeCooldowns) arm(subjectID, targetID int64, ttl time.Duration) {
	f.entries[cooldownKey{subjectID, models.ActionRob, targetID}] = time.Now().Add(ttl)
}

func (f *fakeCooldowns) Get(_ context.Context, _ int64, _ models.ActionType, _ int64) (*models.CooldownEntry, error) {
	return nil, nil
}

func (f *fakeCooldowns) IsActive(ctx context.Context, subjectID int64, action models.ActionType, targetID int64) (bool, error) {
	remaining, err := f.Remaining(ctx, subjectID, action, targetID)
	return remaining > 0, err
}

func (f *fakeCooldowns) Remaining(_ context.Context, subjectID int64, action models.ActionType, targetID int64) (time.Duration, error) {
	expiresAt, ok := f.entries[cooldownKey{subjectID, action, targetID}]
	if !ok || !time.Now().Before(expiresAt) {
		return 0, nil
	}
	return time.Until(expiresAt), nil
}

func (f *fakeCooldowns) SetTx(_ context.Context, _ bun.IDB, subjectID int64, action models.ActionType, targetID int64, ttl time.Duration) (time.Time, error) {
	if f.setErr != nil {
		return time.Time{}, f.setErr
	}
	f.sets++
	expiresAt := time.Now().Add(ttl)
	f.entries[cooldownKey{subjectID, action, targetID}] = expiresAt
	return expiresAt, nil
}

func (f *fakeCooldowns) DeleteExpired(_ context.Context) (int64, error) { return 0, nil }

type fakeInsurance struct {
	policies map[int64]*models.InsurancePolicy
}

func (f *fakeInsurance) Get(_ context.Context, accountID int64) (*models.InsurancePolicy, error) {
	if p, ok := f.policies[accountID]; ok {
		return p, nil
	}
	return &models.InsurancePolicy{AccountID: accountID, Tier: models.InsuranceNone}, nil
}

func (f *fakeInsurance) UpsertTx(_ context.Context, _ bun.IDB, _ *models.InsurancePolicy) error {
	return nil
}

func (f *fakeInsurance) ListDue(_ context.Context, _ time.Time) ([]*models.InsurancePolicy, error) {
	return nil, nil
}

type fakeAudits struct {
	events []*models.AuditEvent
}

func (f *fakeAudits) InsertTx(_ context.Context, _ bun.IDB, events ...*models.AuditEvent) error {
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeAudits) Insert(_ context.Context, event *models.AuditEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAudits) ListByAccount(_ context.Context, _ int64, _, _ int) ([]*models.AuditEvent, error) {
	return nil, nil
}

func (f *fakeAudits) CountByAccount(_ context.Context, _ int64) (int, error) {
	return len(f.events), nil
}

type engineFixture struct {
	engine    *Engine
	db        *fakeTxRunner
	accounts  *fakeAccounts
	equipment *fakeEquipment
	cooldowns *fakeCooldowns
	audits    *fakeAudits
	missions  *fakeMissions
}

func newEngineFixture(t *testing.T, rolls ...float64) *engineFixture {
	t.Helper()

	fx := &engineFixture{
		db: &fakeTxRunner{},
		accounts: &fakeAccounts{accounts: map[int64]*models.Account{
			1: {ID: 1, Username: "ghost", Wealth: 10_000, Experience: 40_000, Level: 21},
			2: {ID: 2, Username: "mark", Wealth: 100_000, Experience: 20_000, Level: 15},
		}},
		equipment: &fakeEquipment{
			weapons:  map[int64]*models.EquipmentItem{},
			armors:   map[int64]*models.EquipmentItem{},
			equipped: map[int64][]*models.EquipmentItem{},
		},
		cooldowns: &fakeCooldowns{entries: map[cooldownKey]time.Time{}},
		audits:    &fakeAudits{},
		missions:  &fakeMissions{},
	}
	fx.db.accounts = fx.accounts

	cfg := DefaultConfig()
	fx.engine = NewEngine(EngineParams{
		DB:         fx.db,
		Accounts:   fx.accounts,
		Equipment:  fx.equipment,
		Cooldowns:  fx.cooldowns,
		Insurance:  &fakeInsurance{policies: map[int64]*models.InsurancePolicy{}},
		Audits:     fx.audits,
		Resolver:   NewResolverWithRoll(&cfg, rollSeq(t, rolls...)),
		Propagator: NewPropagator(nil, fx.missions, nil, nil),
		Config:     cfg,
	})
	return fx
}

func TestAttemptRobberyPrecheckRejections(t *testing.T) {
	tests := []struct {
		name     string
		arrange  func(fx *engineFixture)
		targetID int64
		reason   RejectReason
	}{
		{
			name:     "self target",
			arrange:  func(fx *engineFixture) {},
			targetID: 1,
			reason:   ReasonSelfTarget,
		},
		{
			name: "attacker jailed",
			arrange: func(fx *engineFixture) {
				fx.accounts.accounts[1].JailedUntil = time.Now().Add(time.Hour)
			},
			targetID: 2,
			reason:   ReasonJailed,
		},
		{
			name:     "target missing",
			arrange:  func(fx *engineFixture) {},
			targetID: 99,
			reason:   ReasonTargetNotFound,
		},
		{
			name: "target broke",
			arrange: func(fx *engineFixture) {
				fx.accounts.accounts[2].Wealth = 0
			},
			targetID: 2,
			reason:   ReasonTargetBroke,
		},
		{
			name: "target immune",
			arrange: func(fx *engineFixture) {
				fx.accounts.accounts[2].ImmuneUntil = time.Now().Add(time.Hour)
			},
			targetID: 2,
			reason:   ReasonTargetImmune,
		},
		{
			name: "pair on cooldown",
			arrange: func(fx *engineFixture) {
				fx.cooldowns.arm(1, 2, 3*time.Hour)
			},
			targetID: 2,
			reason:   ReasonOnCooldown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newEngineFixture(t)
			tt.arrange(fx)

			res, err := fx.engine.AttemptRobbery(context.Background(), 1, tt.targetID)
			require.Error(t, err)
			assert.Nil(t, res)

			var perr *PrecheckError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.reason, perr.Reason)

			// Rejections must not open a transaction or write anything.
			assert.Zero(t, fx.db.calls)
			assert.Empty(t, fx.audits.events)
		})
	}
}

func TestAttemptRobberyAttackerBusy(t *testing.T) {
	fx := newEngineFixture(t)
	require.True(t, fx.engine.locks.Acquire(1))
	defer fx.engine.locks.Release(1)

	_, err := fx.engine.AttemptRobbery(context.Background(), 1, 2)
	var perr *PrecheckError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ReasonAttackerBusy, perr.Reason)
}

func TestAttemptRobberySuccessCommit(t *testing.T) {
	// Rolls: success check 0.0, steal fraction 0.5, item theft 0.9 (miss).
	fx := newEngineFixture(t, 0.0, 0.5, 0.9)

	res, err := fx.engine.AttemptRobbery(context.Background(), 1, 2)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.NotEmpty(t, res.RobberyID)

	// 18% of 100k with no insurance, all of it lands on the attacker.
	assert.InDelta(t, 18_000, res.WealthStolen, 1)
	assert.Equal(t, int64(0), res.InsuranceSaved)
	assert.Equal(t, fx.accounts.transfers[0], res.WealthStolen)
	assert.Equal(t, int64(10_000)+res.WealthStolen, fx.accounts.accounts[1].Wealth)
	assert.Equal(t, int64(100_000)-res.WealthStolen, fx.accounts.accounts[2].Wealth)

	assert.Equal(t, DefaultConfig().SuccessExperience, res.ExperienceGained)
	assert.Equal(t, progression.LevelForExperience(fx.accounts.accounts[1].Experience), res.AttackerNewLevel)

	// Both slots are worn down and the pair cooldown is armed.
	assert.Equal(t, []models.EquipmentSlot{models.SlotWeapon, models.SlotArmor}, fx.equipment.degrades)
	assert.Equal(t, 1, fx.cooldowns.sets)
	assert.False(t, res.CooldownExpiresAt.IsZero())

	// One ledger row per side, sharing the robbery reference.
	require.Len(t, fx.audits.events, 2)
	assert.Equal(t, models.AuditRobberyCommitted, fx.audits.events[0].Type)
	assert.Equal(t, models.AuditRobberySuffered, fx.audits.events[1].Type)
	assert.Equal(t, res.RobberyID, fx.audits.events[0].Reference)
	assert.Equal(t, res.RobberyID, fx.audits.events[1].Reference)
	assert.Equal(t, res.WealthStolen, fx.audits.events[0].WealthDelta)
	assert.Equal(t, -res.WealthStolen, fx.audits.events[1].WealthDelta)

	// Side effects ran after the commit.
	assert.Equal(t, int64(1), fx.missions.increments[ObjectiveRobAttempts])
	assert.Equal(t, res.WealthStolen, fx.missions.increments[ObjectiveWealthStolen])

	assert.NotEmpty(t, res.Message)
	assert.False(t, fx.engine.locks.Active(1))
}

func TestAttemptRobberyFailureStillCommits(t *testing.T) {
	// Roll 0.96 is above the capped max rate, guaranteed failure.
	fx := newEngineFixture(t, 0.96)

	res, err := fx.engine.AttemptRobbery(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Zero(t, res.WealthStolen)
	assert.Empty(t, fx.accounts.transfers)

	// A failed attempt still pays consolation experience, wears gear and
	// arms the cooldown.
	assert.Equal(t, DefaultConfig().FailureExperience, res.ExperienceGained)
	assert.Len(t, fx.equipment.degrades, 2)
	assert.Equal(t, 1, fx.cooldowns.sets)

	require.Len(t, fx.audits.events, 2)
	assert.Equal(t, models.AuditRobberyFailed, fx.audits.events[0].Type)
	assert.Equal(t, models.AuditRobberyDefended, fx.audits.events[1].Type)
}

func TestAttemptRobberyCommitFailureRollsBack(t *testing.T) {
	fx := newEngineFixture(t, 0.0, 0.5, 0.9)
	fx.db.err = errors.New("connection reset")

	res, err := fx.engine.AttemptRobbery(context.Background(), 1, 2)
	require.Error(t, err)
	assert.Nil(t, res)

	var cerr *CommitError
	require.ErrorAs(t, err, &cerr)
	assert.NotEmpty(t, cerr.RobberyID)

	// No side effects fire for an uncommitted robbery.
	assert.Empty(t, fx.missions.increments)
	assert.False(t, fx.engine.locks.Active(1))
}

func TestAttemptRobberyMidCommitFailureRestoresWealth(t *testing.T) {
	// The cooldown write runs after the wealth transfer inside the same
	// transaction, so failing it forces a rollback of moved funds.
	fx := newEngineFixture(t, 0.0, 0.5, 0.9)
	fx.cooldowns.setErr = errors.New("deadlock detected")

	res, err := fx.engine.AttemptRobbery(context.Background(), 1, 2)
	require.Error(t, err)
	assert.Nil(t, res)

	var cerr *CommitError
	require.ErrorAs(t, err, &cerr)

	assert.Equal(t, int64(10_000), fx.accounts.accounts[1].Wealth)
	assert.Equal(t, int64(100_000), fx.accounts.accounts[2].Wealth)
	assert.Empty(t, fx.audits.events)
	assert.Empty(t, fx.missions.increments)
	assert.False(t, fx.engine.locks.Active(1))
}

func TestAttemptRobberyCooldownIsPerTarget(t *testing.T) {
	fx := newEngineFixture(t, 0.0, 0.5, 0.9)
	fx.accounts.accounts[3] = &models.Account{ID: 3, Username: "vic", Wealth: 5_000, Experience: 10_000, Level: 10}

	_, err := fx.engine.AttemptRobbery(context.Background(), 1, 2)
	require.NoError(t, err)

	// The robbed pair is timed out.
	_, err = fx.engine.AttemptRobbery(context.Background(), 1, 2)
	var perr *PrecheckError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ReasonOnCooldown, perr.Reason)

	// A fresh target is not.
	check, err := fx.engine.CanRob(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.True(t, check.Allowed)
}

func TestAttemptRobberyItemTheftTransfer(t *testing.T) {
	// Rolls: success 0.0, fraction 0.5, item theft 0.01 (hit), pick 0.0.
	fx := newEngineFixture(t, 0.0, 0.5, 0.01, 0.0)
	knife := &models.EquipmentItem{ID: 7, AccountID: 2, Name: "Switchblade", Slot: models.SlotWeapon, Durability: 50, Equipped: true}
	fx.equipment.equipped[2] = []*models.EquipmentItem{knife}

	res, err := fx.engine.AttemptRobbery(context.Background(), 1, 2)
	require.NoError(t, err)
	require.NotNil(t, res.ItemStolen)
	assert.Equal(t, int64(7), res.ItemStolen.ID)

	// Inventory had room, so the item changed owners directly.
	assert.Equal(t, []int64{7}, fx.equipment.transfers)
	assert.Empty(t, fx.equipment.escrows)

	// Wealth commit plus item transfer each get their own transaction,
	// and the item events share the robbery reference.
	assert.Equal(t, 2, fx.db.calls)
	require.Len(t, fx.audits.events, 4)
	assert.Equal(t, models.AuditItemStolen, fx.audits.events[2].Type)
	assert.Equal(t, models.AuditItemLost, fx.audits.events[3].Type)
	assert.Equal(t, res.RobberyID, fx.audits.events[2].Reference)
}

func TestAttemptRobberyItemTheftEscrowWhenFull(t *testing.T) {
	fx := newEngineFixture(t, 0.0, 0.5, 0.01, 0.0)
	knife := &models.EquipmentItem{ID: 7, AccountID: 2, Name: "Switchblade", Slot: models.SlotWeapon, Durability: 50, Equipped: true}
	fx.equipment.equipped[2] = []*models.EquipmentItem{knife}
	fx.equipment.ownerCount = DefaultConfig().InventoryCapacity

	res, err := fx.engine.AttemptRobbery(context.Background(), 1, 2)
	require.NoError(t, err)
	require.NotNil(t, res.ItemStolen)

	assert.Empty(t, fx.equipment.transfers)
	require.Len(t, fx.equipment.escrows, 1)
	escrow := fx.equipment.escrows[0]
	assert.Equal(t, int64(7), escrow.ItemID)
	assert.Equal(t, int64(1), escrow.AccountID)
	assert.Equal(t, models.EscrowReasonTheft, escrow.Reason)
	assert.WithinDuration(t, time.Now().Add(DefaultConfig().TheftEscrowTTL), escrow.ExpiresAt, time.Minute)
}

func TestCanRobPreview(t *testing.T) {
	fx := newEngineFixture(t)

	check, err := fx.engine.CanRob(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, check.Allowed)
	assert.Equal(t, int64(2), check.TargetID)
	assert.Equal(t, "mark", check.TargetName)
	assert.Equal(t, int64(100_000), check.TargetWealth)
	assert.Greater(t, check.PreviewSuccessRate, 0.5)
	assert.LessOrEqual(t, check.PreviewSuccessRate, 0.95)

	fx.cooldowns.arm(1, 2, time.Hour)
	check, err = fx.engine.CanRob(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, check.Allowed)
	assert.Equal(t, ReasonOnCooldown, check.Reason)
	assert.InDelta(t, time.Hour, check.CooldownRemaining, float64(time.Second))
}
