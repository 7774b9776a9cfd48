package robbery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/hoodline/hoodbot/hoodbot/database/models"
	"github.com/hoodline/hoodbot/hoodbot/database/repositories"
	"github.com/hoodline/hoodbot/hoodbot/utils"
)

// TxRunner is the transaction surface the engine needs from *bun.DB.
type TxRunner interface {
	RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error
}

// Recorder receives engine metrics. A nil Recorder disables them.
type Recorder interface {
	ObserveAttempt(result string)
	ObserveWealthStolen(amount int64)
	ObserveCommitDuration(d time.Duration)
}

// Metric result labels.
const (
	ResultSuccess     = "success"
	ResultFailure     = "failure"
	ResultRejected    = "rejected"
	ResultCommitError = "commit_error"
)

// Engine runs the full robbery pipeline: precheck, resolution, atomic
// commit, item transfer and side-effect propagation.
type Engine struct {
	db        TxRunner
	accounts  repositories.AccountRepository
	equipment repositories.EquipmentRepository
	cooldowns repositories.CooldownRepository
	insurance repositories.InsuranceRepository
	audits    repositories.AuditRepository

	resolver   *Resolver
	locks      *AttackLocks
	propagator *Propagator
	metrics    Recorder

	cfg Config
}

type EngineParams struct {
	DB         TxRunner
	Accounts   repositories.AccountRepository
	Equipment  repositories.EquipmentRepository
	Cooldowns  repositories.CooldownRepository
	Insurance  repositories.InsuranceRepository
	Audits     repositories.AuditRepository
	Resolver   *Resolver
	Locks      *AttackLocks
	Propagator *Propagator
	Metrics    Recorder
	Config     Config
}

func NewEngine(p EngineParams) *Engine {
	if p.Resolver == nil {
		p.Resolver = NewResolver(&p.Config)
	}
	if p.Locks == nil {
		p.Locks = NewAttackLocks(time.Minute)
	}
	return &Engine{
		db:         p.DB,
		accounts:   p.Accounts,
		equipment:  p.Equipment,
		cooldowns:  p.Cooldowns,
		insurance:  p.Insurance,
		audits:     p.Audits,
		resolver:   p.Resolver,
		locks:      p.Locks,
		propagator: p.Propagator,
		metrics:    p.Metrics,
		cfg:        p.Config,
	}
}

// CanRob runs the fail-fast checks without mutating anything and previews
// the success rate. The preview can go stale before AttemptRobbery; the
// attempt re-reads everything.
func (e *Engine) CanRob(ctx context.Context, attackerID, targetID int64) (*RobCheck, error) {
	attacker, defender, perr, err := e.precheck(ctx, attackerID, targetID)
	if err != nil {
		return nil, err
	}
	if perr != nil {
		return &RobCheck{
			Allowed:           false,
			Reason:            perr.Reason,
			Message:           perr.Message,
			CooldownRemaining: perr.RetryIn,
		}, nil
	}

	snap, err := e.snapshot(ctx, attacker, defender)
	if err != nil {
		return nil, err
	}

	return &RobCheck{
		Allowed:            true,
		PreviewSuccessRate: e.resolver.Rate(snap),
		TargetID:           defender.ID,
		TargetName:         defender.Username,
		TargetWealth:       defender.Wealth,
	}, nil
}

// AttemptRobbery executes one robbery end to end. A *PrecheckError means
// nothing was mutated; a *CommitError means the whole attempt rolled back.
func (e *Engine) AttemptRobbery(ctx context.Context, attackerID, targetID int64) (*RobberyResult, error) {
	if !e.locks.Acquire(attackerID) {
		e.observeAttempt(ResultRejected)
		return nil, &PrecheckError{
			Reason:  ReasonAttackerBusy,
			Message: "You already have a job in progress.",
		}
	}
	defer e.locks.Release(attackerID)

	attacker, defender, perr, err := e.precheck(ctx, attackerID, targetID)
	if err != nil {
		return nil, err
	}
	if perr != nil {
		e.observeAttempt(ResultRejected)
		return nil, perr
	}

	// The snapshot is read fresh here so the insurance policy and gear
	// reflect the moment of the attack, not the preview.
	snap, err := e.snapshot(ctx, attacker, defender)
	if err != nil {
		return nil, err
	}

	outcome := e.resolver.Resolve(snap)
	robberyID := uuid.NewString()

	res := &RobberyResult{
		RobberyID:      robberyID,
		AttackerID:     attacker.ID,
		DefenderID:     defender.ID,
		AttackerName:   attacker.Username,
		DefenderName:   defender.Username,
		Success:        outcome.Success,
		WealthStolen:   outcome.NetStolen,
		InsuranceSaved: outcome.InsurancePayout,
	}

	start := time.Now()
	err = e.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return e.commit(ctx, tx, snap, outcome, res)
	})
	e.observeCommit(time.Since(start))
	if err != nil {
		e.observeAttempt(ResultCommitError)
		return nil, &CommitError{RobberyID: robberyID, Err: err}
	}

	// The wealth commit above stands on its own. Item transfer is a second
	// transaction; if it fails the robbery result simply loses the item.
	if outcome.StolenItem != nil {
		res.ItemStolen = &ItemRef{
			ID:   outcome.StolenItem.ID,
			Name: outcome.StolenItem.Name,
			Type: outcome.StolenItem.Slot,
			Tier: outcome.StolenItem.Tier,
		}
		if err := e.transferStolenItem(ctx, robberyID, attacker, defender, outcome.StolenItem); err != nil {
			slog.Error("Stolen item transfer failed",
				slog.String("type", "error"),
				slog.String("robbery_id", robberyID),
				slog.Int64("item_id", outcome.StolenItem.ID),
				slog.Any("error", err))
			res.ItemStolen = nil
		}
	}

	res.Message = buildMessage(res)

	if res.Success {
		e.observeAttempt(ResultSuccess)
		e.observeWealth(res.WealthStolen)
	} else {
		e.observeAttempt(ResultFailure)
	}

	e.propagator.Dispatch(ctx, res)
	return res, nil
}

// precheck applies the fail-fast rejections in a fixed order. It returns a
// *PrecheckError for player-caused rejections and err for infrastructure
// failures.
func (e *Engine) precheck(ctx context.Context, attackerID, targetID int64) (*models.Account, *models.Account, *PrecheckError, error) {
	now := time.Now()

	attacker, err := e.accounts.GetByID(ctx, attackerID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load attacker %d: %w", attackerID, err)
	}
	if attacker.Jailed(now) {
		return nil, nil, &PrecheckError{
			Reason:  ReasonJailed,
			Message: fmt.Sprintf("You are locked up for another %s.", utils.FormatDuration(attacker.JailedUntil.Sub(now))),
			RetryIn: attacker.JailedUntil.Sub(now),
		}, nil
	}

	if attackerID == targetID {
		return nil, nil, &PrecheckError{
			Reason:  ReasonSelfTarget,
			Message: "You cannot rob yourself.",
		}, nil
	}

	defender, err := e.accounts.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, nil, &PrecheckError{
				Reason:  ReasonTargetNotFound,
				Message: "That player does not exist.",
			}, nil
		}
		return nil, nil, nil, fmt.Errorf("failed to load target %d: %w", targetID, err)
	}

	if defender.Wealth <= 0 {
		return nil, nil, &PrecheckError{
			Reason:  ReasonTargetBroke,
			Message: fmt.Sprintf("%s has nothing worth taking.", defender.Username),
		}, nil
	}

	if defender.Immune(now) {
		return nil, nil, &PrecheckError{
			Reason:  ReasonTargetImmune,
			Message: fmt.Sprintf("%s is under protection right now.", defender.Username),
			RetryIn: defender.ImmuneUntil.Sub(now),
		}, nil
	}

	remaining, err := e.cooldowns.Remaining(ctx, attackerID, models.ActionRob, targetID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to check rob cooldown: %w", err)
	}
	if remaining > 0 {
		return nil, nil, &PrecheckError{
			Reason:  ReasonOnCooldown,
			Message: fmt.Sprintf("You hit %s too recently. Try again in %s.", defender.Username, utils.FormatDuration(remaining)),
			RetryIn: remaining,
		}, nil
	}

	return attacker, defender, nil, nil
}

func (e *Engine) snapshot(ctx context.Context, attacker, defender *models.Account) (Snapshot, error) {
	weapon, err := e.equipment.GetEquippedBySlot(ctx, attacker.ID, models.SlotWeapon)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load attacker weapon: %w", err)
	}
	armor, err := e.equipment.GetEquippedBySlot(ctx, defender.ID, models.SlotArmor)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load defender armor: %w", err)
	}
	equipped, err := e.equipment.GetEquipped(ctx, defender.ID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load defender equipment: %w", err)
	}
	policy, err := e.insurance.Get(ctx, defender.ID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load defender insurance: %w", err)
	}

	return Snapshot{
		Attacker:         attacker,
		Defender:         defender,
		AttackerWeapon:   weapon,
		DefenderArmor:    armor,
		DefenderEquipped: equipped,
		DefenderPolicy:   policy,
		Now:              time.Now(),
	}, nil
}

// commit applies every consequence of a resolved robbery in one
// transaction: guarded wealth transfer, experience with level and tier,
// gear wear, the pair cooldown and both ledger entries. Any failure rolls
// back the whole set.
func (e *Engine) commit(ctx context.Context, tx bun.Tx, snap Snapshot, outcome *Outcome, res *RobberyResult) error {
	if outcome.Success && outcome.NetStolen > 0 {
		if err := e.accounts.TransferWealthTx(ctx, tx, snap.Defender.ID, snap.Attacker.ID, outcome.NetStolen); err != nil {
			return err
		}
	}

	level, tier, err := e.accounts.AddExperienceTx(ctx, tx, snap.Attacker.ID, outcome.ExperienceDelta)
	if err != nil {
		return err
	}
	res.ExperienceGained = outcome.ExperienceDelta
	res.AttackerNewLevel = level
	res.AttackerNewTier = tier

	weaponDamage, err := e.equipment.DegradeEquippedTx(ctx, tx, snap.Attacker.ID, models.SlotWeapon, e.cfg.WeaponDegradeStep)
	if err != nil {
		return err
	}
	armorDamage, err := e.equipment.DegradeEquippedTx(ctx, tx, snap.Defender.ID, models.SlotArmor, e.cfg.ArmorDegradeStep)
	if err != nil {
		return err
	}
	res.AttackerWeaponDamage = weaponDamage
	res.DefenderArmorDamage = armorDamage

	expiresAt, err := e.cooldowns.SetTx(ctx, tx, snap.Attacker.ID, models.ActionRob, snap.Defender.ID, e.cfg.Cooldown)
	if err != nil {
		return err
	}
	res.CooldownExpiresAt = expiresAt

	attackerType := AuditRobberyTypeAttacker(outcome.Success)
	defenderType := AuditRobberyTypeDefender(outcome.Success)

	return e.audits.InsertTx(ctx, tx,
		&models.AuditEvent{
			AccountID:        snap.Attacker.ID,
			Type:             attackerType,
			WealthDelta:      outcome.NetStolen,
			ExperienceDelta:  outcome.ExperienceDelta,
			RelatedAccountID: snap.Defender.ID,
			Reference:        res.RobberyID,
			Success:          outcome.Success,
			Description:      buildMessage(res),
		},
		&models.AuditEvent{
			AccountID:        snap.Defender.ID,
			Type:             defenderType,
			WealthDelta:      -outcome.NetStolen,
			RelatedAccountID: snap.Attacker.ID,
			Reference:        res.RobberyID,
			Success:          !outcome.Success,
			Description:      buildVictimDescription(res),
		},
	)
}

// AuditRobberyTypeAttacker maps the roll outcome to the attacker's ledger
// event type.
func AuditRobberyTypeAttacker(success bool) string {
	if success {
		return models.AuditRobberyCommitted
	}
	return models.AuditRobberyFailed
}

// AuditRobberyTypeDefender maps the roll outcome to the defender's ledger
// event type.
func AuditRobberyTypeDefender(success bool) string {
	if success {
		return models.AuditRobberySuffered
	}
	return models.AuditRobberyDefended
}

// transferStolenItem moves the stolen item to the attacker, or into escrow
// when the attacker's inventory is full. Runs after the wealth commit in
// its own transaction.
func (e *Engine) transferStolenItem(ctx context.Context, robberyID string, attacker, defender *models.Account, item *models.EquipmentItem) error {
	return e.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		count, err := e.equipment.CountByOwner(ctx, tx, attacker.ID)
		if err != nil {
			return fmt.Errorf("failed to count attacker inventory: %w", err)
		}

		escrowed := count >= e.cfg.InventoryCapacity
		if escrowed {
			err = e.equipment.CreateEscrowTx(ctx, tx, &models.EscrowItem{
				ItemID:    item.ID,
				AccountID: attacker.ID,
				Reason:    models.EscrowReasonTheft,
				ExpiresAt: time.Now().Add(e.cfg.TheftEscrowTTL),
			})
		} else {
			err = e.equipment.TransferOwnershipTx(ctx, tx, item.ID, attacker.ID)
		}
		if err != nil {
			return err
		}

		gain := fmt.Sprintf("You stole %s from %s.", item.Name, defender.Username)
		if escrowed {
			gain = fmt.Sprintf("You stole %s from %s. Your stash is full; claim it from escrow within %s.",
				item.Name, defender.Username, utils.FormatDuration(e.cfg.TheftEscrowTTL))
		}

		return e.audits.InsertTx(ctx, tx,
			&models.AuditEvent{
				AccountID:        attacker.ID,
				Type:             models.AuditItemStolen,
				RelatedAccountID: defender.ID,
				Reference:        robberyID,
				Success:          true,
				Description:      gain,
			},
			&models.AuditEvent{
				AccountID:        defender.ID,
				Type:             models.AuditItemLost,
				RelatedAccountID: attacker.ID,
				Reference:        robberyID,
				Description:      fmt.Sprintf("%s took your %s during a robbery.", attacker.Username, item.Name),
			},
		)
	})
}

func (e *Engine) observeAttempt(result string) {
	if e.metrics != nil {
		e.metrics.ObserveAttempt(result)
	}
}

func (e *Engine) observeWealth(amount int64) {
	if e.metrics != nil {
		e.metrics.ObserveWealthStolen(amount)
	}
}

func (e *Engine) observeCommit(d time.Duration) {
	if e.metrics != nil {
		e.metrics.ObserveCommitDuration(d)
	}
}
