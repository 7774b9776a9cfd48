package robbery

import (
	"fmt"
	"time"

	"github.com/hoodline/hoodbot/hoodbot/database/models"
	"github.com/hoodline/hoodbot/hoodbot/database/repositories"
	"github.com/hoodline/hoodbot/hoodbot/utils"
)

// RejectReason classifies why a robbery was refused before any mutation.
type RejectReason string

const (
	ReasonJailed         RejectReason = "jailed"
	ReasonSelfTarget     RejectReason = "self_target"
	ReasonTargetNotFound RejectReason = "target_not_found"
	ReasonTargetBroke    RejectReason = "target_broke"
	ReasonTargetImmune   RejectReason = "target_immune"
	ReasonOnCooldown     RejectReason = "on_cooldown"
	ReasonAttackerBusy   RejectReason = "attacker_busy"
)

// PrecheckError is a fail-fast rejection: no transaction was opened and
// nothing was mutated. The message is safe to show to the player.
type PrecheckError struct {
	Reason  RejectReason
	Message string

	// RetryIn is set for cooldown rejections.
	RetryIn time.Duration
}

func (e *PrecheckError) Error() string {
	return fmt.Sprintf("robbery rejected (%s): %s", e.Reason, e.Message)
}

// CommitError wraps a persistence failure during the atomic commit. The
// whole robbery was rolled back; the caller may retry.
type CommitError struct {
	RobberyID string
	Err       error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("robbery %s failed to commit: %v", e.RobberyID, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// Outcome is the resolved result of one robbery roll before it is applied.
// It is transient and never persisted as its own entity.
type Outcome struct {
	AttackerID int64
	DefenderID int64

	SuccessRate float64
	Success     bool

	GrossStolen     int64
	InsurancePayout int64
	NetStolen       int64

	// StolenItem is non-nil when the independent item-theft roll hit.
	StolenItem *models.EquipmentItem

	ExperienceDelta int64
}

// ItemRef describes a stolen item for the presentation layer.
type ItemRef struct {
	ID   int64
	Name string
	Type models.EquipmentSlot
	Tier int
}

// RobberyResult is what the chat/web layer renders.
type RobberyResult struct {
	RobberyID string

	AttackerID   int64
	DefenderID   int64
	AttackerName string
	DefenderName string

	Success           bool
	WealthStolen      int64
	InsuranceSaved    int64
	ItemStolen        *ItemRef
	ExperienceGained  int64
	AttackerNewLevel  int
	AttackerNewTier   string

	AttackerWeaponDamage repositories.DamageReport
	DefenderArmorDamage  repositories.DamageReport

	CooldownExpiresAt time.Time

	// Message is the human-readable summary shown to the attacker.
	Message string
}

// RobCheck is the non-mutating preview returned by CanRob.
type RobCheck struct {
	Allowed bool
	Reason  RejectReason
	Message string

	PreviewSuccessRate float64
	TargetID           int64
	TargetName         string
	TargetWealth       int64
	CooldownRemaining  time.Duration
}

func buildMessage(res *RobberyResult) string {
	if !res.Success {
		return fmt.Sprintf("You tried to rob %s and came away with nothing. Lay low for a while.", res.DefenderName)
	}

	msg := fmt.Sprintf("You robbed %s for $%s", res.DefenderName, utils.FormatNumber(res.WealthStolen))
	if res.InsuranceSaved > 0 {
		msg += fmt.Sprintf(" (their insurance covered $%s)", utils.FormatNumber(res.InsuranceSaved))
	}
	if res.ItemStolen != nil {
		msg += fmt.Sprintf(" and snatched their %s", res.ItemStolen.Name)
	}
	msg += "."

	if res.AttackerWeaponDamage.Destroyed {
		msg += fmt.Sprintf(" Your %s broke during the job.", res.AttackerWeaponDamage.ItemName)
	}
	return msg
}

func buildVictimDescription(res *RobberyResult) string {
	if !res.Success {
		return fmt.Sprintf("%s tried to rob you and failed.", res.AttackerName)
	}

	desc := fmt.Sprintf("%s robbed you for $%s", res.AttackerName, utils.FormatNumber(res.WealthStolen))
	if res.InsuranceSaved > 0 {
		desc += fmt.Sprintf(", your insurance saved $%s", utils.FormatNumber(res.InsuranceSaved))
	}
	if res.ItemStolen != nil {
		desc += fmt.Sprintf(", and they took your %s", res.ItemStolen.Name)
	}
	desc += "."

	if res.DefenderArmorDamage.Destroyed {
		desc += fmt.Sprintf(" Your %s was destroyed.", res.DefenderArmorDamage.ItemName)
	}
	return desc
}
