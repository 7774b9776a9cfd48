package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Audit event types.
const (
	AuditRobberyCommitted = "robbery_committed"
	AuditRobberySuffered  = "robbery_suffered"
	AuditRobberyDefended  = "robbery_defended"
	AuditRobberyFailed    = "robbery_failed"
	AuditItemStolen       = "item_stolen"
	AuditItemLost         = "item_lost"
	AuditInsurancePaid    = "insurance_premium_paid"
	AuditInsuranceLapsed  = "insurance_lapsed"
	AuditInsuranceBought  = "insurance_purchased"
)

// AuditEvent is an append-only ledger row, one per side of a transaction.
// Rows are write-once and never mutated.
type AuditEvent struct {
	bun.BaseModel `bun:"table:audit_events,alias:ae"`

	ID               int64     `bun:"id,pk,autoincrement"`
	AccountID        int64     `bun:"account_id,notnull"`
	Type             string    `bun:"type,notnull"`
	WealthDelta      int64     `bun:"wealth_delta,notnull,default:0"`
	ExperienceDelta  int64     `bun:"experience_delta,notnull,default:0"`
	RelatedAccountID int64     `bun:"related_account_id,nullzero"`
	Reference        string    `bun:"reference,nullzero"`
	Success          bool      `bun:"success,notnull,default:false"`
	Description      string    `bun:"description,notnull"`
	CreatedAt        time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
