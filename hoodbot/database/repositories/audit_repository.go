package repositories

import (
	"context"
	"time"

	"github.com/hoodline/hoodbot/hoodbot/database/models"
	"github.com/uptrace/bun"
)

// AuditRepository appends to the write-once event log. There is
// intentionally no update or delete surface.
type AuditRepository interface {
	InsertTx(ctx context.Context, tx bun.IDB, events ...*models.AuditEvent) error
	Insert(ctx context.Context, event *models.AuditEvent) error
	ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*models.AuditEvent, error)
	CountByAccount(ctx context.Context, accountID int64) (int, error)
}

type auditRepository struct {
	db *bun.DB
}

func NewAuditRepository(db *bun.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) InsertTx(ctx context.Context, tx bun.IDB, events ...*models.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}
	now := time.Now()
	for _, ev := range events {
		if ev.CreatedAt.IsZero() {
			ev.CreatedAt = now
		}
	}
	_, err := tx.NewInsert().Model(&events).Exec(ctx)
	return err
}

func (r *auditRepository) Insert(ctx context.Context, event *models.AuditEvent) error {
	return r.InsertTx(ctx, r.db, event)
}

func (r *auditRepository) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*models.AuditEvent, error) {
	var events []*models.AuditEvent
	err := r.db.NewSelect().
		Model(&events).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	return events, err
}

func (r *auditRepository) CountByAccount(ctx context.Context, accountID int64) (int, error) {
	return r.db.NewSelect().
		Model((*models.AuditEvent)(nil)).
		Where("account_id = ?", accountID).
		Count(ctx)
}
