package insurance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"

	"github.com/hoodline/hoodbot/hoodbot/config"
	"github.com/hoodline/hoodbot/hoodbot/database/models"
	"github.com/hoodline/hoodbot/hoodbot/database/repositories"
	"github.com/hoodline/hoodbot/hoodbot/utils"
)

var ErrCannotAfford = errors.New("cannot afford insurance")

// TxRunner matches the transaction surface of *bun.DB.
type TxRunner interface {
	RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error
}

// Manager sells policies and collects premiums.
type Manager struct {
	db       TxRunner
	accounts repositories.AccountRepository
	policies repositories.InsuranceRepository
	audits   repositories.AuditRepository
	cfg      Config
}

func NewManager(db TxRunner, accounts repositories.AccountRepository, policies repositories.InsuranceRepository, audits repositories.AuditRepository, cfg Config) *Manager {
	return &Manager{
		db:       db,
		accounts: accounts,
		policies: policies,
		audits:   audits,
		cfg:      cfg,
	}
}

// Status is the player-facing view of a policy.
type Status struct {
	Tier      models.InsuranceTier
	Fraction  float64
	Premium   int64
	IsCurrent bool
	PaidUntil time.Time
}

// Status reports the account's current policy state.
func (m *Manager) Status(ctx context.Context, accountID int64) (*Status, error) {
	policy, err := m.policies.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	st := &Status{
		Tier:      policy.Tier,
		Fraction:  m.cfg.Fraction(policy.Tier),
		Premium:   m.cfg.Premium(policy.Tier),
		IsCurrent: policy.Current(time.Now(), m.cfg.BillingPeriod, m.cfg.Grace),
	}
	if policy.Tier != models.InsuranceNone && !policy.LastPremiumPaidAt.IsZero() {
		st.PaidUntil = policy.LastPremiumPaidAt.Add(m.cfg.BillingPeriod + m.cfg.Grace)
	}
	return st, nil
}

// Purchase moves the account onto a tier and charges the first premium up
// front. Buying the tier already held just pays the premium and refreshes
// the billing clock.
func (m *Manager) Purchase(ctx context.Context, accountID int64, tier models.InsuranceTier) (*Status, error) {
	if !tier.Valid() || tier == models.InsuranceNone {
		return nil, fmt.Errorf("unknown insurance tier %q", tier)
	}

	premium := m.cfg.Premium(tier)
	now := time.Now()

	err := m.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := m.accounts.AdjustWealthTx(ctx, tx, accountID, -premium); err != nil {
			if errors.Is(err, repositories.ErrInsufficientWealth) {
				return ErrCannotAfford
			}
			return err
		}
		if err := m.policies.UpsertTx(ctx, tx, &models.InsurancePolicy{
			AccountID:         accountID,
			Tier:              tier,
			LastPremiumPaidAt: now,
		}); err != nil {
			return err
		}
		return m.audits.InsertTx(ctx, tx, &models.AuditEvent{
			AccountID:   accountID,
			Type:        models.AuditInsuranceBought,
			WealthDelta: -premium,
			Success:     true,
			Description: fmt.Sprintf("Bought %s insurance for $%s.", tier, utils.FormatNumber(premium)),
		})
	})
	if err != nil {
		return nil, err
	}

	return &Status{
		Tier:      tier,
		Fraction:  m.cfg.Fraction(tier),
		Premium:   premium,
		IsCurrent: true,
		PaidUntil: now.Add(m.cfg.BillingPeriod + m.cfg.Grace),
	}, nil
}

// ChargePremium collects one billing period's premium for the account. A
// balance too low to pay lapses the policy to tier none with an audit
// trail; that is the only way a tier ever goes down.
func (m *Manager) ChargePremium(ctx context.Context, accountID int64) error {
	policy, err := m.policies.Get(ctx, accountID)
	if err != nil {
		return err
	}
	if policy.Tier == models.InsuranceNone {
		return nil
	}

	premium := m.cfg.Premium(policy.Tier)
	now := time.Now()

	return m.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		err := m.accounts.AdjustWealthTx(ctx, tx, accountID, -premium)
		if errors.Is(err, repositories.ErrInsufficientWealth) {
			return m.lapseTx(ctx, tx, policy, now)
		}
		if err != nil {
			return err
		}

		policy.LastPremiumPaidAt = now
		if err := m.policies.UpsertTx(ctx, tx, policy); err != nil {
			return err
		}
		return m.audits.InsertTx(ctx, tx, &models.AuditEvent{
			AccountID:   accountID,
			Type:        models.AuditInsurancePaid,
			WealthDelta: -premium,
			Success:     true,
			Description: fmt.Sprintf("Paid %s insurance premium of $%s.", policy.Tier, utils.FormatNumber(premium)),
		})
	})
}

// ChargeDuePremiums sweeps every policy whose billing period has elapsed.
// Accounts are charged concurrently with a bounded worker count; one
// account failing does not stop the sweep.
func (m *Manager) ChargeDuePremiums(ctx context.Context) error {
	due, err := m.policies.ListDue(ctx, time.Now().Add(-m.cfg.BillingPeriod))
	if err != nil {
		return fmt.Errorf("failed to list due policies: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(config.PremiumSweepWorkers)
	for _, policy := range due {
		policy := policy
		g.Go(func() error {
			if err := m.ChargePremium(ctx, policy.AccountID); err != nil {
				slog.Error("Premium charge failed",
					slog.String("type", "insurance"),
					slog.Int64("account_id", policy.AccountID),
					slog.Any("error", err))
			}
			return nil
		})
	}
	return g.Wait()
}

func (m *Manager) lapseTx(ctx context.Context, tx bun.Tx, policy *models.InsurancePolicy, now time.Time) error {
	lapsedFrom := policy.Tier
	policy.Tier = models.InsuranceNone
	if err := m.policies.UpsertTx(ctx, tx, policy); err != nil {
		return err
	}

	slog.Info("Insurance lapsed",
		slog.String("type", "insurance"),
		slog.Int64("account_id", policy.AccountID),
		slog.String("tier", string(lapsedFrom)))

	return m.audits.InsertTx(ctx, tx, &models.AuditEvent{
		AccountID:   policy.AccountID,
		Type:        models.AuditInsuranceLapsed,
		Description: fmt.Sprintf("Could not pay %s insurance premium; coverage lapsed at %s.", lapsedFrom, now.Format(time.RFC3339)),
	})
}
