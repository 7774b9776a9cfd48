package robbery

import (
	"context"
	"fmt"
	"log/slog"
)

// Collaborator contracts. Implementations live outside the engine; the
// engine only promises to call them after a committed robbery and to keep
// their failures away from the primary result.

// AttemptRecord is one account's view of a finished attempt.
type AttemptRecord struct {
	Success         bool
	WealthDelta     int64
	ExperienceDelta int64
	AsDefender      bool
}

type Leaderboard interface {
	RecordRobAttempt(ctx context.Context, accountID int64, rec AttemptRecord) error
}

type Missions interface {
	IncrementProgress(ctx context.Context, accountID int64, objectiveKey string, amount int64) error
	SetProgress(ctx context.Context, accountID int64, objectiveKey string, value int64) error
}

type Notifier interface {
	NotifyRobbed(ctx context.Context, accountID int64, attackerName string, amountLost int64, itemLostName string) error
	NotifyDefended(ctx context.Context, accountID int64, attackerName string) error
}

type Feed interface {
	PostItemTheft(ctx context.Context, attackerName, defenderName, itemName string, itemTier int) error
}

// Mission objective keys fed by the robbery engine.
const (
	ObjectiveRobAttempts  = "rob_attempts"
	ObjectiveRobSuccesses = "rob_successes"
	ObjectiveWealthStolen = "wealth_stolen"
)

// Propagator fires the best-effort updates that follow a committed robbery.
// Every call runs inside an isolation boundary: a failure or panic in one
// collaborator is logged and swallowed, the rest still run, and the
// committed result returned to the caller never changes. Failures are never
// retried synchronously.
type Propagator struct {
	leaderboard Leaderboard
	missions    Missions
	notifier    Notifier
	feed        Feed
}

func NewPropagator(leaderboard Leaderboard, missions Missions, notifier Notifier, feed Feed) *Propagator {
	return &Propagator{
		leaderboard: leaderboard,
		missions:    missions,
		notifier:    notifier,
		feed:        feed,
	}
}

// Dispatch runs the full side-effect sequence for a committed robbery.
func (p *Propagator) Dispatch(ctx context.Context, res *RobberyResult) {
	if p == nil || res == nil {
		return
	}

	if p.leaderboard != nil {
		p.isolated(ctx, res, "leaderboard_attacker", res.AttackerID, func() error {
			return p.leaderboard.RecordRobAttempt(ctx, res.AttackerID, AttemptRecord{
				Success:         res.Success,
				WealthDelta:     res.WealthStolen,
				ExperienceDelta: res.ExperienceGained,
			})
		})
		p.isolated(ctx, res, "leaderboard_defender", res.DefenderID, func() error {
			return p.leaderboard.RecordRobAttempt(ctx, res.DefenderID, AttemptRecord{
				Success:     res.Success,
				WealthDelta: -res.WealthStolen,
				AsDefender:  true,
			})
		})
	}

	if p.missions != nil {
		p.isolated(ctx, res, "mission_attempts", res.AttackerID, func() error {
			return p.missions.IncrementProgress(ctx, res.AttackerID, ObjectiveRobAttempts, 1)
		})
		if res.Success {
			p.isolated(ctx, res, "mission_successes", res.AttackerID, func() error {
				return p.missions.IncrementProgress(ctx, res.AttackerID, ObjectiveRobSuccesses, 1)
			})
			p.isolated(ctx, res, "mission_wealth", res.AttackerID, func() error {
				return p.missions.IncrementProgress(ctx, res.AttackerID, ObjectiveWealthStolen, res.WealthStolen)
			})
		}
	}

	if p.notifier != nil {
		p.isolated(ctx, res, "notify_defender", res.DefenderID, func() error {
			if res.Success {
				itemName := ""
				if res.ItemStolen != nil {
					itemName = res.ItemStolen.Name
				}
				return p.notifier.NotifyRobbed(ctx, res.DefenderID, res.AttackerName, res.WealthStolen, itemName)
			}
			return p.notifier.NotifyDefended(ctx, res.DefenderID, res.AttackerName)
		})
	}

	if p.feed != nil && res.Success && res.ItemStolen != nil {
		p.isolated(ctx, res, "feed_item_theft", res.AttackerID, func() error {
			return p.feed.PostItemTheft(ctx, res.AttackerName, res.DefenderName, res.ItemStolen.Name, res.ItemStolen.Tier)
		})
	}
}

// isolated runs one side-effect call, converting errors and panics into
// structured log entries with enough context to investigate out of band.
func (p *Propagator) isolated(_ context.Context, res *RobberyResult, name string, accountID int64, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Side effect panicked",
				slog.String("type", "error"),
				slog.String("side_effect", name),
				slog.Int64("account_id", accountID),
				slog.String("robbery_id", res.RobberyID),
				slog.Any("error", fmt.Errorf("panic: %v", r)))
		}
	}()

	if err := fn(); err != nil {
		slog.Error("Side effect failed",
			slog.String("type", "error"),
			slog.String("side_effect", name),
			slog.Int64("account_id", accountID),
			slog.String("robbery_id", res.RobberyID),
			slog.Any("error", err))
	}
}
