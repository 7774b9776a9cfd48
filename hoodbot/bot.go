package hoodbot

import (
	"context"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/paginator"

	"github.com/hoodline/hoodbot/hoodbot/database"
	"github.com/hoodline/hoodbot/hoodbot/database/repositories"
	"github.com/hoodline/hoodbot/hoodbot/game/insurance"
	"github.com/hoodline/hoodbot/hoodbot/game/robbery"
	"github.com/hoodline/hoodbot/hoodbot/metrics"
	"github.com/hoodline/hoodbot/hoodbot/services"
)

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:       cfg,
		Paginator: paginator.New(),
		Version:   version,
		Commit:    commit,
	}
}

type Bot struct {
	Cfg       Config
	Client    bot.Client
	Paginator *paginator.Manager
	Version   string
	Commit    string
	DB        *database.DB

	AccountRepository   repositories.AccountRepository
	EquipmentRepository repositories.EquipmentRepository
	AuditRepository     repositories.AuditRepository

	RobberyEngine    *robbery.Engine
	InsuranceManager *insurance.Manager
	TargetResolver   *services.TargetResolver
	Leaderboard      *services.LeaderboardService
	Accounts         *services.AccountService
	Monitor          *metrics.Monitor
}

func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	client, err := disgo.New(b.Cfg.Bot.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(gateway.IntentGuilds, gateway.IntentGuildMessages, gateway.IntentMessageContent)),
		bot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds)),
		bot.WithEventListeners(b.Paginator),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return err
	}

	b.Client = client
	return nil
}

func (b *Bot) OnReady(_ *events.Ready) {
	slog.Info("Hoodline bot is now ready",
		slog.String("version", b.Version),
		slog.String("commit", b.Commit))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithWatchingActivity("the streets"),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		slog.Error("Failed to set presence", slog.Any("error", err))
	}
}
