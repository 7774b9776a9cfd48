package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"

	"github.com/hoodline/hoodbot/hoodbot"
	"github.com/hoodline/hoodbot/hoodbot/commands"
	"github.com/hoodline/hoodbot/hoodbot/config"
	"github.com/hoodline/hoodbot/hoodbot/database"
	"github.com/hoodline/hoodbot/hoodbot/database/repositories"
	"github.com/hoodline/hoodbot/hoodbot/game/insurance"
	"github.com/hoodline/hoodbot/hoodbot/game/robbery"
	"github.com/hoodline/hoodbot/hoodbot/handlers"
	"github.com/hoodline/hoodbot/hoodbot/logger"
	"github.com/hoodline/hoodbot/hoodbot/metrics"
	"github.com/hoodline/hoodbot/hoodbot/services"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// Initialize custom logger
	customHandler := logger.NewHandler()
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting Hoodline Bot",
		slog.String("version", version),
		slog.String("commit", commit))

	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := hoodbot.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	// Re-seat the logger now that the configured level is known.
	slog.SetDefault(slog.New(logger.NewHandlerWithLevel(cfg.Log.Level)))

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	slog.Info("Initializing database schema...")
	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	slog.Info("Database schema initialized successfully")

	defer db.Close()

	b := hoodbot.New(*cfg, version, commit)
	b.DB = db

	// Repositories
	b.AccountRepository = repositories.NewAccountRepository(db.BunDB())
	b.EquipmentRepository = repositories.NewEquipmentRepository(db.BunDB())
	b.AuditRepository = repositories.NewAuditRepository(db.BunDB())
	cooldownRepo := repositories.NewCooldownRepository(db.BunDB())
	insuranceRepo := repositories.NewInsuranceRepository(db.BunDB())
	statsRepo := repositories.NewStatsRepository(db.BunDB())
	missionRepo := repositories.NewMissionRepository(db.BunDB())

	// Services
	b.Accounts = services.NewAccountService(b.AccountRepository)
	b.TargetResolver = services.NewTargetResolver(b.AccountRepository)
	b.Leaderboard = services.NewLeaderboardService(statsRepo)
	missions := services.NewMissionService(missionRepo)

	// Metrics
	b.Monitor = metrics.NewMonitor("hoodbot")
	if cfg.Game.MetricsAddr != "" {
		if err := b.Monitor.StartServer(cfg.Game.MetricsAddr); err != nil {
			slog.Error("Failed to start metrics server",
				slog.String("addr", cfg.Game.MetricsAddr),
				slog.Any("error", err))
			os.Exit(-1)
		}
	}

	// Insurance
	b.InsuranceManager = insurance.NewManager(db.BunDB(), b.AccountRepository, insuranceRepo, b.AuditRepository, insurance.DefaultConfig())

	h := handler.New()
	h.Command("/rob", handlers.WrapWithLogging("rob", commands.RobHandler(b)))
	h.Command("/scout", handlers.WrapWithLogging("scout", commands.ScoutHandler(b)))
	h.Command("/balance", handlers.WrapWithLogging("balance", commands.BalanceHandler(b)))
	h.Command("/insurance", handlers.WrapWithLogging("insurance", commands.InsuranceHandler(b)))
	h.Command("/history", handlers.WrapWithLogging("history", commands.HistoryHandler(b)))
	h.Command("/topcrooks", handlers.WrapWithLogging("topcrooks", commands.TopCrooksHandler(b)))
	h.Command("/version", commands.VersionHandler(b))

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("error_details", fmt.Sprintf("%+v", err)),
			slog.String("component", "bot_setup"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	// The engine wires up after SetupBot: DM notifications and the public
	// theft feed need the client.
	notifier := services.NewDMNotifier(b.Client, b.AccountRepository)
	var feed robbery.Feed
	if cfg.Bot.FeedChannel != 0 {
		feed = services.NewChannelFeed(b.Client, cfg.Bot.FeedChannel)
	}
	propagator := robbery.NewPropagator(b.Leaderboard, missions, notifier, feed)

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	locks := robbery.NewAttackLocks(time.Minute)
	locks.StartCleanupRoutine(runCtx)

	b.RobberyEngine = robbery.NewEngine(robbery.EngineParams{
		DB:         db.BunDB(),
		Accounts:   b.AccountRepository,
		Equipment:  b.EquipmentRepository,
		Cooldowns:  cooldownRepo,
		Insurance:  insuranceRepo,
		Audits:     b.AuditRepository,
		Locks:      locks,
		Propagator: propagator,
		Metrics:    b.Monitor,
		Config:     cfg.RobberyConfig(),
	})

	// Hourly premium billing sweep.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sweepCtx, sweepCancel := context.WithTimeout(runCtx, config.DefaultQueryTimeout)
				if err := b.InsuranceManager.ChargeDuePremiums(sweepCtx); err != nil {
					slog.Error("Premium sweep failed", slog.Any("error", err))
				}
				b.Monitor.IncPremiumSweeps()
				sweepCancel()
			case <-runCtx.Done():
				return
			}
		}
	}()

	// Expired cooldown and escrow row cleanup.
	go func() {
		ticker := time.NewTicker(config.CleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				cleanCtx, cleanCancel := context.WithTimeout(runCtx, config.DefaultQueryTimeout)
				if n, err := cooldownRepo.DeleteExpired(cleanCtx); err != nil {
					slog.Error("Cooldown cleanup failed", slog.Any("error", err))
				} else if n > 0 {
					slog.Debug("Swept expired cooldowns", slog.Int64("rows", n))
				}
				if n, err := b.EquipmentRepository.DeleteExpiredEscrow(cleanCtx); err != nil {
					slog.Error("Escrow cleanup failed", slog.Any("error", err))
				} else if n > 0 {
					slog.Debug("Swept expired escrow", slog.Int64("rows", n))
				}
				cleanCancel()
			case <-runCtx.Done():
				return
			}
		}
	}()

	if *shouldSyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds))
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err),
				slog.String("error_details", fmt.Sprintf("%+v", err)),
				slog.String("component", "command_sync"),
				slog.String("status", "failed"),
			)
		}
	}

	if err = b.Client.OpenGateway(ctx); err != nil {
		slog.Error("Failed to open gateway", slog.Any("error", err))
		os.Exit(-1)
	}

	slog.Info("Hoodline bot is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-s
	slog.Info("Shutting down...")
}
