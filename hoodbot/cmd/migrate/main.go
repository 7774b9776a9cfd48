package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hoodline/hoodbot/hoodbot"
	"github.com/hoodline/hoodbot/hoodbot/database"
	"github.com/hoodline/hoodbot/hoodbot/logger"
	"github.com/hoodline/hoodbot/hoodbot/migration"
)

// Imports the legacy bot's Mongo data into Postgres. Reads BSON dump files
// from -data by default; -mongo-uri switches to a live Mongo database.
func main() {
	slog.SetDefault(slog.New(logger.NewHandler()))

	configPath := flag.String("config", "config.toml", "path to config")
	dataDir := flag.String("data", "data", "directory holding players.bson and gear.bson")
	mongoURI := flag.String("mongo-uri", "", "migrate from a live Mongo instead of dump files")
	mongoDB := flag.String("mongo-db", "hoodline", "Mongo database name")
	batchSize := flag.Int("batch-size", 1000, "insert batch size")
	useCopy := flag.Bool("copy", false, "use pgx COPY for gear inserts")
	flag.Parse()

	ctx := context.Background()

	cfg, err := hoodbot.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize schema", "error", err)
		os.Exit(1)
	}

	migrator := migration.NewMigrator(db.BunDB(), *dataDir)
	migrator.SetBatchSize(*batchSize)
	if *useCopy {
		migrator.SetUseCopy(true)
		migrator.UsePool(db.GetPool())
	}

	if *mongoURI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(*mongoURI))
		if err != nil {
			slog.Error("Failed to connect to Mongo", "error", err)
			os.Exit(1)
		}
		defer client.Disconnect(ctx)

		migrator.UseMongo(client, *mongoDB)
		if err := migrator.MigrateAllFromMongo(ctx); err != nil {
			slog.Error("Migration failed", "error", err)
			os.Exit(1)
		}
	} else {
		if err := migrator.MigrateAll(ctx); err != nil {
			slog.Error("Migration failed", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Migration completed successfully!")
}
