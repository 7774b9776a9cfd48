package migration

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hoodline/hoodbot/hoodbot/database/models"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Migrator imports the legacy bot's Mongo data into Postgres. It reads
// either raw BSON dump files from a data directory or a live Mongo
// database. Players must import before gear: gear rows resolve their
// owner against already migrated accounts.
type Migrator struct {
	pgDB        *bun.DB
	dataDir     string
	playersPath string
	gearPath    string
	batchSize   int
	stats       MigrationStats
	// Optional direct Mongo access
	mongoDB *mongo.Database
	// Mongo collection names (overrideable)
	collNames map[string]string
	// Optional: use pgx CopyFrom for fastest bulk inserts
	useCopy bool
	pool    *pgxpool.Pool
}

func NewMigrator(pgDB *bun.DB, dataDir string) *Migrator {
	return &Migrator{
		pgDB:        pgDB,
		dataDir:     dataDir,
		playersPath: filepath.Join(dataDir, "players.bson"),
		gearPath:    filepath.Join(dataDir, "gear.bson"),
		batchSize:   1000,
		stats: MigrationStats{
			Tables:    make(map[string]*TableStats),
			StartTime: time.Now(),
		},
		collNames: map[string]string{
			"players": "players",
			"gear":    "gear",
		},
	}
}

// SetBatchSize overrides the default batch size for inserts (useful for poolers/timeouts)
func (m *Migrator) SetBatchSize(size int) {
	if size > 0 {
		m.batchSize = size
	}
}

// UseMongo enables direct-from-Mongo migration mode
func (m *Migrator) UseMongo(client *mongo.Client, dbName string) {
	if client != nil && dbName != "" {
		m.mongoDB = client.Database(dbName)
	}
}

// SetMongoCollectionName overrides the collection name for a given kind
func (m *Migrator) SetMongoCollectionName(kind, name string) {
	if kind != "" && name != "" {
		m.collNames[kind] = name
	}
}

// SetUseCopy enables COPY FROM mode using pgx (fast path)
func (m *Migrator) SetUseCopy(v bool) { m.useCopy = v }

// UsePool sets the pgx pool for COPY operations
func (m *Migrator) UsePool(pool *pgxpool.Pool) { m.pool = pool }

// MigrateAll imports players then gear from BSON dump files.
func (m *Migrator) MigrateAll(ctx context.Context) error {
	logProgress("Starting BSON migration")
	logProgress(fmt.Sprintf("Data directory: %s", m.dataDir))

	m.stats.StartTime = time.Now()

	steps := []struct {
		name    string
		migrate func(context.Context) error
	}{
		{"accounts", m.MigratePlayers},
		{"equipment_items", m.MigrateGear},
	}

	for _, step := range steps {
		logProgress(fmt.Sprintf("Starting migration step: %s", step.name))
		if err := step.migrate(ctx); err != nil {
			return fmt.Errorf("migration failed at step %s: %w", step.name, err)
		}
		logProgress(fmt.Sprintf("Completed migration step: %s", step.name))
	}

	m.stats.EndTime = time.Now()
	if err := m.generateMigrationReport(); err != nil {
		slog.Error("Failed to generate migration report", "error", err)
	}

	logProgress("Migration completed successfully!")
	m.logFinalStats()
	return nil
}

// MigrateAllFromMongo migrates data directly from a live MongoDB database
func (m *Migrator) MigrateAllFromMongo(ctx context.Context) error {
	if m.mongoDB == nil {
		return fmt.Errorf("mongoDB not configured; call UseMongo first")
	}

	logProgress("Starting direct MongoDB migration")
	m.stats.StartTime = time.Now()

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"accounts_mongo", m.MigratePlayersFromMongo},
		{"equipment_items_mongo", m.MigrateGearFromMongo},
	}

	for _, s := range steps {
		logProgress(fmt.Sprintf("Starting migration step: %s", s.name))
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("migration failed at step %s: %w", s.name, err)
		}
		logProgress(fmt.Sprintf("Completed migration step: %s", s.name))
	}

	m.stats.EndTime = time.Now()
	if err := m.generateMigrationReport(); err != nil {
		slog.Error("Failed to generate migration report", "error", err)
	}

	logProgress("Direct Mongo migration completed successfully!")
	m.logFinalStats()
	return nil
}

// MigratePlayers imports players.bson into accounts, player_stats and
// insurance_policies.
func (m *Migrator) MigratePlayers(ctx context.Context) error {
	var players []MongoPlayer
	err := m.processBSONFile(m.playersPath, func(doc []byte) error {
		var mp MongoPlayer
		if err := bson.Unmarshal(doc, &mp); err != nil {
			return err
		}
		players = append(players, mp)
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("Loaded players from BSON file", "count", len(players))
	return m.processPlayers(ctx, players)
}

// MigratePlayersFromMongo migrates players from live Mongo
func (m *Migrator) MigratePlayersFromMongo(ctx context.Context) error {
	col := m.getColl("players")
	cur, err := col.Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query players: %w", err)
	}
	defer cur.Close(ctx)

	var players []MongoPlayer
	for cur.Next(ctx) {
		var mp MongoPlayer
		if err := cur.Decode(&mp); err == nil {
			players = append(players, mp)
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	return m.processPlayers(ctx, players)
}

func (m *Migrator) processPlayers(ctx context.Context, players []MongoPlayer) error {
	m.initTableStats("accounts")

	// Dedupe on username, keeping the latest record.
	byName := make(map[string]MongoPlayer)
	duplicateCount := 0
	for _, mp := range players {
		m.recordProcessed("accounts")
		name := cleanseString(mp.Name)
		if name == "" {
			m.recordSkipped("accounts", "empty_username", mp.DiscordID)
			continue
		}
		if _, exists := byName[name]; exists {
			duplicateCount++
		}
		byName[name] = mp
	}

	var accounts []*models.Account
	sources := make([]MongoPlayer, 0, len(byName))
	for _, mp := range byName {
		accounts = append(accounts, m.convertPlayer(mp))
		sources = append(sources, mp)
	}

	for i := 0; i < len(accounts); i += m.batchSize {
		end := min(i+m.batchSize, len(accounts))
		batch := accounts[i:end]

		slog.Info("Inserting batch of accounts",
			"batchSize", len(batch),
			"progress", fmt.Sprintf("%d/%d", end, len(accounts)))

		if err := m.batchInsertAccounts(ctx, batch); err != nil {
			return err
		}
	}

	// Account IDs are filled by RETURNING; stats and policies key on them.
	var stats []*models.PlayerStats
	var policies []*models.InsurancePolicy
	for i, acc := range accounts {
		if acc.ID == 0 {
			m.recordSkipped("accounts", "missing_account_id", acc.Username)
			continue
		}
		m.recordSuccessful("accounts")
		stats = append(stats, m.convertPlayerStats(acc.ID, sources[i].Stats))
		if sources[i].Protection != "" {
			policies = append(policies, m.convertProtection(acc.ID, sources[i]))
		}
	}

	if err := m.batchInsertStats(ctx, stats); err != nil {
		return err
	}
	if err := m.batchInsertPolicies(ctx, policies); err != nil {
		return err
	}

	logProgress(fmt.Sprintf("Player migration completed: %d input records, %d unique accounts imported, %d duplicate usernames collapsed",
		len(players), len(accounts), duplicateCount))
	return nil
}

// MigrateGear imports gear.bson into equipment_items.
func (m *Migrator) MigrateGear(ctx context.Context) error {
	var gear []MongoGearItem
	err := m.processBSONFile(m.gearPath, func(doc []byte) error {
		var mg MongoGearItem
		if err := bson.Unmarshal(doc, &mg); err != nil {
			return err
		}
		gear = append(gear, mg)
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("Loaded gear from BSON file", "count", len(gear))
	return m.processGear(ctx, gear)
}

// MigrateGearFromMongo migrates gear from live Mongo
func (m *Migrator) MigrateGearFromMongo(ctx context.Context) error {
	col := m.getColl("gear")
	cur, err := col.Find(ctx, bson.D{})
	if err != nil {
		logProgress("gear collection not found or query failed; skipping")
		return nil
	}
	defer cur.Close(ctx)

	var gear []MongoGearItem
	for cur.Next(ctx) {
		var mg MongoGearItem
		if err := cur.Decode(&mg); err == nil {
			gear = append(gear, mg)
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	return m.processGear(ctx, gear)
}

func (m *Migrator) processGear(ctx context.Context, gear []MongoGearItem) error {
	m.initTableStats("equipment_items")

	owners, err := m.loadOwnerMap(ctx)
	if err != nil {
		return err
	}
	logProgress(fmt.Sprintf("Resolved %d account owners for gear import", len(owners)))

	var items []*models.EquipmentItem
	for _, mg := range gear {
		m.recordProcessed("equipment_items")

		accountID, ok := owners[mg.OwnerID]
		if !ok {
			m.recordSkipped("equipment_items", "unknown_owner", mg.OwnerID)
			continue
		}
		if convertGearType(mg.Type) == models.SlotNone {
			m.recordSkipped("equipment_items", "unknown_gear_type", mg.Type)
			continue
		}

		items = append(items, m.convertGear(accountID, mg))
		m.recordSuccessful("equipment_items")

		if len(items) >= m.batchSize {
			if err := m.batchInsertGear(ctx, items); err != nil {
				return err
			}
			logProgress(fmt.Sprintf("Processed gear batch: %d", len(items)))
			items = items[:0]
		}
	}

	if len(items) > 0 {
		if err := m.batchInsertGear(ctx, items); err != nil {
			return err
		}
	}

	skipped := m.stats.Tables["equipment_items"].Skipped
	logProgress(fmt.Sprintf("Gear migration completed: %d input records, %d skipped", len(gear), skipped))
	return nil
}

// loadOwnerMap maps legacy discord ids onto migrated account ids.
func (m *Migrator) loadOwnerMap(ctx context.Context) (map[string]int64, error) {
	var accounts []models.Account
	err := m.pgDB.NewSelect().
		Model(&accounts).
		Column("id", "discord_id").
		Where("discord_id <> ''").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load account owners: %w", err)
	}

	owners := make(map[string]int64, len(accounts))
	for _, a := range accounts {
		owners[a.DiscordID] = a.ID
	}
	return owners, nil
}

func (m *Migrator) batchInsertAccounts(ctx context.Context, accounts []*models.Account) error {
	startTime := time.Now()

	_, err := m.pgDB.NewInsert().
		Model(&accounts).
		On("CONFLICT (username) DO UPDATE").
		Set("display_name = EXCLUDED.display_name").
		Set("kick_id = EXCLUDED.kick_id").
		Set("twitch_id = EXCLUDED.twitch_id").
		Set("discord_id = EXCLUDED.discord_id").
		Set("wealth = EXCLUDED.wealth").
		Set("experience = EXCLUDED.experience").
		Set("level = EXCLUDED.level").
		Set("tier = EXCLUDED.tier").
		Set("faction = EXCLUDED.faction").
		Set("jailed_until = EXCLUDED.jailed_until").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("id").
		Exec(ctx)
	if err != nil {
		slog.Error("Batch insert of accounts failed",
			"error", err,
			"duration", time.Since(startTime))
		return fmt.Errorf("batch insert failed: %w", err)
	}

	slog.Info("Batch insert of accounts completed",
		"count", len(accounts),
		"duration", time.Since(startTime))
	return nil
}

func (m *Migrator) batchInsertStats(ctx context.Context, stats []*models.PlayerStats) error {
	if len(stats) == 0 {
		return nil
	}
	_, err := m.pgDB.NewInsert().
		Model(&stats).
		On("CONFLICT (account_id) DO UPDATE").
		Set("rob_attempts = EXCLUDED.rob_attempts").
		Set("rob_successes = EXCLUDED.rob_successes").
		Set("wealth_stolen = EXCLUDED.wealth_stolen").
		Set("wealth_lost = EXCLUDED.wealth_lost").
		Set("times_robbed = EXCLUDED.times_robbed").
		Set("times_defended = EXCLUDED.times_defended").
		Set("experience_earned = EXCLUDED.experience_earned").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert player stats: %w", err)
	}
	return nil
}

func (m *Migrator) batchInsertPolicies(ctx context.Context, policies []*models.InsurancePolicy) error {
	if len(policies) == 0 {
		return nil
	}
	_, err := m.pgDB.NewInsert().
		Model(&policies).
		On("CONFLICT (account_id) DO UPDATE").
		Set("tier = EXCLUDED.tier").
		Set("last_premium_paid_at = EXCLUDED.last_premium_paid_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert insurance policies: %w", err)
	}
	return nil
}

func (m *Migrator) batchInsertGear(ctx context.Context, items []*models.EquipmentItem) error {
	startTime := time.Now()

	if m.useCopy && m.pool != nil {
		if err := m.copyInsertGear(ctx, items); err != nil {
			logProgress(fmt.Sprintf("COPY failed, falling back to batch mode: %v", err))
		} else {
			logProgress(fmt.Sprintf("COPY insert of gear completed: %d (took %s)", len(items), time.Since(startTime)))
			return nil
		}
	}

	if _, err := m.pgDB.NewInsert().Model(&items).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert gear batch: %w", err)
	}
	logProgress(fmt.Sprintf("Batch insert of gear completed: %d (took %s)", len(items), time.Since(startTime)))
	return nil
}

// copyInsertGear bulk loads equipment rows via pgx CopyFrom.
func (m *Migrator) copyInsertGear(ctx context.Context, items []*models.EquipmentItem) error {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	rows := make([][]any, 0, len(items))
	for _, it := range items {
		rows = append(rows, []any{
			it.AccountID, it.Name, string(it.Slot), it.Tier,
			it.CombatBonus, it.ProtectionBonus, it.Durability, it.Equipped,
			it.CreatedAt, it.UpdatedAt,
		})
	}
	columns := []string{
		"account_id", "name", "slot", "tier",
		"combat_bonus", "protection_bonus", "durability", "equipped",
		"created_at", "updated_at",
	}

	_, err = conn.Conn().CopyFrom(ctx, pgx.Identifier{"equipment_items"}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy from failed: %w", err)
	}
	return nil
}

func (m *Migrator) getColl(kind string) *mongo.Collection {
	name := kind
	if v, ok := m.collNames[kind]; ok && v != "" {
		name = v
	}
	return m.mongoDB.Collection(name)
}

// processBSONFile streams length-prefixed BSON documents from a dump file.
func (m *Migrator) processBSONFile(filePath string, processDoc func([]byte) error) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		logProgress(fmt.Sprintf("BSON file not found, skipping: %s", filePath))
		return nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open BSON file %s: %w", filePath, err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	for {
		// Each BSON document starts with an int32 length
		lengthBytes := make([]byte, 4)
		_, err := io.ReadFull(reader, lengthBytes)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read document length: %w", err)
		}

		length := int32(binary.LittleEndian.Uint32(lengthBytes))
		if length <= 4 {
			return fmt.Errorf("invalid document length: %d", length)
		}

		docBytes := make([]byte, length-4)
		if _, err := io.ReadFull(reader, docBytes); err != nil {
			return fmt.Errorf("failed to read document bytes: %w", err)
		}

		fullDocBytes := append(lengthBytes, docBytes...)
		if err := processDoc(fullDocBytes); err != nil {
			return fmt.Errorf("failed to decode BSON document: %w", err)
		}
	}
	return nil
}

// generateMigrationReport creates a detailed JSON report of the migration
func (m *Migrator) generateMigrationReport() error {
	timestamp := time.Now().Format("20060102_150405")
	reportFile := filepath.Join(".", fmt.Sprintf("migration_report_%s.json", timestamp))

	file, err := os.Create(reportFile)
	if err != nil {
		return fmt.Errorf("failed to create migration report file: %w", err)
	}
	defer file.Close()

	m.stats.TotalProcessed = 0
	m.stats.TotalSkipped = 0
	m.stats.TotalErrors = 0
	for _, tableStats := range m.stats.Tables {
		m.stats.TotalProcessed += tableStats.Processed
		m.stats.TotalSkipped += tableStats.Skipped
		m.stats.TotalErrors += tableStats.Errors
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(m.stats); err != nil {
		return fmt.Errorf("failed to write migration report: %w", err)
	}

	slog.Info("Migration report generated", "file", reportFile)
	return nil
}

// logFinalStats logs a summary of migration statistics
func (m *Migrator) logFinalStats() {
	duration := m.stats.EndTime.Sub(m.stats.StartTime)

	slog.Info("Migration completed",
		"duration", duration,
		"total_processed", m.stats.TotalProcessed,
		"total_skipped", m.stats.TotalSkipped,
		"total_errors", m.stats.TotalErrors)

	for tableName, stats := range m.stats.Tables {
		slog.Info("Table migration stats",
			"table", tableName,
			"processed", stats.Processed,
			"successful", stats.Successful,
			"skipped", stats.Skipped,
			"errors", stats.Errors)
	}
}

func (m *Migrator) initTableStats(tableName string) {
	m.stats.Tables[tableName] = &TableStats{
		TableName:      tableName,
		SkippedRecords: []SkippedRecord{},
	}
}

func (m *Migrator) recordProcessed(tableName string) {
	if stats, exists := m.stats.Tables[tableName]; exists {
		stats.Processed++
	}
}

func (m *Migrator) recordSuccessful(tableName string) {
	if stats, exists := m.stats.Tables[tableName]; exists {
		stats.Successful++
	}
}

func (m *Migrator) recordSkipped(tableName, reason, data string) {
	if stats, exists := m.stats.Tables[tableName]; exists {
		stats.Skipped++
		stats.SkippedRecords = append(stats.SkippedRecords, SkippedRecord{
			Reason:    reason,
			Data:      data,
			Timestamp: time.Now(),
		})
	}
}

func logProgress(message string) {
	slog.Info(message, "service", "Hoodline Migration")
}
