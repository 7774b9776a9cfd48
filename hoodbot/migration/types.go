package migration

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoPlayer mirrors one document of the legacy bot's players collection.
// Wealth was split across a cash and a bank field; the import collapses
// both into the single ledger column.
type MongoPlayer struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	DiscordID  string             `bson:"discord_id"`
	KickID     string             `bson:"kick_id,omitempty"`
	TwitchID   string             `bson:"twitch_id,omitempty"`
	Name       string             `bson:"name"`
	Cash       float64            `bson:"cash"`
	Bank       float64            `bson:"bank"`
	Exp        float64            `bson:"exp"`
	Level      float64            `bson:"level"`
	Faction    string             `bson:"faction,omitempty"`
	JailUntil  time.Time          `bson:"jailuntil,omitempty"`
	Protection string             `bson:"protection,omitempty"`
	ProtPaidAt time.Time          `bson:"protpaidat,omitempty"`
	Stats      MongoPlayerStats   `bson:"stats"`
}

// MongoPlayerStats is the legacy per-player counter sub-document.
type MongoPlayerStats struct {
	Robs     float64 `bson:"robs"`
	RobWins  float64 `bson:"robwins"`
	Stolen   float64 `bson:"stolen"`
	Lost     float64 `bson:"lost"`
	Robbed   float64 `bson:"robbed"`
	Defended float64 `bson:"defended"`
	TotalExp float64 `bson:"totalexp"`
}

// MongoGearItem mirrors one document of the legacy gear collection. The
// legacy bot stored the owner's discord id, not an account id; the import
// resolves it against already migrated accounts.
type MongoGearItem struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID    string             `bson:"owner_id"`
	Name       string             `bson:"name"`
	Type       string             `bson:"type"`
	Tier       float64            `bson:"tier"`
	Power      float64            `bson:"power"`
	Protection float64            `bson:"protection,omitempty"`
	Durability float64            `bson:"durability"`
	Equipped   bool               `bson:"equipped"`
	Obtained   time.Time          `bson:"obtained,omitempty"`
}

// MigrationStats aggregates counters across the whole run.
type MigrationStats struct {
	Tables         map[string]*TableStats `json:"tables"`
	StartTime      time.Time              `json:"start_time"`
	EndTime        time.Time              `json:"end_time"`
	TotalErrors    int                    `json:"total_errors"`
	TotalSkipped   int                    `json:"total_skipped"`
	TotalProcessed int                    `json:"total_processed"`
}

// TableStats tracks stats for individual tables
type TableStats struct {
	TableName      string          `json:"table_name"`
	Processed      int             `json:"processed"`
	Successful     int             `json:"successful"`
	Skipped        int             `json:"skipped"`
	Errors         int             `json:"errors"`
	SkippedRecords []SkippedRecord `json:"skipped_records"`
}

// SkippedRecord tracks why a record was skipped
type SkippedRecord struct {
	Reason    string    `json:"reason"`
	Data      string    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}
