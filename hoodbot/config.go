package hoodbot

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/hoodline/hoodbot/hoodbot/database"
	"github.com/hoodline/hoodbot/hoodbot/game/robbery"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log  LogConfig         `toml:"log"`
	Bot  BotConfig         `toml:"bot"`
	DB   database.DBConfig `toml:"db"`
	Game GameConfig        `toml:"game"`
}

type BotConfig struct {
	DevGuilds []snowflake.ID `toml:"dev_guilds"`
	Token     string         `toml:"token"`

	// FeedChannel receives public item-theft announcements. Zero disables
	// the feed.
	FeedChannel snowflake.ID `toml:"feed_channel"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type GameConfig struct {
	// MetricsAddr serves Prometheus metrics when set, e.g. ":9100".
	MetricsAddr string `toml:"metrics_addr"`
}

// RobberyConfig returns the engine tuning. Balance values live in code, not
// in the config file, so every deployment plays the same game.
func (c *Config) RobberyConfig() robbery.Config {
	return robbery.DefaultConfig()
}
