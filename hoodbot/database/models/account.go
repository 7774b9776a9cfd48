package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Platform identifies which chat platform an external identity belongs to.
type Platform string

const (
	PlatformKick    Platform = "kick"
	PlatformTwitch  Platform = "twitch"
	PlatformDiscord Platform = "discord"
)

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformKick, PlatformTwitch, PlatformDiscord:
		return true
	}
	return false
}

// Column returns the accounts column holding the external ID for this
// platform. Explicit switch instead of string-keyed field lookup.
func (p Platform) Column() string {
	switch p {
	case PlatformKick:
		return "kick_id"
	case PlatformTwitch:
		return "twitch_id"
	case PlatformDiscord:
		return "discord_id"
	}
	return ""
}

// ExternalID returns the stored external identity for this platform.
func (p Platform) ExternalID(a *Account) string {
	switch p {
	case PlatformKick:
		return a.KickID
	case PlatformTwitch:
		return a.TwitchID
	case PlatformDiscord:
		return a.DiscordID
	}
	return ""
}

type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Username    string `bun:"username,notnull,unique"`
	DisplayName string `bun:"display_name"`

	// Platform identities
	KickID    string `bun:"kick_id"`
	TwitchID  string `bun:"twitch_id"`
	DiscordID string `bun:"discord_id"`

	// Ledger
	Wealth     int64  `bun:"wealth,notnull,default:0"`
	Experience int64  `bun:"experience,notnull,default:0"`
	Level      int    `bun:"level,notnull,default:1"`
	Tier       string `bun:"tier,notnull,default:'rookie'"`

	// Status windows
	JailedUntil time.Time `bun:"jailed_until,nullzero"`
	ImmuneUntil time.Time `bun:"immune_until,nullzero"`

	// Combat modifiers
	Faction             string    `bun:"faction"`
	AttackBoostMult     float64   `bun:"attack_boost_mult,notnull,default:1"`
	AttackBoostExpires  time.Time `bun:"attack_boost_expires,nullzero"`
	DefenseBoostMult    float64   `bun:"defense_boost_mult,notnull,default:1"`
	DefenseBoostExpires time.Time `bun:"defense_boost_expires,nullzero"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// Jailed reports whether the account is locked up at the given instant.
func (a *Account) Jailed(now time.Time) bool {
	return now.Before(a.JailedUntil)
}

// Immune reports whether the account cannot be targeted at the given instant.
func (a *Account) Immune(now time.Time) bool {
	return now.Before(a.ImmuneUntil)
}

// AttackMultiplier returns the active consumable attack multiplier, 1.0 when
// no boost is running.
func (a *Account) AttackMultiplier(now time.Time) float64 {
	if a.AttackBoostMult > 0 && now.Before(a.AttackBoostExpires) {
		return a.AttackBoostMult
	}
	return 1.0
}

// DefenseMultiplier returns the active consumable defense multiplier, 1.0
// when no boost is running.
func (a *Account) DefenseMultiplier(now time.Time) float64 {
	if a.DefenseBoostMult > 0 && now.Before(a.DefenseBoostExpires) {
		return a.DefenseBoostMult
	}
	return 1.0
}
