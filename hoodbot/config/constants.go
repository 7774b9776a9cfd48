package config

import "time"

// Application-wide constants organized by domain

// UI and Display Constants
const (
	// Pagination
	DefaultPageSize = 10
	MaxPageSize     = 25
	EventsPerPage   = 8

	// Colors
	ErrorColor   = 0xFF0000
	SuccessColor = 0x00FF00
	InfoColor    = 0x0099FF
	WarningColor = 0xFFAA00

	// Discord UI Colors
	BackgroundColor   = 0x2B2D31
	EmbedDefaultColor = 0x2B2D31
)

// Database and Performance Constants
const (
	// Timeouts
	DefaultQueryTimeout     = 30 * time.Second
	SearchTimeout           = 10 * time.Second
	StatsQueryTimeout       = 10 * time.Second
	CommandExecutionTimeout = 10 * time.Second
	NetworkDialTimeout      = 5 * time.Second
	NetworkKeepAlive        = 30 * time.Second

	// Cache settings
	CacheExpiration = 5 * time.Minute
	NameCacheSize   = 10000

	// Background work
	PremiumSweepWorkers = 4
	MaxRetries          = 3
)

// Monitoring Constants
const (
	MetricsInterval     = 1 * time.Minute
	HealthCheckInterval = 30 * time.Second
	CleanupInterval     = 1 * time.Hour
)

// Data limits
const (
	MaxUsernameLength = 32
	MaxCommandLength  = 2000
)
