// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Provide New() initializer to build a Config with defaults.
//   - Loading functions accept context.Context as the first parameter.
//   - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"github.com/loggers/logbook/internal/domain/classify"
	"github.com/loggers/logbook/internal/domain/identity"
)

// Ledger backends.
const (
	LedgerMemory = "memory"
	LedgerRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// LedgerBackend selects the dedup ledger store: memory or redis.
	LedgerBackend string `koanf:"ledger_backend"`

	// LedgerSize caps the number of remembered mission fingerprints.
	LedgerSize int `koanf:"ledger_size"`

	RedisAddr string `koanf:"redis_addr"`
	RedisKey  string `koanf:"redis_key"`

	// PostgresURL enables the Postgres stats sink when set.
	PostgresURL string `koanf:"postgres_url"`

	// Flight-time estimation.
	MovementThresholdM float64 `koanf:"movement_threshold_m"`
	StationaryLimitS   float64 `koanf:"stationary_limit_s"`

	// DefaultDurationS is the mission duration used when a document has no timing.
	DefaultDurationS int `koanf:"default_duration_s"`

	// MaxUploadBytes bounds POST /missions bodies.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// HistoryLimit bounds the missions kept on each career profile.
	HistoryLimit int `koanf:"history_limit"`

	// TablesPath points at a YAML file with alias/roster tables. It is
	// re-read at the start of every pipeline run.
	TablesPath string `koanf:"tables_path"`

	// Tables are inline tables used when TablesPath is empty, and as the
	// base that the tables file overrides.
	Tables Tables `koanf:"tables"`
}

// Tables are the alias and classifier tables. A nil field means "use the
// built-in default"; an explicitly empty list stays empty.
type Tables struct {
	Aliases         identity.Table `koanf:"aliases"`
	Roster          []string       `koanf:"roster"`
	KnownPlayers    []string       `koanf:"known_players"`
	FlyableAircraft []string       `koanf:"flyable_aircraft"`
}

// WithDefaults returns a copy of t with nil fields filled from the built-in
// tables.
func (t Tables) WithDefaults() Tables {
	out := t
	if out.Aliases == nil {
		out.Aliases = identity.DefaultTable()
	}
	if out.KnownPlayers == nil {
		out.KnownPlayers = classify.DefaultKnownPlayers()
	}
	if out.FlyableAircraft == nil {
		out.FlyableAircraft = classify.DefaultFlyableAircraft()
	}
	return out
}

// Lists returns the classifier lists held by t.
func (t Tables) Lists() classify.Lists {
	return classify.Lists{
		KnownPlayers:    t.KnownPlayers,
		Aliases:         t.Aliases,
		Roster:          t.Roster,
		FlyableAircraft: t.FlyableAircraft,
	}
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		LedgerBackend:       LedgerMemory,
		LedgerSize:          1000,
		RedisAddr:           "localhost:6379",
		RedisKey:            "logbook:missions",
		MovementThresholdM:  100,
		StationaryLimitS:    900,
		DefaultDurationS:    2700,
		MaxUploadBytes:      32 << 20,
		MaxLeaderboardLimit: 100,
		HistoryLimit:        200,
	}
}
