package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LOGBOOK_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if LOGBOOK_CONFIG is set
//  3. env (prefix LOGBOOK_)
func Load(ctx context.Context) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// Environment variables: LOGBOOK_ADDR, LOGBOOK_LEDGER_SIZE, ...
	// Map env keys like LOGBOOK_LEDGER_SIZE -> ledger_size (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the service cannot run without.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LedgerBackend != LedgerMemory && c.LedgerBackend != LedgerRedis:
		return fmt.Errorf("%w: unknown ledger_backend %q", ErrInvalidConfig, c.LedgerBackend)
	case c.LedgerBackend == LedgerRedis && c.RedisAddr == "":
		return fmt.Errorf("%w: redis_addr is required for the redis ledger", ErrInvalidConfig)
	case c.MovementThresholdM <= 0:
		return fmt.Errorf("%w: movement_threshold_m must be positive", ErrInvalidConfig)
	case c.StationaryLimitS <= 0:
		return fmt.Errorf("%w: stationary_limit_s must be positive", ErrInvalidConfig)
	case c.DefaultDurationS <= 0:
		return fmt.Errorf("%w: default_duration_s must be positive", ErrInvalidConfig)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit <= 0:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	}
	return nil
}

// LoadTables reads alias/roster tables from a YAML file layered over base.
// Keys missing from the file keep base's value; nil fields are then filled
// with the built-in defaults.
//
//	aliases:
//	  - identity: six
//	    fragments: [hhc, "229", six]
//	roster: [Machinegun817, Jediknight]
//	known_players: [six]
//	flyable_aircraft: [F-16, Mi-24]
func LoadTables(ctx context.Context, path string, base Tables) (Tables, error) {
	if err := ctx.Err(); err != nil {
		return Tables{}, err
	}
	if path == "" {
		return base.WithDefaults(), nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Tables{}, fmt.Errorf("%w: tables %s: %v", ErrLoadConfig, path, err)
	}

	t := Tables{}
	if err := k.UnmarshalWithConf("", &t, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Tables{}, fmt.Errorf("%w: tables %s: %v", ErrLoadConfig, path, err)
	}
	if !k.Exists("aliases") {
		t.Aliases = base.Aliases
	}
	if !k.Exists("roster") {
		t.Roster = base.Roster
	}
	if !k.Exists("known_players") {
		t.KnownPlayers = base.KnownPlayers
	}
	if !k.Exists("flyable_aircraft") {
		t.FlyableAircraft = base.FlyableAircraft
	}
	return t.WithDefaults(), nil
}

// TableSource loads tables on demand.
type TableSource struct {
	path string
	base Tables
}

// NewTableSource returns a source that re-reads path (when set) on every call.
func NewTableSource(path string, base Tables) *TableSource {
	return &TableSource{path: path, base: base}
}

// Tables loads the current tables.
func (s *TableSource) Tables(ctx context.Context) (Tables, error) {
	return LoadTables(ctx, s.path, s.base)
}
