// Package sink persists finalized mission stats to PostgreSQL.
package sink

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loggers/logbook/internal/domain/dedupe"
	"github.com/loggers/logbook/internal/domain/model"
	"github.com/loggers/logbook/internal/domain/types"
	"github.com/loggers/logbook/pkg/logger"
)

// schemaSQL is embedded so the sink can bootstrap its tables.
//
//go:embed schema.sql
var schemaSQL string

const (
	sinkName       = "postgres"
	connectTimeout = 10 * time.Second
)

// missionNamespace scopes the deterministic mission ids.
var missionNamespace = uuid.MustParse("5b8f3c4e-6d0a-4b57-9a43-2f1c7e9d8a60")

// DB is the subset of *pgxpool.Pool the sink uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Close()
}

// PostgresSink writes one mission row plus one row per pilot inside a single
// transaction. Rewriting a mission replaces its pilot rows.
type PostgresSink struct {
	db     DB
	logger logger.Logger
}

// Option applies a configuration option to the PostgresSink.
type Option func(*PostgresSink)

// WithLogger sets a custom logger for the sink.
func WithLogger(l logger.Logger) Option {
	return func(s *PostgresSink) {
		if l != nil {
			s.logger = l
		}
	}
}

// New wraps an existing pool or fake.
func New(db DB, opts ...Option) *PostgresSink {
	s := &PostgresSink{db: db}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("sink")
	}
	return s
}

// Connect creates a connection pool and fails fast if the database is
// unreachable.
func Connect(ctx context.Context, url string, opts ...Option) (*PostgresSink, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(pool, opts...), nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Name identifies the sink in logs and metrics.
func (s *PostgresSink) Name() string { return sinkName }

// MissionID returns the stable row id for a mission.
func MissionID(meta model.MissionMeta) uuid.UUID {
	fp := dedupe.Fingerprint{Name: meta.Name, Date: meta.Date}
	return uuid.NewSHA1(missionNamespace, []byte(fp.Key()))
}

// Consume writes the mission and its pilot rows.
func (s *PostgresSink) Consume(ctx context.Context, meta model.MissionMeta, pilots map[string]types.PilotStats) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id := MissionID(meta)
	if _, err := tx.Exec(ctx, `
		INSERT INTO missions (id, name, mission_date, platform, duration_seconds)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET platform = EXCLUDED.platform, duration_seconds = EXCLUDED.duration_seconds
	`, id, meta.Name, meta.Date, meta.Platform, meta.DurationSeconds); err != nil {
		return fmt.Errorf("insert mission: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM pilot_stats WHERE mission_id = $1`, id); err != nil {
		return fmt.Errorf("purge pilot stats: %w", err)
	}

	ids := make([]string, 0, len(pilots))
	for k := range pilots {
		ids = append(ids, k)
	}
	sort.Strings(ids)

	for _, k := range ids {
		p := pilots[k]
		aliases := p.Aliases
		if aliases == nil {
			aliases = []string{}
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO pilot_stats (mission_id, identity, aircraft, aa_kills, ag_kills, frat_kills,
				total_kills, rtb, ejections, deaths, kia, flight_minutes, kd_ratio, aliases)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`, id, k, p.Aircraft, p.AirKills, p.GroundKills, p.FriendlyKills,
			p.TotalKills, p.RTB, p.Ejections, p.Deaths, p.KIA, p.FlightMinutes, p.KDRatio, aliases); err != nil {
			return fmt.Errorf("insert pilot %s: %w", k, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug(ctx, "mission stored",
		logger.String("mission", meta.Name),
		logger.String("id", id.String()),
		logger.Int("pilots", len(ids)),
	)
	return nil
}

// Close shuts down the connection pool.
func (s *PostgresSink) Close() error {
	s.db.Close()
	return nil
}
