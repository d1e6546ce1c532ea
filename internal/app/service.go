// Package service runs the mission pipeline and implements the dependencies
// required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/loggers/logbook/internal/adapters/repository"
	"github.com/loggers/logbook/internal/config"
	"github.com/loggers/logbook/internal/domain/classify"
	"github.com/loggers/logbook/internal/domain/dedupe"
	"github.com/loggers/logbook/internal/domain/finalize"
	"github.com/loggers/logbook/internal/domain/flighttime"
	"github.com/loggers/logbook/internal/domain/identity"
	"github.com/loggers/logbook/internal/domain/interpret"
	"github.com/loggers/logbook/internal/domain/model"
	"github.com/loggers/logbook/internal/domain/tacview"
	"github.com/loggers/logbook/internal/domain/types"
	"github.com/loggers/logbook/pkg/logger"
	"github.com/loggers/logbook/pkg/metrics"
)

// Sentinel kinds returned by Process.
var (
	ErrDuplicateMission = errors.New("duplicate mission")
	ErrNotStarted       = errors.New("service not started")
)

// Failure reasons recorded in metrics.
const (
	reasonMalformed = "malformed"
	reasonSchema    = "schema"
	reasonRead      = "read"
	reasonLedger    = "ledger"
	reasonTables    = "tables"
	reasonConsumer  = "consumer"
)

// Consumer receives the finalized per-pilot stats of a mission.
type Consumer interface {
	Name() string
	Consume(ctx context.Context, meta model.MissionMeta, pilots map[string]types.PilotStats) error
}

// TableSource supplies the alias and classifier tables for one run.
type TableSource interface {
	Tables(ctx context.Context) (config.Tables, error)
}

// Result is the outcome of one pipeline invocation.
type Result = types.Result

// Service implements the API dependencies for the logbook.
type Service struct {
	mu sync.RWMutex

	// run serializes pipeline invocations; the ledger and tables are
	// exclusive to one run at a time.
	run sync.Mutex

	// Core components
	ledger    dedupe.Ledger
	tables    TableSource
	profiles  repository.Store
	consumers []Consumer
	reader    *tacview.Reader
	estimator *flighttime.Estimator

	// Configuration
	ledgerSize      int
	defaultDuration int
	historyLimit    int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLedger sets the dedup ledger. The default is a bounded in-memory ledger.
func WithLedger(l dedupe.Ledger) Option {
	return func(s *Service) {
		if l != nil {
			s.ledger = l
		}
	}
}

// WithLedgerSize sets the capacity of the default in-memory ledger.
func WithLedgerSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.ledgerSize = size
		}
	}
}

// WithTableSource sets where alias and classifier tables come from.
func WithTableSource(src TableSource) Option {
	return func(s *Service) {
		if src != nil {
			s.tables = src
		}
	}
}

// WithProfileStore sets the career store. It is always the first consumer.
func WithProfileStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.profiles = store
		}
	}
}

// WithConsumer adds an output consumer that runs after the profile store.
func WithConsumer(c Consumer) Option {
	return func(s *Service) {
		if c != nil {
			s.consumers = append(s.consumers, c)
		}
	}
}

// WithEstimator sets the flight-time estimator.
func WithEstimator(e *flighttime.Estimator) Option {
	return func(s *Service) {
		if e != nil {
			s.estimator = e
		}
	}
}

// WithDefaultDuration sets the mission duration used when a document carries
// no timing.
func WithDefaultDuration(seconds int) Option {
	return func(s *Service) {
		if seconds > 0 {
			s.defaultDuration = seconds
		}
	}
}

// WithHistoryLimit bounds the missions kept per profile in the default store.
func WithHistoryLimit(limit int) Option {
	return func(s *Service) {
		s.historyLimit = limit
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		ledgerSize:      dedupe.DefaultMaxSize,
		defaultDuration: tacview.DefaultDurationSeconds,
		historyLimit:    repository.DefaultHistoryLimit,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting logbook service...")

	if s.ledger == nil {
		s.ledger = dedupe.NewInMemoryLedger(dedupe.WithMaxSize(s.ledgerSize))
		s.logger.Info(ctx, "using in-memory ledger", logger.Int("size", s.ledgerSize))
	}
	if s.tables == nil {
		s.tables = config.NewTableSource("", config.Tables{})
	}
	if s.profiles == nil {
		s.profiles = repository.NewProfileStore(
			repository.WithHistoryLimit(s.historyLimit),
			repository.WithLogger(s.logger.Named("repository")),
		)
	}
	if s.estimator == nil {
		s.estimator = flighttime.NewEstimator()
	}
	s.reader = tacview.NewReader(
		tacview.WithLogger(s.logger.Named("tacview")),
		tacview.WithDefaultDuration(s.defaultDuration),
	)

	metrics.UpdateLedgerSize(s.ledger.Size())

	s.started = true
	s.logger.Info(ctx, "logbook service started",
		logger.Int("consumers", len(s.consumers)+1),
		logger.Int("defaultDuration", s.defaultDuration),
	)

	return nil
}

// Stop releases components that hold resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping logbook service...")

	closers := []any{s.ledger, s.profiles}
	for _, c := range s.consumers {
		closers = append(closers, c)
	}
	for _, c := range closers {
		if closer, ok := c.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				s.logger.Warn(context.Background(), "close failed", logger.Error(err))
			}
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "logbook service stopped")
}

// ProcessFile runs the pipeline on a file on disk.
func (s *Service) ProcessFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return s.Process(ctx, f, filepath.Base(path))
}

// Process runs one mission document through the pipeline. A mission whose
// fingerprint is already in the ledger returns a Result with Duplicate set
// together with ErrDuplicateMission. The ledger is marked only after every
// consumer accepted the stats.
func (s *Service) Process(ctx context.Context, src io.Reader, fileID string) (*Result, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	s.run.Lock()
	defer s.run.Unlock()

	start := time.Now()
	log := s.logger.With(logger.String("file", fileID))

	doc, err := s.reader.Read(ctx, src, fileID)
	if err != nil {
		reason := reasonRead
		switch {
		case errors.Is(err, tacview.ErrMalformedDocument):
			reason = reasonMalformed
		case errors.Is(err, tacview.ErrSchemaViolation):
			reason = reasonSchema
		}
		metrics.RecordMissionFailed(reason)
		log.Error(ctx, "failed to read mission", logger.String("reason", reason), logger.Error(err))
		return nil, err
	}
	for range doc.Skipped {
		metrics.RecordEventSkipped("reader")
	}

	fp := dedupe.Fingerprint{Name: doc.Meta.Name, Date: doc.Meta.Date}
	res := &Result{
		RunID:       uuid.NewString(),
		File:        fileID,
		Mission:     doc.Meta,
		Fingerprint: fp.String(),
		Pilots:      map[string]types.PilotStats{},
	}

	seen, err := s.ledger.Contains(ctx, fp.Key())
	if err != nil {
		metrics.RecordMissionFailed(reasonLedger)
		log.Error(ctx, "ledger lookup failed", logger.Error(err))
		return nil, fmt.Errorf("check ledger: %w", err)
	}
	if seen {
		res.Duplicate = true
		metrics.RecordMissionDuplicate()
		log.Info(ctx, "duplicate mission", logger.String("fingerprint", res.Fingerprint))
		return res, fmt.Errorf("%w: %s", ErrDuplicateMission, res.Fingerprint)
	}

	tables, err := s.tables.Tables(ctx)
	if err != nil {
		metrics.RecordMissionFailed(reasonTables)
		log.Error(ctx, "failed to load tables", logger.Error(err))
		return nil, fmt.Errorf("load tables: %w", err)
	}

	in := interpret.New(
		identity.NewResolver(tables.Aliases),
		classify.New(tables.Lists()),
		interpret.WithLogger(s.logger.Named("interpret")),
	)
	tally := in.Run(ctx, doc.Events)
	res.Skipped = len(doc.Skipped) + len(tally.Skipped)

	flight := make(map[string]float64, tally.Len())
	for _, id := range tally.Order {
		acc, _ := tally.Get(id)
		est, err := s.estimator.Estimate(acc.Trace)
		if err != nil {
			metrics.RecordEstimationDegraded()
			log.Warn(ctx, "flight time estimation degraded",
				logger.String("identity", id),
				logger.Int("samples", est.Samples),
				logger.Error(err),
			)
			res.Degraded = append(res.Degraded, id)
			continue
		}
		flight[id] = est.Seconds
	}

	pilots := finalize.Finalize(doc.Meta, tally, flight)

	for _, c := range s.outputs() {
		if err := c.Consume(ctx, doc.Meta, pilots); err != nil {
			metrics.RecordConsumerError(c.Name())
			metrics.RecordMissionFailed(reasonConsumer)
			log.Error(ctx, "consumer rejected mission", logger.String("consumer", c.Name()), logger.Error(err))
			return nil, fmt.Errorf("consumer %s: %w", c.Name(), err)
		}
	}

	if err := s.ledger.Add(ctx, fp.Key()); err != nil {
		metrics.RecordMissionFailed(reasonLedger)
		log.Error(ctx, "failed to mark ledger", logger.Error(err))
		return nil, fmt.Errorf("mark ledger: %w", err)
	}
	metrics.UpdateLedgerSize(s.ledger.Size())

	res.Pilots = pilots
	elapsed := time.Since(start)
	metrics.RecordMissionProcessed()
	metrics.RecordProcessingLatency(float64(elapsed.Milliseconds()))
	metrics.RecordPilotsRecorded(len(pilots))
	metrics.RecordEvents(len(doc.Events))

	log.Info(ctx, "mission processed",
		logger.String("run", res.RunID),
		logger.String("mission", doc.Meta.Name),
		logger.String("date", doc.Meta.Date),
		logger.Int("pilots", len(pilots)),
		logger.Int("skipped", res.Skipped),
		logger.Duration("took", elapsed),
	)
	return res, nil
}

func (s *Service) outputs() []Consumer {
	out := make([]Consumer, 0, len(s.consumers)+1)
	out = append(out, s.profiles)
	return append(out, s.consumers...)
}

// Profile returns the career of a pilot.
func (s *Service) Profile(ctx context.Context, id string) (types.Profile, error) {
	if s.profileStore() == nil {
		return types.Profile{}, ErrNotStarted
	}
	return s.profileStore().Profile(ctx, id)
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if s.profileStore() == nil {
		return nil, ErrNotStarted
	}
	return s.profileStore().TopN(ctx, n)
}

// Rank returns the leaderboard entry for a pilot.
func (s *Service) Rank(ctx context.Context, id string) (types.Entry, error) {
	if s.profileStore() == nil {
		return types.Entry{}, ErrNotStarted
	}
	return s.profileStore().Rank(ctx, id)
}

func (s *Service) profileStore() repository.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil
	}
	return s.profiles
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":    s.started,
		"ledgerSize": s.ledgerSize,
		"consumers":  len(s.consumers) + 1,
	}

	if s.started {
		ctx := context.Background()
		remembered := s.ledger.Size()
		pilots := s.profiles.Count(ctx)

		stats["ledgerEntries"] = remembered
		stats["totalPilots"] = pilots

		metrics.UpdateLedgerSize(remembered)
		metrics.UpdateProfilesTotal(pilots)
	}

	return stats
}

// Size returns the number of missions remembered by the ledger.
func (s *Service) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ledger == nil {
		return 0
	}
	return s.ledger.Size()
}
