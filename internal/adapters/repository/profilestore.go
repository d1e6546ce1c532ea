package repository

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/loggers/logbook/internal/domain/dedupe"
	"github.com/loggers/logbook/internal/domain/model"
	"github.com/loggers/logbook/internal/domain/types"
	"github.com/loggers/logbook/pkg/logger"
	"github.com/loggers/logbook/pkg/metrics"
)

// Profile bookkeeping constants.
const (
	DefaultHistoryLimit = 200
	PlatformTotal       = "Total"
	unknownAircraft     = "Unknown"
	storeName           = "profiles"
)

// trackedPlatforms are the platforms that get their own minutes bucket.
// Any other platform only counts toward PlatformTotal.
var trackedPlatforms = []string{"DCS", "BMS", "IL2"}

var _ Store = (*ProfileStore)(nil)

// ProfileStore keeps pilot careers in memory and ranks them by total kills.
type ProfileStore struct {
	mu           sync.RWMutex
	byID         map[string]*types.Profile
	merged       map[string]map[string]struct{} // identity -> mission keys
	historyLimit int
	logger       logger.Logger
}

// NewProfileStore constructs an empty store with configuration options.
func NewProfileStore(opts ...Option) *ProfileStore {
	s := &ProfileStore{
		byID:         make(map[string]*types.Profile),
		merged:       make(map[string]map[string]struct{}),
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("repository")
	}
	return s
}

// Name implements Store.Name.
func (s *ProfileStore) Name() string { return storeName }

// Consume implements Store.Consume. Identities are merged in sorted order so
// repeated runs produce identical careers. A mission already merged into a
// profile is skipped for that profile, so a retried run does not count twice.
func (s *ProfileStore) Consume(ctx context.Context, meta model.MissionMeta, pilots map[string]types.PilotStats) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ids := make([]string, 0, len(pilots))
	for id := range pilots {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	key := dedupe.Fingerprint{Name: meta.Name, Date: meta.Date}.Key()
	merged := 0

	s.mu.Lock()
	for _, id := range ids {
		seen := s.merged[id]
		if _, dup := seen[key]; dup {
			continue
		}
		if seen == nil {
			seen = make(map[string]struct{})
			s.merged[id] = seen
		}
		seen[key] = struct{}{}

		p, ok := s.byID[id]
		if !ok {
			p = newProfile(id)
			s.byID[id] = p
		}
		s.merge(p, meta, pilots[id])
		merged++
	}
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateProfilesTotal(count)
	s.logger.Debug(ctx, "merged mission into profiles",
		logger.String("mission", meta.Name),
		logger.Int("pilots", len(ids)),
		logger.Int("merged", merged),
	)
	return nil
}

func newProfile(identity string) *types.Profile {
	p := &types.Profile{
		Callsign:        identity,
		Nicknames:       []string{identity},
		PlatformMinutes: map[string]int{PlatformTotal: 0},
		AircraftMinutes: map[string]int{},
		Missions:        []types.PilotStats{},
	}
	for _, name := range trackedPlatforms {
		p.PlatformMinutes[name] = 0
	}
	return p
}

// merge folds one mission record into p. Caller holds the write lock.
func (s *ProfileStore) merge(p *types.Profile, meta model.MissionMeta, st types.PilotStats) {
	sum := &p.Summary
	sum.LogsFlown++
	sum.AirKills += st.AirKills
	sum.GroundKills += st.GroundKills
	sum.FriendlyKills += st.FriendlyKills
	sum.TotalKills += st.TotalKills
	sum.RTB += st.RTB
	sum.Ejections += st.Ejections
	sum.Deaths += st.Deaths
	sum.KIA += st.KIA

	sum.AirAvg = average(sum.AirKills, sum.LogsFlown)
	sum.GroundAvg = average(sum.GroundKills, sum.LogsFlown)
	sum.FriendlyAvg = average(sum.FriendlyKills, sum.LogsFlown)
	sum.RTBAvg = average(sum.RTB, sum.LogsFlown)
	sum.EjectionsAvg = average(sum.Ejections, sum.LogsFlown)
	sum.DeathsAvg = average(sum.Deaths, sum.LogsFlown)
	sum.KIAAvg = average(sum.KIA, sum.LogsFlown)

	platform := st.Platform
	if platform == "" {
		platform = meta.Platform
	}
	if _, ok := p.PlatformMinutes[platform]; ok && platform != PlatformTotal {
		p.PlatformMinutes[platform] += st.FlightMinutes
	}
	p.PlatformMinutes[PlatformTotal] += st.FlightMinutes

	if st.Aircraft != "" && st.Aircraft != unknownAircraft {
		p.AircraftMinutes[st.Aircraft] += st.FlightMinutes
	}

	for _, alias := range st.Aliases {
		if !contains(p.Nicknames, alias) {
			p.Nicknames = append(p.Nicknames, alias)
		}
	}

	rec := st
	rec.Aliases = append([]string(nil), st.Aliases...)
	p.Missions = append(p.Missions, rec)
	if s.historyLimit > 0 && len(p.Missions) > s.historyLimit {
		p.Missions = append([]types.PilotStats(nil), p.Missions[len(p.Missions)-s.historyLimit:]...)
	}
}

// Profile implements Store.Profile. The returned profile is a copy.
func (s *ProfileStore) Profile(ctx context.Context, identity string) (types.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[identity]
	if !ok {
		return types.Profile{}, ErrNotFound
	}
	return clone(p), nil
}

// Rank implements Store.Rank.
func (s *ProfileStore) Rank(ctx context.Context, identity string) (types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.byID[identity]; !ok {
		return types.Entry{}, ErrNotFound
	}
	for _, e := range s.ranked() {
		if e.Identity == identity {
			return e, nil
		}
	}
	return types.Entry{}, ErrNotFound
}

// TopN implements Store.TopN.
func (s *ProfileStore) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	start := time.Now()
	defer func() {
		s.logger.Debug(ctx, "leaderboard query", logger.Int("limit", n), logger.Duration("took", time.Since(start)))
	}()

	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.ranked()
	if n > len(all) {
		n = len(all)
	}
	return all[:n], nil
}

// Count implements Store.Count.
func (s *ProfileStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// ranked builds every entry in leaderboard order. Caller holds the read lock.
func (s *ProfileStore) ranked() []types.Entry {
	out := make([]types.Entry, 0, len(s.byID))
	for id, p := range s.byID {
		out = append(out, types.Entry{
			Identity:      id,
			TotalKills:    p.Summary.TotalKills,
			AirKills:      p.Summary.AirKills,
			GroundKills:   p.Summary.GroundKills,
			LogsFlown:     p.Summary.LogsFlown,
			FlightMinutes: p.PlatformMinutes[PlatformTotal],
		})
	}
	sortEntries(out)
	assignRanksWithTies(out)
	return out
}

// sortEntries sorts entries by total kills (descending) and identity (ascending).
func sortEntries(entries []types.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalKills != entries[j].TotalKills {
			return entries[i].TotalKills > entries[j].TotalKills
		}
		return entries[i].Identity < entries[j].Identity
	})
}

// assignRanksWithTies gives equal kill counts the same rank; the next
// distinct count gets the next consecutive rank.
func assignRanksWithTies(entries []types.Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].TotalKills != entries[i-1].TotalKills {
			rank++
		}
		entries[i].Rank = rank
	}
}

func average(total, logs int) float64 {
	if logs <= 0 {
		return 0
	}
	return math.Round(float64(total)/float64(logs)*100) / 100
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func clone(p *types.Profile) types.Profile {
	out := *p
	out.Nicknames = append([]string(nil), p.Nicknames...)
	out.PlatformMinutes = make(map[string]int, len(p.PlatformMinutes))
	for k, v := range p.PlatformMinutes {
		out.PlatformMinutes[k] = v
	}
	out.AircraftMinutes = make(map[string]int, len(p.AircraftMinutes))
	for k, v := range p.AircraftMinutes {
		out.AircraftMinutes[k] = v
	}
	out.Missions = make([]types.PilotStats, len(p.Missions))
	for i, m := range p.Missions {
		m.Aliases = append([]string(nil), m.Aliases...)
		out.Missions[i] = m
	}
	return out
}
