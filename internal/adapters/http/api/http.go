// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/loggers/logbook/internal/domain/types"
)

// Default request limits.
const (
	DefaultMaxUploadBytes = 32 << 20
	DefaultMaxLimit       = 100
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Process runs one uploaded mission through the pipeline.
	Process(ctx context.Context, src io.Reader, fileID string) (*types.Result, error)

	// Read operations expose careers and leaderboard data.
	Profile(ctx context.Context, identity string) (types.Profile, error)
	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, identity string) (Entry, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxUploadBytes bounds POST /missions bodies.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithMaxLimit caps GET /leaderboard?limit.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	maxUploadBytes int64
	maxLimit       int

	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	missionsHandler    *MissionsHandler
	leaderboardHandler *LeaderboardHandler
	pilotsHandler      *PilotsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		maxUploadBytes: DefaultMaxUploadBytes,
		maxLimit:       DefaultMaxLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.missionsHandler = NewMissionsHandler(deps, s.maxUploadBytes)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.maxLimit)
	s.pilotsHandler = NewPilotsHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /missions", MetricsMiddleware(s.missionsHandler.HandlePostMission, "missions"))
	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /pilots/{identity}", MetricsMiddleware(s.pilotsHandler.HandleGetProfile, "pilots"))
	mux.HandleFunc("GET /rank/{identity}", MetricsMiddleware(s.pilotsHandler.HandleGetRank, "rank"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
