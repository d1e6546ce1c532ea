// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/loggers/logbook/internal/adapters/repository"
	"github.com/loggers/logbook/internal/domain/types"
)

// PilotDependencies defines the interface for career lookups.
type PilotDependencies interface {
	Profile(ctx context.Context, identity string) (types.Profile, error)
	Rank(ctx context.Context, identity string) (Entry, error)
}

// PilotsHandler handles profile and rank requests.
type PilotsHandler struct {
	deps PilotDependencies
}

// NewPilotsHandler creates a new pilots handler.
func NewPilotsHandler(deps PilotDependencies) *PilotsHandler {
	return &PilotsHandler{deps: deps}
}

// HandleGetProfile handles GET /pilots/{identity} requests.
func (h *PilotsHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identityParam(w, r)
	if !ok {
		return
	}
	profile, err := h.deps.Profile(r.Context(), id)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleGetRank handles GET /rank/{identity} requests.
func (h *PilotsHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	id, ok := identityParam(w, r)
	if !ok {
		return
	}
	entry, err := h.deps.Rank(r.Context(), id)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func identityParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("identity"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return "", false
	}
	return id, true
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err)
}
