// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/loggers/logbook/internal/domain/tacview"
	"github.com/loggers/logbook/internal/domain/types"
)

// MissionDependencies defines the interface for mission processing.
type MissionDependencies interface {
	Process(ctx context.Context, src io.Reader, fileID string) (*types.Result, error)
}

// MissionsHandler handles mission uploads.
type MissionsHandler struct {
	deps     MissionDependencies
	maxBytes int64
}

// NewMissionsHandler creates a new missions handler.
func NewMissionsHandler(deps MissionDependencies, maxBytes int64) *MissionsHandler {
	return &MissionsHandler{deps: deps, maxBytes: maxBytes}
}

// HandlePostMission handles POST /missions?name=<file> requests. The body is
// the debriefing XML. The name is required and becomes the result's file ID.
func (h *MissionsHandler) HandlePostMission(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_mission"

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing_name", wrapKind(op, ErrBadRequest, errors.New("name query parameter is required")))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", wrapKind(op, ErrTooLarge, nil))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.Process(r.Context(), bytes.NewReader(body), name)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case res != nil && res.Duplicate:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, tacview.ErrMalformedDocument):
		writeError(w, http.StatusBadRequest, "malformed_document", wrapKind(op, ErrBadRequest, err))
	case errors.Is(err, tacview.ErrSchemaViolation):
		writeError(w, http.StatusBadRequest, "schema_violation", wrapKind(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
