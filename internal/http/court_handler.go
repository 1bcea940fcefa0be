package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/example/courtboard/internal/application"
	"github.com/example/courtboard/internal/blocks"
	"github.com/example/courtboard/internal/courtstate"
	"github.com/example/courtboard/internal/domain"
)

type courtService interface {
	CourtViews(ctx context.Context) ([]courtstate.View, error)
	SelectableCourts(ctx context.Context) ([]domain.Court, error)
	CourtHistory(ctx context.Context, courtNumber int) ([]domain.ClearedSession, error)
	UpcomingBlockWarning(ctx context.Context, courtNumber, durationMinutes int) (*blocks.Warning, error)
	AssignCourt(ctx context.Context, courtNumber int, group []domain.Player, opts application.AssignOptions) (application.AssignResult, error)
	ClearCourt(ctx context.Context, courtNumber int, reason string) (application.ClearResult, error)
	MoveCourt(ctx context.Context, from, to int) error
	UndoOvertimeTakeover(ctx context.Context, takeoverSessionID, displacedSessionID string) (application.UndoResult, error)
}

// CourtHandler serves the kiosk court surface.
type CourtHandler struct {
	service   courtService
	responder responder
}

// NewCourtHandler wires the court endpoints.
func NewCourtHandler(service courtService, logger *slog.Logger) *CourtHandler {
	return &CourtHandler{service: service, responder: newResponder(logger)}
}

// List renders the classified state of every court.
func (h *CourtHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.CourtViews(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]courtViewResponse, len(views))
	for i, view := range views {
		out[i] = toCourtViewResponse(view)
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

// Selectable renders the courts the kiosk may offer right now.
func (h *CourtHandler) Selectable(w http.ResponseWriter, r *http.Request) {
	courts, err := h.service.SelectableCourts(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	numbers := make([]int, len(courts))
	for i, court := range courts {
		numbers[i] = court.Number
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{"courts": numbers})
}

// Assign registers a group on the court from the request path.
func (h *CourtHandler) Assign(w http.ResponseWriter, r *http.Request) {
	courtNumber, ok := CourtNumberFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCourt)
		return
	}
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	result, err := h.service.AssignCourt(r.Context(), courtNumber, toDomainPlayers(req.Players), application.AssignOptions{
		Minutes: req.Minutes,
		Guests:  req.Guests,
		Source:  req.Source,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toAssignResponse(result))
}

// Clear ends the current session on the court from the request path.
func (h *CourtHandler) Clear(w http.ResponseWriter, r *http.Request) {
	courtNumber, ok := CourtNumberFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCourt)
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		// The reason is optional; an empty body clears with the default.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	result, err := h.service.ClearCourt(r.Context(), courtNumber, req.Reason)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"archived_session": toSessionResponse(result.Archived.Session),
		"clear_reason":     result.Archived.ClearReason,
	})
}

// History renders the archived sessions of a court.
func (h *CourtHandler) History(w http.ResponseWriter, r *http.Request) {
	courtNumber, ok := CourtNumberFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCourt)
		return
	}
	history, err := h.service.CourtHistory(r.Context(), courtNumber)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]map[string]any, len(history))
	for i, entry := range history {
		out[i] = map[string]any{
			"session":      toSessionResponse(entry.Session),
			"cleared_at":   entry.ClearedAt,
			"clear_reason": entry.ClearReason,
		}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

// Warning reports whether an upcoming block restricts a session on a court.
func (h *CourtHandler) Warning(w http.ResponseWriter, r *http.Request) {
	courtNumber, ok := CourtNumberFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCourt)
		return
	}
	minutes := 0
	if raw := r.URL.Query().Get("minutes"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
		minutes = parsed
	}
	warning, err := h.service.UpcomingBlockWarning(r.Context(), courtNumber, minutes)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{"warning": toWarningResponse(warning)})
}

// Move relocates a session to an empty court.
func (h *CourtHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if err := h.service.MoveCourt(r.Context(), req.From, req.To); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// UndoTakeover restores a session displaced by an overtime takeover.
func (h *CourtHandler) UndoTakeover(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TakeoverSessionID  string `json:"takeover_session_id"`
		DisplacedSessionID string `json:"displaced_session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	result, err := h.service.UndoOvertimeTakeover(r.Context(), req.TakeoverSessionID, req.DisplacedSessionID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	payload := map[string]any{"fell_back": result.FellBack}
	if result.Restored != nil {
		payload["restored_session"] = toSessionResponse(*result.Restored)
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}
