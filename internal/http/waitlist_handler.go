package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/example/courtboard/internal/application"
	"github.com/example/courtboard/internal/domain"
	"github.com/example/courtboard/internal/waitlist"
)

type waitlistService interface {
	WaitlistViews(ctx context.Context) ([]application.WaitlistView, error)
	JoinWaitlist(ctx context.Context, group []domain.Player, guests int, deferred bool) (domain.WaitlistEntry, error)
	LeaveWaitlist(ctx context.Context, entryID string) error
	ReorderWaitlist(ctx context.Context, orderedIDs []string) error
	SetWaitlistDeferred(ctx context.Context, entryID string, deferred bool) error
	EstimateWait(ctx context.Context, position int) (int, error)
	ServableOffers(ctx context.Context) ([]waitlist.Offer, error)
	AssignFromWaitlist(ctx context.Context, entryID string, courtNumber int) (application.AssignResult, error)
}

// WaitlistHandler serves the queue surface.
type WaitlistHandler struct {
	service   waitlistService
	responder responder
}

// NewWaitlistHandler wires the waitlist endpoints.
func NewWaitlistHandler(service waitlistService, logger *slog.Logger) *WaitlistHandler {
	return &WaitlistHandler{service: service, responder: newResponder(logger)}
}

// List renders the queue with positions and wait estimates.
func (h *WaitlistHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.WaitlistViews(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]waitlistEntryResponse, len(views))
	for i, view := range views {
		out[i] = toWaitlistEntryResponse(view)
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

// Join appends a group to the queue.
func (h *WaitlistHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Players  []playerPayload `json:"players"`
		Guests   int             `json:"guests"`
		Deferred bool            `json:"deferred"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	entry, err := h.service.JoinWaitlist(r.Context(), toDomainPlayers(req.Players), req.Guests, req.Deferred)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toWaitlistEntryResponse(application.WaitlistView{Entry: entry}))
}

// Leave removes the entry from the request path.
func (h *WaitlistHandler) Leave(w http.ResponseWriter, r *http.Request) {
	entryID, ok := EntryIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}
	if err := h.service.LeaveWaitlist(r.Context(), entryID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Reorder replaces the queue order with the submitted permutation.
func (h *WaitlistHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EntryIDs []string `json:"entry_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if err := h.service.ReorderWaitlist(r.Context(), req.EntryIDs); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// SetDeferred toggles the entry's deferred flag.
func (h *WaitlistHandler) SetDeferred(w http.ResponseWriter, r *http.Request) {
	entryID, ok := EntryIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}
	var req struct {
		Deferred bool `json:"deferred"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if err := h.service.SetWaitlistDeferred(r.Context(), entryID, req.Deferred); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Estimate reports the waiting time for a queue position.
func (h *WaitlistHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("position")
	position, err := strconv.Atoi(raw)
	if err != nil || position < 1 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPosition)
		return
	}
	minutes, err := h.service.EstimateWait(r.Context(), position)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"position":         position,
		"estimate_minutes": minutes,
	})
}

// Offers renders the entries the kiosk may call up right now.
func (h *WaitlistHandler) Offers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.service.ServableOffers(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]map[string]any, len(offers))
	for i, offer := range offers {
		out[i] = map[string]any{
			"entry":        toWaitlistEntryResponse(application.WaitlistView{Entry: offer.Entry, Position: offer.Position}),
			"pass_through": offer.PassThrough,
		}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

// Assign seats the entry from the request path on a court and removes it
// from the queue in one step.
func (h *WaitlistHandler) Assign(w http.ResponseWriter, r *http.Request) {
	entryID, ok := EntryIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}
	var req struct {
		CourtNumber int `json:"court_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	result, err := h.service.AssignFromWaitlist(r.Context(), entryID, req.CourtNumber)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toAssignResponse(result))
}
