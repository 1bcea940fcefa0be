package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/courtboard/internal/domain"
	"github.com/example/courtboard/internal/roster"
)

type rosterService interface {
	Members(ctx context.Context) ([]roster.Member, error)
	AddMember(ctx context.Context, member roster.Member) error
	GroupConflicts(ctx context.Context, group []domain.Player) (roster.Conflicts, error)
}

// RosterHandler serves the membership surface.
type RosterHandler struct {
	service   rosterService
	responder responder
}

// NewRosterHandler wires the roster endpoints.
func NewRosterHandler(service rosterService, logger *slog.Logger) *RosterHandler {
	return &RosterHandler{service: service, responder: newResponder(logger)}
}

// ListMembers renders the club roster.
func (h *RosterHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.Members(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]map[string]any, len(members))
	for i, member := range members {
		out[i] = map[string]any{
			"name":        member.Name,
			"member_id":   member.MemberID,
			"club_number": member.ClubNumber,
		}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

// AddMember registers a new club member.
func (h *RosterHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		MemberID   string `json:"member_id"`
		ClubNumber string `json:"club_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	member := roster.Member{Name: req.Name, MemberID: req.MemberID, ClubNumber: req.ClubNumber}
	if err := h.service.AddMember(r.Context(), member); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, map[string]any{
		"name":        member.Name,
		"member_id":   member.MemberID,
		"club_number": member.ClubNumber,
	})
}

// Conflicts reports which of the submitted players are already on a court or
// in the queue.
func (h *RosterHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Players []playerPayload `json:"players"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	conflicts, err := h.service.GroupConflicts(r.Context(), toDomainPlayers(req.Players))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	playing := make([]map[string]any, len(conflicts.Playing))
	for i, c := range conflicts.Playing {
		playing[i] = map[string]any{"name": c.Name, "court": c.Court}
	}
	waiting := make([]map[string]any, len(conflicts.Waiting))
	for i, c := range conflicts.Waiting {
		waiting[i] = map[string]any{"name": c.Name, "position": c.Position}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"playing": playing,
		"waiting": waiting,
	})
}
