package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/courtboard/internal/application"
	"github.com/example/courtboard/internal/domain"
)

type blockService interface {
	Blocks(ctx context.Context) ([]domain.Block, error)
	AddBlock(ctx context.Context, input application.BlockInput) (domain.Block, error)
	RemoveBlock(ctx context.Context, blockID string) error
	ClearWetCourts(ctx context.Context) (int, error)
}

// BlockHandler serves the maintenance block surface.
type BlockHandler struct {
	service   blockService
	responder responder
}

// NewBlockHandler wires the block endpoints.
func NewBlockHandler(service blockService, logger *slog.Logger) *BlockHandler {
	return &BlockHandler{service: service, responder: newResponder(logger)}
}

// List renders every registered block.
func (h *BlockHandler) List(w http.ResponseWriter, r *http.Request) {
	blks, err := h.service.Blocks(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]blockResponse, len(blks))
	for i, block := range blks {
		out[i] = toBlockResponse(block)
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

// Create registers a block on a court.
func (h *BlockHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CourtNumber int       `json:"court_number"`
		Start       time.Time `json:"start_time"`
		End         time.Time `json:"end_time"`
		Reason      string    `json:"reason"`
		WetCourt    bool      `json:"wet_court"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	block, err := h.service.AddBlock(r.Context(), application.BlockInput{
		CourtNumber: req.CourtNumber,
		Start:       req.Start,
		End:         req.End,
		Reason:      req.Reason,
		WetCourt:    req.WetCourt,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toBlockResponse(block))
}

// Delete removes the block from the request path.
func (h *BlockHandler) Delete(w http.ResponseWriter, r *http.Request) {
	blockID, ok := BlockIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBlockID)
		return
	}
	if err := h.service.RemoveBlock(r.Context(), blockID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// ClearWet lifts every wet-court block in one step, typically after the
// courts have dried.
func (h *BlockHandler) ClearWet(w http.ResponseWriter, r *http.Request) {
	removed, err := h.service.ClearWetCourts(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{"removed": removed})
}
