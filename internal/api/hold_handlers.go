package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"parkease/internal/auth"
	"parkease/internal/entities"
	"parkease/internal/hold"
	"parkease/internal/service"
)

type HoldHandler struct {
	Service *service.BookingService
}

func NewHoldHandler(svc *service.BookingService) *HoldHandler {
	return &HoldHandler{Service: svc}
}

func holdResponse(h hold.Hold) entities.HoldResponse {
	return entities.HoldResponse{
		ID:        h.SlotID,
		Label:     h.Label,
		Row:       h.Row,
		Position:  h.Position,
		ExpiresAt: h.ExpiresAt.UnixMilli(),
	}
}

func (h *HoldHandler) PlaceHold(w http.ResponseWriter, r *http.Request) {
	mobile, ok := auth.Mobile(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req entities.HoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	lease, err := h.Service.AcquireHold(r.Context(), mobile, req.LotID, req.SlotID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLotNotFound), errors.Is(err, service.ErrSlotNotFound):
			http.Error(w, "Slot not found", http.StatusNotFound)
		case errors.Is(err, hold.ErrSlotHeld), errors.Is(err, service.ErrSlotUnavailable):
			http.Error(w, "Slot is not available", http.StatusConflict)
		default:
			http.Error(w, "Could not hold slot", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(holdResponse(lease))
}

// GetHold returns 404 once the lease lapses so clients drop back to
// slot selection instead of counting down past zero.
func (h *HoldHandler) GetHold(w http.ResponseWriter, r *http.Request) {
	slotID := mux.Vars(r)["slotID"]
	lease, ok := h.Service.GetHold(slotID)
	if !ok {
		http.Error(w, "Hold expired", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(holdResponse(lease))
}

func (h *HoldHandler) ReleaseHold(w http.ResponseWriter, r *http.Request) {
	mobile, ok := auth.Mobile(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	slotID := mux.Vars(r)["slotID"]
	h.Service.ReleaseHold(mobile, slotID)
	w.WriteHeader(http.StatusNoContent)
}
