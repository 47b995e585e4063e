package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"parkease/internal/entities"
	"parkease/internal/service"
)

type LotHandler struct {
	Service *service.BookingService
}

func NewLotHandler(svc *service.BookingService) *LotHandler {
	return &LotHandler{Service: svc}
}

func (h *LotHandler) ListLots(w http.ResponseWriter, r *http.Request) {
	lots, err := h.Service.Lots(r.Context())
	if err != nil {
		http.Error(w, "Could not load parking lots", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(lots)
}

func (h *LotHandler) GetLot(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	lot, err := h.Service.Lot(r.Context(), id)
	if err != nil {
		http.Error(w, "Parking lot not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(lot)
}

// SlotGrid returns the lot's slots. An optional time range in the body
// overlays bookings that overlap it; live holds are always overlaid.
func (h *LotHandler) SlotGrid(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req entities.SlotAvailabilityRequest
	if r.Body != nil {
		// An empty body means no range filter.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if !req.StartTime.IsZero() && !req.EndTime.After(req.StartTime) {
		http.Error(w, "end_time must be after start_time", http.StatusBadRequest)
		return
	}
	slots, err := h.Service.SlotGrid(r.Context(), id, req.StartTime, req.EndTime)
	if err != nil {
		http.Error(w, "Could not load slots", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(slots)
}
