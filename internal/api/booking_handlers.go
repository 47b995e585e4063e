package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"parkease/internal/auth"
	"parkease/internal/entities"
	"parkease/internal/service"
	"parkease/internal/state"
)

type BookingHandler struct {
	Service *service.BookingService
}

func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{Service: svc}
}

func (h *BookingHandler) store(w http.ResponseWriter, r *http.Request) (*state.Store, bool) {
	mobile, ok := auth.Mobile(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	return h.Service.Store(mobile), true
}

// GetState returns the caller's full app state so a fresh client can
// render without replaying individual fetches.
func (h *BookingHandler) GetState(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	store.SyncRemote(r.Context())
	json.NewEncoder(w).Encode(store.View())
}

// SetLocation records whether the user granted location access, which
// drives nearest-lot sorting on the client.
func (h *BookingHandler) SetLocation(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	var req entities.LocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	store.SetLocationGranted(req.Granted)
	w.WriteHeader(http.StatusNoContent)
}

func (h *BookingHandler) SetDraftLot(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	var req entities.DraftLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	lot, err := h.Service.Lot(r.Context(), req.LotID)
	if err != nil {
		http.Error(w, "Parking lot not found", http.StatusNotFound)
		return
	}
	store.SetDraftLot(lot)
	w.WriteHeader(http.StatusNoContent)
}

func (h *BookingHandler) SetDraftVehicle(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	var req entities.DraftVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	for _, v := range store.View().Vehicles {
		if v.ID == req.VehicleID {
			store.SetDraftVehicle(v)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	http.Error(w, "Vehicle not found", http.StatusNotFound)
}

func (h *BookingHandler) SetDraftTimes(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	var req entities.DraftTimesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := store.SetDraftTimes(req.StartTime, req.EndTime); err != nil {
		http.Error(w, "end_time must be after start_time", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BookingHandler) ClearDraft(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	store.ClearDraft()
	w.WriteHeader(http.StatusNoContent)
}

func (h *BookingHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	mobile, ok := auth.Mobile(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	booking, paymentURL, err := h.Service.ConfirmBooking(r.Context(), mobile)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrDraftIncomplete):
			http.Error(w, "Booking draft is incomplete", http.StatusBadRequest)
		case errors.Is(err, state.ErrEndNotAfterStart):
			http.Error(w, "end_time must be after start_time", http.StatusBadRequest)
		default:
			http.Error(w, "Could not confirm booking", http.StatusBadGateway)
		}
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(entities.ConfirmBookingResponse{Booking: booking, PaymentURL: paymentURL})
}

func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	bookings := store.View().Bookings
	if bookings == nil {
		bookings = []state.Booking{}
	}
	json.NewEncoder(w).Encode(bookings)
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	booking, found := store.Booking(mux.Vars(r)["id"])
	if !found {
		http.Error(w, "Booking not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(booking)
}

// CheckIn and CheckOut tighten the store's silent no-ops into explicit
// HTTP errors so clients can distinguish a stale id from a bad state.
func (h *BookingHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	mobile, ok := auth.Mobile(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id := mux.Vars(r)["id"]
	store := h.Service.Store(mobile)
	booking, found := store.Booking(id)
	if !found {
		http.Error(w, "Booking not found", http.StatusNotFound)
		return
	}
	if booking.Status != state.StatusPaid {
		http.Error(w, "Booking cannot be checked in", http.StatusConflict)
		return
	}
	if err := h.Service.CheckIn(r.Context(), mobile, id); err != nil {
		http.Error(w, "Could not check in", http.StatusBadGateway)
		return
	}
	booking, _ = store.Booking(id)
	json.NewEncoder(w).Encode(booking)
}

func (h *BookingHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	mobile, ok := auth.Mobile(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id := mux.Vars(r)["id"]
	if _, found := h.Service.Store(mobile).Booking(id); !found {
		http.Error(w, "Booking not found", http.StatusNotFound)
		return
	}
	booking, err := h.Service.CheckOut(r.Context(), mobile, id)
	if err != nil {
		http.Error(w, "Could not check out", http.StatusBadGateway)
		return
	}
	if booking == nil {
		http.Error(w, "Booking is not checked in", http.StatusConflict)
		return
	}
	json.NewEncoder(w).Encode(booking)
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	mobile, ok := auth.Mobile(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id := mux.Vars(r)["id"]
	if _, found := h.Service.Store(mobile).Booking(id); !found {
		http.Error(w, "Booking not found", http.StatusNotFound)
		return
	}
	booking, err := h.Service.CancelBooking(r.Context(), mobile, id)
	if err != nil {
		http.Error(w, "Could not cancel booking", http.StatusBadGateway)
		return
	}
	if booking == nil {
		http.Error(w, "Booking cannot be cancelled", http.StatusConflict)
		return
	}
	json.NewEncoder(w).Encode(booking)
}

func (h *BookingHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	mobile, ok := auth.Mobile(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	receipt, err := h.Service.Receipt(mobile, mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Booking not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(receipt)
}

func (h *BookingHandler) EmailReceipt(w http.ResponseWriter, r *http.Request) {
	mobile, ok := auth.Mobile(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req entities.EmailReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		http.Error(w, "A destination email is required", http.StatusBadRequest)
		return
	}
	if err := h.Service.EmailReceipt(mobile, mux.Vars(r)["id"], req.Email); err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			http.Error(w, "Booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Could not send receipt", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
