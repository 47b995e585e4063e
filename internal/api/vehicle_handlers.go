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

type VehicleHandler struct {
	Service *service.BookingService
}

func NewVehicleHandler(svc *service.BookingService) *VehicleHandler {
	return &VehicleHandler{Service: svc}
}

func (h *VehicleHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	mobile, _ := auth.Mobile(r.Context())
	st := h.Service.Store(mobile).View()
	vehicles := st.Vehicles
	if vehicles == nil {
		vehicles = []state.Vehicle{}
	}
	json.NewEncoder(w).Encode(vehicles)
}

func (h *VehicleHandler) AddVehicle(w http.ResponseWriter, r *http.Request) {
	mobile, _ := auth.Mobile(r.Context())
	var req entities.AddVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	vehicle, err := h.Service.Store(mobile).AddVehicle(r.Context(), state.VehicleType(req.Type), req.Number, req.Nickname)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrInvalidPlate),
			errors.Is(err, state.ErrInvalidVehicleType),
			errors.Is(err, state.ErrDuplicatePlate):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "Could not save vehicle", http.StatusBadGateway)
		}
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(vehicle)
}

func (h *VehicleHandler) RemoveVehicle(w http.ResponseWriter, r *http.Request) {
	mobile, _ := auth.Mobile(r.Context())
	id := mux.Vars(r)["id"]
	if err := h.Service.Store(mobile).RemoveVehicle(r.Context(), id); err != nil {
		http.Error(w, "Could not remove vehicle", http.StatusBadGateway)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"message": "Vehicle removed"})
}
