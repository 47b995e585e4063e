package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"parkease/internal/auth"
	"parkease/internal/entities"
	"parkease/internal/service"
)

type AuthHandler struct {
	Auth    *service.AuthService
	Booking *service.BookingService
}

func NewAuthHandler(authSvc *service.AuthService, bookingSvc *service.BookingService) *AuthHandler {
	return &AuthHandler{Auth: authSvc, Booking: bookingSvc}
}

func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req entities.RequestOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := h.Auth.RequestOTP(r.Context(), req.Phone); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPhone):
			http.Error(w, "Enter a valid 10-digit mobile number", http.StatusBadRequest)
		case errors.Is(err, service.ErrResendCooldown):
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(entities.RequestOTPResponse{
				Message:           "OTP already sent, wait before resending",
				RetryAfterSeconds: int(service.ResendCooldown.Seconds()),
			})
		default:
			http.Error(w, "Could not send OTP", http.StatusInternalServerError)
		}
		return
	}
	json.NewEncoder(w).Encode(entities.RequestOTPResponse{Message: "OTP sent"})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req entities.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	token, err := h.Auth.VerifyOTP(r.Context(), req.Phone, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPhone):
			http.Error(w, "Enter a valid 10-digit mobile number", http.StatusBadRequest)
		case errors.Is(err, service.ErrInvalidOTP):
			http.Error(w, "Invalid or expired OTP", http.StatusUnauthorized)
		default:
			http.Error(w, "Could not verify OTP", http.StatusInternalServerError)
		}
		return
	}

	mobile, err := service.NormalizePhone(req.Phone)
	if err != nil {
		http.Error(w, "Enter a valid 10-digit mobile number", http.StatusBadRequest)
		return
	}
	store := h.Booking.Store(mobile)
	store.VerifyOTP()
	store.SyncRemote(r.Context())

	st := store.View()
	json.NewEncoder(w).Encode(entities.VerifyOTPResponse{
		Token:         token,
		Authenticated: st.Authenticated,
		HasVehicle:    st.HasVehicle(),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	mobile, ok := auth.Mobile(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.Booking.Store(mobile).Logout(); err != nil {
		http.Error(w, "Could not log out", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"message": "Logged out"})
}
