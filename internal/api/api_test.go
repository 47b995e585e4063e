package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"parkease/internal/api"
	"parkease/internal/auth"
	"parkease/internal/entities"
	"parkease/internal/hold"
	"parkease/internal/service"
	"parkease/internal/state"
)

const testJWTSecret = "test-secret"

// captureSender records the last SMS so tests can read the OTP back out.
type captureSender struct {
	body string
}

func (c *captureSender) SendSMS(toNumber, body string) error {
	c.body = body
	return nil
}

var otpRe = regexp.MustCompile(`[0-9]{6}`)

// newTestRouter wires the handlers the same way main does, in local mode
// with the simulated gateway.
func newTestRouter(t *testing.T) (*mux.Router, *captureSender) {
	t.Helper()
	sender := &captureSender{}
	stores := state.NewManager(t.TempDir(), nil)
	holds := hold.NewLeaseStore(hold.DefaultTTL)
	authSvc := service.NewAuthService(nil, sender, testJWTSecret)
	bookingSvc := service.NewBookingService(stores, holds, service.CatalogSource{}, service.NewSimulatedGateway(), nil, 0)

	authHandler := api.NewAuthHandler(authSvc, bookingSvc)
	vehicleHandler := api.NewVehicleHandler(bookingSvc)
	lotHandler := api.NewLotHandler(bookingSvc)
	holdHandler := api.NewHoldHandler(bookingSvc)
	bookingHandler := api.NewBookingHandler(bookingSvc)

	r := mux.NewRouter()
	r.HandleFunc("/api/auth/otp", authHandler.RequestOTP).Methods("POST")
	r.HandleFunc("/api/auth/verify", authHandler.VerifyOTP).Methods("POST")
	r.HandleFunc("/api/lots", lotHandler.ListLots).Methods("GET")
	r.HandleFunc("/api/lots/{id}", lotHandler.GetLot).Methods("GET")
	r.HandleFunc("/api/lots/{id}/slots", lotHandler.SlotGrid).Methods("POST")

	user := r.PathPrefix("/api").Subrouter()
	user.Use(auth.SessionMiddleware(testJWTSecret))
	user.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")
	user.HandleFunc("/state", bookingHandler.GetState).Methods("GET")
	user.HandleFunc("/location", bookingHandler.SetLocation).Methods("PUT")
	user.HandleFunc("/vehicles", vehicleHandler.ListVehicles).Methods("GET")
	user.HandleFunc("/vehicles", vehicleHandler.AddVehicle).Methods("POST")
	user.HandleFunc("/vehicles/{id}", vehicleHandler.RemoveVehicle).Methods("DELETE")
	user.HandleFunc("/holds", holdHandler.PlaceHold).Methods("POST")
	user.HandleFunc("/holds/{slotID}", holdHandler.GetHold).Methods("GET")
	user.HandleFunc("/holds/{slotID}", holdHandler.ReleaseHold).Methods("DELETE")
	user.HandleFunc("/draft/lot", bookingHandler.SetDraftLot).Methods("PUT")
	user.HandleFunc("/draft/vehicle", bookingHandler.SetDraftVehicle).Methods("PUT")
	user.HandleFunc("/draft/times", bookingHandler.SetDraftTimes).Methods("PUT")
	user.HandleFunc("/draft", bookingHandler.ClearDraft).Methods("DELETE")
	user.HandleFunc("/bookings", bookingHandler.ConfirmBooking).Methods("POST")
	user.HandleFunc("/bookings", bookingHandler.ListBookings).Methods("GET")
	user.HandleFunc("/bookings/{id}", bookingHandler.GetBooking).Methods("GET")
	user.HandleFunc("/bookings/{id}", bookingHandler.CancelBooking).Methods("DELETE")
	user.HandleFunc("/bookings/{id}/checkin", bookingHandler.CheckIn).Methods("POST")
	user.HandleFunc("/bookings/{id}/checkout", bookingHandler.CheckOut).Methods("POST")
	user.HandleFunc("/bookings/{id}/receipt", bookingHandler.GetReceipt).Methods("GET")

	return r, sender
}

func doJSON(t *testing.T, r *mux.Router, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// login runs the OTP round trip and returns a session token.
func login(t *testing.T, r *mux.Router, sender *captureSender, phone string) string {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/api/auth/otp", "", map[string]string{"phone": phone})
	require.Equal(t, http.StatusOK, rec.Code)

	code := otpRe.FindString(sender.body)
	require.Len(t, code, 6)

	rec = doJSON(t, r, http.MethodPost, "/api/auth/verify", "", map[string]string{"phone": phone, "code": code})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp entities.VerifyOTPResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)
	require.True(t, resp.Authenticated)
	return resp.Token
}

func TestAuthFlow(t *testing.T) {
	r, sender := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/auth/otp", "", map[string]string{"phone": "12345"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/auth/otp", "", map[string]string{"phone": "+919876543210"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/auth/verify", "", map[string]string{"phone": "9876543210", "code": "000000"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	code := otpRe.FindString(sender.body)
	rec = doJSON(t, r, http.MethodPost, "/api/auth/verify", "", map[string]string{"phone": "9876543210", "code": code})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionRequired(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/vehicles", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/vehicles", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVehicleEndpoints(t *testing.T) {
	r, sender := newTestRouter(t)
	token := login(t, r, sender, "9876543210")

	rec := doJSON(t, r, http.MethodGet, "/api/vehicles", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())

	rec = doJSON(t, r, http.MethodPost, "/api/vehicles", token, entities.AddVehicleRequest{Type: "car", Number: "ka 01 ab 1234"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var vehicle state.Vehicle
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&vehicle))
	require.Equal(t, "KA01AB1234", vehicle.Number)

	rec = doJSON(t, r, http.MethodPost, "/api/vehicles", token, entities.AddVehicleRequest{Type: "car", Number: "KA01AB1234"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/vehicles", token, entities.AddVehicleRequest{Type: "truck", Number: "KA02CD5678"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, "/api/vehicles/"+vehicle.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/vehicles", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())
}

func TestLotEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/lots", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var lots []state.ParkingLot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&lots))
	require.NotEmpty(t, lots)

	rec = doJSON(t, r, http.MethodGet, "/api/lots/LOT1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/lots/NOPE", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/lots/LOT1/slots", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHoldLifecycle(t *testing.T) {
	r, sender := newTestRouter(t)
	token := login(t, r, sender, "9876543210")
	other := login(t, r, sender, "9123456780")

	rec := doJSON(t, r, http.MethodPost, "/api/holds", token, entities.HoldRequest{LotID: "LOT1", SlotID: "A1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp entities.HoldResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "A1", resp.Label)
	require.Greater(t, resp.ExpiresAt, time.Now().UnixMilli())

	// Single writer per slot.
	rec = doJSON(t, r, http.MethodPost, "/api/holds", other, entities.HoldRequest{LotID: "LOT1", SlotID: "A1"})
	require.Equal(t, http.StatusConflict, rec.Code)

	// An occupied slot cannot be held.
	rec = doJSON(t, r, http.MethodPost, "/api/holds", token, entities.HoldRequest{LotID: "LOT1", SlotID: "A2"})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/holds/A1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, "/api/holds/A1", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/holds/A1", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

// bookingFixture drives the whole draft flow over HTTP and returns the
// confirmed booking.
func bookingFixture(t *testing.T, r *mux.Router, token string, start, end time.Time) state.Booking {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/api/vehicles", token, entities.AddVehicleRequest{Type: "car", Number: "KA01AB1234"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var vehicle state.Vehicle
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&vehicle))

	rec = doJSON(t, r, http.MethodPut, "/api/draft/lot", token, entities.DraftLotRequest{LotID: "LOT1"})
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, r, http.MethodPut, "/api/draft/vehicle", token, entities.DraftVehicleRequest{VehicleID: vehicle.ID})
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, r, http.MethodPost, "/api/holds", token, entities.HoldRequest{LotID: "LOT1", SlotID: "A1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, r, http.MethodPut, "/api/draft/times", token, entities.DraftTimesRequest{StartTime: start, EndTime: end})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/bookings", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp entities.ConfirmBookingResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Booking
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	r, sender := newTestRouter(t)
	token := login(t, r, sender, "9876543210")

	start := time.Now().Add(time.Hour).Truncate(time.Second)
	booking := bookingFixture(t, r, token, start, start.Add(2*time.Hour))
	require.Equal(t, state.StatusPaid, booking.Status)
	require.Equal(t, 80, booking.Amount)

	rec := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/bookings/%s/checkin", booking.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Checking in twice conflicts.
	rec = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/bookings/%s/checkin", booking.ID), token, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/bookings/%s/checkout", booking.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var completed state.Booking
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&completed))
	require.Equal(t, state.StatusCompleted, completed.Status)

	rec = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/bookings/%s/receipt", booking.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var receipt entities.Receipt
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&receipt))
	require.Equal(t, booking.Amount, receipt.TotalPaid)

	rec = doJSON(t, r, http.MethodGet, "/api/bookings/PBUNKNOWN", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelBookingOverHTTP(t *testing.T) {
	r, sender := newTestRouter(t)
	token := login(t, r, sender, "9876543210")

	start := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	booking := bookingFixture(t, r, token, start, start.Add(2*time.Hour))

	rec := doJSON(t, r, http.MethodDelete, "/api/bookings/"+booking.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cancelled state.Booking
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cancelled))
	require.Equal(t, state.StatusCancelled, cancelled.Status)
	require.Equal(t, booking.Amount, cancelled.RefundAmount)

	// A cancelled booking cannot be cancelled again.
	rec = doJSON(t, r, http.MethodDelete, "/api/bookings/"+booking.ID, token, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, "/api/bookings/PBUNKNOWN", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfirmWithoutDraft(t *testing.T) {
	r, sender := newTestRouter(t)
	token := login(t, r, sender, "9876543210")

	rec := doJSON(t, r, http.MethodPost, "/api/bookings", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStateEndpoint(t *testing.T) {
	r, sender := newTestRouter(t)
	token := login(t, r, sender, "9876543210")

	rec := doJSON(t, r, http.MethodPut, "/api/location", token, entities.LocationRequest{Granted: true})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/state", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st state.AppState
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	require.Equal(t, "9876543210", st.Mobile)
	require.True(t, st.OTPVerified)
	require.True(t, st.LocationGranted)
}
