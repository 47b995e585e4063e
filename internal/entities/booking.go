package entities

import (
	"time"

	"parkease/internal/state"
)

type AddVehicleRequest struct {
	Type     string `json:"type"`
	Number   string `json:"number"`
	Nickname string `json:"nickname,omitempty"`
}

type DraftLotRequest struct {
	LotID string `json:"lot_id"`
}

type DraftVehicleRequest struct {
	VehicleID string `json:"vehicle_id"`
}

type DraftSlotRequest struct {
	SlotID string `json:"slot_id"`
}

type DraftTimesRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type LocationRequest struct {
	Granted bool `json:"granted"`
}

type ConfirmBookingResponse struct {
	Booking state.Booking `json:"booking"`
	// PaymentURL is set when the gateway requires a redirect to settle.
	PaymentURL string `json:"payment_url,omitempty"`
}

type SlotAvailabilityRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Receipt is the printable summary of a completed or cancelled booking.
type Receipt struct {
	BookingID      string     `json:"booking_id"`
	LotName        string     `json:"lot_name"`
	LotAddress     string     `json:"lot_address"`
	SlotLabel      string     `json:"slot_label,omitempty"`
	VehicleNumber  string     `json:"vehicle_number"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	CheckedInAt    *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutAt   *time.Time `json:"checked_out_at,omitempty"`
	Status         string     `json:"status"`
	Amount         int        `json:"amount"`
	OverstayAmount int        `json:"overstay_amount"`
	TotalPaid      int        `json:"total_paid"`
	RefundStatus   string     `json:"refund_status,omitempty"`
	RefundAmount   int        `json:"refund_amount,omitempty"`
}

type EmailReceiptRequest struct {
	Email string `json:"email"`
}
