package state

import "time"

type VehicleType string

const (
	VehicleTypeCar  VehicleType = "car"
	VehicleTypeBike VehicleType = "bike"
)

type BookingStatus string

// CREATED exists in the status set for completeness but no action produces
// it: payment and confirmation are a single step, so bookings enter the
// store already PAID.
const (
	StatusCreated   BookingStatus = "CREATED"
	StatusPaid      BookingStatus = "PAID"
	StatusCheckedIn BookingStatus = "CHECKED_IN"
	StatusCompleted BookingStatus = "COMPLETED"
	StatusCancelled BookingStatus = "CANCELLED"
)

type RefundStatus string

const (
	RefundInitiated RefundStatus = "INITIATED"
	RefundCompleted RefundStatus = "COMPLETED"
)

type Vehicle struct {
	ID       string      `json:"id"`
	Type     VehicleType `json:"type"`
	Number   string      `json:"number"`
	Nickname string      `json:"nickname,omitempty"`
}

// ParkingLot is static reference data; the booking core never mutates it.
type ParkingLot struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Address        string        `json:"address"`
	Distance       string        `json:"distance"`
	PricePerHour   int           `json:"price_per_hour"`
	Availability   bool          `json:"availability"`
	TotalSlots     int           `json:"total_slots"`
	AvailableSlots int           `json:"available_slots"`
	VehicleTypes   []VehicleType `json:"vehicle_types"`
	Amenities      []string      `json:"amenities"`
	Rating         float64       `json:"rating"`
	Reviews        int           `json:"reviews"`
	OpenTime       string        `json:"open_time"`
	CloseTime      string        `json:"close_time"`
}

type Booking struct {
	ID             string        `json:"id"`
	LotID          string        `json:"lot_id"`
	Lot            ParkingLot    `json:"lot"`
	VehicleID      string        `json:"vehicle_id"`
	Vehicle        Vehicle       `json:"vehicle"`
	SlotLabel      string        `json:"slot_label,omitempty"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	Status         BookingStatus `json:"status"`
	Amount         int           `json:"amount"`
	QRToken        string        `json:"qr_token"`
	PaymentRef     string        `json:"payment_ref,omitempty"`
	CheckedInAt    *time.Time    `json:"checked_in_at,omitempty"`
	CheckedOutAt   *time.Time    `json:"checked_out_at,omitempty"`
	CancelledAt    *time.Time    `json:"cancelled_at,omitempty"`
	OverstayAmount int           `json:"overstay_amount,omitempty"`
	RefundStatus   RefundStatus  `json:"refund_status,omitempty"`
	RefundAmount   int           `json:"refund_amount,omitempty"`
}

// DraftBooking is the reservation being assembled before payment. At most
// one exists per state; it is cleared on confirmation or flow cancel.
type DraftBooking struct {
	Lot       *ParkingLot `json:"lot,omitempty"`
	Vehicle   *Vehicle    `json:"vehicle,omitempty"`
	SlotLabel string      `json:"slot_label,omitempty"`
	StartTime *time.Time  `json:"start_time,omitempty"`
	EndTime   *time.Time  `json:"end_time,omitempty"`
}

// Complete reports whether the draft has everything confirmation needs.
func (d DraftBooking) Complete() bool {
	return d.Lot != nil && d.Vehicle != nil && d.StartTime != nil && d.EndTime != nil
}

// AppState is the whole per-user application state. It is serialized as a
// single record on every mutation and rehydrated at startup.
type AppState struct {
	Authenticated   bool         `json:"authenticated"`
	Mobile          string       `json:"mobile"`
	OTPVerified     bool         `json:"otp_verified"`
	LocationGranted bool         `json:"location_granted"`
	Vehicles        []Vehicle    `json:"vehicles"`
	Bookings        []Booking    `json:"bookings"`
	Draft           DraftBooking `json:"draft"`
	ActiveBookingID string       `json:"active_booking_id,omitempty"`
}

// HasVehicle derives from the vehicle collection being non-empty.
func (s AppState) HasVehicle() bool {
	return len(s.Vehicles) > 0
}

// ActiveBooking returns the booking the active reference points at, or nil.
func (s *AppState) ActiveBooking() *Booking {
	if s.ActiveBookingID == "" {
		return nil
	}
	return s.findBooking(s.ActiveBookingID)
}

func (s *AppState) findBooking(id string) *Booking {
	for i := range s.Bookings {
		if s.Bookings[i].ID == id {
			return &s.Bookings[i]
		}
	}
	return nil
}

func defaultState() AppState {
	return AppState{}
}
