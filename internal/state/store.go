package state

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"parkease/internal/pricing"
)

var (
	ErrInvalidPlate       = errors.New("invalid vehicle plate")
	ErrInvalidVehicleType = errors.New("vehicle type must be car or bike")
	ErrDuplicatePlate     = errors.New("a vehicle with this plate already exists")
	ErrEndNotAfterStart   = errors.New("end time must be after start time")
	ErrDraftIncomplete    = errors.New("booking draft is incomplete")
)

var plateRe = regexp.MustCompile(`^[A-Z]{2}[0-9]{1,2}[A-Z]{0,3}[0-9]{4}$`)

// Remote mirrors local mutations to durable storage. All methods are
// best-effort from the store's point of view: LoadUserData failures never
// reach the caller, while Save/Delete failures abort the local mutation
// (remote is authoritative when configured). A nil Remote selects pure
// local mode with identical lifecycle behavior.
type Remote interface {
	LoadUserData(ctx context.Context, mobile string) ([]Vehicle, []Booking, error)
	SaveVehicle(ctx context.Context, mobile string, v Vehicle) error
	DeleteVehicle(ctx context.Context, mobile, id string) error
	SaveBooking(ctx context.Context, mobile string, b Booking) error
}

// Store is the booking state container: a narrow action API over one
// user's AppState. Every action takes the lock, reads the latest state,
// applies the transition, and writes a snapshot, so mutations are atomic
// from the perspective of subsequent reads. Time is read at call time
// inside each action, never cached.
type Store struct {
	mu     sync.Mutex
	state  AppState
	snap   SnapshotStore
	remote Remote
	now    func() time.Time
}

// NewStore builds a store for one user, rehydrating from the last
// snapshot if one exists. Snapshot load failures are logged and the store
// starts from the default state.
func NewStore(mobile string, snap SnapshotStore, remote Remote) *Store {
	s := &Store{
		state:  defaultState(),
		snap:   snap,
		remote: remote,
		now:    time.Now,
	}
	s.state.Mobile = mobile
	if snap != nil {
		saved, err := snap.Load()
		if err != nil {
			log.Printf("Failed to load state snapshot for %s: %v", mobile, err)
		} else if saved != nil {
			s.state = *saved
			s.state.Mobile = mobile
		}
	}
	return s
}

// View returns a copy of the current state safe for the caller to read.
func (s *Store) View() AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.state)
}

func (s *Store) Mobile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Mobile
}

// SyncRemote loads the user's vehicles and bookings from remote storage.
// Best effort: on failure the store keeps whatever it already has.
func (s *Store) SyncRemote(ctx context.Context) {
	if s.remote == nil {
		return
	}
	s.mu.Lock()
	mobile := s.state.Mobile
	s.mu.Unlock()

	vehicles, bookings, err := s.remote.LoadUserData(ctx, mobile)
	if err != nil {
		log.Printf("Failed to load remote data for %s, continuing with local state: %v", mobile, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Vehicles = vehicles
	s.state.Bookings = bookings
	if s.state.ActiveBookingID != "" && s.state.findBooking(s.state.ActiveBookingID) == nil {
		s.state.ActiveBookingID = ""
	}
	s.state.Authenticated = s.state.OTPVerified && s.state.HasVehicle()
	s.persistLocked()
}

func (s *Store) VerifyOTP() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.OTPVerified = true
	s.state.Authenticated = s.state.HasVehicle()
	s.persistLocked()
}

func (s *Store) SetLocationGranted(granted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LocationGranted = granted
	s.persistLocked()
}

// Logout discards the persisted snapshot and resets to the default state.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mobile := s.state.Mobile
	s.state = defaultState()
	s.state.Mobile = mobile
	if s.snap != nil {
		if err := s.snap.Clear(); err != nil {
			return fmt.Errorf("clearing state snapshot: %w", err)
		}
	}
	return nil
}

// AddVehicle validates and registers a vehicle. The plate is the business
// key: duplicates are rejected. In remote mode the remote write happens
// first and a failure leaves local state untouched.
func (s *Store) AddVehicle(ctx context.Context, vtype VehicleType, number, nickname string) (Vehicle, error) {
	if vtype != VehicleTypeCar && vtype != VehicleTypeBike {
		return Vehicle{}, ErrInvalidVehicleType
	}
	plate := NormalizePlate(number)
	if !plateRe.MatchString(plate) {
		return Vehicle{}, ErrInvalidPlate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.state.Vehicles {
		if v.Number == plate {
			return Vehicle{}, ErrDuplicatePlate
		}
	}

	vehicle := Vehicle{
		ID:       fmt.Sprintf("V%d", s.now().UnixMilli()),
		Type:     vtype,
		Number:   plate,
		Nickname: strings.TrimSpace(nickname),
	}
	if s.remote != nil {
		if err := s.remote.SaveVehicle(ctx, s.state.Mobile, vehicle); err != nil {
			return Vehicle{}, fmt.Errorf("saving vehicle: %w", err)
		}
	}
	s.state.Vehicles = append(s.state.Vehicles, vehicle)
	s.state.Authenticated = s.state.OTPVerified
	s.persistLocked()
	return vehicle, nil
}

func (s *Store) RemoveVehicle(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remote != nil {
		if err := s.remote.DeleteVehicle(ctx, s.state.Mobile, id); err != nil {
			return fmt.Errorf("deleting vehicle: %w", err)
		}
	}
	kept := s.state.Vehicles[:0]
	for _, v := range s.state.Vehicles {
		if v.ID != id {
			kept = append(kept, v)
		}
	}
	s.state.Vehicles = kept
	s.persistLocked()
	return nil
}

func (s *Store) SetDraftLot(lot ParkingLot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Draft.Lot = &lot
	s.persistLocked()
}

func (s *Store) SetDraftVehicle(v Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Draft.Vehicle = &v
	s.persistLocked()
}

func (s *Store) SetDraftSlot(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Draft.SlotLabel = label
	s.persistLocked()
}

func (s *Store) SetDraftTimes(start, end time.Time) error {
	if !end.After(start) {
		return ErrEndNotAfterStart
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Draft.StartTime = &start
	s.state.Draft.EndTime = &end
	s.persistLocked()
	return nil
}

func (s *Store) ClearDraft() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Draft = DraftBooking{}
	s.persistLocked()
}

func (s *Store) Draft() DraftBooking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Draft
}

// ConfirmBooking turns a complete draft into a PAID booking: the amount is
// fixed here as ceil(hours) x rate and never recomputed, the booking
// becomes the active one, and the draft is cleared. paymentRef records the
// gateway reference the payment settled under.
func (s *Store) ConfirmBooking(ctx context.Context, paymentRef string) (Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.state.Draft
	if !d.Complete() {
		return Booking{}, ErrDraftIncomplete
	}
	if !d.EndTime.After(*d.StartTime) {
		return Booking{}, ErrEndNotAfterStart
	}

	now := s.now()
	booking := Booking{
		ID:         NewBookingCode(now),
		LotID:      d.Lot.ID,
		Lot:        *d.Lot,
		VehicleID:  d.Vehicle.ID,
		Vehicle:    *d.Vehicle,
		SlotLabel:  d.SlotLabel,
		StartTime:  *d.StartTime,
		EndTime:    *d.EndTime,
		Status:     StatusPaid,
		Amount:     pricing.Amount(d.Lot.PricePerHour, *d.StartTime, *d.EndTime),
		QRToken:    NewQRToken(now),
		PaymentRef: paymentRef,
	}
	if s.remote != nil {
		if err := s.remote.SaveBooking(ctx, s.state.Mobile, booking); err != nil {
			return Booking{}, fmt.Errorf("saving booking: %w", err)
		}
	}
	s.state.Bookings = append(s.state.Bookings, booking)
	s.state.ActiveBookingID = booking.ID
	s.state.Draft = DraftBooking{}
	s.persistLocked()
	return booking, nil
}

// CheckIn moves a PAID booking to CHECKED_IN and records the timestamp.
// Unknown ids and bookings not in PAID are silent no-ops.
func (s *Store) CheckIn(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.state.findBooking(id)
	if b == nil || b.Status != StatusPaid {
		return nil
	}
	now := s.now()
	updated := *b
	updated.Status = StatusCheckedIn
	updated.CheckedInAt = &now
	if s.remote != nil {
		if err := s.remote.SaveBooking(ctx, s.state.Mobile, updated); err != nil {
			return fmt.Errorf("saving check-in: %w", err)
		}
	}
	*b = updated
	s.state.ActiveBookingID = id
	s.persistLocked()
	return nil
}

// CheckOut completes a CHECKED_IN booking. Checking out past the booked
// end bills the overstay surcharge; the active-booking reference is
// cleared either way. Unknown ids are silent no-ops.
func (s *Store) CheckOut(ctx context.Context, id string) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.state.findBooking(id)
	if b == nil || b.Status != StatusCheckedIn {
		return nil, nil
	}
	now := s.now()
	updated := *b
	updated.Status = StatusCompleted
	updated.CheckedOutAt = &now
	updated.OverstayAmount = pricing.Overstay(b.Lot.PricePerHour, b.EndTime, now)
	if s.remote != nil {
		if err := s.remote.SaveBooking(ctx, s.state.Mobile, updated); err != nil {
			return nil, fmt.Errorf("saving check-out: %w", err)
		}
	}
	*b = updated
	if s.state.ActiveBookingID == id {
		s.state.ActiveBookingID = ""
	}
	s.persistLocked()
	out := updated
	return &out, nil
}

// Cancel cancels a booking that has not been checked in, computing the
// refund tier from how far before the start time the cancellation lands.
// The refund starts INITIATED; CompleteRefund finishes it when the
// gateway's completion event arrives. Returns (nil, nil) for the silent
// no-op cases: unknown id, CHECKED_IN, or already terminal.
func (s *Store) Cancel(ctx context.Context, id string) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.state.findBooking(id)
	if b == nil || b.Status != StatusPaid {
		return nil, nil
	}
	now := s.now()
	percent := pricing.RefundPercent(b.StartTime.Sub(now))
	updated := *b
	updated.Status = StatusCancelled
	updated.CancelledAt = &now
	updated.RefundStatus = RefundInitiated
	updated.RefundAmount = pricing.RefundAmount(b.Amount, percent)
	if s.remote != nil {
		if err := s.remote.SaveBooking(ctx, s.state.Mobile, updated); err != nil {
			return nil, fmt.Errorf("saving cancellation: %w", err)
		}
	}
	*b = updated
	if s.state.ActiveBookingID == id {
		s.state.ActiveBookingID = ""
	}
	s.persistLocked()
	out := updated
	return &out, nil
}

// CompleteRefund applies the refund-completed event for a booking. The
// booking is located by id at event time, so it tolerates any state
// changes since the cancellation. No-op unless a refund is INITIATED.
func (s *Store) CompleteRefund(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.state.findBooking(id)
	if b == nil || b.RefundStatus != RefundInitiated {
		return nil
	}
	updated := *b
	updated.RefundStatus = RefundCompleted
	if s.remote != nil {
		if err := s.remote.SaveBooking(ctx, s.state.Mobile, updated); err != nil {
			return fmt.Errorf("saving refund completion: %w", err)
		}
	}
	*b = updated
	s.persistLocked()
	return nil
}

// Booking returns a copy of the booking with the given id.
func (s *Store) Booking(id string) (Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.state.findBooking(id)
	if b == nil {
		return Booking{}, false
	}
	return *b, true
}

func (s *Store) persistLocked() {
	if s.snap == nil {
		return
	}
	if err := s.snap.Save(&s.state); err != nil {
		log.Printf("Failed to save state snapshot for %s: %v", s.state.Mobile, err)
	}
}

func cloneState(st AppState) AppState {
	out := st
	out.Vehicles = append([]Vehicle(nil), st.Vehicles...)
	out.Bookings = append([]Booking(nil), st.Bookings...)
	return out
}

// NormalizePlate uppercases a plate and strips spaces and hyphens.
func NormalizePlate(number string) string {
	plate := strings.ToUpper(strings.TrimSpace(number))
	plate = strings.ReplaceAll(plate, " ", "")
	return strings.ReplaceAll(plate, "-", "")
}
