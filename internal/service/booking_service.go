package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"parkease/internal/catalog"
	"parkease/internal/entities"
	"parkease/internal/hold"
	"parkease/internal/pricing"
	"parkease/internal/state"
)

var (
	ErrLotNotFound     = errors.New("parking lot not found")
	ErrSlotNotFound    = errors.New("slot not found")
	ErrSlotUnavailable = errors.New("slot is not available")
	ErrBookingNotFound = errors.New("booking not found")
	ErrVehicleNotFound = errors.New("vehicle not found")
)

// RefundSettleDelay is how long after cancellation the simulated gateway
// delivers the refund-completed event. A real gateway replaces this with
// its webhook.
const RefundSettleDelay = 3 * time.Second

// LotSource provides parking-lot and slot reference data. CatalogSource
// serves the built-in data in local mode; repository.LotRepository serves
// the lots/slots tables in remote mode.
type LotSource interface {
	ListLots(ctx context.Context) ([]state.ParkingLot, error)
	GetLot(ctx context.Context, id string) (state.ParkingLot, error)
	ListSlots(ctx context.Context, lotID string) ([]catalog.ParkingSlot, error)
	OccupiedLabels(ctx context.Context, lotID string, start, end time.Time) ([]string, error)
}

type CatalogSource struct{}

func (CatalogSource) ListLots(ctx context.Context) ([]state.ParkingLot, error) {
	return catalog.Lots(), nil
}

func (CatalogSource) GetLot(ctx context.Context, id string) (state.ParkingLot, error) {
	lot, ok := catalog.LotByID(id)
	if !ok {
		return state.ParkingLot{}, ErrLotNotFound
	}
	return lot, nil
}

func (CatalogSource) ListSlots(ctx context.Context, lotID string) ([]catalog.ParkingSlot, error) {
	return catalog.Slots(lotID), nil
}

func (CatalogSource) OccupiedLabels(ctx context.Context, lotID string, start, end time.Time) ([]string, error) {
	// The built-in grid already encodes occupancy in the slot statuses.
	return nil, nil
}

// BookingService orchestrates the booking flow across the per-user state
// stores, the slot lease store, the lot source, and the payment gateway.
type BookingService struct {
	stores      *state.Manager
	holds       *hold.LeaseStore
	lots        LotSource
	gateway     PaymentGateway
	notify      *NotifyService
	settleDelay time.Duration
}

func NewBookingService(stores *state.Manager, holds *hold.LeaseStore, lots LotSource, gateway PaymentGateway, notify *NotifyService, settleDelay time.Duration) *BookingService {
	return &BookingService{
		stores:      stores,
		holds:       holds,
		lots:        lots,
		gateway:     gateway,
		notify:      notify,
		settleDelay: settleDelay,
	}
}

// Store returns the state store for a user.
func (s *BookingService) Store(mobile string) *state.Store {
	return s.stores.ForUser(mobile)
}

func (s *BookingService) Lots(ctx context.Context) ([]state.ParkingLot, error) {
	return s.lots.ListLots(ctx)
}

func (s *BookingService) Lot(ctx context.Context, id string) (state.ParkingLot, error) {
	return s.lots.GetLot(ctx, id)
}

// SlotGrid returns a lot's slots with live holds and, when a time range
// is given, overlapping bookings overlaid on the base statuses.
func (s *BookingService) SlotGrid(ctx context.Context, lotID string, start, end time.Time) ([]catalog.ParkingSlot, error) {
	slots, err := s.lots.ListSlots(ctx, lotID)
	if err != nil {
		return nil, err
	}

	occupied := make(map[string]bool)
	if !start.IsZero() && !end.IsZero() {
		labels, err := s.lots.OccupiedLabels(ctx, lotID, start, end)
		if err != nil {
			return nil, err
		}
		for _, l := range labels {
			occupied[l] = true
		}
	}
	held := s.holds.HeldLabels()

	for i := range slots {
		if slots[i].Status != catalog.SlotAvailable {
			continue
		}
		switch {
		case occupied[slots[i].Label]:
			slots[i].Status = catalog.SlotOccupied
		case held[slots[i].Label]:
			slots[i].Status = catalog.SlotHeld
		}
	}
	return slots, nil
}

// AcquireHold leases a slot for the user and records it on their draft.
func (s *BookingService) AcquireHold(ctx context.Context, mobile, lotID, slotID string) (hold.Hold, error) {
	slots, err := s.SlotGrid(ctx, lotID, time.Time{}, time.Time{})
	if err != nil {
		return hold.Hold{}, err
	}
	var slot *catalog.ParkingSlot
	for i := range slots {
		if slots[i].ID == slotID {
			slot = &slots[i]
			break
		}
	}
	if slot == nil {
		return hold.Hold{}, ErrSlotNotFound
	}
	if slot.Status != catalog.SlotAvailable {
		if slot.Status == catalog.SlotHeld {
			if h, ok := s.holds.Get(slotID); ok && h.Owner == mobile {
				return s.holds.Acquire(mobile, slot.ID, slot.Label, slot.Row, slot.Position)
			}
		}
		return hold.Hold{}, ErrSlotUnavailable
	}

	h, err := s.holds.Acquire(mobile, slot.ID, slot.Label, slot.Row, slot.Position)
	if err != nil {
		return hold.Hold{}, err
	}
	s.Store(mobile).SetDraftSlot(h.Label)
	return h, nil
}

func (s *BookingService) GetHold(slotID string) (hold.Hold, bool) {
	return s.holds.Get(slotID)
}

func (s *BookingService) ReleaseHold(mobile, slotID string) {
	s.holds.Release(slotID, mobile)
}

// ConfirmBooking charges the draft through the gateway and commits the
// PAID booking. The gateway goes first: a declined or failed charge
// leaves the draft untouched.
func (s *BookingService) ConfirmBooking(ctx context.Context, mobile string) (state.Booking, string, error) {
	store := s.Store(mobile)
	draft := store.Draft()
	if !draft.Complete() {
		return state.Booking{}, "", state.ErrDraftIncomplete
	}

	amount := draftAmount(draft)
	code := state.NewBookingCode(time.Now())
	description := fmt.Sprintf("Parking at %s (%s)", draft.Lot.Name, draft.Vehicle.Number)
	ref, url, err := s.gateway.Charge(code, amount, description)
	if err != nil {
		return state.Booking{}, "", fmt.Errorf("charging booking: %w", err)
	}

	booking, err := store.ConfirmBooking(ctx, ref)
	if err != nil {
		return state.Booking{}, "", err
	}
	if booking.SlotLabel != "" {
		s.holds.Release(booking.SlotLabel, mobile)
	}
	if s.notify != nil {
		go s.notify.SendBookingSMS(mobile, booking.ID, booking.Lot.Name, "confirmed")
	}
	return booking, url, nil
}

func (s *BookingService) CheckIn(ctx context.Context, mobile, bookingID string) error {
	return s.Store(mobile).CheckIn(ctx, bookingID)
}

func (s *BookingService) CheckOut(ctx context.Context, mobile, bookingID string) (*state.Booking, error) {
	booking, err := s.Store(mobile).CheckOut(ctx, bookingID)
	if err != nil || booking == nil {
		return booking, err
	}
	if s.notify != nil {
		go s.notify.SendBookingSMS(mobile, booking.ID, booking.Lot.Name, "completed")
	}
	return booking, nil
}

// CancelBooking cancels an eligible booking and kicks off the refund.
// The refund-completed event arrives later: after settleDelay for the
// simulated gateway, via webhook (with the cron sweep as safety net) for
// Stripe.
func (s *BookingService) CancelBooking(ctx context.Context, mobile, bookingID string) (*state.Booking, error) {
	store := s.Store(mobile)
	booking, err := store.Cancel(ctx, bookingID)
	if err != nil || booking == nil {
		return booking, err
	}

	if booking.RefundAmount > 0 && booking.PaymentRef != "" {
		if err := s.gateway.Refund(booking.PaymentRef, booking.RefundAmount); err != nil {
			// Cancellation already committed; the refund stays INITIATED
			// and the stuck-refund sweep retries completion.
			log.Printf("Refund for booking %s failed at the gateway: %v", booking.ID, err)
		}
	}
	if s.settleDelay > 0 {
		id := booking.ID
		time.AfterFunc(s.settleDelay, func() {
			if err := store.CompleteRefund(context.Background(), id); err != nil {
				log.Printf("Could not complete refund for booking %s: %v", id, err)
			}
		})
	}
	if s.notify != nil {
		go s.notify.SendBookingSMS(mobile, booking.ID, booking.Lot.Name, "cancelled")
	}
	return booking, nil
}

// CompleteRefundByID delivers a refund-completed event that only carries
// a booking id, locating the owning store at event time.
func (s *BookingService) CompleteRefundByID(ctx context.Context, bookingID string) bool {
	for _, store := range s.stores.Stores() {
		if _, ok := store.Booking(bookingID); ok {
			if err := store.CompleteRefund(ctx, bookingID); err != nil {
				log.Printf("Could not complete refund for booking %s: %v", bookingID, err)
				return false
			}
			return true
		}
	}
	return false
}

// BookingIDByPaymentRef locates a booking by the gateway reference it
// was charged under.
func (s *BookingService) BookingIDByPaymentRef(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	for _, store := range s.stores.Stores() {
		for _, b := range store.View().Bookings {
			if b.PaymentRef == ref {
				return b.ID, true
			}
		}
	}
	return "", false
}

// Receipt assembles the printable summary for a booking.
func (s *BookingService) Receipt(mobile, bookingID string) (entities.Receipt, error) {
	booking, ok := s.Store(mobile).Booking(bookingID)
	if !ok {
		return entities.Receipt{}, ErrBookingNotFound
	}
	return entities.Receipt{
		BookingID:      booking.ID,
		LotName:        booking.Lot.Name,
		LotAddress:     booking.Lot.Address,
		SlotLabel:      booking.SlotLabel,
		VehicleNumber:  booking.Vehicle.Number,
		StartTime:      booking.StartTime,
		EndTime:        booking.EndTime,
		CheckedInAt:    booking.CheckedInAt,
		CheckedOutAt:   booking.CheckedOutAt,
		Status:         string(booking.Status),
		Amount:         booking.Amount,
		OverstayAmount: booking.OverstayAmount,
		TotalPaid:      booking.Amount + booking.OverstayAmount,
		RefundStatus:   string(booking.RefundStatus),
		RefundAmount:   booking.RefundAmount,
	}, nil
}

// EmailReceipt mails the receipt for a booking to the given address.
func (s *BookingService) EmailReceipt(mobile, bookingID, email string) error {
	receipt, err := s.Receipt(mobile, bookingID)
	if err != nil {
		return err
	}
	if s.notify == nil {
		return fmt.Errorf("email delivery not configured")
	}
	return s.notify.SendReceiptEmail(email, receipt)
}

func draftAmount(d state.DraftBooking) int {
	return pricing.Amount(d.Lot.PricePerHour, *d.StartTime, *d.EndTime)
}
