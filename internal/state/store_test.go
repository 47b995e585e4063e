package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLot = ParkingLot{
	ID:           "LOT1",
	Name:         "City Center Parking",
	PricePerHour: 40,
	VehicleTypes: []VehicleType{VehicleTypeCar, VehicleTypeBike},
}

var testVehicle = Vehicle{ID: "V1", Type: VehicleTypeCar, Number: "KA01AB1234"}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore("9876543210", nil, nil)
}

func draftStore(t *testing.T, start, end time.Time) *Store {
	t.Helper()
	s := newTestStore(t)
	s.SetDraftLot(testLot)
	s.SetDraftVehicle(testVehicle)
	s.SetDraftSlot("A3")
	require.NoError(t, s.SetDraftTimes(start, end))
	return s
}

func TestAddVehicle(t *testing.T) {
	s := newTestStore(t)
	s.VerifyOTP()

	v, err := s.AddVehicle(context.Background(), VehicleTypeCar, "ka 01 ab 1234", "Daily driver")
	require.NoError(t, err)
	assert.Equal(t, "KA01AB1234", v.Number)
	assert.NotEmpty(t, v.ID)

	st := s.View()
	assert.True(t, st.HasVehicle())
	assert.True(t, st.Authenticated, "verified user with a vehicle is authenticated")

	_, err = s.AddVehicle(context.Background(), VehicleTypeCar, "KA01AB1234", "")
	assert.ErrorIs(t, err, ErrDuplicatePlate)

	_, err = s.AddVehicle(context.Background(), VehicleTypeBike, "not-a-plate", "")
	assert.ErrorIs(t, err, ErrInvalidPlate)

	_, err = s.AddVehicle(context.Background(), VehicleType("truck"), "KA02CD5678", "")
	assert.ErrorIs(t, err, ErrInvalidVehicleType)
}

func TestRemoveVehicleDerivesHasVehicle(t *testing.T) {
	s := newTestStore(t)
	v, err := s.AddVehicle(context.Background(), VehicleTypeBike, "KA05Z9999", "")
	require.NoError(t, err)
	require.True(t, s.View().HasVehicle())

	require.NoError(t, s.RemoveVehicle(context.Background(), v.ID))
	assert.False(t, s.View().HasVehicle())
}

func TestSetDraftTimesRejectsInvertedRange(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	assert.ErrorIs(t, s.SetDraftTimes(start, start), ErrEndNotAfterStart)
	assert.ErrorIs(t, s.SetDraftTimes(start, start.Add(-time.Hour)), ErrEndNotAfterStart)
}

func TestConfirmBooking(t *testing.T) {
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(2*time.Hour + 30*time.Minute)
	s := draftStore(t, start, end)

	b, err := s.ConfirmBooking(context.Background(), "sess_123")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, b.Status)
	assert.Equal(t, 120, b.Amount, "ceil(2.5h) x 40")
	assert.Equal(t, "A3", b.SlotLabel)
	assert.NotEmpty(t, b.QRToken)

	st := s.View()
	assert.Equal(t, b.ID, st.ActiveBookingID, "confirmed booking becomes active")
	assert.False(t, st.Draft.Complete(), "draft cleared on confirmation")
	assert.Nil(t, st.Draft.Lot)
}

func TestConfirmBookingRequiresCompleteDraft(t *testing.T) {
	s := newTestStore(t)
	s.SetDraftLot(testLot)
	_, err := s.ConfirmBooking(context.Background(), "")
	assert.ErrorIs(t, err, ErrDraftIncomplete)
}

func TestCheckInThenOutWithoutOverstay(t *testing.T) {
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	s := draftStore(t, start, end)
	b, err := s.ConfirmBooking(context.Background(), "")
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(5 * time.Minute) }
	require.NoError(t, s.CheckIn(context.Background(), b.ID))
	got, ok := s.Booking(b.ID)
	require.True(t, ok)
	assert.Equal(t, StatusCheckedIn, got.Status)
	require.NotNil(t, got.CheckedInAt)

	s.now = func() time.Time { return end.Add(-10 * time.Minute) }
	out, err := s.CheckOut(context.Background(), b.ID)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, StatusCompleted, out.Status)
	assert.Equal(t, 0, out.OverstayAmount)
	assert.Empty(t, s.View().ActiveBookingID, "checkout clears the active booking")
}

func TestCheckOutBillsOverstay(t *testing.T) {
	// Rate 40/hr, booked 10:00-12:30, checked out 13:10: 60 surcharge.
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(2*time.Hour + 30*time.Minute)
	s := draftStore(t, start, end)
	b, err := s.ConfirmBooking(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, s.CheckIn(context.Background(), b.ID))

	s.now = func() time.Time { return end.Add(40 * time.Minute) }
	out, err := s.CheckOut(context.Background(), b.ID)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, 60, out.OverstayAmount)
	assert.Equal(t, 180, out.Amount+out.OverstayAmount)
}

func TestCheckInUnknownIDIsNoOp(t *testing.T) {
	s := newTestStore(t)
	before := s.View()
	require.NoError(t, s.CheckIn(context.Background(), "PBNOPE"))
	assert.Equal(t, before, s.View())

	out, err := s.CheckOut(context.Background(), "PBNOPE")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestCancelRefundTiers(t *testing.T) {
	cases := []struct {
		name          string
		minutesBefore int
		refund        int
	}{
		{"more than an hour ahead", 70, 200},
		{"within the hour", 20, 100},
		{"last minute", 10, 0},
	}
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := draftStore(t, start, start.Add(5*time.Hour))
			b, err := s.ConfirmBooking(context.Background(), "")
			require.NoError(t, err)
			require.Equal(t, 200, b.Amount)

			s.now = func() time.Time { return start.Add(-time.Duration(c.minutesBefore) * time.Minute) }
			out, err := s.Cancel(context.Background(), b.ID)
			require.NoError(t, err)
			require.NotNil(t, out)
			assert.Equal(t, StatusCancelled, out.Status)
			assert.Equal(t, RefundInitiated, out.RefundStatus)
			assert.Equal(t, c.refund, out.RefundAmount)
			require.NotNil(t, out.CancelledAt)
			assert.Empty(t, s.View().ActiveBookingID, "cancelling the active booking clears the reference")
		})
	}
}

func TestCancelCheckedInIsNoOp(t *testing.T) {
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	s := draftStore(t, start, start.Add(2*time.Hour))
	b, err := s.ConfirmBooking(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, s.CheckIn(context.Background(), b.ID))

	before := s.View()
	out, err := s.Cancel(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Equal(t, before, s.View(), "state unchanged after cancelling a checked-in booking")
}

func TestCompleteRefund(t *testing.T) {
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	s := draftStore(t, start, start.Add(time.Hour))
	b, err := s.ConfirmBooking(context.Background(), "")
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(-2 * time.Hour) }
	_, err = s.Cancel(context.Background(), b.ID)
	require.NoError(t, err)

	require.NoError(t, s.CompleteRefund(context.Background(), b.ID))
	got, ok := s.Booking(b.ID)
	require.True(t, ok)
	assert.Equal(t, RefundCompleted, got.RefundStatus)

	// Idempotent, and a no-op for bookings without an initiated refund.
	require.NoError(t, s.CompleteRefund(context.Background(), b.ID))
	require.NoError(t, s.CompleteRefund(context.Background(), "PBNOPE"))
}

type failingRemote struct{}

var errRemoteDown = errors.New("remote down")

func (failingRemote) LoadUserData(context.Context, string) ([]Vehicle, []Booking, error) {
	return nil, nil, errRemoteDown
}
func (failingRemote) SaveVehicle(context.Context, string, Vehicle) error { return errRemoteDown }
func (failingRemote) DeleteVehicle(context.Context, string, string) error {
	return errRemoteDown
}
func (failingRemote) SaveBooking(context.Context, string, Booking) error { return errRemoteDown }

func TestRemoteFailureBlocksLocalMutation(t *testing.T) {
	s := NewStore("9876543210", nil, failingRemote{})
	_, err := s.AddVehicle(context.Background(), VehicleTypeCar, "KA01AB1234", "")
	require.ErrorIs(t, err, errRemoteDown)
	assert.False(t, s.View().HasVehicle(), "failed remote write must not commit locally")
}

func TestLoadUserDataFailureIsSwallowed(t *testing.T) {
	s := NewStore("9876543210", nil, failingRemote{})
	before := s.View()
	s.SyncRemote(context.Background())
	assert.Equal(t, before, s.View(), "load failure leaves existing state untouched")
}
