package pricing

import (
	"math"
	"time"
)

// OverstayMultiplier is the surcharge applied to hours parked past the
// booked end time.
const OverstayMultiplier = 1.5

// BillableHours returns the duration between start and end rounded up to
// whole hours. Any positive duration bills at least one hour. A zero or
// negative duration bills zero hours.
func BillableHours(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	hours := int(d / time.Hour)
	if d%time.Hour > 0 {
		hours++
	}
	return hours
}

// Amount returns the parking charge for the range [start, end) at the
// lot's hourly rate. Partial hours round up.
func Amount(pricePerHour int, start, end time.Time) int {
	return BillableHours(start, end) * pricePerHour
}

// Overstay returns the surcharge for time parked past end, billed per
// started hour at OverstayMultiplier times the hourly rate. Checking out
// at or before end costs nothing.
func Overstay(pricePerHour int, end, now time.Time) int {
	if !now.After(end) {
		return 0
	}
	hours := BillableHours(end, now)
	return int(math.Round(float64(hours*pricePerHour) * OverstayMultiplier))
}

// RefundPercent returns the refund tier for a cancellation made
// timeToStart before the booked start. Boundaries are exclusive on the
// lower bound: exactly 60 minutes falls in the 50% tier, exactly 15
// minutes in the 0% tier.
func RefundPercent(timeToStart time.Duration) int {
	switch {
	case timeToStart > time.Hour:
		return 100
	case timeToStart > 15*time.Minute:
		return 50
	default:
		return 0
	}
}

// RefundAmount returns percent of amount, rounded half-up to the nearest
// currency unit.
func RefundAmount(amount, percent int) int {
	if amount <= 0 || percent <= 0 {
		return 0
	}
	return (amount*percent + 50) / 100
}
