package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var base = time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC)

func TestBillableHours(t *testing.T) {
	assert.Equal(t, 0, BillableHours(base, base))
	assert.Equal(t, 0, BillableHours(base, base.Add(-time.Hour)))
	assert.Equal(t, 1, BillableHours(base, base.Add(time.Minute)))
	assert.Equal(t, 1, BillableHours(base, base.Add(time.Hour)))
	assert.Equal(t, 2, BillableHours(base, base.Add(time.Hour+time.Second)))
	assert.Equal(t, 3, BillableHours(base, base.Add(2*time.Hour+30*time.Minute)))
}

func TestAmountExactHourHasNoRoundingError(t *testing.T) {
	assert.Equal(t, 40, Amount(40, base, base.Add(time.Hour)))
}

func TestAmountScenario(t *testing.T) {
	// Rate 40/hr, 10:00 to 12:30 bills ceil(2.5) = 3 hours.
	start := base
	end := base.Add(2*time.Hour + 30*time.Minute)
	assert.Equal(t, 120, Amount(40, start, end))
}

func TestOverstayScenario(t *testing.T) {
	// Booked until 12:30, checked out 13:10: ceil(40min) = 1 hour at 1.5x.
	end := base.Add(2*time.Hour + 30*time.Minute)
	now := end.Add(40 * time.Minute)
	assert.Equal(t, 60, Overstay(40, end, now))
}

func TestOverstayZeroAtExactEnd(t *testing.T) {
	end := base.Add(2 * time.Hour)
	assert.Equal(t, 0, Overstay(40, end, end))
	assert.Equal(t, 0, Overstay(40, end, end.Add(-time.Minute)))
}

func TestOverstayMultipleHours(t *testing.T) {
	end := base
	now := end.Add(2*time.Hour + 1*time.Minute)
	assert.Equal(t, 135, Overstay(30, end, now)) // 3h * 30 * 1.5
}

func TestRefundPercentTiers(t *testing.T) {
	cases := []struct {
		minutes int
		percent int
	}{
		{61, 100},
		{60, 50},
		{16, 50},
		{15, 0},
		{0, 0},
	}
	for _, c := range cases {
		got := RefundPercent(time.Duration(c.minutes) * time.Minute)
		assert.Equalf(t, c.percent, got, "minutesToStart=%d", c.minutes)
	}
}

func TestRefundAmount(t *testing.T) {
	assert.Equal(t, 200, RefundAmount(200, 100))
	assert.Equal(t, 100, RefundAmount(200, 50))
	assert.Equal(t, 0, RefundAmount(200, 0))
	// Round half-up on odd amounts.
	assert.Equal(t, 38, RefundAmount(75, 50))
	assert.Equal(t, 0, RefundAmount(0, 100))
	assert.Equal(t, 0, RefundAmount(-10, 100))
}
