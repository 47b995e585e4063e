package hold

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndExpiry(t *testing.T) {
	placed := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	s := NewLeaseStore(DefaultTTL)
	s.now = func() time.Time { return placed }

	h, err := s.Acquire("user1", "A3", "A3", "A", 3)
	require.NoError(t, err)
	assert.True(t, h.Valid(placed.Add(5*time.Minute-time.Second)))

	// One second past the five-minute window the hold is invalid and gone.
	expired := placed.Add(5*time.Minute + time.Second)
	assert.False(t, h.Valid(expired))
	s.now = func() time.Time { return expired }
	_, ok := s.Get("A3")
	assert.False(t, ok, "expired hold must be discarded")
}

func TestSingleWriterPerSlot(t *testing.T) {
	s := NewLeaseStore(DefaultTTL)
	_, err := s.Acquire("user1", "B2", "B2", "B", 2)
	require.NoError(t, err)

	_, err = s.Acquire("user2", "B2", "B2", "B", 2)
	assert.ErrorIs(t, err, ErrSlotHeld)

	// The holder can renew their own lease.
	_, err = s.Acquire("user1", "B2", "B2", "B", 2)
	assert.NoError(t, err)
}

func TestExpiredLeaseCanBeReacquired(t *testing.T) {
	placed := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	s := NewLeaseStore(DefaultTTL)
	s.now = func() time.Time { return placed }
	_, err := s.Acquire("user1", "C5", "C5", "C", 5)
	require.NoError(t, err)

	s.now = func() time.Time { return placed.Add(6 * time.Minute) }
	_, err = s.Acquire("user2", "C5", "C5", "C", 5)
	assert.NoError(t, err)
}

func TestReleaseIsOwnerScoped(t *testing.T) {
	s := NewLeaseStore(DefaultTTL)
	_, err := s.Acquire("user1", "A1", "A1", "A", 1)
	require.NoError(t, err)

	s.Release("A1", "user2")
	_, ok := s.Get("A1")
	assert.True(t, ok, "another owner's release is a no-op")

	s.Release("A1", "user1")
	_, ok = s.Get("A1")
	assert.False(t, ok)
}

func TestSweep(t *testing.T) {
	placed := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	s := NewLeaseStore(DefaultTTL)
	s.now = func() time.Time { return placed }
	_, err := s.Acquire("user1", "A1", "A1", "A", 1)
	require.NoError(t, err)
	_, err = s.Acquire("user2", "A2", "A2", "A", 2)
	require.NoError(t, err)

	s.now = func() time.Time { return placed.Add(10 * time.Minute) }
	assert.Equal(t, 2, s.Sweep())
	assert.Empty(t, s.HeldLabels())
}
