// Package hold issues short-lived, server-held leases on physical parking
// slots while a user completes the booking flow. The server copy is the
// authority: acquisition is single-writer per slot, and the client only
// mirrors the expiry for its countdown display.
package hold

import (
	"errors"
	"sync"
	"time"
)

// DefaultTTL is how long a slot stays held once acquired.
const DefaultTTL = 5 * time.Minute

var ErrSlotHeld = errors.New("slot is held by another session")

// Hold is a lease on one slot.
type Hold struct {
	SlotID    string
	Label     string
	Row       string
	Position  int
	Owner     string
	ExpiresAt time.Time
}

// Valid reports whether the lease is still live at the given instant.
func (h Hold) Valid(now time.Time) bool {
	return h.ExpiresAt.After(now)
}

// LeaseStore tracks at most one live lease per slot.
type LeaseStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	holds map[string]Hold
	now   func() time.Time
}

func NewLeaseStore(ttl time.Duration) *LeaseStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LeaseStore{
		ttl:   ttl,
		holds: make(map[string]Hold),
		now:   time.Now,
	}
}

// Acquire leases a slot for the owner. A live lease held by someone else
// rejects the acquisition; re-acquiring one's own lease renews it.
func (s *LeaseStore) Acquire(owner, slotID, label, row string, position int) (Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if existing, ok := s.holds[slotID]; ok && existing.Valid(now) && existing.Owner != owner {
		return Hold{}, ErrSlotHeld
	}
	h := Hold{
		SlotID:    slotID,
		Label:     label,
		Row:       row,
		Position:  position,
		Owner:     owner,
		ExpiresAt: now.Add(s.ttl),
	}
	s.holds[slotID] = h
	return h, nil
}

// Get returns the live lease on a slot, if any. Expired leases are
// discarded on sight.
func (s *LeaseStore) Get(slotID string) (Hold, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[slotID]
	if !ok {
		return Hold{}, false
	}
	if !h.Valid(s.now()) {
		delete(s.holds, slotID)
		return Hold{}, false
	}
	return h, true
}

// Release drops the owner's lease on a slot. Releasing someone else's
// lease is a no-op.
func (s *LeaseStore) Release(slotID, owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.holds[slotID]; ok && h.Owner == owner {
		delete(s.holds, slotID)
	}
}

// HeldLabels returns the labels of all slots under a live lease, for
// overlaying the slot grid.
func (s *LeaseStore) HeldLabels() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	labels := make(map[string]bool)
	for _, h := range s.holds {
		if h.Valid(now) {
			labels[h.Label] = true
		}
	}
	return labels
}

// Sweep removes expired leases and returns how many were dropped.
func (s *LeaseStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	dropped := 0
	for id, h := range s.holds {
		if !h.Valid(now) {
			delete(s.holds, id)
			dropped++
		}
	}
	return dropped
}
