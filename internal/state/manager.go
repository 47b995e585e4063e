package state

import "sync"

// Manager hands out one Store per user. Each store snapshots to its own
// file under dir, keyed by the fixed state key plus the user's mobile.
type Manager struct {
	mu     sync.Mutex
	dir    string
	remote Remote
	stores map[string]*Store
}

func NewManager(dir string, remote Remote) *Manager {
	return &Manager{
		dir:    dir,
		remote: remote,
		stores: make(map[string]*Store),
	}
}

// ForUser returns the store for a mobile number, creating and rehydrating
// it on first use.
func (m *Manager) ForUser(mobile string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stores[mobile]; ok {
		return s
	}
	snap := NewFileSnapshotStore(m.dir, StateKey+"_"+mobile)
	s := NewStore(mobile, snap, m.remote)
	m.stores[mobile] = s
	return s
}

// Stores returns the currently loaded stores. Used by event delivery that
// only knows a booking id (webhooks, cron sweeps).
func (m *Manager) Stores() []*Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Store, 0, len(m.stores))
	for _, s := range m.stores {
		out = append(out, s)
	}
	return out
}
