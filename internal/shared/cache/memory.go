package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

const (
	// DefaultMaxEntries bounds a Memory cache built by NewMemory.
	DefaultMaxEntries = 10000
	sweepInterval     = time.Minute
)

// Memory is an in-process Cache used when no Redis is configured. Expired
// entries are swept on Set at most once per minute, and the entry count is
// capped at maxEntries.
type Memory struct {
	mu         sync.Mutex
	clock      clockwork.Clock
	entries    map[string]memoryEntry
	maxEntries int
	nextSweep  time.Time
}

// NewMemory constructs a Memory cache. A nil clock uses the real clock.
func NewMemory(clock clockwork.Clock) *Memory {
	return NewBoundedMemory(clock, DefaultMaxEntries)
}

// NewBoundedMemory constructs a Memory cache holding at most maxEntries values.
func NewBoundedMemory(clock clockwork.Clock, maxEntries int) *Memory {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Memory{clock: clock, entries: make(map[string]memoryEntry), maxEntries: maxEntries}
}

// Get returns a copy of the value if present and not expired.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && !m.clock.Now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), entry.value...), true, nil
}

// Set stores a copy of value. A non-positive ttl keeps it until overwritten.
func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := m.clock.Now()
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !now.Before(m.nextSweep) {
		m.pruneLocked(now)
		m.nextSweep = now.Add(sweepInterval)
	}
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.pruneLocked(now)
		m.evictLocked(len(m.entries) - m.maxEntries + 1)
	}
	m.entries[key] = entry
	return nil
}

func (m *Memory) pruneLocked(now time.Time) {
	for key, entry := range m.entries {
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			delete(m.entries, key)
		}
	}
}

// evictLocked drops n entries, soonest to expire first, entries without a ttl last.
func (m *Memory) evictLocked(n int) {
	for ; n > 0 && len(m.entries) > 0; n-- {
		var (
			victim string
			oldest time.Time
			found  bool
		)
		for key, entry := range m.entries {
			if !found || earlier(entry.expiresAt, oldest) {
				victim, oldest, found = key, entry.expiresAt, true
			}
		}
		delete(m.entries, victim)
	}
}

func earlier(a, b time.Time) bool {
	switch {
	case a.IsZero():
		return false
	case b.IsZero():
		return true
	default:
		return a.Before(b)
	}
}

var _ Cache = (*Memory)(nil)
