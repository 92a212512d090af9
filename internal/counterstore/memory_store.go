package counterstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the process-local fallback used when the shared store is
// unreachable. It is best-effort: state is not shared across replicas, so
// during a primary outage each worker enforces limits independently. The
// store has no native TTL, so expired entries are swept on every read.
//
// All state sits behind one mutex; the evaluator may be called from several
// goroutines in one process.
type MemoryStore struct {
	mu       sync.Mutex
	debounce map[string]time.Time
	windows  map[string][]time.Time
	nowFn    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		debounce: make(map[string]time.Time),
		windows:  make(map[string][]time.Time),
		nowFn:    time.Now,
	}
}

// NewMemoryStoreWithClock lets tests drive TTL and window expiry without
// sleeping.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	s := NewMemoryStore()
	s.nowFn = now
	return s
}

func (m *MemoryStore) DebounceCheck(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiry, ok := m.debounce[key]
	if !ok {
		return false, nil
	}
	if m.nowFn().After(expiry) {
		delete(m.debounce, key)
		return false, nil
	}
	return true, nil
}

func (m *MemoryStore) DebounceMark(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.debounce[key] = m.nowFn().Add(ttl)
	return nil
}

func (m *MemoryStore) CountWindow(ctx context.Context, key string, window time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.pruneLocked(key, window)), nil
}

func (m *MemoryStore) IncrementWindow(ctx context.Context, key string, window time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.windows[key] = append(m.pruneLocked(key, window), m.nowFn())
	return nil
}

func (m *MemoryStore) OldestInWindow(ctx context.Context, key string, window time.Duration) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.pruneLocked(key, window)
	if len(entries) == 0 {
		return time.Time{}, false, nil
	}
	return entries[0], true, nil
}

// pruneLocked drops entries older than the window and returns what remains.
// Entries are appended in time order, so the survivors are a suffix.
func (m *MemoryStore) pruneLocked(key string, window time.Duration) []time.Time {
	entries := m.windows[key]
	cutoff := m.nowFn().Add(-window)

	i := 0
	for i < len(entries) && !entries[i].After(cutoff) {
		i++
	}
	if i > 0 {
		entries = append([]time.Time(nil), entries[i:]...)
		if len(entries) == 0 {
			delete(m.windows, key)
		} else {
			m.windows[key] = entries
		}
	}
	return entries
}
