package status

import (
	"fmt"
	"sync"

	"datapacks/internal/datapack"
)

// Entry is a point-in-time view of one key.
type Entry struct {
	Key    datapack.Key
	Status Status
	Reason string
}

// Map tracks one status per key in insertion order. It is safe for
// concurrent use; discovery may seed it from several goroutines.
type Map struct {
	mu      sync.RWMutex
	order   []datapack.Key
	values  map[datapack.Key]Status
	reasons map[datapack.Key]string
}

// NewMap returns an empty status map.
func NewMap() *Map {
	return &Map{
		values:  make(map[datapack.Key]Status),
		reasons: make(map[datapack.Key]string),
	}
}

// Seed inserts key with s unless the key is already known. It reports
// whether the key was inserted.
func (m *Map) Seed(key datapack.Key, s Status) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false
	}
	m.order = append(m.order, key)
	m.values[key] = s
	return true
}

// Get returns the status of key.
func (m *Map) Get(key datapack.Key) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.values[key]
	return s, ok
}

// Reason returns the failure reason recorded for key, if any.
func (m *Map) Reason(key datapack.Key) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reasons[key]
}

// Len reports the number of known keys.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// Keys returns a snapshot of keys in insertion order.
func (m *Map) Keys() []datapack.Key {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := make([]datapack.Key, len(m.order))
	copy(cp, m.order)
	return cp
}

// Transition moves key to s after validating the move against the
// transition table.
func (m *Map) Transition(key datapack.Key, s Status) error {
	return m.set(key, s, "")
}

// Fail moves key to Error and records reason.
func (m *Map) Fail(key datapack.Key, reason string) error {
	return m.set(key, Error, reason)
}

// Mark records an externally driven outcome for key. Only Success, Error,
// Ignored and ReadySeparate may be set this way.
func (m *Map) Mark(key datapack.Key, s Status) error {
	if !IsExternal(s) {
		return fmt.Errorf("status %s cannot be set externally", s)
	}
	return m.set(key, s, "")
}

func (m *Map) set(key datapack.Key, s Status, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.values[key]
	if !ok {
		return fmt.Errorf("unknown key %q", key)
	}
	if !CanTransition(cur, s) {
		return &TransitionError{Key: string(key), From: cur, To: s}
	}
	m.values[key] = s
	if reason != "" {
		m.reasons[key] = reason
	} else if s != Error {
		delete(m.reasons, key)
	}
	return nil
}

// Retry returns every Error key to Ready and reports how many moved. It is
// meant to run between runs, never while a batch is being assembled.
func (m *Map) Retry() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	moved := 0
	for _, key := range m.order {
		if m.values[key] == Error {
			m.values[key] = Ready
			delete(m.reasons, key)
			moved++
		}
	}
	return moved
}

// Entries returns a snapshot of every key in insertion order.
func (m *Map) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, Entry{Key: key, Status: m.values[key], Reason: m.reasons[key]})
	}
	return out
}

// Restore replaces the map contents with entries, keeping their order.
// Unknown statuses are rejected.
func (m *Map) Restore(entries []Entry) error {
	order := make([]datapack.Key, 0, len(entries))
	values := make(map[datapack.Key]Status, len(entries))
	reasons := make(map[datapack.Key]string)
	for _, e := range entries {
		if _, ok := Parse(string(e.Status)); !ok {
			return fmt.Errorf("restore %q: unknown status %q", e.Key, e.Status)
		}
		if _, dup := values[e.Key]; dup {
			continue
		}
		order = append(order, e.Key)
		values[e.Key] = e.Status
		if e.Reason != "" {
			reasons[e.Key] = e.Reason
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order = order
	m.values = values
	m.reasons = reasons
	return nil
}

// Summary aggregates the map by status.
type Summary struct {
	Counts    map[Status]int
	Remaining int
	Total     int
}

// Summary counts keys per status.
func (m *Map) Summary() Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := Summary{Counts: make(map[Status]int, len(allStatuses)), Total: len(m.order)}
	for _, key := range m.order {
		s := m.values[key]
		sum.Counts[s]++
		if IsRemaining(s) {
			sum.Remaining++
		}
	}
	return sum
}
