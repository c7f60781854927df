package cache

import "sync"

// Memory is the in-process Store used by default. Safe for concurrent use.
type Memory struct {
	cfg Config

	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemory(cfg Config) *Memory {
	return &Memory{cfg: cfg.withDefaults(), entries: map[string]Entry{}}
}

func (m *Memory) Get(key string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return Entry{}, false
	}
	if m.cfg.Clock().Sub(entry.StoredAt) >= m.cfg.TTL {
		delete(m.entries, key)
		return Entry{}, false
	}
	return entry, true
}

func (m *Memory) Put(key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = Entry{Payload: payload, StoredAt: m.cfg.Clock()}
	return nil
}

func (m *Memory) Close() error {
	return nil
}

// Len reports the number of entries currently held, including any not yet
// lazily evicted.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
