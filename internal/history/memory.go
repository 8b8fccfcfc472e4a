package history

import "sync"

// MemoryStore keeps history in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	opts    options
	entries []Entry
	closed  bool
}

func NewMemory(opts ...Option) *MemoryStore {
	return &MemoryStore{opts: buildOptions(opts)}
}

func (m *MemoryStore) Append(expression, result string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	entry := m.opts.newEntry(expression, result)
	m.entries = append([]Entry{entry}, m.entries...)
	if len(m.entries) > m.opts.limit {
		m.entries = m.entries[:m.opts.limit]
	}
	return nil
}

func (m *MemoryStore) LoadAll() ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return append([]Entry(nil), m.entries...), nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.entries = nil
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
