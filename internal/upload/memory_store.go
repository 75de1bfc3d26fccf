package upload

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process. Expired sessions are dropped on access.
type MemoryStore struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	entries map[string]*memoryEntry
}

func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{clock: clock, entries: make(map[string]*memoryEntry)}
}

func (m *MemoryStore) Create(_ context.Context, s *Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	cp := *s
	cp.Received = append([]bool(nil), s.Received...)
	m.entries[s.ID] = &memoryEntry{session: cp, expiresAt: m.clock.Now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	e, ok := m.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e.copySession(), nil
}

func (m *MemoryStore) MarkReceived(_ context.Context, id string, index int) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	e, ok := m.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if index < 0 || index >= len(e.session.Received) {
		return nil, ErrChunkOutOfRange
	}
	e.session.Received[index] = true
	return e.copySession(), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *MemoryStore) sweep() {
	now := m.clock.Now()
	for id, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, id)
		}
	}
}

func (e *memoryEntry) copySession() *Session {
	cp := e.session
	cp.Received = append([]bool(nil), e.session.Received...)
	return &cp
}
