package quiz

import (
	"context"
	"sync"
	"time"

	"github.com/mroshb/quiz_bot/pkg/logger"
)

// MemorySessionStore keeps sessions in process memory. Sessions idle longer
// than idleTimeout are treated as gone; zero disables expiry.
type MemorySessionStore struct {
	sessions    map[int64]*Session
	mu          sync.RWMutex
	idleTimeout time.Duration
	now         func() time.Time
}

func NewMemorySessionStore(idleTimeout time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions:    make(map[int64]*Session),
		idleTimeout: idleTimeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemorySessionStore) Get(_ context.Context, participantID int64) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[participantID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if m.expired(s) {
		m.mu.Lock()
		// re-check under the write lock, a Put may have refreshed it
		if cur, ok := m.sessions[participantID]; ok && m.expired(cur) {
			delete(m.sessions, participantID)
		}
		m.mu.Unlock()
		return nil, nil
	}
	return s.Clone(), nil
}

func (m *MemorySessionStore) Put(_ context.Context, session *Session) error {
	c := session.Clone()
	if c.LastActivityAt.IsZero() {
		c.LastActivityAt = m.now()
	}
	m.mu.Lock()
	m.sessions[session.ParticipantID] = c
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, participantID int64) error {
	m.mu.Lock()
	delete(m.sessions, participantID)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions, expired ones included
func (m *MemorySessionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reap removes expired sessions and returns how many were dropped
func (m *MemorySessionStore) Reap() int {
	if m.idleTimeout <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// StartReaper runs Reap every interval until ctx is done
func (m *MemorySessionStore) StartReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Reap(); n > 0 {
				logger.Debug("Reaped idle sessions", "count", n)
			}
		}
	}
}

func (m *MemorySessionStore) expired(s *Session) bool {
	return m.idleTimeout > 0 && m.now().Sub(s.LastActivityAt) > m.idleTimeout
}
