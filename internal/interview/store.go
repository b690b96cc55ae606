package interview

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/welfare-interviewer/internal/metrics"
)

// Store keeps the sessions of the running process in memory.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*Session),
		now:      time.Now,
	}
}

// Create registers a new session in the shortlist stage.
func (s *Store) Create() *Session {
	session := newSession(uuid.New(), s.now())

	s.mu.Lock()
	s.sessions[session.ID] = session
	metrics.SessionsActive.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	return session
}

func (s *Store) Get(id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	metrics.SessionsActive.Set(float64(len(s.sessions)))
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops sessions untouched for longer than idle and returns how many
// were removed.
func (s *Store) Sweep(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.idleSince().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	metrics.SessionsActive.Set(float64(len(s.sessions)))
	return removed
}
