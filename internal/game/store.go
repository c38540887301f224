// internal/game/store.go
package game

import (
	"sync"

	"github.com/google/uuid"
	"github.com/r1olo/ase-project/internal/models"
)

// session couples a match with its exclusive lock. Every mutating engine
// operation holds mu for the whole read-modify-write; two matches never share
// a lock.
type session struct {
	mu sync.Mutex
	m  *models.Match
}

// MatchStore is the in-memory registry of live matches. The store lock only
// guards the map itself; per-match state is guarded by each session's lock.
type MatchStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

func NewMatchStore() *MatchStore {
	return &MatchStore{sessions: make(map[uuid.UUID]*session)}
}

func (s *MatchStore) Add(m *models.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[m.ID] = &session{m: m}
}

func (s *MatchStore) Get(id uuid.UUID) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// GetOrAdd registers the match unless a session for it already exists, so
// two concurrent rehydrations of the same match share one lock.
func (s *MatchStore) GetOrAdd(m *models.Match) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[m.ID]; ok {
		return sess
	}
	sess := &session{m: m}
	s.sessions[m.ID] = sess
	return sess
}

func (s *MatchStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len reports the number of live matches, for diagnostics.
func (s *MatchStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
