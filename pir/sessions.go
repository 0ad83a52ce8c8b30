package pir

import (
	"sync"

	"github.com/elliotchance/orderedmap"
	"github.com/google/uuid"
)

const DefaultMaxSessions = 64

// sessionStore maps session ids to client keys. Once full, the least
// recently used session is evicted.
type sessionStore struct {
	mu  sync.Mutex
	max int
	kv  *orderedmap.OrderedMap
}

func newSessionStore(max int) *sessionStore {
	if max < 1 {
		max = DefaultMaxSessions
	}
	return &sessionStore{max: max, kv: orderedmap.NewOrderedMap()}
}

func (s *sessionStore) Add(keys *ServerKeys) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv.Set(id, keys)
	for s.kv.Len() > s.max {
		oldest := s.kv.Front()
		log.WithField("session", oldest.Key).Debug("evicting session")
		s.kv.Delete(oldest.Key)
	}
	return id
}

func (s *sessionStore) Get(id string) (*ServerKeys, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.kv.Get(id)
	if !ok {
		return nil, false
	}
	// Move to the back.
	s.kv.Delete(id)
	s.kv.Set(id, v)
	return v.(*ServerKeys), true
}

func (s *sessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Len()
}
