package state

import (
	"sync"

	"portfolio-backend-go/internal/models"
)

// Listener is called after every reduction with the new state. Listeners run
// while the store is locked and must not dispatch.
type Listener func(State, Action)

type Store struct {
	mu        sync.Mutex
	state     State
	sessions  SessionRepository
	listeners map[int]Listener
	nextID    int
}

// NewStore restores the auth slice from sessions. A nil repository keeps the
// session in memory only.
func NewStore(sessions SessionRepository) (*Store, error) {
	if sessions == nil {
		sessions = &MemorySessionRepository{}
	}
	store := &Store{sessions: sessions, listeners: map[int]Listener{}}
	session, err := sessions.Load()
	if err != nil {
		return store, err
	}
	if session != nil {
		store.state = Reduce(store.state, SetCredentials{User: session.User, Token: session.Token})
	}
	return store, nil
}

// Dispatch applies action and persists auth changes. The returned error only
// reports persistence failures; the state is updated regardless.
func (s *Store) Dispatch(action Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, action)

	var err error
	switch a := action.(type) {
	case SetCredentials:
		err = s.sessions.Save(models.Session{User: a.User, Token: a.Token})
	case Logout:
		err = s.sessions.Clear()
	}
	for _, listener := range s.listeners {
		listener(s.state, action)
	}
	return err
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers listener and returns a function that removes it.
func (s *Store) Subscribe(listener Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}
