package session

import (
	"sync"

	"civicsnap/pkg/types"
)

// Session holds the signed-in identity for a client process. Subscribers are
// told about every change so they never read a stale identity.
type Session struct {
	mu       sync.RWMutex
	identity *types.Identity
	nextID   int
	subs     map[int]func(*types.Identity)
}

func New() *Session {
	return &Session{subs: make(map[int]func(*types.Identity))}
}

// Current returns a copy of the identity, or nil when signed out.
func (s *Session) Current() *types.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

func (s *Session) Set(identity types.Identity) {
	s.mu.Lock()
	s.identity = &identity
	subs := s.snapshot()
	s.mu.Unlock()

	for _, fn := range subs {
		id := identity
		fn(&id)
	}
}

func (s *Session) Clear() {
	s.mu.Lock()
	s.identity = nil
	subs := s.snapshot()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(nil)
	}
}

// Subscribe registers fn and returns a func that removes it. fn runs outside
// the session lock.
func (s *Session) Subscribe(fn func(*types.Identity)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Session) snapshot() []func(*types.Identity) {
	out := make([]func(*types.Identity), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}
