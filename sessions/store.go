package sessions

import (
	"sync"
	"time"
)

// Store is a thread-safe in-memory session store keyed by user identity.
// Sessions for different identities never share mutable state.
type Store struct {
	sync.Map
	defaults *Defaults
}

// NewStore creates a session store seeded with the given defaults
func NewStore(defaults *Defaults) *Store {
	if defaults == nil {
		defaults = DefaultConfig()
	}

	store := &Store{defaults: defaults}

	// Start expiry goroutine if TTL is set
	if defaults.TTL > 0 {
		go func() {
			ticker := time.NewTicker(defaults.TTL)
			defer ticker.Stop()
			for range ticker.C {
				store.Expire()
			}
		}()
	}

	return store
}

// Get retrieves the session for an identity, creating it on first use
func (s *Store) Get(id string) *Session {
	if value, ok := s.Load(id); ok {
		session := value.(*Session)
		session.mu.Lock()
		session.last = time.Now()
		session.mu.Unlock()
		return session
	}

	now := time.Now()
	session := &Session{
		name:     id,
		created:  now,
		last:     now,
		settings: s.defaults.Settings,
		limits:   s.defaults.Limits,
	}
	session.settings.Temperature = ClampTemperature(session.settings.Temperature)

	// Another goroutine may have raced us here; keep whichever won.
	actual, _ := s.LoadOrStore(id, session)
	return actual.(*Session)
}

// Delete removes a session
func (s *Store) Delete(id string) {
	s.Map.Delete(id)
}

// Exists checks if a session exists without creating it
func (s *Store) Exists(id string) bool {
	_, ok := s.Load(id)
	return ok
}

// List returns all session identity keys
func (s *Store) List() []string {
	var names []string
	s.Range(func(key, value any) bool {
		names = append(names, key.(string))
		return true
	})
	return names
}

// Expire removes sessions idle for longer than the store TTL
func (s *Store) Expire() {
	if s.defaults.TTL <= 0 {
		return
	}
	s.Range(func(key, value any) bool {
		session := value.(*Session)
		if time.Since(session.LastUsed()) > s.defaults.TTL {
			s.Delete(key.(string))
		}
		return true
	})
}
