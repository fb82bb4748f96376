package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the credentials for the lifetime of the process.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     TTL
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore(ttl TTL) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl.withDefaults(),
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// SetClock replaces the time source. Used by tests to simulate expiry.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Set(_ context.Context, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.entries = map[string]entry{
		AccessKey:  {Value: access, ExpiresAt: now.Add(s.ttl.Access)},
		RefreshKey: {Value: refresh, ExpiresAt: now.Add(s.ttl.Refresh)},
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if !now.Before(e.ExpiresAt) {
			delete(s.entries, key)
		}
	}
	return Credentials{
		AccessToken:  s.entries[AccessKey].Value,
		RefreshToken: s.entries[RefreshKey].Value,
	}, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry)
	return nil
}
