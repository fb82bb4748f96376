package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type entry struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FileStore keeps the credentials in a JSON file, one entry per key, each
// with its own expiry. Expired entries are dropped when read.
type FileStore struct {
	mu   sync.Mutex
	path string
	ttl  TTL
	now  func() time.Time
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string, ttl TTL) *FileStore {
	return &FileStore{path: path, ttl: ttl.withDefaults(), now: time.Now}
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Set(_ context.Context, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	return s.save(map[string]entry{
		AccessKey:  {Value: access, ExpiresAt: now.Add(s.ttl.Access)},
		RefreshKey: {Value: refresh, ExpiresAt: now.Add(s.ttl.Refresh)},
	})
}

func (s *FileStore) Get(_ context.Context) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return Credentials{}, err
	}

	now := s.now()
	evicted := false
	for key, e := range entries {
		if !now.Before(e.ExpiresAt) {
			delete(entries, key)
			evicted = true
		}
	}
	if evicted {
		if len(entries) == 0 {
			if err := s.remove(); err != nil {
				return Credentials{}, err
			}
		} else if err := s.save(entries); err != nil {
			return Credentials{}, err
		}
	}

	return Credentials{
		AccessToken:  entries[AccessKey].Value,
		RefreshToken: entries[RefreshKey].Value,
	}, nil
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove()
}

func (s *FileStore) load() (map[string]entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]entry), nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	entries := make(map[string]entry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode session file: %w", err)
	}
	return entries, nil
}

func (s *FileStore) save(entries map[string]entry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

func (s *FileStore) remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
