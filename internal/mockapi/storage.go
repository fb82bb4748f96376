package mockapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/VinMeld/autopost/internal/models"
)

var ErrUserExists = errors.New("user already exists")

// Storage holds users and listings. When BaseDir is set both are snapshotted
// to JSON files there after every change.
type Storage struct {
	mu        sync.RWMutex
	BaseDir   string
	Users     map[string]models.User    // email -> user
	Listings  map[string]models.Listing // id -> listing
	BlobStore BlobStore
}

// NewStorage creates a Storage, loading any snapshot found in baseDir.
func NewStorage(baseDir string, blobStore BlobStore) (*Storage, error) {
	s := &Storage{
		BaseDir:   baseDir,
		Users:     make(map[string]models.User),
		Listings:  make(map[string]models.Listing),
		BlobStore: blobStore,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Storage) load() error {
	if s.BaseDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.BaseDir, 0700); err != nil {
		return err
	}

	if data, err := os.ReadFile(filepath.Join(s.BaseDir, "users.json")); err == nil {
		if err := json.Unmarshal(data, &s.Users); err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}
	}
	if data, err := os.ReadFile(filepath.Join(s.BaseDir, "listings.json")); err == nil {
		if err := json.Unmarshal(data, &s.Listings); err != nil {
			return fmt.Errorf("failed to load listings: %w", err)
		}
	}
	return nil
}

// saveInternal writes the snapshot. Caller must hold the lock.
func (s *Storage) saveInternal() error {
	if s.BaseDir == "" {
		return nil
	}
	usersData, err := json.MarshalIndent(s.Users, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.BaseDir, "users.json"), usersData, 0600); err != nil {
		return err
	}

	listingsData, err := json.MarshalIndent(s.Listings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.BaseDir, "listings.json"), listingsData, 0600)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AddUser registers email with a bcrypt hash of password.
func (s *Storage) AddUser(_ context.Context, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	email = normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Users[email]; ok {
		return ErrUserExists
	}
	s.Users[email] = models.User{Email: email, PasswordHash: hash}
	return s.saveInternal()
}

// Authenticate reports whether password matches the stored hash for email.
func (s *Storage) Authenticate(_ context.Context, email, password string) (models.User, bool) {
	s.mu.RLock()
	user, ok := s.Users[normalizeEmail(email)]
	s.mu.RUnlock()
	if !ok {
		return models.User{}, false
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return models.User{}, false
	}
	return user, true
}

// SaveListing stores the photos in the blob store, then records the listing.
// blobs is keyed by image ID. Photos already written are removed if a later
// one fails.
func (s *Storage) SaveListing(ctx context.Context, listing models.Listing, blobs map[string][]byte) error {
	var saved []string
	for _, img := range listing.Images {
		if err := s.BlobStore.Save(ctx, img.ID, img.ContentType, blobs[img.ID]); err != nil {
			for _, id := range saved {
				_ = s.BlobStore.Delete(ctx, id)
			}
			return fmt.Errorf("failed to store image %s: %w", img.FileName, err)
		}
		saved = append(saved, img.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Listings[listing.ID] = listing
	return s.saveInternal()
}

// GetListing returns the listing with id.
func (s *Storage) GetListing(_ context.Context, id string) (models.Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.Listings[id]
	return l, ok
}

// ListListings returns owner's listings, oldest first.
func (s *Storage) ListListings(_ context.Context, owner string) []models.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Listing
	for _, l := range s.Listings {
		if l.Owner == owner {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// GetImage returns the stored bytes of a photo.
func (s *Storage) GetImage(ctx context.Context, id string) ([]byte, error) {
	return s.BlobStore.Get(ctx, id)
}
