// Package session holds the short-lived credentials issued at login.
//
// A single Store is created at startup and handed to every component that
// needs it. Expiry is enforced by the storage medium itself: nothing polls or
// renews, an expired entry simply stops being returned.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/VinMeld/autopost/internal/config"
)

// Storage keys for the two credentials.
const (
	AccessKey  = "authToken"
	RefreshKey = "refreshToken"
)

// Default lifetimes, measured from issuance.
const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 24 * time.Hour
)

// Credentials is the pair of tokens issued at login. Either field may be
// empty when the medium has already expired it.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// Authenticated reports whether an access token is present.
func (c Credentials) Authenticated() bool {
	return c.AccessToken != ""
}

// TTL holds the independent lifetimes of the two credentials.
type TTL struct {
	Access  time.Duration
	Refresh time.Duration
}

func (t TTL) withDefaults() TTL {
	if t.Access <= 0 {
		t.Access = DefaultAccessTTL
	}
	if t.Refresh <= 0 {
		t.Refresh = DefaultRefreshTTL
	}
	return t
}

// Store persists the session credentials.
type Store interface {
	Set(ctx context.Context, access, refresh string) error
	Get(ctx context.Context) (Credentials, error)
	Clear(ctx context.Context) error
}

// FromConfig opens the store selected by cfg.Backend.
func FromConfig(ctx context.Context, cfg config.SessionConfig) (Store, error) {
	ttl := TTL{Access: cfg.AccessTTL, Refresh: cfg.RefreshTTL}
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.Path, ttl), nil
	case "memory":
		return NewMemoryStore(ttl), nil
	case "redis":
		client, err := DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, cfg.RedisPrefix, ttl), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}
