package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisClient is the subset of redis.Cmdable the store uses.
type redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps the credentials as two Redis keys whose TTLs implement
// the expiry.
type RedisStore struct {
	client redisClient
	prefix string
	ttl    TTL
}

// NewRedisStore wraps an existing client. Keys are namespaced by prefix.
func NewRedisStore(client redisClient, prefix string, ttl TTL) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl.withDefaults()}
}

// DialRedis connects to addr and verifies the connection with a ping.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}

func (s *RedisStore) Set(ctx context.Context, access, refresh string) error {
	if err := s.client.Set(ctx, s.key(AccessKey), access, s.ttl.Access).Err(); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	if err := s.client.Set(ctx, s.key(RefreshKey), refresh, s.ttl.Refresh).Err(); err != nil {
		// Never leave a lone access token behind.
		_ = s.client.Del(ctx, s.key(AccessKey)).Err()
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context) (Credentials, error) {
	vals, err := s.client.MGet(ctx, s.key(AccessKey), s.key(RefreshKey)).Result()
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read session: %w", err)
	}

	var creds Credentials
	if len(vals) > 0 {
		creds.AccessToken, _ = vals[0].(string)
	}
	if len(vals) > 1 {
		creds.RefreshToken, _ = vals[1].(string)
	}
	return creds, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key(AccessKey), s.key(RefreshKey)).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
