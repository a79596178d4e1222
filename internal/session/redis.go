// Package session provides a Redis-backed core.SessionStore so import
// sessions survive restarts and are shared between server instances.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/glee/internal/core"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces session keys.
const DefaultKeyPrefix = "glee:import:"

// lockTTL bounds how long a crashed commit can hold the import guard.
const lockTTL = 30 * time.Minute

// RedisStore keeps each session as a JSON string with a TTL that is refreshed
// on every Save.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps client. An empty prefix uses DefaultKeyPrefix and
// ttl <= 0 uses core.DefaultSessionTTL.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = core.DefaultSessionTTL
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Connect parses a redis:// URL, pings the server and returns the client.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *RedisStore) sessionKey(id string) string { return r.prefix + "session:" + id }
func (r *RedisStore) lockKey(id string) string { return r.prefix + "lock:" + id }

func (r *RedisStore) Save(ctx context.Context, s *core.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", s.ID, err)
	}
	if err := r.client.Set(ctx, r.sessionKey(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*core.Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	var s core.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.sessionKey(id), r.lockKey(id)).Err()
}

// AcquireImport sets the lock key only if it is absent.
func (r *RedisStore) AcquireImport(ctx context.Context, id string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.lockKey(id), time.Now().UTC().Format(time.RFC3339), lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("acquire import lock %s: %w", id, err)
	}
	return ok, nil
}

func (r *RedisStore) ReleaseImport(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.lockKey(id)).Err()
}
