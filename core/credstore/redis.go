package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/squadcart/core/session"
)

// Defaults for the Redis persister.
const (
	DefaultRedisPrefix  = "squadcart"
	DefaultRedisProfile = "default"
	DefaultRedisTTL     = 30 * 24 * time.Hour
)

// RedisOption configures a Redis persister.
type RedisOption func(*Redis)

// WithRedisPrefix sets the key namespace.
func WithRedisPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// WithRedisProfile selects which stored profile this persister reads and writes.
func WithRedisProfile(profile string) RedisOption {
	return func(r *Redis) {
		if profile != "" {
			r.profile = profile
		}
	}
}

// WithRedisTTL sets the key lifetime. Zero or negative keeps the key forever.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

// Redis persists credentials as JSON under <prefix>:credentials:<profile>.
type Redis struct {
	client  redis.UniversalClient
	prefix  string
	profile string
	ttl     time.Duration
}

// NewRedis creates a durable persister backed by client.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client:  client,
		prefix:  DefaultRedisPrefix,
		profile: DefaultRedisProfile,
		ttl:     DefaultRedisTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Key returns the Redis key holding the credentials.
func (r *Redis) Key() string {
	return r.prefix + ":credentials:" + r.profile
}

// Load implements session.Persister.
func (r *Redis) Load(ctx context.Context) (session.Credentials, error) {
	data, err := r.client.Get(ctx, r.Key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.Credentials{}, session.ErrNoCredentials
	}
	if err != nil {
		return session.Credentials{}, fmt.Errorf("credstore: redis get %s: %w", r.Key(), err)
	}

	var creds session.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return session.Credentials{}, fmt.Errorf("credstore: decode %s: %w", r.Key(), err)
	}
	return creds, nil
}

// Save implements session.Persister.
func (r *Redis) Save(ctx context.Context, creds session.Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("credstore: encode credentials: %w", err)
	}

	ttl := r.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, r.Key(), data, ttl).Err(); err != nil {
		return fmt.Errorf("credstore: redis set %s: %w", r.Key(), err)
	}
	return nil
}

// Clear implements session.Persister.
func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.Key()).Err(); err != nil {
		return fmt.Errorf("credstore: redis del %s: %w", r.Key(), err)
	}
	return nil
}
