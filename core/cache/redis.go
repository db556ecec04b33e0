package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisTTL bounds entries stored through Redis when no ttl is given,
// so abandoned generations eventually disappear.
const DefaultRedisTTL = 10 * time.Minute

// RedisOption configures a Redis cache.
type RedisOption func(*Redis)

// WithRedisPrefix sets the key namespace.
func WithRedisPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// WithRedisDefaultTTL sets the lifetime used when Set receives a zero ttl.
func WithRedisDefaultTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		if ttl > 0 {
			r.defaultTTL = ttl
		}
	}
}

// Redis is a Cache shared between processes.
//
// Keys live under a generation number. Reset bumps the generation so every
// earlier key becomes unreachable at once and expires on its own. Each tag
// is a set of entry keys within the current generation.
type Redis struct {
	client     redis.UniversalClient
	prefix     string
	defaultTTL time.Duration
}

var _ Cache = (*Redis)(nil)

// NewRedis creates a Redis-backed cache.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client:     client,
		prefix:     "squadcart",
		defaultTTL: DefaultRedisTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) genKey() string {
	return r.prefix + ":cache:gen"
}

func (r *Redis) generation(ctx context.Context) (int64, error) {
	gen, err := r.client.Get(ctx, r.genKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache: read generation: %w", err)
	}
	return gen, nil
}

func (r *Redis) entryKey(gen int64, key string) string {
	return r.prefix + ":cache:" + strconv.FormatInt(gen, 10) + ":entry:" + key
}

func (r *Redis) tagKey(gen int64, tag Tag) string {
	return r.prefix + ":cache:" + strconv.FormatInt(gen, 10) + ":tag:" + string(tag)
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	gen, err := r.generation(ctx)
	if err != nil {
		return nil, false, err
	}

	data, err := r.client.Get(ctx, r.entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get %q: %w", key, err)
	}
	return data, true, nil
}

// Set implements Cache. Tag sets live at least as long as their newest entry.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...Tag) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}

	gen, err := r.generation(ctx)
	if err != nil {
		return err
	}

	ek := r.entryKey(gen, key)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, ek, value, ttl)
		for _, tag := range tags {
			tk := r.tagKey(gen, tag)
			pipe.SAdd(ctx, tk, ek)
			pipe.ExpireGT(ctx, tk, ttl)
			pipe.ExpireNX(ctx, tk, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache: set %q: %w", key, err)
	}
	return nil
}

// InvalidateTags implements Cache.
func (r *Redis) InvalidateTags(ctx context.Context, tags ...Tag) error {
	if len(tags) == 0 {
		return nil
	}

	gen, err := r.generation(ctx)
	if err != nil {
		return err
	}

	var doomed []string
	for _, tag := range tags {
		tk := r.tagKey(gen, tag)
		members, err := r.client.SMembers(ctx, tk).Result()
		if err != nil {
			return fmt.Errorf("cache: read tag %q: %w", tag, err)
		}
		doomed = append(doomed, members...)
		doomed = append(doomed, tk)
	}

	if err := r.client.Del(ctx, doomed...).Err(); err != nil {
		return fmt.Errorf("cache: invalidate: %w", err)
	}
	return nil
}

// Reset implements Cache.
func (r *Redis) Reset(ctx context.Context) error {
	if err := r.client.Incr(ctx, r.genKey()).Err(); err != nil {
		return fmt.Errorf("cache: reset: %w", err)
	}
	return nil
}
