package cache

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Drivers accepted by NewFromConfig.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config selects and sizes the response cache.
type Config struct {
	Driver   string        `env:"CACHE_DRIVER" envDefault:"memory"`
	Capacity int           `env:"CACHE_CAPACITY" envDefault:"512"`
	TTL      time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	Prefix   string        `env:"REDIS_KEY_PREFIX" envDefault:"squadcart"`
}

// DefaultConfig returns the in-memory configuration.
func DefaultConfig() Config {
	return Config{
		Driver:   DriverMemory,
		Capacity: DefaultCapacity,
		TTL:      5 * time.Minute,
		Prefix:   "squadcart",
	}
}

// NewFromConfig builds the configured cache. client is only used by the
// redis driver.
func NewFromConfig(cfg Config, client redis.UniversalClient) (Cache, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemory(WithCapacity(cfg.Capacity), WithDefaultTTL(cfg.TTL)), nil
	case DriverRedis:
		if client == nil {
			return nil, ErrNoRedisClient
		}
		return NewRedis(client, WithRedisPrefix(cfg.Prefix), WithRedisDefaultTTL(cfg.TTL)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
