package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrNilPointer is returned when Load receives a nil target.
var ErrNilPointer = errors.New("config: target must be a non-nil pointer")

var (
	loadEnvOnce sync.Once
	cache       sync.Map // reflect.Type -> any (value, not pointer)
)

// Load parses environment variables into cfg. The first call for a given type
// parses and caches; later calls copy the cached value.
// A .env file in the working directory is loaded once, without overriding
// variables that are already set.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilPointer
	}

	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})

	typ := reflect.TypeFor[T]()
	if v, ok := cache.Load(typ); ok {
		*cfg = v.(T)
		return nil
	}

	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", typ, err)
	}

	actual, _ := cache.LoadOrStore(typ, parsed)
	*cfg = actual.(T)
	return nil
}

// MustLoad is like Load but panics on error. Intended for process start.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}

// Reset drops all cached values. Tests use it between environments.
func Reset() {
	cache.Range(func(k, _ any) bool {
		cache.Delete(k)
		return true
	})
}
