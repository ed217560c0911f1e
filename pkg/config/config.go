package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu    sync.Mutex
	cache = make(map[string]any)

	defaultEnvOnce sync.Once
)

// LoadEnv loads the given .env files into the process environment. Variables
// already set in the environment win over file values. With no arguments it
// loads ./.env.
func LoadEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrEnvFileLoad, err)
	}
	return nil
}

// Load parses environment variables into cfg based on its `env` field tags.
// Each distinct configuration type is parsed once per process; later calls
// return the cached copy. The default .env file is loaded lazily before the
// first parse, and a missing file is not an error.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilPointer
	}

	defaultEnvOnce.Do(func() {
		_ = godotenv.Load()
	})

	key := typeName[T]()

	mu.Lock()
	defer mu.Unlock()

	if cached, ok := cache[key]; ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return errors.Join(ErrParse, err)
	}

	// Store a copy so callers mutating cfg cannot poison the cache.
	cache[key] = *cfg
	return nil
}

// MustLoad is Load for configuration the process cannot start without; it
// panics on failure.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load %s: %v", typeName[T](), err))
	}
}

// ResetCache clears all cached configurations. Intended for tests that flip
// environment variables between loads.
func ResetCache() {
	mu.Lock()
	defer mu.Unlock()
	clear(cache)
}

func typeName[T any]() string {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return fmt.Sprintf("%T", *new(T))
	}
	return t.String()
}
