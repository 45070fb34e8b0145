package cache

// Config controls the optimistic access-token cache. MaxSize == 0 disables
// the cache entirely: Get always misses, Put is a no-op, no background
// goroutine runs.
type Config struct {
	MaxSize                 uint32 `env:"JWT_CACHE_MAX_SIZE" envDefault:"1000" validate:"omitempty"`
	EvictionIntervalSeconds uint32 `env:"JWT_CACHE_EVICTION_INTERVAL_SECONDS" envDefault:"10" validate:"omitempty"`
}

// DefaultConfig returns the standard cache defaults.
func DefaultConfig() Config {
	return Config{MaxSize: 1000, EvictionIntervalSeconds: 10}
}

// Disabled returns true when the cache should do nothing at all.
func (c Config) Disabled() bool { return c.MaxSize == 0 }
