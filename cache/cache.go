// Package cache implements the optimistic, lock-free access-token cache:
// the common case of the same bearer token presented many times in quick
// succession is turned from "full cryptographic verification" into a hash
// lookup, a string comparison, and an expiry check.
package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/oidcguard/jwtcore/events"
	"github.com/oidcguard/jwtcore/internal/jwtlog"
	"github.com/oidcguard/jwtcore/monitor"
	"github.com/oidcguard/jwtcore/pipeline"
)

// entry is the cached record for one raw token. The key it lives under
// (fingerprint) is not self-describing — raw must be re-checked on every
// read since two distinct tokens can share a fingerprint.
type entry struct {
	raw       string
	content   *pipeline.AccessTokenContent
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool { return !e.expiresAt.After(now) }

// fingerprint folds a 64-bit xxhash digest of the raw token into the 32-bit
// key space the design calls for: dense, collision-tolerant map keys rather
// than storing the full token string as the key.
func fingerprint(raw string) uint32 {
	return uint32(xxhash.Sum64String(raw))
}

// AccessTokenCache maps a token's fingerprint to its most recent successful
// validation result. It never blocks a caller on another caller's
// validation: a miss is validated by the caller outside any lock, and
// concurrent misses on the same token race harmlessly on insertion.
type AccessTokenCache struct {
	cfg     Config
	mon     monitor.Monitor
	counter *events.Counter

	store sync.Map // uint32 -> *entry
	size  atomic.Int64

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool
}

// New builds a cache from cfg. The background eviction sweep is not started
// until Start is called.
func New(cfg Config, mon monitor.Monitor, counter *events.Counter) *AccessTokenCache {
	if mon == nil {
		mon = monitor.New(monitor.Config{Enabled: false})
	}
	if counter == nil {
		counter = events.NewCounter()
	}
	return &AccessTokenCache{cfg: cfg, mon: mon, counter: counter}
}

// Get looks up raw. Three outcomes: (content, nil) on a valid hit, (nil,
// nil) on a clean miss (absent, or a collision on this fingerprint), and
// (nil, err) with err.Kind == events.TokenExpired when the cached entry has
// expired — a signal to the caller, never silently treated as a miss.
func (c *AccessTokenCache) Get(raw string) (*pipeline.AccessTokenContent, *events.ValidationError) {
	if c.cfg.Disabled() {
		return nil, nil
	}

	ticker := c.mon.Start(monitor.CacheLookup)
	defer ticker.StopAndRecord()

	key := fingerprint(raw)
	v, ok := c.store.Load(key)
	if !ok {
		return nil, nil
	}
	e := v.(*entry)

	if e.raw != raw {
		// Fingerprint collision: this slot belongs to a different token.
		// Treat as a miss and drop the stale occupant rather than serving
		// or keeping around data for a token nobody asked about.
		c.store.CompareAndDelete(key, v)
		c.size.Add(-1)
		return nil, nil
	}

	now := time.Now()
	if e.expired(now) {
		c.store.CompareAndDelete(key, v)
		c.size.Add(-1)
		c.counter.Increment(events.TokenExpired)
		return nil, events.NewValidationError(events.TokenExpired, "cached token has expired")
	}

	c.counter.Increment(events.AccessTokenCacheHit)
	return e.content, nil
}

// Put stores content under raw's fingerprint. content.Expiration must be
// set; a validated token with no expiration is a programmer error, not a
// cache miss, and is reported as InternalCacheError.
func (c *AccessTokenCache) Put(raw string, content *pipeline.AccessTokenContent) *events.ValidationError {
	if c.cfg.Disabled() {
		return nil
	}
	if content.Expiration.IsZero() {
		c.counter.Increment(events.InternalCacheError)
		return events.NewValidationError(events.InternalCacheError, "cannot cache a token with no expiration")
	}

	ticker := c.mon.Start(monitor.CacheStore)

	key := fingerprint(raw)
	fresh := &entry{raw: raw, content: content, expiresAt: content.Expiration}

	for {
		existing, loaded := c.store.LoadOrStore(key, fresh)
		if !loaded {
			c.size.Add(1)
			break
		}

		old := existing.(*entry)
		if old.raw == raw && !old.expired(time.Now()) {
			// Someone else already won this race with a still-valid entry
			// for this exact token; keep theirs, record nothing.
			return nil
		}
		if c.store.CompareAndSwap(key, existing, fresh) {
			break
		}
		// Lost the CAS race to yet another writer; retry against whatever
		// is there now.
	}

	ticker.StopAndRecord()

	if c.cfg.MaxSize > 0 && uint32(c.size.Load()) > c.cfg.MaxSize {
		c.evict()
	}
	return nil
}

// evict drops roughly 10% of entries (at least one) when the cache has
// grown past its configured bound. Victim selection follows Go map
// iteration order, which is unordered and randomized per run — acceptable
// because tokens self-expire via exp and strict LRU buys nothing here.
func (c *AccessTokenCache) evict() {
	target := int64(c.cfg.MaxSize) / 10
	if target < 1 {
		target = 1
	}

	var removed int64
	c.store.Range(func(key, value any) bool {
		if removed >= target {
			return false
		}
		c.store.Delete(key)
		removed++
		c.size.Add(-1)
		return true
	})
}

// sweep removes every entry whose expires_at has passed. It runs on the
// background goroutine only, never on a caller's thread. Expired keys are
// collected first and deleted after, matching sync.Map's guarantee that
// concurrent Range and Delete calls are safe.
func (c *AccessTokenCache) sweep() {
	now := time.Now()
	var expired []any

	c.store.Range(func(key, value any) bool {
		if value.(*entry).expired(now) {
			expired = append(expired, key)
		}
		return true
	})

	for _, key := range expired {
		if _, ok := c.store.LoadAndDelete(key); ok {
			c.size.Add(-1)
		}
	}
}

// Start launches the background eviction sweep goroutine. It is a no-op
// when the cache is disabled or already running. The supplied context
// bounds the sweep's lifetime in addition to Stop.
func (c *AccessTokenCache) Start(ctx context.Context) {
	if c.cfg.Disabled() || c.running.Load() {
		return
	}
	c.running.Store(true)

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	interval := time.Duration(c.cfg.EvictionIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()

	jwtlog.L().Info("access token cache sweep started", "interval", interval)
}

// Stop cancels the background sweep and waits, bounded by timeout, for it
// to exit. A zero or negative timeout waits forever.
func (c *AccessTokenCache) Stop(timeout time.Duration) error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	if timeout <= 0 {
		<-done
		return nil
	}

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("cache sweep shutdown timed out after %s", timeout)
	}
}

// Clear empties the cache. Used by TokenValidator.Shutdown.
func (c *AccessTokenCache) Clear() {
	c.store.Range(func(key, _ any) bool {
		c.store.Delete(key)
		c.size.Add(-1)
		return true
	})
}

// Len reports the approximate number of cached entries.
func (c *AccessTokenCache) Len() int {
	return int(c.size.Load())
}
