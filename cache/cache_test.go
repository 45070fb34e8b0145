package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oidcguard/jwtcore/events"
	"github.com/oidcguard/jwtcore/pipeline"
)

func contentExpiringIn(d time.Duration) *pipeline.AccessTokenContent {
	return &pipeline.AccessTokenContent{Subject: "u1", Expiration: time.Now().Add(d)}
}

func TestCacheMissOnEmpty(t *testing.T) {
	c := New(DefaultConfig(), nil, nil)
	content, verr := c.Get("tok-a")
	assert.Nil(t, verr)
	assert.Nil(t, content)
}

func TestCachePutThenGetHits(t *testing.T) {
	counter := events.NewCounter()
	c := New(DefaultConfig(), nil, counter)

	content := contentExpiringIn(time.Hour)
	verr := c.Put("tok-a", content)
	require.Nil(t, verr)

	got, verr := c.Get("tok-a")
	require.Nil(t, verr)
	require.NotNil(t, got)
	assert.Same(t, content, got)
	assert.Equal(t, uint64(1), counter.Snapshot().Count(events.AccessTokenCacheHit))
}

func TestCacheGetExpiredReturnsErrorNotEmpty(t *testing.T) {
	counter := events.NewCounter()
	c := New(DefaultConfig(), nil, counter)

	content := contentExpiringIn(-time.Second)
	require.Nil(t, c.Put("tok-a", content))

	got, verr := c.Get("tok-a")
	assert.Nil(t, got)
	require.NotNil(t, verr)
	assert.Equal(t, events.TokenExpired, verr.Kind)
	assert.Equal(t, 0, c.Len())
}

func TestCachePutRejectsMissingExpiration(t *testing.T) {
	counter := events.NewCounter()
	c := New(DefaultConfig(), nil, counter)

	verr := c.Put("tok-a", &pipeline.AccessTokenContent{Subject: "u1"})
	require.NotNil(t, verr)
	assert.Equal(t, events.InternalCacheError, verr.Kind)
}

func TestCacheDisabledIsNoop(t *testing.T) {
	c := New(Config{MaxSize: 0}, nil, nil)
	require.Nil(t, c.Put("tok-a", contentExpiringIn(time.Hour)))
	got, verr := c.Get("tok-a")
	assert.Nil(t, got)
	assert.Nil(t, verr)
	assert.Equal(t, 0, c.Len())
}

func TestCacheFingerprintCollisionTreatedAsMiss(t *testing.T) {
	c := New(DefaultConfig(), nil, nil)

	// Force a collision by inserting directly under the same key two
	// distinct raw strings would never naturally share.
	key := fingerprint("tok-a")
	c.store.Store(key, &entry{raw: "tok-a", content: contentExpiringIn(time.Hour), expiresAt: time.Now().Add(time.Hour)})
	c.size.Add(1)

	c.store.Store(key, &entry{raw: "tok-b-impersonator", content: contentExpiringIn(time.Hour), expiresAt: time.Now().Add(time.Hour)})

	got, verr := c.Get("tok-a")
	assert.Nil(t, got)
	assert.Nil(t, verr)
}

func TestCacheEvictsAroundTenPercentWhenOverMaxSize(t *testing.T) {
	c := New(Config{MaxSize: 10, EvictionIntervalSeconds: 10}, nil, nil)
	for i := 0; i < 11; i++ {
		require.Nil(t, c.Put(fmt.Sprintf("tok-%d", i), contentExpiringIn(time.Hour)))
	}
	assert.LessOrEqual(t, c.Len(), 10)
}

func TestCacheSweepRemovesExpiredEntries(t *testing.T) {
	c := New(Config{MaxSize: 1000, EvictionIntervalSeconds: 10}, nil, nil)
	require.Nil(t, c.Put("expired", contentExpiringIn(-time.Second)))
	require.Nil(t, c.Put("fresh", contentExpiringIn(time.Hour)))

	c.sweep()

	assert.Equal(t, 1, c.Len())
	_, ok := c.store.Load(fingerprint("fresh"))
	assert.True(t, ok)
}

func TestCacheStartStopRunsBackgroundSweep(t *testing.T) {
	c := New(Config{MaxSize: 1000, EvictionIntervalSeconds: 1}, nil, nil)
	require.Nil(t, c.Put("expired", contentExpiringIn(10*time.Millisecond)))

	c.Start(context.Background())
	defer func() { require.NoError(t, c.Stop(time.Second)) }()

	require.Eventually(t, func() bool {
		return c.Len() == 0
	}, 3*time.Second, 20*time.Millisecond)
}

func TestCacheConcurrentPutsOnSameTokenRaceHarmlessly(t *testing.T) {
	c := New(DefaultConfig(), nil, nil)
	const workers = 100

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_ = c.Put("shared-token", contentExpiringIn(time.Hour))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, c.Len())
	got, verr := c.Get("shared-token")
	require.Nil(t, verr)
	require.NotNil(t, got)
}
