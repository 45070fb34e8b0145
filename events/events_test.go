package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterIncrementAndSnapshot(t *testing.T) {
	tests := []struct {
		name  string
		kinds []EventType
		want  map[EventType]uint64
	}{
		{
			name:  "single kind incremented twice",
			kinds: []EventType{TokenExpired, TokenExpired},
			want:  map[EventType]uint64{TokenExpired: 2},
		},
		{
			name:  "mixed kinds",
			kinds: []EventType{TokenValidated, AccessTokenCacheHit, TokenValidated},
			want:  map[EventType]uint64{TokenValidated: 2, AccessTokenCacheHit: 1},
		},
		{
			name:  "nothing incremented yields empty snapshot",
			kinds: nil,
			want:  map[EventType]uint64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCounter()
			for _, k := range tt.kinds {
				c.Increment(k)
			}
			snap := c.Snapshot()
			for k, v := range tt.want {
				assert.Equal(t, v, snap.Count(k))
			}
			assert.Equal(t, len(tt.want), len(snap))
		})
	}
}

func TestCounterConcurrentIncrement(t *testing.T) {
	c := NewCounter()
	var wg sync.WaitGroup
	const goroutines = 100
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			c.Increment(TokenValidated)
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(goroutines), c.Snapshot().Count(TokenValidated))
}

func TestSnapshotTotal(t *testing.T) {
	c := NewCounter()
	c.Increment(TokenValidated)
	c.Increment(TokenValidated)
	c.Increment(TokenExpired)
	assert.Equal(t, uint64(3), c.Snapshot().Total())
}

func TestEventTypeStringUnknown(t *testing.T) {
	assert.Equal(t, "UNKNOWN", EventType(-1).String())
	assert.Equal(t, "UNKNOWN", EventType(9999).String())
	assert.Equal(t, "TOKEN_EXPIRED", TokenExpired.String())
}

func TestValidationErrorUnwrap(t *testing.T) {
	cause := assert.AnError
	err := Wrap(KeyNotFound, "no key for kid", cause)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KeyNotFound, err.Kind)
	assert.Contains(t, err.Error(), "KEY_NOT_FOUND")
}

func TestNewValidationErrorNoCause(t *testing.T) {
	err := NewValidationError(TokenEmpty, "raw token is empty")
	assert.Nil(t, err.Unwrap())
	assert.Equal(t, "TOKEN_EMPTY: raw token is empty", err.Error())
}
