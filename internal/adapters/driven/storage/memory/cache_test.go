package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()

	cache.Set(ctx, "k1", []byte("v1"), time.Minute)

	got, ok := cache.Get(ctx, "k1")
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), got)

	_, ok = cache.Get(ctx, "absent")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cache.SetClock(func() time.Time { return now })

	cache.Set(ctx, "k1", []byte("v1"), time.Minute)

	_, ok := cache.Get(ctx, "k1")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get(ctx, "k1")
	assert.False(t, ok, "expired entries read as a miss")
}

func TestCache_Remember_ComputesOnce(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()

	calls := 0
	compute := func(context.Context) ([]byte, error) {
		calls++
		return []byte("computed"), nil
	}

	got, err := cache.Remember(ctx, "k1", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, []byte("computed"), got)

	got, err = cache.Remember(ctx, "k1", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, []byte("computed"), got)
	assert.Equal(t, 1, calls, "second call must hit the cache")
}

func TestCache_Remember_ErrorNotCached(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()
	boom := errors.New("upstream down")

	_, err := cache.Remember(ctx, "k1", time.Minute, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	// A later successful compute is stored normally.
	got, err := cache.Remember(ctx, "k1", time.Minute, func(context.Context) ([]byte, error) {
		return []byte("recovered"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("recovered"), got)
}

func TestCache_DeleteByPrefix(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()

	cache.Set(ctx, "calendars_list:1", []byte("a"), time.Minute)
	cache.Set(ctx, "calendars_list:2", []byte("b"), time.Minute)
	cache.Set(ctx, "user_profile:1", []byte("c"), time.Minute)

	cache.DeleteByPrefix(ctx, "calendars_list:")

	_, ok := cache.Get(ctx, "calendars_list:1")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, "user_profile:1")
	assert.True(t, ok)
}
