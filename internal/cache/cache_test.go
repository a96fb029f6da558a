package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedRoster struct {
	IDs   []string `json:"ids"`
	Total int      `json:"total"`
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "roster:all", cachedRoster{IDs: []string{"patient-1"}, Total: 1}, time.Minute))

	var got cachedRoster
	require.NoError(t, c.Get(ctx, "roster:all", &got))
	assert.Equal(t, []string{"patient-1"}, got.IDs)
	assert.Equal(t, 1, got.Total)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Second))
	now = now.Add(2 * time.Second)

	var v string
	assert.ErrorIs(t, c.Get(ctx, "k", &v), ErrCacheMiss)
}

func TestMemoryCache_DeletePattern(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "roster:all", 1, 0))
	require.NoError(t, c.Set(ctx, "roster:high", 2, 0))
	require.NoError(t, c.Set(ctx, "tts:kn:abc", 3, 0))

	require.NoError(t, c.DeletePattern(ctx, "roster:*"))

	var v int
	assert.ErrorIs(t, c.Get(ctx, "roster:all", &v), ErrCacheMiss)
	assert.ErrorIs(t, c.Get(ctx, "roster:high", &v), ErrCacheMiss)
	require.NoError(t, c.Get(ctx, "tts:kn:abc", &v))
	assert.Equal(t, 3, v)

	require.NoError(t, c.Delete(ctx, "tts:kn:abc"))
	assert.ErrorIs(t, c.Get(ctx, "tts:kn:abc", &v), ErrCacheMiss)
}

func TestNoopCache(t *testing.T) {
	c := NewNoopCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	var v string
	assert.ErrorIs(t, c.Get(ctx, "k", &v), ErrCacheMiss)
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.DeletePattern(ctx, "*"))
}
