package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAside_FetchesOnceThenHits(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedThing) func() error {
		return func() error {
			calls++
			*dest = cachedThing{ID: 7, Name: "seven"}
			return nil
		}
	}

	var first cachedThing
	require.NoError(t, Aside(ctx, UserKey(7), &first, UserTTL, fetch(&first)))
	assert.Equal(t, "seven", first.Name)
	assert.True(t, mr.Exists("user:7"))

	var second cachedThing
	require.NoError(t, Aside(ctx, UserKey(7), &second, UserTTL, fetch(&second)))
	assert.Equal(t, "seven", second.Name)
	assert.Equal(t, 1, calls)

	InvalidateUser(ctx, 7)
	assert.False(t, mr.Exists("user:7"))
}

func TestAside_FetchErrorIsNotCached(t *testing.T) {
	mr := setupMiniredis(t)

	var dest cachedThing
	err := Aside(context.Background(), "k", &dest, UserTTL, func() error {
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.False(t, mr.Exists("k"))
}

func TestAside_WithoutRedis(t *testing.T) {
	SetClient(nil)

	var dest cachedThing
	err := Aside(context.Background(), "k", &dest, UserTTL, func() error {
		dest.ID = 1
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint(1), dest.ID)
}

func TestInvalidateTagSearches(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, TagSearchKey("Foo"), []string{"food"}, TagSearchTTL))
	require.NoError(t, SetJSON(ctx, UserKey(1), cachedThing{ID: 1}, UserTTL))
	assert.True(t, mr.Exists("tags:search:foo"))

	assert.NotEqual(t, TagSearchKey("foo"), TagSearchKey(" foo"))

	InvalidateTagSearches(ctx)
	assert.False(t, mr.Exists("tags:search:foo"))
	assert.True(t, mr.Exists("user:1"))
}
