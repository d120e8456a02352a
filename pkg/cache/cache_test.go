package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type item struct {
	Name string `json:"name"`
	N    int    `json:"n"`
}

func newTestCache(t *testing.T) (Cache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	return NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), zap.NewNop()), mr
}

func TestRedisCache_RoundTripAndTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "k", item{"a", 1}, time.Minute))
	assert.True(t, mr.Exists("cuaderno:k"))

	var got item
	ok, err := c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, item{"a", 1}, got)

	mr.FastForward(2 * time.Minute)
	ok, err = c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_CorruptValueIsMiss(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("cuaderno:bad", "{not json"))

	var got item
	ok, err := c.GetJSON(context.Background(), "bad", &got)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("cuaderno:bad"))
}

func TestFetch_LoadsOnce(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (item, error) {
		calls++
		return item{"x", calls}, nil
	}

	v1, err := Fetch(ctx, c, zap.NewNop(), "f", time.Minute, load)
	require.NoError(t, err)
	v2, err := Fetch(ctx, c, zap.NewNop(), "f", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, v1, v2)
}

func TestFetch_ErrorNotCached(t *testing.T) {
	c, mr := newTestCache(t)
	boom := errors.New("boom")
	_, err := Fetch(context.Background(), c, zap.NewNop(), "e", time.Minute, func(context.Context) (item, error) {
		return item{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("cuaderno:e"))
}

func TestNew_EmptyURLIsNoop(t *testing.T) {
	c, err := New("", zap.NewNop())
	require.NoError(t, err)
	assert.False(t, c.Enabled())
	ok, err := c.GetJSON(context.Background(), "k", &item{})
	assert.NoError(t, err)
	assert.False(t, ok)

	_, err = New("://bad", zap.NewNop())
	assert.Error(t, err)
}
