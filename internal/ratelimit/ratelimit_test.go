package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterPerKey(t *testing.T) {
	l := NewMemoryLimiter(2)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		ok, err := l.Allow(ctx, "1.1.1.1")
		require.NoError(t, err)
		assert.Equal(t, want, ok, "call %d", i)
	}

	ok, _ := l.Allow(ctx, "2.2.2.2")
	assert.True(t, ok)

	fixed = fixed.Add(time.Minute)
	ok, _ = l.Allow(ctx, "1.1.1.1")
	assert.True(t, ok)
}

func TestRedisLimiterFixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	l := NewRedisLimiter(client, 3)
	now := time.Date(2024, 1, 1, 12, 0, 5, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i, want := range []bool{true, true, true, false} {
		ok, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, want, ok, "call %d", i)
	}

	now = now.Add(time.Minute)
	ok, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiterReportsBackendErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	_, err := NewRedisLimiter(client, 3).Allow(context.Background(), "x")
	assert.Error(t, err)
}

func TestNewFallsBackToMemory(t *testing.T) {
	l, closeFn := New("", 10)
	defer closeFn()
	_, ok := l.(*MemoryLimiter)
	assert.True(t, ok)
}
