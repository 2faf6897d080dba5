package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLimiter(client, "otp:", 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "a@x.com")
		require.NoError(t, err)
		assert.True(t, ok, "hit %d should be allowed", i+1)
	}

	ok, err := l.Allow(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, ok, "fourth hit in the window should be blocked")

	// A different key has its own counter.
	ok, err = l.Allow(ctx, "b@x.com")
	require.NoError(t, err)
	assert.True(t, ok)

	// A new window resets the counter.
	mr.FastForward(2 * time.Minute)
	ok, err = l.Allow(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLimiter(t *testing.T) {
	l := NewMemoryLimiter(2, time.Minute)
	ctx := context.Background()

	ok, err := l.Allow(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = l.Allow(ctx, "a@x.com")
	assert.True(t, ok)

	ok, _ = l.Allow(ctx, "a@x.com")
	assert.False(t, ok)
}
