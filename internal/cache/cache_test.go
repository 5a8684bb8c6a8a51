package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guide-a11y/internal/config"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemory(t *testing.T) {
	ctx := context.Background()

	m := NewMemory(time.Minute)
	defer m.Close()

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "page", []byte("<html></html>"), time.Minute))

	value, ok, err := m.Get(ctx, "page")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("<html></html>"), value)

	require.NoError(t, m.Delete(ctx, "page"))

	_, ok, _ = m.Get(ctx, "page")
	assert.False(t, ok)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()

	m := NewMemory(time.Minute)
	defer m.Close()

	require.NoError(t, m.Set(ctx, "short", []byte("x"), time.Millisecond))
	require.NoError(t, m.Set(ctx, "forever", []byte("y"), 0))

	time.Sleep(5 * time.Millisecond)

	_, ok, _ := m.Get(ctx, "short")
	assert.False(t, ok)

	_, ok, _ = m.Get(ctx, "forever")
	assert.True(t, ok)
}

func TestMemory_Sweep(t *testing.T) {
	ctx := context.Background()

	m := NewMemory(5 * time.Millisecond)
	defer m.Close()

	require.NoError(t, m.Set(ctx, "short", []byte("x"), time.Millisecond))

	assert.Eventually(t, func() bool {
		_, present := m.data.Load("short")
		return !present
	}, time.Second, 5*time.Millisecond)
}

func TestMemory_CloseTwice(t *testing.T) {
	m := NewMemory(time.Minute)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()

	t.Run("Disabled", func(t *testing.T) {
		assert.Nil(t, New(ctx, logger, config.Cache{Backend: "none"}))
	})

	t.Run("Memory", func(t *testing.T) {
		b := New(ctx, logger, config.Cache{Backend: "memory"})
		defer b.Close()

		assert.IsType(t, &Memory{}, b)
	})

	t.Run("Unreachable redis falls back to memory", func(t *testing.T) {
		b := New(ctx, logger, config.Cache{Backend: "redis", RedisURL: "redis://127.0.0.1:1/0"})
		defer b.Close()

		assert.IsType(t, &Memory{}, b)
	})
}

func TestNewRedis_InvalidURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "http://not-redis", "p:")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis URL")
}
