package config

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRedisConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		for _, k := range []string{"REDIS_ADDR", "REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "REDIS_TLS", "REDIS_DIAL_TIMEOUT"} {
			t.Setenv(k, "")
		}

		rc := LoadRedisConfig()

		assert.Equal(t, "localhost:6379", rc.Addr)
		assert.Equal(t, 0, rc.DB)
		assert.False(t, rc.TLS)
		assert.Equal(t, 2*time.Second, rc.DialTimeout)
		assert.Nil(t, rc.Options().TLSConfig)
	})

	t.Run("HostAndPortWin", func(t *testing.T) {
		t.Setenv("REDIS_ADDR", "ignored:1")
		t.Setenv("REDIS_HOST", "cache")
		t.Setenv("REDIS_PORT", "6380")
		t.Setenv("REDIS_DB", "3")
		t.Setenv("REDIS_TLS", "true")

		rc := LoadRedisConfig()

		assert.Equal(t, "cache:6380", rc.Addr)
		assert.Equal(t, 3, rc.DB)
		require.NotNil(t, rc.Options().TLSConfig)
	})
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), RedisConfig{Addr: mr.Addr(), DialTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	assert.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())

	mr.Close()
	_, err = NewRedisClient(context.Background(), RedisConfig{Addr: mr.Addr(), DialTimeout: 200 * time.Millisecond})
	assert.Error(t, err)
}
