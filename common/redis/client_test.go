package redis

import (
	"context"
	"testing"
	"time"

	"postcare/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient_AppliesOptions(t *testing.T) {
	mr := miniredis.RunT(t)

	client := NewRedisClient(&config.RedisConfig{
		Addr:        mr.Addr(),
		DB:          0,
		PoolSize:    4,
		DialTimeout: time.Second,
		ReadTimeout: 3 * time.Second,
	})
	defer Close(client)

	opts := client.Options()
	assert.Equal(t, 4, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)
	assert.Equal(t, 3*time.Second, opts.ReadTimeout)
	require.NoError(t, Ping(context.Background(), client))
}

func TestNewRedisClient_ZeroValuesKeepDefaults(t *testing.T) {
	client := NewRedisClient(&config.RedisConfig{Addr: "localhost:6379"})
	defer Close(client)

	opts := client.Options()
	assert.Greater(t, opts.PoolSize, 0)
	assert.Equal(t, 5*time.Second, opts.DialTimeout)
}

func TestPing_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client := NewRedisClient(&config.RedisConfig{Addr: addr, DialTimeout: 200 * time.Millisecond})
	defer Close(client)

	err := Ping(context.Background(), client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), addr)
}

func TestClose_Nil(t *testing.T) {
	assert.NoError(t, Close(nil))
}
