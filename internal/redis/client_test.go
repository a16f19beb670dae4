package redisclient

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClientConnects(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := NewRedisClient(Options{
		Addr:     mr.Addr(),
		PoolSize: 3,
		Timeout:  time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	assert.NoError(t, rdb.Ping(context.Background()).Err())
	assert.Equal(t, 3, rdb.Options().PoolSize)
	assert.Equal(t, time.Second, rdb.Options().ReadTimeout)
}

func TestNewRedisClientDefaultsTuning(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := NewRedisClient(Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	assert.Equal(t, 10, rdb.Options().PoolSize)
	assert.Equal(t, 2*time.Second, rdb.Options().ReadTimeout)
}

func TestNewRedisClientUnreachable(t *testing.T) {
	_, err := NewRedisClient(Options{Addr: "127.0.0.1:1", Timeout: 100 * time.Millisecond})
	assert.Error(t, err)
}
