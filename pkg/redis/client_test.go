package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewClient_Connects(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewClient(context.Background(), Options{Addr: mr.Addr(), DB: 2, PoolSize: 4}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.DB(2).Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.Equal(t, 4, c.Options().PoolSize)
}

func TestNewClient_GivesUpAfterAttempts(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewClient(context.Background(), Options{Addr: addr, ConnectAttempts: 3, RetryDelay: time.Millisecond}, zap.NewNop())

	assert.ErrorContains(t, err, "redis ping")
}

func TestNewClient_WaitsForServer(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	addr := mr.Addr()
	mr.Close()

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = mr.StartAddr(addr)
	}()
	t.Cleanup(mr.Close)

	c, err := NewClient(context.Background(), Options{Addr: addr, ConnectAttempts: 50, RetryDelay: 20 * time.Millisecond}, zap.NewNop())
	require.NoError(t, err)
	_ = c.Close()
}
