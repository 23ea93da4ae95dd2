package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPoolConfig_AppliesOptions(t *testing.T) {
	config, err := poolConfig("postgres://u:p@db:5432/registro?sslmode=disable", PoolOptions{
		MaxConns:        20,
		MinConns:        2,
		MaxConnLifetime: 30 * time.Minute,
	})
	require.NoError(t, err)

	assert.Equal(t, "db", config.ConnConfig.Host)
	assert.Equal(t, "registro", config.ConnConfig.Database)
	assert.Equal(t, int32(20), config.MaxConns)
	assert.Equal(t, int32(2), config.MinConns)
	assert.Equal(t, 30*time.Minute, config.MaxConnLifetime)
}

func TestPoolConfig_ZeroOptionsKeepDefaults(t *testing.T) {
	defaults, err := poolConfig("postgres://u:p@db:5432/registro", PoolOptions{})
	require.NoError(t, err)

	config, err := poolConfig("postgres://u:p@db:5432/registro", PoolOptions{MinConns: 1000})
	require.NoError(t, err)
	assert.Equal(t, defaults.MaxConns, config.MaxConns)
	assert.Equal(t, defaults.MinConns, config.MinConns)
}

func TestPoolConfig_BadDSN(t *testing.T) {
	_, err := poolConfig("postgres://%zz", PoolOptions{})
	assert.Error(t, err)
}

func TestNewPostgresPool_GivesUpAfterAttempts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	_, err := NewPostgresPool(ctx, "postgres://u:p@127.0.0.1:1/registro?sslmode=disable&connect_timeout=1",
		PoolOptions{ConnectAttempts: 2, RetryDelay: 10 * time.Millisecond}, zap.NewNop())

	assert.ErrorContains(t, err, "ping database")
	assert.Less(t, time.Since(start), 9*time.Second)
}
