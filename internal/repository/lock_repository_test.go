package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockRepositoryWithoutRedisAlwaysAcquires(t *testing.T) {
	repo := NewLockRepository(nil, nil)

	release, ok, err := repo.Acquire(context.Background(), "schedule:student-1", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	release()
	assert.NoError(t, repo.Close())
}

func TestLockRepositoryReportsRedisErrors(t *testing.T) {
	// nothing listens on this port, so SETNX fails fast
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	repo := NewLockRepository(client, nil)
	defer repo.Close()

	_, ok, err := repo.Acquire(context.Background(), "schedule:student-1", time.Second)
	assert.Error(t, err)
	assert.False(t, ok)
}
