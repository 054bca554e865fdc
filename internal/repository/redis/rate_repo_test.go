package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*RateRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRateRepo(client), mr
}

func TestRateRepoIncrementWindow(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()

	count, ttl, err := repo.IncrementWindow(ctx, "rl:match:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, time.Minute, ttl)

	count, _, err = repo.IncrementWindow(ctx, "rl:match:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	other, _, err := repo.IncrementWindow(ctx, "rl:match:5.6.7.8", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)

	mr.FastForward(61 * time.Second)

	count, ttl, err = repo.IncrementWindow(ctx, "rl:match:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "window resets after expiry")
	assert.Equal(t, time.Minute, ttl)
}

func TestRateRepoRejectsInvalidInput(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, _, err := repo.IncrementWindow(context.Background(), "", time.Minute)
	assert.Error(t, err)
	_, _, err = repo.IncrementWindow(context.Background(), "key", 0)
	assert.Error(t, err)

	_, _, err = NewRateRepo(nil).IncrementWindow(context.Background(), "key", time.Minute)
	assert.Error(t, err)
}

func TestRateRepoRedisDown(t *testing.T) {
	repo, mr := newTestRepo(t)
	mr.Close()

	_, _, err := repo.IncrementWindow(context.Background(), "key", time.Minute)
	assert.Error(t, err)
}
