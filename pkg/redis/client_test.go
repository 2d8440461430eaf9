package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/genmedia-backend/pkg/config"
)

// fakeStore emulates the handful of commands and the two scripts the client
// sends.
type fakeStore struct {
	data     map[string]string
	counters map[string]int64
	expiries map[string]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		data:     map[string]string{},
		counters: map[string]int64{},
		expiries: map[string]int64{},
	}
}

func (f *fakeStore) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeStore) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			n++
		}
		delete(f.data, key)
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeStore) Eval(_ context.Context, script string, keys []string, args ...any) *redis.Cmd {
	key := keys[0]
	switch script {
	case fixedWindowScript:
		f.counters[key]++
		if f.counters[key] == 1 {
			f.expiries[key] = args[0].(int64)
		}
		return redis.NewCmdResult(f.counters[key], nil)
	case compareAndDeleteScript:
		if f.data[key] == args[0] {
			delete(f.data, key)
			return redis.NewCmdResult(int64(1), nil)
		}
		return redis.NewCmdResult(int64(0), nil)
	}
	return redis.NewCmdResult(nil, fmt.Errorf("unexpected script"))
}

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	client := &Client{store: store}

	for i := int64(1); i <= 2; i++ {
		allowed, count, err := client.FixedWindowAllow(ctx, "generate:user-1", 2, 90*time.Second)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, i, count)
	}
	allowed, count, err := client.FixedWindowAllow(ctx, "generate:user-1", 2, 90*time.Second)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, int64(3), count)
	assert.Equal(t, int64(90000), store.expiries["gm:rate_limit:generate:user-1"])

	_, _, err = client.FixedWindowAllow(ctx, "x", 1, 0)
	assert.Error(t, err)
}

func TestJobClaimLifecycle(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newFakeStore()}

	ok, err := client.ClaimJob(ctx, "job-1", "worker-a", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.ClaimJob(ctx, "job-1", "worker-b", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "duplicate claim must be rejected")

	owner, err := client.Get(ctx, client.JobClaimKey("job-1"))
	require.NoError(t, err)
	assert.Equal(t, "worker-a", owner)

	require.NoError(t, client.ReleaseJob(ctx, "job-1"))
	_, err = client.Get(ctx, client.JobClaimKey("job-1"))
	assert.ErrorIs(t, err, redis.Nil)
}

func TestCompareAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	client := &Client{store: store}
	store.data["gm:lock:cron-worker"] = "owner-a"

	deleted, err := client.CompareAndDelete(ctx, "gm:lock:cron-worker", "owner-b")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Contains(t, store.data, "gm:lock:cron-worker")

	deleted, err = client.CompareAndDelete(ctx, "gm:lock:cron-worker", "owner-a")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NotContains(t, store.data, "gm:lock:cron-worker")
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "gm:idempotency:scope:id", client.IdempotencyKey("scope", "id"))
	assert.Equal(t, "gm:rate_limit:scope", client.RateLimitKey("scope"))
	assert.Equal(t, "gm:job:abc", client.JobClaimKey("abc"))
	assert.Equal(t, "gm:lock:cron-worker", client.LockKey(" cron-worker "))
	assert.Equal(t, "gm:idempotency:scope", client.IdempotencyKey("scope", ""))
}

func TestUninitializedClientFails(t *testing.T) {
	client := &Client{}
	assert.Error(t, client.Ping(context.Background()))
	_, err := client.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.NoError(t, client.Close())
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:secret@localhost:6380/2", PoolSize: 7})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, opts.DB)
}
