package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	keys   map[string]time.Duration
	setErr error
}

func (f *fakeRedis) SetNX(_ context.Context, key string, _ interface{}, exp time.Duration) *redis.BoolCmd {
	if f.setErr != nil {
		return redis.NewBoolResult(false, f.setErr)
	}
	if _, ok := f.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = exp
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			delete(f.keys, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisStore_ClaimRelease(t *testing.T) {
	t.Parallel()

	rdb := &fakeRedis{keys: map[string]time.Duration{}}
	store := NewRedisStore(rdb, time.Hour)
	ctx := context.Background()
	key := Key("reserve", "user-1", "abc")

	ok, err := store.Claim(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Hour, rdb.keys[key])

	ok, err = store.Claim(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "duplicate claim must fail")

	require.NoError(t, store.Release(ctx, key))
	ok, err = store.Claim(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok, "released key can be claimed again")
}

func TestRedisStore_ClaimError(t *testing.T) {
	t.Parallel()

	boom := errors.New("redis down")
	store := NewRedisStore(&fakeRedis{keys: map[string]time.Duration{}, setErr: boom}, 0)

	_, err := store.Claim(context.Background(), "k")
	assert.ErrorIs(t, err, boom)
}

func TestMemoryStore_Expiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	ok, _ := store.Claim(ctx, "k")
	assert.True(t, ok)
	ok, _ = store.Claim(ctx, "k")
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = store.Claim(ctx, "k")
	assert.True(t, ok, "expired key can be claimed again")
}

func TestKey_ScopesByUser(t *testing.T) {
	t.Parallel()

	assert.NotEqual(t, Key("reserve", "a", "k"), Key("reserve", "b", "k"))
	assert.Equal(t, "idem:reserve:a:k", Key("reserve", "a", "k"))
}
