package ratelimiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"algomancy.gg/deckhub/pkg/apperror"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCheckAndSetRateLimit(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	userID := uuid.New()

	allowed, err := CheckAndSetRateLimit(ctx, rdb, userID, ScopeLike, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = CheckAndSetRateLimit(ctx, rdb, userID, ScopeLike, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed, "second call inside the window must be rejected")

	allowed, err = CheckAndSetRateLimit(ctx, rdb, userID, ScopeDeckCreate, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "scopes are independent")

	mr.FastForward(time.Minute + time.Second)

	allowed, err = CheckAndSetRateLimit(ctx, rdb, userID, ScopeLike, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "lock expires with the window")
}

func TestCheckAndSetRateLimit_NilClientAllows(t *testing.T) {
	allowed, err := CheckAndSetRateLimit(context.Background(), nil, uuid.New(), ScopeLike, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestEnforce(t *testing.T) {
	ctx := context.Background()
	_, rdb := newRedis(t)
	userID := uuid.New()

	release, err := Enforce(ctx, rdb, userID, ScopeDeckCreate, 30*time.Second, "slow down")
	require.NoError(t, err)
	require.NotNil(t, release)

	_, err = Enforce(ctx, rdb, userID, ScopeDeckCreate, 30*time.Second, "slow down")
	require.Error(t, err)

	var rlErr *RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.True(t, errors.Is(err, apperror.ErrRateLimitExceeded))
	assert.Greater(t, rlErr.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, rlErr.RetryAfter, 30*time.Second)

	require.NoError(t, ClearRateLimit(ctx, rdb, userID, ScopeDeckCreate))
	_, err = Enforce(ctx, rdb, userID, ScopeDeckCreate, 30*time.Second, "slow down")
	assert.NoError(t, err)
}

func TestEnforce_ReleaseDropsLock(t *testing.T) {
	ctx := context.Background()
	_, rdb := newRedis(t)
	userID := uuid.New()

	release, err := Enforce(ctx, rdb, userID, ScopeLike, time.Minute, "slow down")
	require.NoError(t, err)
	release()

	_, err = Enforce(ctx, rdb, userID, ScopeLike, time.Minute, "slow down")
	assert.NoError(t, err)
}

func TestEnforce_NilClientAlwaysAllows(t *testing.T) {
	userID := uuid.New()
	for i := 0; i < 3; i++ {
		release, err := Enforce(context.Background(), nil, userID, ScopeLike, time.Minute, "slow down")
		require.NoError(t, err)
		release()
	}
}
