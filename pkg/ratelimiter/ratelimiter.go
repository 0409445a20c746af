package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"algomancy.gg/deckhub/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	ScopeDeckCreate = "deck_create"
	ScopeLike       = "like"
	ScopeLogSubmit  = "log_submit"
)

// RateLimitError is returned when an action is locked for the caller.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func (e *RateLimitError) Unwrap() error {
	return apperror.ErrRateLimitExceeded
}

func key(userID uuid.UUID, scope string) string {
	return fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), scope)
}

// CheckAndSetRateLimit takes the lock for (user, scope) when it is free.
// A nil client always allows.
func CheckAndSetRateLimit(ctx context.Context, rdb *redis.Client, userID uuid.UUID, scope string, limit time.Duration) (bool, error) {
	if rdb == nil || limit <= 0 {
		return true, nil
	}

	wasSet, err := rdb.SetNX(ctx, key(userID, scope), "locked", limit).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}

func GetRateLimitTTL(ctx context.Context, rdb *redis.Client, userID uuid.UUID, scope string) (time.Duration, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.TTL(ctx, key(userID, scope)).Result()
}

func ClearRateLimit(ctx context.Context, rdb *redis.Client, userID uuid.UUID, scope string) error {
	if rdb == nil {
		return nil
	}
	_, err := rdb.Del(ctx, key(userID, scope)).Result()
	return err
}

// Enforce takes the lock for (user, scope). When the scope is already locked
// it returns a *RateLimitError carrying the remaining lock time. On success
// the returned release func drops the lock again; callers invoke it when the
// guarded action fails so the user can retry straight away.
func Enforce(ctx context.Context, rdb *redis.Client, userID uuid.UUID, scope string, limit time.Duration, message string) (func(), error) {
	allowed, err := CheckAndSetRateLimit(ctx, rdb, userID, scope, limit)
	if err != nil {
		return nil, err
	}
	if allowed {
		release := func() {
			_ = ClearRateLimit(context.Background(), rdb, userID, scope)
		}
		return release, nil
	}

	ttl, _ := GetRateLimitTTL(ctx, rdb, userID, scope)
	if ttl < 0 {
		ttl = limit
	}
	return nil, &RateLimitError{
		Message:    fmt.Sprintf("%s, please wait %.0f seconds", message, ttl.Seconds()),
		RetryAfter: ttl,
	}
}
