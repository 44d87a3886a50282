package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	floodPrefix = "flood:"
)

// RateLimiter counts inbound updates per chat in fixed one-minute windows
type RateLimiter struct {
	client            *Client
	requestsPerMinute int
	burst             int
	now               func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, requestsPerMinute, burst int) *RateLimiter {
	return &RateLimiter{
		client:            client,
		requestsPerMinute: requestsPerMinute,
		burst:             burst,
		now:               time.Now,
	}
}

func floodKey(chatID int64, window time.Time) string {
	return fmt.Sprintf("%s%d:%d", floodPrefix, chatID, window.Unix())
}

// Allow records one update for the chat and reports whether it fits the limit.
// A non-positive limit disables the check.
func (r *RateLimiter) Allow(ctx context.Context, chatID int64) (bool, error) {
	if r.requestsPerMinute <= 0 {
		return true, nil
	}

	window := r.now().Truncate(time.Minute)
	key := floodKey(chatID, window)

	pipe := r.client.rdb.Pipeline()

	// Increment counter
	incrCmd := pipe.Incr(ctx, key)

	// Set expiry if key is new
	pipe.ExpireNX(ctx, key, 2*time.Minute)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("failed to execute rate limit check: %w", err)
	}

	limit := int64(r.requestsPerMinute + r.burst)
	return incrCmd.Val() <= limit, nil
}

// Reset clears the chat's counter for the current window
func (r *RateLimiter) Reset(ctx context.Context, chatID int64) error {
	key := floodKey(chatID, r.now().Truncate(time.Minute))
	return r.client.rdb.Del(ctx, key).Err()
}
