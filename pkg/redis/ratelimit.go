package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindow admits a request when fewer than limit entries fall inside the window
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)

	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1}
	else
		return {0, 0}
	end
`)

// RateLimiter implements sliding window rate limiting using Redis
// ⭐ SSOT: 레이트 리밋은 여기서만
//
// Shared across processes: every evlq instance fetching the same source
// draws from one window.
type RateLimiter struct {
	client *Client
	prefix string
	now    func() time.Time
}

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	Key    string        // source_id
	Limit  int           // Maximum requests allowed
	Window time.Duration // Time window
}

// SourceRateLimit is the per-second window of one source
func SourceRateLimit(sourceID string, perSecond int) RateLimitConfig {
	return RateLimitConfig{
		Key:    sourceID,
		Limit:  perSecond,
		Window: time.Second,
	}
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// Enabled reports whether the limiter is backed by Redis
func (r *RateLimiter) Enabled() bool {
	return r != nil && r.client.Enabled()
}

// Allow checks if a request is allowed under the rate limit
// Returns (allowed, remaining, error)
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	if !r.Enabled() || cfg.Limit <= 0 {
		return true, cfg.Limit, nil
	}

	key := fmt.Sprintf("%s:ratelimit:%s", r.prefix, cfg.Key)
	now := r.now()
	nowMS := now.UnixMilli()
	windowStart := nowMS - cfg.Window.Milliseconds()
	// 같은 ms 안의 요청도 구분되도록 나노초를 멤버로 사용
	member := now.UnixNano()

	result, err := slidingWindow.Run(ctx, r.client.Redis(), []string{key},
		nowMS,
		windowStart,
		cfg.Limit,
		cfg.Window.Milliseconds(),
		member,
	).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}
	if len(result) != 2 {
		return false, 0, fmt.Errorf("rate limit script returned %d values", len(result))
	}

	allowed, _ := result[0].(int64)
	remaining, _ := result[1].(int64)

	return allowed == 1, int(remaining), nil
}

// Wait blocks until a request is allowed or context is cancelled
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		allowed, _, err := r.Allow(ctx, cfg)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}
