package ratelimit

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// takeScript refills against redis TIME so every replica shares one clock.
// Tokens come back as a string; redis truncates Lua numbers to integers.
const takeScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local t = redis.call("TIME")
local now = (t[1] * 1000) + math.floor(t[2] / 1000)

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1]) or burst
local last = tonumber(state[2]) or now

local elapsed = math.max(0, now - last)
tokens = math.min(burst, tokens + (elapsed / 1000) * rate)

local allowed = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
end

redis.call("HSET", KEYS[1], "tokens", tokens, "ts", now)
redis.call("PEXPIRE", KEYS[1], ttl)

return {allowed, tostring(tokens), now}
`

var (
	errBucketNotConfigured = errors.New("rate limiter not configured")
	errBucketPolicy        = errors.New("rate limiter rate and burst must be positive")
)

// TokenBucket holds one refill policy and hands out tokens per subject key
// under a shared prefix.
type TokenBucket struct {
	client *redis.Client
	script *redis.Script
	prefix string
	rate   float64
	burst  int
	ttl    time.Duration
}

type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

func NewTokenBucket(client *redis.Client, prefix string, rate float64, burst int) (*TokenBucket, error) {
	if client == nil {
		return nil, errBucketNotConfigured
	}
	if rate <= 0 || burst <= 0 {
		return nil, errBucketPolicy
	}
	return &TokenBucket{
		client: client,
		script: redis.NewScript(takeScript),
		prefix: strings.TrimSuffix(prefix, ":"),
		rate:   rate,
		burst:  burst,
		ttl:    bucketTTL(rate, burst),
	}, nil
}

// Take consumes one token from the bucket for subject.
func (b *TokenBucket) Take(ctx context.Context, subject string) (*RateLimitResult, error) {
	if b == nil || b.client == nil {
		return &RateLimitResult{}, errBucketNotConfigured
	}
	if subject == "" {
		return &RateLimitResult{}, errors.New("rate limiter subject is empty")
	}

	res, err := b.script.Run(ctx, b.client, []string{b.key(subject)},
		b.rate, b.burst, b.ttl.Milliseconds(),
	).Slice()
	if err != nil {
		return &RateLimitResult{}, err
	}
	if len(res) < 3 {
		return &RateLimitResult{}, errors.New("invalid rate limit script response")
	}
	return b.result(toInt64(res[0]) == 1, toFloat64(res[1]), toInt64(res[2])), nil
}

func (b *TokenBucket) key(subject string) string {
	if b.prefix == "" {
		return subject
	}
	return b.prefix + ":" + subject
}

func (b *TokenBucket) result(allowed bool, remaining float64, nowMillis int64) *RateLimitResult {
	var retryAfter time.Duration
	if !allowed {
		retryAfter = refillWait(remaining, b.rate)
	}
	return &RateLimitResult{
		Allowed:    allowed,
		Limit:      b.burst,
		Remaining:  int(math.Floor(remaining)),
		ResetTime:  time.UnixMilli(nowMillis).Add(retryAfter),
		RetryAfter: retryAfter,
	}
}

// refillWait is how long until one whole token is available again.
func refillWait(remaining, rate float64) time.Duration {
	needed := 1 - remaining
	if needed <= 0 || rate <= 0 {
		return 0
	}
	return time.Duration(needed / rate * float64(time.Second))
}

// bucketTTL keeps idle buckets around for twice the time a full refill takes.
func bucketTTL(rate float64, burst int) time.Duration {
	if rate <= 0 || burst <= 0 {
		return time.Second
	}
	seconds := math.Ceil(float64(burst) / rate * 2)
	return time.Duration(math.Max(seconds, 1)) * time.Second
}

func toInt64(v interface{}) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case int:
		return int64(val)
	case float64:
		return int64(val)
	case string:
		n, _ := strconv.ParseInt(val, 10, 64)
		return n
	default:
		return 0
	}
}

func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int64:
		return float64(val)
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
