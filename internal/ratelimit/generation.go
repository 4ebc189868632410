package ratelimit

import (
	"context"
	"errors"
	"strconv"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/settlement/internal/config"
)

const generationKeyPrefix = "settlement:generate:rate"

// GenerationLimiter throttles manual settlement generation per store. A nil
// or disabled limiter allows everything.
type GenerationLimiter struct {
	bucket *TokenBucket
}

func NewGenerationLimiter(cfg config.Config, client *redis.Client) (*GenerationLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	if client == nil {
		return nil, errors.New("rate limit requires REDIS_ADDR")
	}
	bucket, err := NewTokenBucket(client, generationKeyPrefix, limitCfg.GenerationRate, limitCfg.GenerationBurst)
	if err != nil {
		return nil, err
	}
	return &GenerationLimiter{bucket: bucket}, nil
}

func (l *GenerationLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *GenerationLimiter) AllowStore(ctx context.Context, storeID int64) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Take(ctx, strconv.FormatInt(storeID, 10))
}
