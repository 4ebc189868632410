package ratelimit

import (
	"context"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/settlement/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledLimiterAllows(t *testing.T) {
	limiter, err := NewGenerationLimiter(config.Config{}, nil)
	require.NoError(t, err)
	assert.Nil(t, limiter)
	assert.False(t, limiter.Enabled())

	res, err := limiter.AllowStore(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestEnabledLimiterRequiresRedis(t *testing.T) {
	cfg := config.Config{RateLimit: config.RateLimitConfig{Enabled: true, GenerationRate: 1, GenerationBurst: 1}}
	_, err := NewGenerationLimiter(cfg, nil)
	assert.Error(t, err)
}

func TestEnabledLimiterRejectsNonPositivePolicy(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	cfg := config.Config{RateLimit: config.RateLimitConfig{Enabled: true, GenerationRate: 0, GenerationBurst: 1}}
	_, err := NewGenerationLimiter(cfg, client)
	assert.ErrorIs(t, err, errBucketPolicy)
}

func TestBucketKeyAndResult(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	bucket, err := NewTokenBucket(client, generationKeyPrefix+":", 0.5, 2)
	require.NoError(t, err)
	assert.Equal(t, "settlement:generate:rate:42", bucket.key("42"))

	denied := bucket.result(false, 0.25, 1_000)
	assert.False(t, denied.Allowed)
	assert.Equal(t, 2, denied.Limit)
	assert.Equal(t, 0, denied.Remaining)
	assert.Equal(t, 1500*time.Millisecond, denied.RetryAfter)
	assert.Equal(t, time.UnixMilli(2_500), denied.ResetTime)

	allowed := bucket.result(true, 1.75, 1_000)
	assert.Equal(t, 1, allowed.Remaining)
	assert.Zero(t, allowed.RetryAfter)
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 10*time.Second, bucketTTL(1, 5))
	assert.Equal(t, time.Second, bucketTTL(100, 1))
	assert.Equal(t, time.Second, bucketTTL(0, 1))
}

func TestConversionHelpers(t *testing.T) {
	assert.Equal(t, int64(1), toInt64(int64(1)))
	assert.Equal(t, int64(7), toInt64("7"))
	assert.Equal(t, int64(0), toInt64("x"))
	assert.Equal(t, 2.5, toFloat64("2.5"))
	assert.Equal(t, float64(3), toFloat64(int64(3)))
}
