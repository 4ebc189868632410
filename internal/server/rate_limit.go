package server

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/settlement/internal/observability/logger"
	"go.uber.org/zap"
)

// GenerationRateLimit throttles manual generation per store. Requests without
// a readable store id pass through and fail validation in the handler.
func (s *Server) GenerationRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil || !s.limiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		storeID, err := readGenerationStoreID(c)
		if err != nil {
			logger.FromContext(ctx).Warn("generation rate limit read body failed", zap.Error(err))
			AbortWithError(c, invalidRequestError())
			return
		}
		if storeID <= 0 {
			c.Next()
			return
		}

		result, err := s.limiter.AllowStore(ctx, storeID)
		if err != nil {
			logger.FromContext(ctx).Warn("generation rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !result.Allowed {
			endpoint := normalizeRateLimitEndpoint(c)
			logger.FromContext(ctx).Warn("generation rate limit exceeded",
				zap.Int64("store_id", storeID),
				zap.String("endpoint", endpoint),
			)
			s.obsMetrics.RecordRateLimited(ctx, endpoint)

			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			AbortWithError(c, ErrRateLimited)
			return
		}

		c.Next()
	}
}

func readGenerationStoreID(c *gin.Context) (int64, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return 0, err
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	if len(body) == 0 {
		return 0, nil
	}

	var payload generateSettlementRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, nil
	}
	return payload.StoreID, nil
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
