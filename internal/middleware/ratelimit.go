package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"mailcapture/backend/internal/storage"
)

// RateLimitByIP 按来源 IP 的固定窗口限流中间件。
// 计数器存放在 RateLimitRepository 里（内存或 Redis），
// 多副本部署时用 Redis 实现即可共享计数。
// 存储故障时放行（fail-open），限流不应成为可用性瓶颈。
func RateLimitByIP(repo storage.RateLimitRepository, log *zap.Logger, limit int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:ip:%s", c.ClientIP())

		count, err := repo.IncrementRateLimit(key, window)
		if err != nil {
			log.Warn("rate limit counter unavailable, allowing request",
				zap.String("ip", c.ClientIP()),
				zap.Error(err),
			)
			c.Next()
			return
		}

		remaining := limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > limit {
			log.Warn("rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.Int64("count", count),
				zap.Int64("limit", limit),
			)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GlobalRateLimit 进程级令牌桶限流，保护上游后端不被单实例打爆。
func GlobalRateLimit(rps float64, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
