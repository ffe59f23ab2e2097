package health

import (
	"context"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"mailcapture/backend/internal/storage"
)

// HealthChecker 健康检查器。
// 存活检查（/live）只看进程自身状态；就绪检查（/ready）确认
// 存储和可选的 Redis 依赖可用。
type HealthChecker struct {
	health healthcheck.Handler
	logger *zap.Logger
}

// NewHealthChecker 创建健康检查器。rateLimitRepo 可为 nil（内存限流时）。
func NewHealthChecker(store storage.Store, rateLimitRepo storage.RateLimitRepository, logger *zap.Logger) *HealthChecker {
	hc := &HealthChecker{
		health: healthcheck.NewHandler(),
		logger: logger,
	}

	// 存活检查：goroutine 数量异常说明有泄漏
	hc.health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(500))

	// 就绪检查：存储可用（带超时，防止探针被挂起的连接拖死）
	hc.health.AddReadinessCheck("storage", StoreHealthCheck(store, 5*time.Second))

	// 就绪检查：限流计数器可用（仅 Redis 实现需要）
	if rateLimitRepo != nil {
		hc.health.AddReadinessCheck("ratelimit-counter", func() error {
			_, err := rateLimitRepo.GetRateLimit("health_check")
			return err
		})
	}

	return hc
}

// LiveEndpoint 存活检查处理函数
func (hc *HealthChecker) LiveEndpoint() http.HandlerFunc {
	return hc.health.LiveEndpoint
}

// ReadyEndpoint 就绪检查处理函数
func (hc *HealthChecker) ReadyEndpoint() http.HandlerFunc {
	return hc.health.ReadyEndpoint
}

// StoreHealthCheck 带超时的存储健康检查
func StoreHealthCheck(store storage.Store, timeout time.Duration) healthcheck.Check {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- store.Health()
		}()

		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
