package httptransport

import (
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailcapture/backend/internal/config"
	"mailcapture/backend/internal/health"
	"mailcapture/backend/internal/middleware"
	"mailcapture/backend/internal/monitoring"
	"mailcapture/backend/internal/service"
	"mailcapture/backend/internal/storage"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config              *config.Config
	SubscriptionService *service.SubscriptionService
	RateLimitRepo       storage.RateLimitRepository // 按 IP 限流计数器，可为 nil（禁用）
	Metrics             *monitoring.Metrics         // 可为 nil（测试场景）
	HealthChecker       *health.HealthChecker       // 可为 nil（测试场景）
	Logger              *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	// 使用自定义中间件替代默认中间件
	router.Use(middleware.RecoveryHandler(deps.Logger, deps.Metrics))
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.BodySizeLimit(middleware.DefaultBodyLimit))

	if deps.Metrics != nil {
		mm := middleware.NewMonitoringMiddleware(deps.Metrics, deps.Logger)
		router.Use(mm.HTTPMetrics())
		router.Use(mm.RateLimitMetrics())
	}

	// 进程级令牌桶，保护上游后端
	if deps.Config.RateLimit.GlobalRPS > 0 {
		router.Use(middleware.GlobalRateLimit(
			deps.Config.RateLimit.GlobalRPS,
			deps.Config.RateLimit.GlobalBurst,
		))
	}

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 如果允许所有来源，则需清空凭证支持。
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	// 创建处理器
	subscriptionHandler := NewSubscriptionHandler(deps.SubscriptionService, deps.Logger)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.HealthChecker != nil {
		router.GET("/live", gin.WrapF(deps.HealthChecker.LiveEndpoint()))
		router.GET("/ready", gin.WrapF(deps.HealthChecker.ReadyEndpoint()))
	}

	// Prometheus 指标
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}

	// V1 API
	v1 := router.Group("/v1")
	{
		subscriptions := v1.Group("/subscriptions")
		if deps.RateLimitRepo != nil {
			subscriptions.Use(middleware.RateLimitByIP(
				deps.RateLimitRepo,
				deps.Logger,
				deps.Config.RateLimit.PerIPLimit,
				deps.Config.RateLimit.PerIPWindow,
			))
		}
		{
			subscriptions.POST("", subscriptionHandler.Submit)
			subscriptions.POST("/validate", subscriptionHandler.Validate)
		}

		public := v1.Group("/public")
		{
			public.GET("/config", subscriptionHandler.GetPublicConfig)
		}
	}

	return router
}
