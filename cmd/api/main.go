package main

// @title MailCapture Backend API
// @version 1.0.0
// @description 邮箱采集网关 API 文档
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mailcapture/backend/internal/config"
	"mailcapture/backend/internal/health"
	"mailcapture/backend/internal/logger"
	"mailcapture/backend/internal/monitoring"
	"mailcapture/backend/internal/ratelimit"
	"mailcapture/backend/internal/service"
	"mailcapture/backend/internal/storage"
	"mailcapture/backend/internal/storage/memory"
	"mailcapture/backend/internal/storage/redis"
	sqlstore "mailcapture/backend/internal/storage/sql"
	httptransport "mailcapture/backend/internal/transport/http"
	"mailcapture/backend/internal/upstream"
)

// main 是采集网关 HTTP 服务的程序入口。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 设置 Gin 模式（基于开发环境标志）
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 初始化日志系统
	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		LogFile:     cfg.Log.LogFile,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()
	log.Info("starting mailcapture API server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
		zap.String("upstream", cfg.Upstream.Endpoint),
	)

	// 初始化存储层
	var store storage.Store
	if cfg.Database.Type != "" {
		sqlStore, err := sqlstore.NewStore(
			cfg.Database.Type,
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
		)
		if err != nil {
			log.Fatal("failed to initialize database storage", zap.Error(err))
		}
		store = sqlStore
		log.Info("using database storage", zap.String("type", cfg.Database.Type))
	} else {
		store = memory.NewStore()
		log.Info("using memory storage")
	}
	defer store.Close()

	// 初始化限流计数器（多副本部署用 Redis 共享计数）
	var rateLimitRepo storage.RateLimitRepository
	var redisClient *redis.Client
	if cfg.RateLimit.Store == "redis" {
		redisClient, err = redis.New(&cfg.Redis, log)
		if err != nil {
			log.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		rateLimitRepo = redisClient
	} else if memStore, ok := store.(*memory.Store); ok {
		rateLimitRepo = memStore
	} else {
		rateLimitRepo = memory.NewStore()
	}

	// 初始化监控指标与健康检查
	metrics := monitoring.NewMetrics()
	var redisRepo storage.RateLimitRepository
	if redisClient != nil {
		redisRepo = redisClient
	}
	healthChecker := health.NewHealthChecker(store, redisRepo, log)

	// 初始化提交管线
	cooldown := ratelimit.NewCooldown(cfg.Capture.CooldownWindow)
	upstreamClient := upstream.New(cfg.Upstream.Endpoint, cfg.Upstream.Timeout, log)
	subscriptionService := service.NewSubscriptionService(cooldown, upstreamClient, store, metrics, log)

	// 创建 HTTP 路由
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:              cfg,
		SubscriptionService: subscriptionService,
		RateLimitRepo:       rateLimitRepo,
		Metrics:             metrics,
		HealthChecker:       healthChecker,
		Logger:              log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// HTTP 服务器
	g.Go(func() error {
		log.Info("API server listening", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// 审计记录保留清理任务
	if cfg.Capture.Retention > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()

			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					cutoff := time.Now().Add(-cfg.Capture.Retention)
					deleted, err := store.DeleteSubmissionsBefore(cutoff)
					if err != nil {
						log.Error("failed to prune submission records", zap.Error(err))
						continue
					}
					if deleted > 0 {
						log.Info("pruned expired submission records",
							zap.Int("deleted", deleted),
							zap.Time("cutoff", cutoff),
						)
					}
				}
			}
		})
	}

	// 优雅关闭
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", zap.Error(err))
		return
	}
	log.Info("server stopped cleanly")
}
