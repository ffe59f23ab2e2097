package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host string // 监听地址，默认 "0.0.0.0"
	Port int    // 监听端口，默认 8080
}

// UpstreamConfig 定义上游订阅后端的投递配置
type UpstreamConfig struct {
	Endpoint string        // 上游提交端点 URL（必填）
	Timeout  time.Duration // 请求超时，0 表示不限制（默认 0，与原始行为一致）
}

// CaptureConfig 定义采集管线的业务配置
type CaptureConfig struct {
	CooldownWindow time.Duration // 两次提交间的冷却时间，默认 2s
	Retention      time.Duration // 投递审计记录的保留时长，默认 720h
}

// RateLimitConfig 定义按 IP 限流配置（冷却窗口之外的补充限制）
type RateLimitConfig struct {
	Store       string        // 计数器存储: "memory" 或 "redis"
	PerIPLimit  int64         // 窗口内单 IP 最大提交次数
	PerIPWindow time.Duration // 计数窗口长度
	GlobalRPS   float64       // 全局每秒请求数上限
	GlobalBurst int           // 全局突发容量
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 启用彩色输出和详细堆栈信息
	LogFile     string // 日志文件路径，留空表示仅输出到 stdout
}

// DatabaseConfig 定义数据库连接配置（支持 MySQL 和 PostgreSQL）
type DatabaseConfig struct {
	Type            string        // 数据库类型: "mysql" 或 "postgres"，留空使用内存存储
	DSN             string        // 数据库连接字符串
	MaxOpenConns    int           // 最大打开连接数，默认 25
	MaxIdleConns    int           // 最大空闲连接数，默认 5
	ConnMaxLifetime time.Duration // 连接最大生命周期，默认 5 分钟
}

// RedisConfig 定义 Redis 服务配置
type RedisConfig struct {
	Address  string // Redis 服务地址，格式 "host:port"，默认 "localhost:6379"
	Password string // Redis 认证密码，留空表示无密码
	DB       int    // Redis 数据库编号，默认 0
}

// Config 是系统核心配置的根结构体，包含所有子系统的配置
type Config struct {
	Server    ServerConfig    // HTTP 服务器配置
	Upstream  UpstreamConfig  // 上游投递配置
	Capture   CaptureConfig   // 采集管线配置
	RateLimit RateLimitConfig // 限流配置
	CORS      CORSConfig      // 跨域配置
	Log       LogConfig       // 日志配置
	Database  DatabaseConfig  // 数据库配置
	Redis     RedisConfig     // Redis 配置
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量（最高优先级）
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量前缀: MAILCAPTURE_
// 例如: MAILCAPTURE_SERVER_PORT, MAILCAPTURE_UPSTREAM_ENDPOINT
func Load() (*Config, error) {
	// 尝试加载 .env 文件（静默失败，.env 是可选的）
	loadEnvFile()

	viper.SetEnvPrefix("mailcapture")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("upstream.endpoint", "")
	viper.SetDefault("upstream.timeout", "0")
	viper.SetDefault("capture.cooldown_window", "2s")
	viper.SetDefault("capture.retention", "720h")
	viper.SetDefault("ratelimit.store", "memory")
	viper.SetDefault("ratelimit.per_ip_limit", 30)
	viper.SetDefault("ratelimit.per_ip_window", "1m")
	viper.SetDefault("ratelimit.global_rps", 100)
	viper.SetDefault("ratelimit.global_burst", 200)
	viper.SetDefault("cors.allowed_origins", "*")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("log.log_file", "")
	viper.SetDefault("database.type", "") // 默认为空，使用内存存储
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "5m")
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	endpoint := viper.GetString("upstream.endpoint")
	if endpoint == "" {
		return nil, fmt.Errorf("upstream.endpoint is required: set MAILCAPTURE_UPSTREAM_ENDPOINT")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid upstream.endpoint: %w", err)
	}

	upstreamTimeout, err := time.ParseDuration(viper.GetString("upstream.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid upstream.timeout: %w", err)
	}

	cooldown, err := time.ParseDuration(viper.GetString("capture.cooldown_window"))
	if err != nil {
		return nil, fmt.Errorf("invalid capture.cooldown_window: %w", err)
	}

	retention, err := time.ParseDuration(viper.GetString("capture.retention"))
	if err != nil {
		return nil, fmt.Errorf("invalid capture.retention: %w", err)
	}

	rateLimitStore := viper.GetString("ratelimit.store")
	if rateLimitStore != "memory" && rateLimitStore != "redis" {
		return nil, fmt.Errorf("invalid ratelimit.store: %q (supported: memory, redis)", rateLimitStore)
	}

	perIPWindow, err := time.ParseDuration(viper.GetString("ratelimit.per_ip_window"))
	if err != nil {
		return nil, fmt.Errorf("invalid ratelimit.per_ip_window: %w", err)
	}

	corsOrigins := parseList(viper.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	connMaxLifetime, err := time.ParseDuration(viper.GetString("database.conn_max_lifetime"))
	if err != nil {
		return nil, fmt.Errorf("invalid database.conn_max_lifetime: %w", err)
	}

	dbType := viper.GetString("database.type")
	if dbType != "" && dbType != "mysql" && dbType != "postgres" {
		return nil, fmt.Errorf("invalid database.type: %q (supported: mysql, postgres)", dbType)
	}
	if dbType != "" && viper.GetString("database.dsn") == "" {
		return nil, fmt.Errorf("database.dsn is required when database.type is set")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		Upstream: UpstreamConfig{
			Endpoint: endpoint,
			Timeout:  upstreamTimeout,
		},
		Capture: CaptureConfig{
			CooldownWindow: cooldown,
			Retention:      retention,
		},
		RateLimit: RateLimitConfig{
			Store:       rateLimitStore,
			PerIPLimit:  viper.GetInt64("ratelimit.per_ip_limit"),
			PerIPWindow: perIPWindow,
			GlobalRPS:   viper.GetFloat64("ratelimit.global_rps"),
			GlobalBurst: viper.GetInt("ratelimit.global_burst"),
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       viper.GetString("log.level"),
			Development: viper.GetBool("log.development"),
			LogFile:     viper.GetString("log.log_file"),
		},
		Database: DatabaseConfig{
			Type:            dbType,
			DSN:             viper.GetString("database.dsn"),
			MaxOpenConns:    viper.GetInt("database.max_open_conns"),
			MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
	}

	return cfg, nil
}

// parseList 将逗号分隔的字符串解析为字符串切片。
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件
//
// 加载顺序：
//  1. 当前目录的 .env
//  2. 父目录的 .env（从 backend/ 子目录运行时）
//
// 文件不存在时静默失败；已存在的环境变量不会被覆盖。
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
