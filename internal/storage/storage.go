package storage

import (
	"time"

	"mailcapture/backend/internal/domain"
)

// SubmissionRepository 投递审计记录的存取接口。
type SubmissionRepository interface {
	// SaveSubmission 保存一条投递记录
	SaveSubmission(submission *domain.Submission) error
	// GetSubmission 按 ID 获取投递记录
	GetSubmission(id string) (*domain.Submission, error)
	// ListSubmissions 按创建时间倒序分页返回投递记录及总数
	ListSubmissions(limit, offset int) ([]domain.Submission, int, error)
	// DeleteSubmissionsBefore 删除给定时刻之前的记录，返回删除数量
	DeleteSubmissionsBefore(cutoff time.Time) (int, error)
}

// RateLimitRepository 计数式限流的存取接口（固定窗口计数器）。
type RateLimitRepository interface {
	// IncrementRateLimit 自增计数器并返回自增后的值；
	// 键不存在时创建并设置窗口长度的过期时间
	IncrementRateLimit(key string, window time.Duration) (int64, error)
	// GetRateLimit 返回计数器当前值，键不存在时返回 0
	GetRateLimit(key string) (int64, error)
}

// Store 聚合存储接口。
type Store interface {
	SubmissionRepository

	// Health 检查存储健康状态
	Health() error
	// Close 释放底层资源
	Close() error
}
