package memory

import (
	"errors"
	"sort"
	"sync"
	"time"

	"mailcapture/backend/internal/domain"
)

var (
	// ErrSubmissionNotFound 投递记录不存在
	ErrSubmissionNotFound = errors.New("submission not found")
)

// Store 使用内存保存投递审计记录与限流计数器，主要用于开发和测试。
type Store struct {
	mu          sync.RWMutex
	submissions map[string]*domain.Submission

	// 速率限制相关
	rateLimits        map[string]*rateLimitEntry
	rateLimitsCleanup time.Time // 下次清理过期计数器的时间
}

// rateLimitEntry 速率限制条目
type rateLimitEntry struct {
	Count     int64
	ExpiresAt time.Time
}

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		submissions:       make(map[string]*domain.Submission),
		rateLimits:        make(map[string]*rateLimitEntry),
		rateLimitsCleanup: time.Now().Add(time.Minute),
	}
}

// SaveSubmission 保存一条投递记录。
func (s *Store) SaveSubmission(submission *domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *submission
	s.submissions[submission.ID] = &clone
	return nil
}

// GetSubmission 按 ID 获取投递记录。
func (s *Store) GetSubmission(id string) (*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	submission, ok := s.submissions[id]
	if !ok {
		return nil, ErrSubmissionNotFound
	}
	clone := *submission
	return &clone, nil
}

// ListSubmissions 按创建时间倒序分页返回投递记录。
func (s *Store) ListSubmissions(limit, offset int) ([]domain.Submission, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.Submission, 0, len(s.submissions))
	for _, submission := range s.submissions {
		all = append(all, *submission)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	if offset >= total {
		return []domain.Submission{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return all[offset:end], total, nil
}

// DeleteSubmissionsBefore 删除给定时刻之前的记录。
func (s *Store) DeleteSubmissionsBefore(cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, submission := range s.submissions {
		if submission.CreatedAt.Before(cutoff) {
			delete(s.submissions, id)
			deleted++
		}
	}
	return deleted, nil
}

// IncrementRateLimit 自增固定窗口计数器并返回自增后的值。
func (s *Store) IncrementRateLimit(key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.cleanupRateLimitsLocked(now)

	entry, ok := s.rateLimits[key]
	if !ok || now.After(entry.ExpiresAt) {
		s.rateLimits[key] = &rateLimitEntry{
			Count:     1,
			ExpiresAt: now.Add(window),
		}
		return 1, nil
	}

	entry.Count++
	return entry.Count, nil
}

// GetRateLimit 返回计数器当前值，不存在或已过期时返回 0。
func (s *Store) GetRateLimit(key string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.rateLimits[key]
	if !ok || time.Now().After(entry.ExpiresAt) {
		return 0, nil
	}
	return entry.Count, nil
}

// cleanupRateLimitsLocked 周期性清理过期计数器，调用方需持有写锁。
func (s *Store) cleanupRateLimitsLocked(now time.Time) {
	if now.Before(s.rateLimitsCleanup) {
		return
	}
	for key, entry := range s.rateLimits {
		if now.After(entry.ExpiresAt) {
			delete(s.rateLimits, key)
		}
	}
	s.rateLimitsCleanup = now.Add(time.Minute)
}

// Health 内存存储恒为健康。
func (s *Store) Health() error {
	return nil
}

// Close 释放资源（内存存储无需操作）。
func (s *Store) Close() error {
	return nil
}
