package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mailcapture/backend/internal/domain"
	"mailcapture/backend/internal/monitoring"
	"mailcapture/backend/internal/ratelimit"
	"mailcapture/backend/internal/sanitize"
	"mailcapture/backend/internal/storage"
	"mailcapture/backend/internal/upstream"
)

// 业务错误定义
var (
	// ErrEmailRequired 提交内容为空
	ErrEmailRequired = errors.New("email is required")
	// ErrEmailInvalid 邮箱未通过验证
	ErrEmailInvalid = errors.New("email failed validation")
	// ErrCooldownActive 距上次提交不足一个冷却窗口
	ErrCooldownActive = errors.New("submission cooldown active")
	// ErrUpstreamFailed 上游投递失败（传输错误或非 2xx 状态）
	ErrUpstreamFailed = errors.New("upstream delivery failed")
	// ErrUpstreamRejected 上游业务拒绝（success=false）
	ErrUpstreamRejected = errors.New("upstream rejected submission")
)

// UpstreamClient 上游投递客户端接口。
type UpstreamClient interface {
	Deliver(ctx context.Context, email string) (*upstream.Result, error)
}

// SubmitInput 一次提交请求的输入。
type SubmitInput struct {
	Email string // 原始用户输入，未净化
	IP    string // 来源地址，仅用于审计记录
}

// SubscriptionService 邮箱采集服务，串联完整的提交管线：
// 冷却检查 → 空值检查 → 净化 → 验证 → 上游投递 → 结果解释。
type SubscriptionService struct {
	sanitizer *sanitize.Sanitizer
	validator *domain.EmailValidator
	cooldown  *ratelimit.Cooldown
	upstream  UpstreamClient
	store     storage.SubmissionRepository
	metrics   *monitoring.Metrics
	log       *zap.Logger
}

// NewSubscriptionService 创建采集服务。metrics 可为 nil（测试场景）。
func NewSubscriptionService(
	cooldown *ratelimit.Cooldown,
	upstreamClient UpstreamClient,
	store storage.SubmissionRepository,
	metrics *monitoring.Metrics,
	log *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		sanitizer: sanitize.New(),
		validator: domain.NewEmailValidator(),
		cooldown:  cooldown,
		upstream:  upstreamClient,
		store:     store,
		metrics:   metrics,
		log:       log,
	}
}

// Submit 执行一次完整的提交。
//
// 返回的 Feedback 永远可以直接展示给用户；error 是给传输层
// 选择状态码用的哨兵，二者同时返回。流程顺序是契约的一部分：
// 冷却拒绝发生在一切处理之前，冷却时间戳在投递发起的瞬间更新
// （投递成败不影响记录），被拒绝的尝试不推进窗口。
func (s *SubscriptionService) Submit(ctx context.Context, input SubmitInput) (*domain.Feedback, error) {
	if !s.cooldown.Allow() {
		s.metrics.RecordCooldownRejection()
		return domain.ErrorFeedback(domain.MsgSubmitCooldown), ErrCooldownActive
	}

	if strings.TrimSpace(input.Email) == "" {
		s.metrics.RecordValidationFailure("empty")
		return domain.ErrorFeedback(domain.MsgEmailRequired), ErrEmailRequired
	}

	email := s.sanitizer.Sanitize(input.Email)

	if result := s.validator.Validate(email); !result.Valid {
		s.metrics.RecordValidationFailure("format")
		return domain.ErrorFeedback(result.Message), ErrEmailInvalid
	}

	// 投递在此刻已确定发出：发起请求前先推进冷却窗口，
	// 让在途请求期间的并发提交同样被窗口拦住，结果如何不影响记录
	s.cooldown.Record()

	start := time.Now()
	result, err := s.upstream.Deliver(ctx, email)
	s.metrics.RecordUpstreamDelivery(time.Since(start))

	if err != nil {
		kind := "transport"
		if errors.Is(err, upstream.ErrUnexpectedStatus) {
			kind = "status"
		}
		s.metrics.RecordUpstreamFailure(kind)
		s.metrics.RecordSubmission(string(domain.OutcomeFailed))
		s.audit(email, input.IP, domain.OutcomeFailed, domain.MsgSubmitFailed)
		s.log.Warn("submission delivery failed",
			zap.String("ip", input.IP),
			zap.Error(err),
		)
		return domain.ErrorFeedback(domain.MsgSubmitFailed), ErrUpstreamFailed
	}

	if !result.Success {
		message := result.Message
		if message == "" {
			message = domain.MsgSubmitFailed
		}
		s.metrics.RecordUpstreamFailure("rejected")
		s.metrics.RecordSubmission(string(domain.OutcomeRejected))
		s.audit(email, input.IP, domain.OutcomeRejected, message)
		return domain.ErrorFeedback(message), ErrUpstreamRejected
	}

	message := result.Message
	if message == "" {
		message = domain.MsgSubmitSuccess
	}
	s.metrics.RecordSubmission(string(domain.OutcomeAccepted))
	s.audit(email, input.IP, domain.OutcomeAccepted, message)
	s.log.Info("submission accepted", zap.String("ip", input.IP))
	return domain.SuccessFeedback(message), nil
}

// Validate 独立的实时验证（失焦校验场景），不触发投递也不消耗冷却窗口。
func (s *SubscriptionService) Validate(email string) domain.ValidationResult {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return domain.ValidationResult{Valid: false, Message: domain.MsgEmailRequired}
	}
	return s.validator.Validate(s.sanitizer.Sanitize(trimmed))
}

// CooldownWindow 返回当前冷却窗口长度（供对外配置端点使用）。
func (s *SubscriptionService) CooldownWindow() time.Duration {
	return s.cooldown.Window()
}

// audit 落一条投递审计记录。审计失败只记日志，不影响用户反馈。
func (s *SubscriptionService) audit(email, ip string, outcome domain.SubmissionOutcome, message string) {
	if s.store == nil {
		return
	}

	submission := &domain.Submission{
		ID:        uuid.New().String(),
		Email:     email,
		IPSource:  ip,
		Outcome:   outcome,
		Message:   message,
		CreatedAt: time.Now(),
	}

	if err := s.store.SaveSubmission(submission); err != nil {
		s.log.Error("failed to save submission audit record",
			zap.String("outcome", string(outcome)),
			zap.Error(err),
		)
	}
}
