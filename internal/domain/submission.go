package domain

import (
	"time"
)

// SubmissionOutcome 记录一次已发起投递的最终结果。
type SubmissionOutcome string

const (
	// OutcomeAccepted 上游确认接收
	OutcomeAccepted SubmissionOutcome = "accepted"
	// OutcomeRejected 上游返回业务失败（success=false）
	OutcomeRejected SubmissionOutcome = "rejected"
	// OutcomeFailed 传输错误或非 2xx 状态
	OutcomeFailed SubmissionOutcome = "failed"
)

// Submission 表示一次已发起的投递尝试的审计记录。
// 只有真正向上游发出请求的提交才会产生记录；
// 被本地校验或冷却窗口拦下的提交不落库，只进指标。
type Submission struct {
	ID        string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email     string            `json:"email" gorm:"type:varchar(255);index"` // 净化后的地址
	IPSource  string            `json:"-" gorm:"column:ip_source;type:varchar(45)"`
	Outcome   SubmissionOutcome `json:"outcome" gorm:"type:varchar(16);index"`
	Message   string            `json:"message" gorm:"type:varchar(512)"`
	CreatedAt time.Time         `json:"createdAt" gorm:"index"`
}

// 提交流程的用户可见消息。与验证消息一样属于对外契约。
const (
	MsgEmailRequired  = "Please enter your email address."
	MsgSubmitSuccess  = "Submitted!"
	MsgSubmitFailed   = "Something went wrong. Please try again."
	MsgSubmitCooldown = "Please wait a moment before trying again."
)

// FeedbackKind 反馈消息的种类。
type FeedbackKind string

const (
	FeedbackSuccess FeedbackKind = "success"
	FeedbackError   FeedbackKind = "error"
)

// Feedback 返回给调用方的反馈消息。
// 渲染层负责在输出前对 Message 做标记中和（纵深防御）。
type Feedback struct {
	Message string       `json:"message"`
	Kind    FeedbackKind `json:"kind"`
}

// ErrorFeedback 构造错误反馈。
func ErrorFeedback(message string) *Feedback {
	return &Feedback{Message: message, Kind: FeedbackError}
}

// SuccessFeedback 构造成功反馈。
func SuccessFeedback(message string) *Feedback {
	return &Feedback{Message: message, Kind: FeedbackSuccess}
}
